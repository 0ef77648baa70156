// Package custom overlays curated sheet metadata onto provider items and
// resolves back-links to the curated rows.
package custom

import (
	"context"
	"fmt"

	"video_digest/internal/model"
)

// RowReader loads the curated rows of a sheet.
type RowReader interface {
	SheetRows(ctx context.Context, sheet string) ([]model.SheetRow, error)
}

// Index caches sheet rows for the duration of one run. It is shared by all
// tracks and configs of the run and must not be used concurrently.
type Index struct {
	src    RowReader
	sheets map[string]*sheetIndex
}

type sheetIndex struct {
	rows []model.SheetRow
	byID map[string]model.SheetRow
}

// NewIndex creates an empty index reading from src.
func NewIndex(src RowReader) *Index {
	return &Index{src: src, sheets: make(map[string]*sheetIndex)}
}

func (x *Index) load(ctx context.Context, sheet string) (*sheetIndex, error) {
	if si, ok := x.sheets[sheet]; ok {
		return si, nil
	}
	rows, err := x.src.SheetRows(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("load sheet %s: %w", sheet, err)
	}
	si := &sheetIndex{rows: rows, byID: make(map[string]model.SheetRow, len(rows))}
	for _, r := range rows {
		if r.ItemID == "" {
			continue
		}
		if _, dup := si.byID[r.ItemID]; !dup {
			si.byID[r.ItemID] = r
		}
	}
	x.sheets[sheet] = si
	return si, nil
}

// SheetRows returns the cached rows of sheet.
func (x *Index) SheetRows(ctx context.Context, sheet string) ([]model.SheetRow, error) {
	si, err := x.load(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return si.rows, nil
}

// Lookup finds the first row of sheet with the given item id.
func (x *Index) Lookup(ctx context.Context, sheet, id string) (model.SheetRow, bool, error) {
	si, err := x.load(ctx, sheet)
	if err != nil {
		return model.SheetRow{}, false, err
	}
	r, ok := si.byID[id]
	return r, ok, nil
}

// Invalidate drops the cached rows of sheet, used after a sheet is rewritten.
func (x *Index) Invalidate(sheet string) {
	delete(x.sheets, sheet)
}
