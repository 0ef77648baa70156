package provider

import (
	"context"
	"fmt"

	"video_digest/internal/model"
)

// RowSource yields the curated rows of a sheet.
type RowSource interface {
	SheetRows(ctx context.Context, sheet string) ([]model.SheetRow, error)
}

// Custom selects items directly from a curated sheet.
type Custom struct {
	rows RowSource
}

// NewCustom creates a Custom provider.
func NewCustom(rows RowSource) *Custom {
	return &Custom{rows: rows}
}

// Items returns the rows of sheet as items, in sheet order. When ids is
// not empty only rows with those ids are returned.
func (c *Custom) Items(ctx context.Context, sheet string, ids []string) ([]model.Item, error) {
	rows, err := c.rows.SheetRows(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []model.Item
	for _, r := range rows {
		if r.ItemID == "" || (len(want) > 0 && !want[r.ItemID]) {
			continue
		}
		out = append(out, model.Item{
			ID:       r.ItemID,
			Provider: model.ProviderCustom,
			Tags:     model.SplitTags(r.Tags),
			Title:    r.Title,
			URL:      r.URL,
		})
	}
	return out, nil
}
