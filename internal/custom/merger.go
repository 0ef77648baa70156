package custom

import (
	"context"
	"fmt"
	"strings"

	"video_digest/internal/model"
)

// Merger applies curated overrides and source pointers to items.
type Merger struct {
	index       *Index
	pointerBase string
}

// NewMerger creates a Merger. pointerBase is the spreadsheet edit URL used
// to build pointers; when empty pointers use A1 notation.
func NewMerger(index *Index, pointerBase string) *Merger {
	return &Merger{index: index, pointerBase: strings.TrimRight(pointerBase, "#")}
}

// Pointer renders the back-link of a data row.
func (m *Merger) Pointer(sheet model.Sheet, row int) string {
	cell := fmt.Sprintf("A%d", row+1)
	if m.pointerBase == "" {
		return sheet.Name + "!" + cell
	}
	return fmt.Sprintf("%s#gid=%s&range=%s", m.pointerBase, sheet.ID, cell)
}

// Apply returns copies of items with overrides from the custom sheet and
// pointers to the provider sheet row, falling back to the custom sheet row.
// The input slice is not modified.
func (m *Merger) Apply(ctx context.Context, items []model.Item, providers model.Providers) ([]model.Item, error) {
	customProvider, hasCustom := providers.Custom()

	out := make([]model.Item, len(items))
	for i, item := range items {
		if item.ID == "" {
			out[i] = item
			continue
		}

		var customRow *model.SheetRow
		if hasCustom {
			r, ok, err := m.index.Lookup(ctx, customProvider.Sheet.Name, item.ID)
			if err != nil {
				return nil, err
			}
			if ok {
				customRow = &r
			}
		}

		if customRow != nil && item.Provider != model.ProviderCustom {
			item.Override = &model.Override{
				Tags:    model.SplitTags(customRow.Tags),
				Title:   customRow.Title,
				URL:     customRow.URL,
				Pointer: m.Pointer(customProvider.Sheet, customRow.Row),
			}
		}

		pointer, err := m.sourcePointer(ctx, item, providers)
		if err != nil {
			return nil, err
		}
		switch {
		case pointer != "":
			item.SourcePointer = pointer
		case customRow != nil:
			item.SourcePointer = m.Pointer(customProvider.Sheet, customRow.Row)
		}
		out[i] = item
	}
	return out, nil
}

func (m *Merger) sourcePointer(ctx context.Context, item model.Item, providers model.Providers) (string, error) {
	p, ok := providers.Find(item.Provider)
	if !ok {
		return "", nil
	}
	sheet := p.SheetRef()
	if sheet.Name == "" {
		return "", nil
	}
	r, ok, err := m.index.Lookup(ctx, sheet.Name, item.ID)
	if err != nil || !ok {
		return "", err
	}
	return m.Pointer(sheet, r.Row), nil
}
