// Package filter implements the item matching engine: tag expressions,
// collection membership and creation date filters.
package filter

import (
	"time"

	"video_digest/internal/model"
)

// Apply returns the items passing f, preserving their order.
// A nil filter passes everything. The only error is ErrInvalidExpression.
func Apply(items []model.Item, f *model.Filter) ([]model.Item, error) {
	if f == nil {
		return items, nil
	}

	var expr Expression
	if f.TagExpression != "" {
		var err error
		expr, err = Parse(f.TagExpression)
		if err != nil {
			return nil, err
		}
	}

	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if expr != nil && !expr.Match(item.EffectiveTags()) {
			continue
		}
		if len(f.PlaylistIDs) > 0 && !item.HasCollection(f.PlaylistIDs) {
			continue
		}
		if f.DateFilter != nil && !MatchDate(item.CreatedAt, f.DateFilter) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// MatchDate checks a creation timestamp against a date filter. The item
// passes if its date equals one of the dates or lies in one of the ranges.
// Ranges compare year, month and day independently: a range from
// 2021-03-15 to 2021-05-10 admits no day, since 15..10 is empty.
func MatchDate(createdAt string, df *model.DateFilter) bool {
	if len(df.Dates) == 0 && len(df.Ranges) == 0 {
		return true
	}
	t, ok := parseCreatedAt(createdAt)
	if !ok {
		return false
	}
	d := model.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}

	for _, want := range df.Dates {
		if want == d {
			return true
		}
	}
	for _, r := range df.Ranges {
		if inRange(d, r) {
			return true
		}
	}
	return false
}

func inRange(d model.Date, r model.DateRange) bool {
	if s := r.StartDate; s != nil {
		if d.Year < s.Year || d.Month < s.Month || d.Day < s.Day {
			return false
		}
	}
	if e := r.EndDate; e != nil {
		if d.Year > e.Year || d.Month > e.Month || d.Day > e.Day {
			return false
		}
	}
	return true
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseCreatedAt(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
