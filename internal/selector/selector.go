// Package selector runs the per-track pipeline: select, merge curated
// metadata, filter, sort and limit.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"

	"video_digest/internal/custom"
	"video_digest/internal/filter"
	"video_digest/internal/model"
	"video_digest/internal/progress"
	"video_digest/internal/provider"
)

// Fetcher resolves a provider query into items.
type Fetcher interface {
	FetchItems(ctx context.Context, q provider.Query) ([]model.Item, error)
}

// Result is the section content of a track and its updated progress.
type Result = progress.Result

// Selector evaluates tracks.
type Selector struct {
	fetcher Fetcher
	merger  *custom.Merger
	logger  *slog.Logger
	shuffle func([]model.Item)
}

// Option configures a Selector.
type Option func(*Selector)

// WithShuffle replaces the random permutation used by the random sort.
func WithShuffle(fn func([]model.Item)) Option {
	return func(s *Selector) { s.shuffle = fn }
}

// New creates a Selector.
func New(f Fetcher, m *custom.Merger, logger *slog.Logger, opts ...Option) *Selector {
	s := &Selector{
		fetcher: f,
		merger:  m,
		logger:  logger,
		shuffle: func(items []model.Item) {
			rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select runs the pipeline for track. prev is the stored progress of the
// track, if any; it is never modified. A stopped track is not selected.
func (s *Selector) Select(ctx context.Context, track model.Track, providers model.Providers, prev *model.Progress) (Result, error) {
	if track.Limit.Progress != nil && prev != nil && prev.IsStopped {
		stopped := *prev
		return Result{Progress: &stopped}, nil
	}

	items, err := s.selectItems(ctx, track, providers)
	if err != nil {
		return Result{}, err
	}

	if s.merger != nil {
		items, err = s.merger.Apply(ctx, items, providers)
		if err != nil {
			return Result{}, fmt.Errorf("merge custom metadata: %w", err)
		}
	}

	items, err = filter.Apply(items, track.Filter)
	if err != nil {
		return Result{}, err
	}

	items, err = s.sort(items, track.Sort)
	if err != nil {
		return Result{}, err
	}

	return progress.Apply(track.Name, items, track.Limit, prev), nil
}

func (s *Selector) selectItems(ctx context.Context, track model.Track, providers model.Providers) ([]model.Item, error) {
	var (
		items []model.Item
		seen  = make(map[string]int)
	)
	for _, q := range Queries(track.Select, providers) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := s.fetcher.FetchItems(ctx, q)
		if err != nil {
			s.logger.Warn("source failed, skipping",
				"track", track.Name,
				"provider", q.Kind(),
				"error", err,
			)
			continue
		}
		for _, it := range got {
			if it.ID == "" {
				items = append(items, it)
				continue
			}
			key := string(it.Provider) + "\x00" + it.ID
			if i, ok := seen[key]; ok {
				items[i].CollectionIDs = union(items[i].CollectionIDs, it.CollectionIDs)
				continue
			}
			seen[key] = len(items)
			items = append(items, it)
		}
	}
	return items, nil
}

// Queries lists the provider queries of a selection in evaluation order.
func Queries(sel model.Select, providers model.Providers) []provider.Query {
	var qs []provider.Query
	if yt := sel.YouTube; yt != nil {
		for _, id := range yt.PlaylistID {
			qs = append(qs, provider.YouTubePlaylist{PlaylistID: id})
		}
		if len(yt.VideoID) > 0 {
			qs = append(qs, provider.YouTubeVideos{IDs: yt.VideoID})
		}
	}
	if gp := sel.GooglePhotos; gp != nil {
		qs = append(qs, provider.PhotosQuery{Search: *gp})
	}
	if vm := sel.Vimeo; vm != nil {
		if len(vm.VideoID) > 0 {
			qs = append(qs, provider.VimeoVideos{IDs: vm.VideoID})
		}
		for _, u := range vm.FeedURL {
			qs = append(qs, provider.VimeoFeed{URL: u})
		}
	}
	if c := sel.Custom; c != nil {
		sheet := ""
		if cp, ok := providers.Custom(); ok {
			sheet = cp.Sheet.Name
		}
		qs = append(qs, provider.CustomRows{Sheet: sheet, IDs: c.VideoID})
	}
	return qs
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

var errUnsupportedSort = errors.New("unsupported sort")

func (s *Selector) sort(items []model.Item, spec *model.Sort) ([]model.Item, error) {
	if spec == nil {
		return items, nil
	}
	desc := spec.Order == model.OrderDesc

	var key func(model.Item) string
	switch spec.By {
	case "", model.SortNone:
		return items, nil
	case model.SortTitle:
		key = model.Item.DisplayTitle
	case model.SortCreatedAt:
		key = func(it model.Item) string { return it.CreatedAt }
	case model.SortRandom:
		out := slices.Clone(items)
		s.shuffle(out)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedSort, spec.By)
	}

	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b model.Item) int {
		c := strings.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	})
	return out, nil
}
