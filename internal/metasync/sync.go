// Package metasync mirrors item tags and titles between a provider and its
// curated sheet, and imports or exports config rows as YAML.
package metasync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"video_digest/internal/model"
	"video_digest/internal/provider"
	"video_digest/internal/storage"
)

var (
	// ErrNoConfig is returned when there is no config row to read providers from.
	ErrNoConfig = errors.New("no config row")
	// ErrNoProvider is returned when the config row lacks the requested provider.
	ErrNoProvider = errors.New("provider is not configured")
	// ErrUnsupported is returned for provider kinds that can't be synced.
	ErrUnsupported = errors.New("provider kind can't be synced")
)

// YouTubeClient is the part of the YouTube API the sync uses.
type YouTubeClient interface {
	Playlist(ctx context.Context, playlistID string) ([]model.Item, error)
	UploadsPlaylistID(ctx context.Context) (string, error)
	UpdateSnippet(ctx context.Context, id, title string, tags []string) error
}

// PhotosClient is the part of the Google Photos API the sync uses.
type PhotosClient interface {
	Search(ctx context.Context, q model.PhotosSearch) ([]model.Item, error)
	UpdateDescription(ctx context.Context, id, description string) error
	SharedAlbums(ctx context.Context) ([]provider.SharedAlbum, error)
}

// Change is one item whose curated row differs from the provider.
type Change struct {
	ID       string
	Title    string
	Tags     []string
	OldTitle string
	OldTags  []string
}

// Syncer downloads provider metadata into sheets and uploads edits back.
type Syncer struct {
	store   storage.Storage
	youtube YouTubeClient
	photos  PhotosClient
	log     *slog.Logger
}

// New creates a Syncer. Either client may be nil when not configured.
func New(store storage.Storage, yt YouTubeClient, photos PhotosClient, log *slog.Logger) *Syncer {
	return &Syncer{store: store, youtube: yt, photos: photos, log: log}
}

// providerOf returns the provider of kind from the first config row.
func (s *Syncer) providerOf(ctx context.Context, kind model.ProviderKind) (model.Provider, error) {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	if len(configs) == 0 {
		return nil, ErrNoConfig
	}
	if len(configs) > 1 {
		s.log.Warn("more than one config found, using the first one", "config_id", configs[0].ID)
	}
	p, ok := configs[0].Providers.Find(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, kind)
	}
	return p, nil
}

// items lists everything the provider holds for the sheet.
func (s *Syncer) items(ctx context.Context, p model.Provider) ([]model.Item, error) {
	switch p := p.(type) {
	case model.YouTubeProvider:
		if s.youtube == nil {
			return nil, fmt.Errorf("%w: youtube client", ErrNoProvider)
		}
		playlist := p.UploadsPlaylistID
		if playlist == "" {
			id, err := s.youtube.UploadsPlaylistID(ctx)
			if err != nil {
				return nil, fmt.Errorf("find uploads playlist: %w", err)
			}
			playlist = id
		}
		return s.youtube.Playlist(ctx, playlist)
	case model.GooglePhotosProvider:
		if s.photos == nil {
			return nil, fmt.Errorf("%w: photos client", ErrNoProvider)
		}
		return s.photos.Search(ctx, model.PhotosSearch{
			PageSize: 100,
			Filters:  &model.PhotosFilter{MediaTypeFilter: &model.MediaTypes{MediaTypes: []string{"VIDEO"}}},
		})
	case model.VimeoProvider, model.CustomProvider:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, p.Kind())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, p)
	}
}

// Download replaces the provider's sheet with the provider's current items.
// It returns the number of rows written.
func (s *Syncer) Download(ctx context.Context, kind model.ProviderKind) (int, error) {
	p, err := s.providerOf(ctx, kind)
	if err != nil {
		return 0, err
	}
	items, err := s.items(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", kind, err)
	}

	rows := make([]model.SheetRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, model.SheetRow{
			ItemID: it.ID,
			Tags:   model.JoinTags(it.Tags),
			URL:    it.URL,
			Title:  it.Title,
		})
	}
	sheet := p.SheetRef().Name
	if err := s.store.ReplaceSheetRows(ctx, sheet, rows); err != nil {
		return 0, fmt.Errorf("write sheet %s: %w", sheet, err)
	}
	s.log.Info("downloaded details", "provider", kind, "sheet", sheet, "rows", len(rows))
	return len(rows), nil
}

// Upload pushes edited tags and titles from the sheet back to the provider.
// With apply false the changes are only reported. Google Photos stores tags
// in the item description and has no editable title, so only tags count
// there.
func (s *Syncer) Upload(ctx context.Context, kind model.ProviderKind, apply bool) ([]Change, error) {
	p, err := s.providerOf(ctx, kind)
	if err != nil {
		return nil, err
	}
	items, err := s.items(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}
	byID := make(map[string]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	sheet := p.SheetRef().Name
	rows, err := s.store.SheetRows(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	var changes []Change
	for _, row := range rows {
		if row.ItemID == "" {
			continue
		}
		item, ok := byID[row.ItemID]
		if !ok {
			s.log.Warn("sheet row has no provider item", "sheet", sheet, "row", row.Row, "id", row.ItemID)
			continue
		}
		tags := model.SplitTags(row.Tags)
		titleChanged := kind == model.ProviderYouTube && row.Title != item.Title
		if slices.Equal(tags, item.Tags) && !titleChanged {
			continue
		}

		c := Change{ID: row.ItemID, Title: row.Title, Tags: tags, OldTitle: item.Title, OldTags: item.Tags}
		s.log.Info("updating details",
			"id", c.ID,
			"title", c.Title,
			"tags", c.Tags,
			"old_title", c.OldTitle,
			"old_tags", c.OldTags,
			"apply", apply,
		)
		if apply {
			if err := s.update(ctx, p, c); err != nil {
				return changes, fmt.Errorf("update %s: %w", c.ID, err)
			}
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func (s *Syncer) update(ctx context.Context, p model.Provider, c Change) error {
	switch p.(type) {
	case model.YouTubeProvider:
		return s.youtube.UpdateSnippet(ctx, c.ID, c.Title, c.Tags)
	case model.GooglePhotosProvider:
		return s.photos.UpdateDescription(ctx, c.ID, model.JoinTags(c.Tags))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, p.Kind())
	}
}

// UploadsPlaylistID returns the uploads playlist of the authorized channel.
func (s *Syncer) UploadsPlaylistID(ctx context.Context) (string, error) {
	if s.youtube == nil {
		return "", fmt.Errorf("%w: youtube client", ErrNoProvider)
	}
	return s.youtube.UploadsPlaylistID(ctx)
}

// SharedAlbums lists the shared Google Photos albums.
func (s *Syncer) SharedAlbums(ctx context.Context) ([]provider.SharedAlbum, error) {
	if s.photos == nil {
		return nil, fmt.Errorf("%w: photos client", ErrNoProvider)
	}
	return s.photos.SharedAlbums(ctx)
}
