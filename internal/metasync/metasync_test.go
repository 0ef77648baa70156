package metasync

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"video_digest/internal/model"
	"video_digest/internal/provider"
	"video_digest/internal/storage"
)

type snippetUpdate struct {
	ID    string
	Title string
	Tags  []string
}

type fakeYouTube struct {
	uploads   string
	items     map[string][]model.Item
	updates   []snippetUpdate
	updateErr error
}

func (f *fakeYouTube) Playlist(_ context.Context, playlistID string) ([]model.Item, error) {
	return f.items[playlistID], nil
}

func (f *fakeYouTube) UploadsPlaylistID(context.Context) (string, error) {
	if f.uploads == "" {
		return "", provider.ErrNoChannel
	}
	return f.uploads, nil
}

func (f *fakeYouTube) UpdateSnippet(_ context.Context, id, title string, tags []string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, snippetUpdate{ID: id, Title: title, Tags: tags})
	return nil
}

type fakePhotos struct {
	items        []model.Item
	searches     []model.PhotosSearch
	descriptions map[string]string
	albums       []provider.SharedAlbum
}

func (f *fakePhotos) Search(_ context.Context, q model.PhotosSearch) ([]model.Item, error) {
	f.searches = append(f.searches, q)
	return f.items, nil
}

func (f *fakePhotos) UpdateDescription(_ context.Context, id, description string) error {
	if f.descriptions == nil {
		f.descriptions = map[string]string{}
	}
	f.descriptions[id] = description
	return nil
}

func (f *fakePhotos) SharedAlbums(context.Context) ([]provider.SharedAlbum, error) {
	return f.albums, nil
}

func newStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func addConfig(t *testing.T, s storage.Storage, providers model.Providers) {
	t.Helper()
	cfg := &model.DigestConfig{
		User:      model.User{Email: model.StringList{"dancer@example.com"}},
		Providers: providers,
	}
	if err := s.CreateConfig(context.Background(), cfg); err != nil {
		t.Fatalf("create config: %v", err)
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var ignoreRowMeta = cmpopts.IgnoreFields(model.SheetRow{}, "Sheet", "Row")

func TestDownloadYouTube(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addConfig(t, store, model.Providers{model.YouTubeProvider{Sheet: model.Sheet{ID: "1", Name: "youtube"}}})

	yt := &fakeYouTube{
		uploads: "UU1",
		items: map[string][]model.Item{"UU1": {
			{ID: "v1", Title: "Basic step", URL: "https://youtu.be/v1", Tags: []string{"kizomba", "basics"}},
			{ID: "v2", Title: "Untagged", URL: "https://youtu.be/v2"},
		}},
	}
	s := New(store, yt, nil, discard())

	n, err := s.Download(ctx, model.ProviderYouTube)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Download() = %d, want 2", n)
	}

	rows, err := store.SheetRows(ctx, "youtube")
	if err != nil {
		t.Fatalf("sheet rows: %v", err)
	}
	want := []model.SheetRow{
		{ItemID: "v1", Tags: "kizomba,basics", URL: "https://youtu.be/v1", Title: "Basic step"},
		{ItemID: "v2", URL: "https://youtu.be/v2", Title: "Untagged"},
	}
	if diff := cmp.Diff(want, rows, ignoreRowMeta); diff != "" {
		t.Errorf("SheetRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestDownloadUsesConfiguredPlaylist(t *testing.T) {
	store := newStore(t)
	addConfig(t, store, model.Providers{model.YouTubeProvider{
		Sheet:             model.Sheet{ID: "1", Name: "youtube"},
		UploadsPlaylistID: "UU9",
	}})
	yt := &fakeYouTube{items: map[string][]model.Item{"UU9": {{ID: "v9", Title: "Nine"}}}}

	n, err := New(store, yt, nil, discard()).Download(context.Background(), model.ProviderYouTube)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Download() = %d, want 1", n)
	}
}

func TestDownloadPhotos(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addConfig(t, store, model.Providers{model.GooglePhotosProvider{Sheet: model.Sheet{ID: "2", Name: "photos"}}})
	ph := &fakePhotos{items: []model.Item{{ID: "p1", Title: "IMG_1.mp4", URL: "https://photos/p1", Tags: []string{"semba"}}}}

	if _, err := New(store, nil, ph, discard()).Download(ctx, model.ProviderGooglePhotos); err != nil {
		t.Fatalf("Download() error: %v", err)
	}

	wantSearch := []model.PhotosSearch{{
		PageSize: 100,
		Filters:  &model.PhotosFilter{MediaTypeFilter: &model.MediaTypes{MediaTypes: []string{"VIDEO"}}},
	}}
	if diff := cmp.Diff(wantSearch, ph.searches); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}

	rows, err := store.SheetRows(ctx, "photos")
	if err != nil {
		t.Fatalf("sheet rows: %v", err)
	}
	want := []model.SheetRow{{ItemID: "p1", Tags: "semba", URL: "https://photos/p1", Title: "IMG_1.mp4"}}
	if diff := cmp.Diff(want, rows, ignoreRowMeta); diff != "" {
		t.Errorf("SheetRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestDownloadErrors(t *testing.T) {
	ctx := context.Background()

	empty := newStore(t)
	if _, err := New(empty, &fakeYouTube{}, nil, discard()).Download(ctx, model.ProviderYouTube); !errors.Is(err, ErrNoConfig) {
		t.Errorf("no config: error = %v, want ErrNoConfig", err)
	}

	store := newStore(t)
	addConfig(t, store, model.Providers{
		model.YouTubeProvider{Sheet: model.Sheet{Name: "youtube"}},
		model.VimeoProvider{Sheet: model.Sheet{Name: "vimeo"}},
	})
	s := New(store, &fakeYouTube{}, nil, discard())

	if _, err := s.Download(ctx, model.ProviderGooglePhotos); !errors.Is(err, ErrNoProvider) {
		t.Errorf("missing provider: error = %v, want ErrNoProvider", err)
	}
	if _, err := s.Download(ctx, model.ProviderVimeo); !errors.Is(err, ErrUnsupported) {
		t.Errorf("vimeo: error = %v, want ErrUnsupported", err)
	}
	if _, err := s.Download(ctx, model.ProviderYouTube); !errors.Is(err, provider.ErrNoChannel) {
		t.Errorf("no channel: error = %v, want ErrNoChannel", err)
	}
}

func TestUploadYouTube(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addConfig(t, store, model.Providers{model.YouTubeProvider{Sheet: model.Sheet{Name: "youtube"}, UploadsPlaylistID: "UU1"}})

	err := store.ReplaceSheetRows(ctx, "youtube", []model.SheetRow{
		{ItemID: "v1", Tags: "kizomba, basics", Title: "Basic step"},
		{ItemID: "v2", Tags: "kizomba,advanced", Title: "Turns"},
		{ItemID: "v3", Tags: "semba", Title: "Renamed"},
		{ItemID: "gone", Tags: "x", Title: "Deleted video"},
		{Tags: "no id"},
	})
	if err != nil {
		t.Fatalf("replace rows: %v", err)
	}

	yt := &fakeYouTube{items: map[string][]model.Item{"UU1": {
		{ID: "v1", Title: "Basic step", Tags: []string{"kizomba", "basics"}},
		{ID: "v2", Title: "Turns", Tags: []string{"kizomba"}},
		{ID: "v3", Title: "Old name", Tags: []string{"semba"}},
	}}}
	s := New(store, yt, nil, discard())

	wantChanges := []Change{
		{ID: "v2", Title: "Turns", Tags: []string{"kizomba", "advanced"}, OldTitle: "Turns", OldTags: []string{"kizomba"}},
		{ID: "v3", Title: "Renamed", Tags: []string{"semba"}, OldTitle: "Old name", OldTags: []string{"semba"}},
	}

	changes, err := s.Upload(ctx, model.ProviderYouTube, false)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if diff := cmp.Diff(wantChanges, changes); diff != "" {
		t.Errorf("Upload() dry run mismatch (-want +got):\n%s", diff)
	}
	if len(yt.updates) != 0 {
		t.Fatalf("dry run updated %d videos", len(yt.updates))
	}

	changes, err = s.Upload(ctx, model.ProviderYouTube, true)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if diff := cmp.Diff(wantChanges, changes); diff != "" {
		t.Errorf("Upload() mismatch (-want +got):\n%s", diff)
	}
	wantUpdates := []snippetUpdate{
		{ID: "v2", Title: "Turns", Tags: []string{"kizomba", "advanced"}},
		{ID: "v3", Title: "Renamed", Tags: []string{"semba"}},
	}
	if diff := cmp.Diff(wantUpdates, yt.updates); diff != "" {
		t.Errorf("UpdateSnippet() mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadYouTubeError(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addConfig(t, store, model.Providers{model.YouTubeProvider{Sheet: model.Sheet{Name: "youtube"}, UploadsPlaylistID: "UU1"}})
	if err := store.ReplaceSheetRows(ctx, "youtube", []model.SheetRow{{ItemID: "v1", Tags: "a"}}); err != nil {
		t.Fatalf("replace rows: %v", err)
	}
	yt := &fakeYouTube{
		items:     map[string][]model.Item{"UU1": {{ID: "v1"}}},
		updateErr: errors.New("quota exceeded"),
	}

	_, err := New(store, yt, nil, discard()).Upload(ctx, model.ProviderYouTube, true)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Upload() error = %v, want quota error", err)
	}
}

func TestUploadPhotosIgnoresTitle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	addConfig(t, store, model.Providers{model.GooglePhotosProvider{Sheet: model.Sheet{Name: "photos"}}})
	err := store.ReplaceSheetRows(ctx, "photos", []model.SheetRow{
		{ItemID: "p1", Tags: "semba,basics", Title: "Nice name"},
		{ItemID: "p2", Tags: "kizomba", Title: "Other name"},
	})
	if err != nil {
		t.Fatalf("replace rows: %v", err)
	}
	ph := &fakePhotos{items: []model.Item{
		{ID: "p1", Title: "IMG_1.mp4", Tags: []string{"semba"}},
		{ID: "p2", Title: "IMG_2.mp4", Tags: []string{"kizomba"}},
	}}

	changes, err := New(store, nil, ph, discard()).Upload(ctx, model.ProviderGooglePhotos, true)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if len(changes) != 1 || changes[0].ID != "p1" {
		t.Errorf("Upload() changes = %+v, want only p1", changes)
	}
	if diff := cmp.Diff(map[string]string{"p1": "semba,basics"}, ph.descriptions); diff != "" {
		t.Errorf("UpdateDescription() mismatch (-want +got):\n%s", diff)
	}
}

func TestUploadsPlaylistAndAlbums(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := New(store, nil, nil, discard()).UploadsPlaylistID(ctx); !errors.Is(err, ErrNoProvider) {
		t.Errorf("UploadsPlaylistID() error = %v, want ErrNoProvider", err)
	}
	if _, err := New(store, nil, nil, discard()).SharedAlbums(ctx); !errors.Is(err, ErrNoProvider) {
		t.Errorf("SharedAlbums() error = %v, want ErrNoProvider", err)
	}

	albums := []provider.SharedAlbum{{ID: "a1", Title: "Workshop"}}
	s := New(store, &fakeYouTube{uploads: "UU1"}, &fakePhotos{albums: albums}, discard())
	id, err := s.UploadsPlaylistID(ctx)
	if err != nil {
		t.Fatalf("UploadsPlaylistID() error: %v", err)
	}
	if id != "UU1" {
		t.Errorf("UploadsPlaylistID() = %q, want UU1", id)
	}
	got, err := s.SharedAlbums(ctx)
	if err != nil {
		t.Fatalf("SharedAlbums() error: %v", err)
	}
	if diff := cmp.Diff(albums, got); diff != "" {
		t.Errorf("SharedAlbums() mismatch (-want +got):\n%s", diff)
	}
}

const sampleYAML = `
configs:
  - user:
      email: dancer@example.com
      subject: Weekly Kizomba
      telegramChatIds: [42]
    tracks:
      - name: kizomba
        select:
          custom: {}
        filter:
          tagExpression: kizomba
        limit:
          count: 2
          progress:
            loop: true
    providers:
      - type: custom
        sheet:
          id: "9"
          name: custom
`

func TestParseConfigs(t *testing.T) {
	got, err := ParseConfigs(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("ParseConfigs() error: %v", err)
	}
	want := []model.DigestConfig{{
		User: model.User{
			Email:           model.StringList{"dancer@example.com"},
			Subject:         "Weekly Kizomba",
			TelegramChatIDs: []int64{42},
		},
		Tracks: []model.Track{{
			Name:   "kizomba",
			Select: model.Select{Custom: &model.CustomSelect{}},
			Filter: &model.Filter{TagExpression: "kizomba"},
			Limit:  model.Limit{Count: 2, Progress: &model.ProgressLimit{Loop: true}},
		}},
		Providers: model.Providers{model.CustomProvider{Sheet: model.Sheet{ID: "9", Name: "custom"}}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseConfigs() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "bad yaml", doc: "configs: [\n"},
		{name: "unknown provider", doc: "configs:\n  - user: {email: a@example.com}\n    providers:\n      - type: dropbox\n"},
		{name: "no recipients", doc: "configs:\n  - user: {subject: x}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfigs(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	got, err := ParseConfigs(strings.NewReader(""))
	if err != nil || len(got) != 0 {
		t.Errorf("empty document = %v, %v", got, err)
	}
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	s := New(store, nil, nil, discard())

	ids, err := s.Import(ctx, strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("Import() ids = %v, want one", ids)
	}
	if err := store.UpdateProgresses(ctx, ids[0], []model.Progress{{Name: "kizomba", Current: 2}}); err != nil {
		t.Fatalf("update progresses: %v", err)
	}

	var buf bytes.Buffer
	if err := s.Export(ctx, &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	got, err := ParseConfigs(&buf)
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	want, err := ParseConfigs(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	want[0].Progresses = []model.Progress{{Name: "kizomba", Current: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Export() round trip mismatch (-want +got):\n%s", diff)
	}
}
