package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"video_digest/internal/model"
)

type clientFunc func(req *http.Request) (*http.Response, error)

func (f clientFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func respond(status int, body string) (*http.Response, error) {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body))}, nil
}

type staticRows map[string][]model.SheetRow

func (s staticRows) SheetRows(_ context.Context, sheet string) ([]model.SheetRow, error) {
	rows, ok := s[sheet]
	if !ok {
		return nil, errors.New("sheet not found")
	}
	return rows, nil
}

func TestPhotosSearch(t *testing.T) {
	var requests []model.PhotosSearch
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "https://photos.test/v1/mediaItems:search" || req.Method != http.MethodPost {
			return respond(http.StatusNotFound, "")
		}
		var q model.PhotosSearch
		if err := json.NewDecoder(req.Body).Decode(&q); err != nil {
			return respond(http.StatusBadRequest, err.Error())
		}
		requests = append(requests, q)
		if q.PageToken == "" {
			return respond(http.StatusOK, `{"mediaItems":[{"id":"m1","description":"kizomba, beginner","productUrl":"https://photos.google.com/m1","filename":"saida.mp4","mediaMetadata":{"creationTime":"2021-05-01T10:00:00Z"}}],"nextPageToken":"next"}`)
		}
		return respond(http.StatusOK, `{"mediaItems":[{"id":"m2","productUrl":"https://photos.google.com/m2","filename":"ginga.mp4","mediaMetadata":{"creationTime":"2021-05-02T10:00:00Z"}}]}`)
	})
	photos := NewPhotos(client, "https://photos.test/v1")

	got, err := photos.Search(context.Background(), model.PhotosSearch{AlbumID: "album1", PageSize: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []model.Item{
		{
			ID: "m1", Provider: model.ProviderGooglePhotos, Tags: []string{"kizomba", "beginner"},
			Title: "saida.mp4", URL: "https://photos.google.com/m1", CreatedAt: "2021-05-01T10:00:00Z",
		},
		{
			ID: "m2", Provider: model.ProviderGooglePhotos,
			Title: "ginga.mp4", URL: "https://photos.google.com/m2", CreatedAt: "2021-05-02T10:00:00Z",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}

	wantRequests := []model.PhotosSearch{
		{AlbumID: "album1", PageSize: 10},
		{AlbumID: "album1", PageSize: 10, PageToken: "next"},
	}
	if diff := cmp.Diff(wantRequests, requests); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestPhotosSearchAlbumAndFilters(t *testing.T) {
	photos := NewPhotos(clientFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}), "")

	_, err := photos.Search(context.Background(), model.PhotosSearch{
		AlbumID: "album1",
		Filters: &model.PhotosFilter{MediaTypeFilter: &model.MediaTypes{MediaTypes: []string{"VIDEO"}}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPhotosUpdateDescription(t *testing.T) {
	var gotURL, gotMethod, gotBody string
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		gotURL, gotMethod = req.URL.String(), req.Method
		data, _ := io.ReadAll(req.Body)
		gotBody = string(data)
		return respond(http.StatusOK, `{}`)
	})

	err := NewPhotos(client, "https://photos.test/v1/").UpdateDescription(context.Background(), "m1", "kizomba,beginner")
	if err != nil {
		t.Fatalf("UpdateDescription: %v", err)
	}
	if diff := cmp.Diff("https://photos.test/v1/mediaItems/m1?updateMask=description", gotURL); diff != "" {
		t.Errorf("url mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(http.MethodPatch, gotMethod); diff != "" {
		t.Errorf("method mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"description":"kizomba,beginner"}`, gotBody); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestPhotosSharedAlbums(t *testing.T) {
	var urls []string
	client := clientFunc(func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())
		if req.URL.Query().Get("pageToken") == "" {
			return respond(http.StatusOK, `{"sharedAlbums":[{"id":"a1","title":"Kizomba"}],"nextPageToken":"t2"}`)
		}
		return respond(http.StatusOK, `{"sharedAlbums":[{"id":"a2","title":"Bachata","shareInfo":{"shareToken":"tok"}}]}`)
	})

	got, err := NewPhotos(client, "https://photos.test/v1/").SharedAlbums(context.Background())
	if err != nil {
		t.Fatalf("SharedAlbums: %v", err)
	}
	var titles []string
	for _, a := range got {
		titles = append(titles, a.Title)
	}
	if diff := cmp.Diff([]string{"Kizomba", "Bachata"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	wantURLs := []string{
		"https://photos.test/v1/sharedAlbums?pageSize=50",
		"https://photos.test/v1/sharedAlbums?pageSize=50&pageToken=t2",
	}
	if diff := cmp.Diff(wantURLs, urls); diff != "" {
		t.Errorf("urls mismatch (-want +got):\n%s", diff)
	}
}

func TestVimeoFeed(t *testing.T) {
	data, err := os.ReadFile("../../testdata/vimeo.xml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	client := clientFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, string(data))
	})

	got, err := NewVimeo(client).Feed(context.Background(), "https://vimeo.com/kizombalab/videos/rss")
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}

	want := []model.Item{
		{
			ID: "512345678", Provider: model.ProviderVimeo, Tags: []string{"kizomba", "beginner"},
			Title: "Saida basics", URL: "https://player.vimeo.com/video/512345678", CreatedAt: "2021-05-01T10:00:00Z",
		},
		{
			ID: "523456789", Provider: model.ProviderVimeo, Tags: []string{"tarraxinha"},
			Title: "Tarraxinha flow", URL: "https://player.vimeo.com/video/523456789", CreatedAt: "2021-06-12T18:30:00Z",
		},
		{
			ID: "tag:vimeo,2021-07-05:showcase9012", Provider: model.ProviderVimeo,
			Title: "Showcase reel", URL: "https://vimeo.com/showcase/9012", CreatedAt: "2021-07-05T08:00:00Z",
		},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Feed() mismatch (-want +got):\n%s", diff)
	}
}

func TestCustomItems(t *testing.T) {
	rows := staticRows{"custom": {
		{Sheet: "custom", Row: 1, ItemID: "c1", Tags: "kizomba, beginner", URL: "https://example.com/c1", Title: "One"},
		{Sheet: "custom", Row: 2, ItemID: "", Tags: "ignored"},
		{Sheet: "custom", Row: 3, ItemID: "c3", Tags: "", URL: "https://example.com/c3", Title: "Three"},
	}}
	c := NewCustom(rows)

	tests := []struct {
		name    string
		ids     []string
		wantIDs []string
	}{
		{name: "all rows", ids: nil, wantIDs: []string{"c1", "c3"}},
		{name: "by id", ids: []string{"c3", "c9"}, wantIDs: []string{"c3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Items(context.Background(), "custom", tt.ids)
			if err != nil {
				t.Fatalf("Items: %v", err)
			}
			var ids []string
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("Items() ids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	got, err := c.Items(context.Background(), "custom", []string{"c1"})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	want := []model.Item{{
		ID: "c1", Provider: model.ProviderCustom, Tags: []string{"kizomba", "beginner"},
		URL: "https://example.com/c1", Title: "One",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestGatewayFetchItems(t *testing.T) {
	g := Gateway{}.WithRowSource(staticRows{"custom": {{ItemID: "c1"}}})

	got, err := g.FetchItems(context.Background(), VimeoVideos{IDs: []string{"42"}})
	if err != nil {
		t.Fatalf("FetchItems(vimeo): %v", err)
	}
	if diff := cmp.Diff([]model.Item{{ID: "42", Provider: model.ProviderVimeo, URL: "https://player.vimeo.com/video/42"}}, got); diff != "" {
		t.Errorf("vimeo items mismatch (-want +got):\n%s", diff)
	}

	got, err = g.FetchItems(context.Background(), CustomRows{Sheet: "custom"})
	if err != nil {
		t.Fatalf("FetchItems(custom): %v", err)
	}
	if len(got) != 1 {
		t.Errorf("custom items = %d, want 1", len(got))
	}

	for _, q := range []Query{
		YouTubePlaylist{PlaylistID: "PL1"},
		YouTubeVideos{IDs: []string{"v1"}},
		PhotosQuery{},
		VimeoFeed{URL: "https://vimeo.com/x/rss"},
		CustomRows{Sheet: "missing"},
	} {
		if _, err := g.FetchItems(context.Background(), q); !errors.Is(err, ErrUnavailable) {
			t.Errorf("FetchItems(%T) error = %v, want ErrUnavailable", q, err)
		}
	}
}
