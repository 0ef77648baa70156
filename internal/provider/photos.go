package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"video_digest/internal/fetcher"
	"video_digest/internal/model"
)

// PhotosBaseURL is the Google Photos Library API root.
const PhotosBaseURL = "https://photoslibrary.googleapis.com/v1/"

const sharedAlbumsPageSize = 50

// Photos talks to the Google Photos Library API. The HTTP client is
// expected to carry OAuth2 credentials.
type Photos struct {
	f       *fetcher.Fetcher
	baseURL string
}

// NewPhotos creates a client. An empty baseURL selects PhotosBaseURL.
func NewPhotos(client fetcher.HTTPClient, baseURL string) *Photos {
	if baseURL == "" {
		baseURL = PhotosBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Photos{f: fetcher.New(client), baseURL: baseURL}
}

type mediaItem struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	ProductURL    string `json:"productUrl"`
	Filename      string `json:"filename"`
	MediaMetadata struct {
		CreationTime string `json:"creationTime"`
	} `json:"mediaMetadata"`
}

type searchResponse struct {
	MediaItems    []mediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

// Search runs mediaItems:search across all pages. Tags are read from the
// comma separated description.
func (p *Photos) Search(ctx context.Context, q model.PhotosSearch) ([]model.Item, error) {
	if q.AlbumID != "" && q.Filters != nil {
		return nil, errors.New("albumId can't be combined with filters")
	}

	var out []model.Item
	for {
		var resp searchResponse
		if err := p.f.JSON(ctx, http.MethodPost, p.baseURL+"mediaItems:search", q, &resp); err != nil {
			return nil, fmt.Errorf("search media items: %w", err)
		}
		for _, m := range resp.MediaItems {
			out = append(out, model.Item{
				ID:        m.ID,
				Provider:  model.ProviderGooglePhotos,
				Tags:      model.SplitTags(m.Description),
				Title:     m.Filename,
				URL:       m.ProductURL,
				CreatedAt: m.MediaMetadata.CreationTime,
			})
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		q.PageToken = resp.NextPageToken
	}
}

// UpdateDescription overwrites the description of a media item.
func (p *Photos) UpdateDescription(ctx context.Context, id, description string) error {
	u := p.baseURL + "mediaItems/" + url.PathEscape(id) + "?updateMask=description"
	body := struct {
		Description string `json:"description"`
	}{Description: description}
	if err := p.f.JSON(ctx, http.MethodPatch, u, body, nil); err != nil {
		return fmt.Errorf("update media item %s: %w", id, err)
	}
	return nil
}

// SharedAlbum is an album shared with or by the account.
type SharedAlbum struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ProductURL      string `json:"productUrl"`
	MediaItemsCount string `json:"mediaItemsCount"`
	ShareInfo       *struct {
		ShareableURL string `json:"shareableUrl"`
		ShareToken   string `json:"shareToken"`
	} `json:"shareInfo,omitempty"`
}

// SharedAlbums lists every shared album.
func (p *Photos) SharedAlbums(ctx context.Context) ([]SharedAlbum, error) {
	var (
		out       []SharedAlbum
		pageToken string
	)
	for {
		v := url.Values{}
		v.Set("pageSize", fmt.Sprint(sharedAlbumsPageSize))
		if pageToken != "" {
			v.Set("pageToken", pageToken)
		}
		var resp struct {
			SharedAlbums  []SharedAlbum `json:"sharedAlbums"`
			NextPageToken string        `json:"nextPageToken"`
		}
		if err := p.f.JSON(ctx, http.MethodGet, p.baseURL+"sharedAlbums?"+v.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("list shared albums: %w", err)
		}
		out = append(out, resp.SharedAlbums...)
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}
