// Package provider fetches candidate items from the external sources:
// YouTube, Google Photos, Vimeo and the curated custom sheet.
package provider

import (
	"context"
	"errors"
	"fmt"

	"video_digest/internal/model"
)

var (
	// ErrUnavailable wraps any failure of a source. The selector logs it
	// and carries on with the remaining sources.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrNoChannel is returned when the authorized account has no channel.
	ErrNoChannel = errors.New("no channel found with uploads playlist")
)

// Query is one source request. Implementations are YouTubePlaylist,
// YouTubeVideos, PhotosQuery, VimeoVideos, VimeoFeed and CustomRows.
type Query interface {
	Kind() model.ProviderKind
	isQuery()
}

// YouTubePlaylist lists every video of a playlist.
type YouTubePlaylist struct {
	PlaylistID string
}

// YouTubeVideos looks videos up by id.
type YouTubeVideos struct {
	IDs []string
}

// PhotosQuery runs a mediaItems:search request.
type PhotosQuery struct {
	Search model.PhotosSearch
}

// VimeoVideos turns video ids into player links.
type VimeoVideos struct {
	IDs []string
}

// VimeoFeed reads a Vimeo RSS feed.
type VimeoFeed struct {
	URL string
}

// CustomRows reads rows of a curated sheet. No ids selects every row.
type CustomRows struct {
	Sheet string
	IDs   []string
}

func (YouTubePlaylist) Kind() model.ProviderKind { return model.ProviderYouTube }
func (YouTubeVideos) Kind() model.ProviderKind   { return model.ProviderYouTube }
func (PhotosQuery) Kind() model.ProviderKind     { return model.ProviderGooglePhotos }
func (VimeoVideos) Kind() model.ProviderKind     { return model.ProviderVimeo }
func (VimeoFeed) Kind() model.ProviderKind       { return model.ProviderVimeo }
func (CustomRows) Kind() model.ProviderKind      { return model.ProviderCustom }

func (YouTubePlaylist) isQuery() {}
func (YouTubeVideos) isQuery()   {}
func (PhotosQuery) isQuery()     {}
func (VimeoVideos) isQuery()     {}
func (VimeoFeed) isQuery()       {}
func (CustomRows) isQuery()      {}

// Gateway dispatches queries to the configured clients. A nil client
// makes its queries fail with ErrUnavailable.
type Gateway struct {
	YouTube *YouTube
	Photos  *Photos
	Vimeo   *Vimeo
	Custom  *Custom
}

// WithRowSource returns a copy of g reading curated rows from rows.
func (g Gateway) WithRowSource(rows RowSource) *Gateway {
	g.Custom = NewCustom(rows)
	return &g
}

// FetchItems runs q against its provider.
func (g *Gateway) FetchItems(ctx context.Context, q Query) ([]model.Item, error) {
	items, err := g.fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, q.Kind(), err)
	}
	return items, nil
}

var errNotConfigured = errors.New("client is not configured")

func (g *Gateway) fetch(ctx context.Context, q Query) ([]model.Item, error) {
	switch q := q.(type) {
	case YouTubePlaylist:
		if g.YouTube == nil {
			return nil, errNotConfigured
		}
		return g.YouTube.Playlist(ctx, q.PlaylistID)
	case YouTubeVideos:
		if g.YouTube == nil {
			return nil, errNotConfigured
		}
		return g.YouTube.Videos(ctx, q.IDs)
	case PhotosQuery:
		if g.Photos == nil {
			return nil, errNotConfigured
		}
		return g.Photos.Search(ctx, q.Search)
	case VimeoVideos:
		return PlayerItems(q.IDs), nil
	case VimeoFeed:
		if g.Vimeo == nil {
			return nil, errNotConfigured
		}
		return g.Vimeo.Feed(ctx, q.URL)
	case CustomRows:
		if g.Custom == nil {
			return nil, errNotConfigured
		}
		return g.Custom.Items(ctx, q.Sheet, q.IDs)
	default:
		return nil, fmt.Errorf("unsupported query %T", q)
	}
}

// WatchURL is the YouTube deep link of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// PlayerURL is the Vimeo player link of a video.
func PlayerURL(id string) string {
	return "https://player.vimeo.com/video/" + id
}
