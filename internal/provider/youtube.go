package provider

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"video_digest/internal/model"
)

const (
	playlistPageSize = 25
	videosChunkSize  = 50
)

// YouTube reads and updates videos through the Data API v3.
type YouTube struct {
	svc *youtube.Service
}

// NewYouTube creates a client. Credentials come from opts, usually
// option.WithHTTPClient with an OAuth2 client.
func NewYouTube(ctx context.Context, opts ...option.ClientOption) (*YouTube, error) {
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &YouTube{svc: svc}, nil
}

// Playlist returns the videos of a playlist tagged with its id.
func (y *YouTube) Playlist(ctx context.Context, playlistID string) ([]model.Item, error) {
	ids, err := y.PlaylistVideoIDs(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	items, err := y.Videos(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].CollectionIDs = append(items[i].CollectionIDs, playlistID)
	}
	return items, nil
}

// PlaylistVideoIDs pages through a playlist. An empty page ends the
// listing without error.
func (y *YouTube) PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	var (
		ids       []string
		pageToken string
	)
	for {
		call := y.svc.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(playlistPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}
		if len(resp.Items) == 0 {
			break
		}
		for _, it := range resp.Items {
			if it.Snippet == nil || it.Snippet.ResourceId == nil || it.Snippet.ResourceId.VideoId == "" {
				continue
			}
			ids = append(ids, it.Snippet.ResourceId.VideoId)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return ids, nil
}

// Videos looks videos up in batches of 50.
func (y *YouTube) Videos(ctx context.Context, ids []string) ([]model.Item, error) {
	var out []model.Item
	for start := 0; start < len(ids); start += videosChunkSize {
		end := min(start+videosChunkSize, len(ids))
		resp, err := y.svc.Videos.List([]string{"snippet", "recordingDetails"}).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		for _, v := range resp.Items {
			out = append(out, youtubeItem(v))
		}
	}
	return out, nil
}

func youtubeItem(v *youtube.Video) model.Item {
	item := model.Item{
		ID:       v.Id,
		Provider: model.ProviderYouTube,
		URL:      WatchURL(v.Id),
	}
	if v.Snippet != nil {
		item.Title = v.Snippet.Title
		item.Tags = v.Snippet.Tags
		item.CreatedAt = v.Snippet.PublishedAt
	}
	if v.RecordingDetails != nil && v.RecordingDetails.RecordingDate != "" {
		item.CreatedAt = v.RecordingDetails.RecordingDate
	}
	return item
}

// UploadsPlaylistID returns the uploads playlist of the authorized channel.
func (y *YouTube) UploadsPlaylistID(ctx context.Context) (string, error) {
	resp, err := y.svc.Channels.List([]string{"contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	for _, ch := range resp.Items {
		if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil &&
			ch.ContentDetails.RelatedPlaylists.Uploads != "" {
			return ch.ContentDetails.RelatedPlaylists.Uploads, nil
		}
	}
	return "", ErrNoChannel
}

// UpdateSnippet replaces the title and tags of a video, keeping the rest
// of its snippet.
func (y *YouTube) UpdateSnippet(ctx context.Context, id, title string, tags []string) error {
	resp, err := y.svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get video %s: %w", id, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return fmt.Errorf("video %s not found", id)
	}

	snippet := resp.Items[0].Snippet
	snippet.Title = title
	snippet.Tags = tags
	_, err = y.svc.Videos.Update([]string{"snippet"}, &youtube.Video{Id: id, Snippet: snippet}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update video %s: %w", id, err)
	}
	return nil
}
