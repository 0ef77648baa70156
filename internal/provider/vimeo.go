package provider

import (
	"context"
	"net/url"
	"strings"
	"time"

	"video_digest/internal/fetcher"
	"video_digest/internal/model"
)

// Vimeo reads Vimeo RSS feeds.
type Vimeo struct {
	feeds *fetcher.Fetcher
}

// NewVimeo creates a Vimeo client.
func NewVimeo(client fetcher.HTTPClient) *Vimeo {
	return &Vimeo{feeds: fetcher.New(client)}
}

// PlayerItems builds items for bare video ids. Vimeo has no metadata of
// its own here, tags and titles come from the custom sheet.
func PlayerItems(ids []string) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Item{
			ID:       id,
			Provider: model.ProviderVimeo,
			URL:      PlayerURL(id),
		})
	}
	return out
}

// Feed returns the entries of a Vimeo RSS feed. Entries linking to a clip
// get the clip id and a player link; anything else keeps its GUID and link.
func (v *Vimeo) Feed(ctx context.Context, feedURL string) ([]model.Item, error) {
	feed, err := v.feeds.Feed(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	out := make([]model.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := model.Item{
			ID:       it.GUID,
			Provider: model.ProviderVimeo,
			Tags:     it.Categories,
			Title:    it.Title,
			URL:      it.Link,
		}
		if id, ok := clipID(it.Link); ok {
			item.ID = id
			item.URL = PlayerURL(id)
		}
		if it.PublishedParsed != nil {
			item.CreatedAt = it.PublishedParsed.UTC().Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return out, nil
}

// clipID extracts the id of a https://vimeo.com/<digits> link.
func clipID(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	id := strings.Trim(u.Path, "/")
	if id == "" {
		return "", false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id, true
}
