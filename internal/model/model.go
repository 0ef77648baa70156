// Package model defines the domain types used across the application.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ProviderKind identifies an external source of items.
type ProviderKind string

// Supported provider kinds.
const (
	ProviderYouTube      ProviderKind = "youtube"
	ProviderGooglePhotos ProviderKind = "googlePhotos"
	ProviderVimeo        ProviderKind = "vimeo"
	ProviderCustom       ProviderKind = "custom"
)

// Item is a reference to a video on one of the providers.
type Item struct {
	ID            string       `json:"id,omitempty"`
	Provider      ProviderKind `json:"provider,omitempty"`
	Tags          []string     `json:"tags"`
	Title         string       `json:"title"`
	URL           string       `json:"url"`
	CreatedAt     string       `json:"createdAt,omitempty"`
	CollectionIDs []string     `json:"playlistIds,omitempty"`
	SourcePointer string       `json:"pointer,omitempty"`
	Override      *Override    `json:"custom,omitempty"`
}

// Override holds curated values that supersede the provider's values.
// A nil Tags slice means the curated row carries no tags.
type Override struct {
	Tags    []string `json:"tags,omitempty"`
	Title   string   `json:"title,omitempty"`
	URL     string   `json:"url,omitempty"`
	Pointer string   `json:"pointer,omitempty"`
}

// EffectiveTags returns the tag set used for filtering.
// Override tags replace provider tags, they are never merged.
func (i Item) EffectiveTags() []string {
	if i.Override != nil && i.Override.Tags != nil {
		return i.Override.Tags
	}
	return i.Tags
}

// DisplayTitle returns the override title if present.
func (i Item) DisplayTitle() string {
	if i.Override != nil && i.Override.Title != "" {
		return i.Override.Title
	}
	return i.Title
}

// DisplayURL returns the override url if present.
func (i Item) DisplayURL() string {
	if i.Override != nil && i.Override.URL != "" {
		return i.Override.URL
	}
	return i.URL
}

// HasCollection reports whether the item was discovered through any of ids.
func (i Item) HasCollection(ids []string) bool {
	for _, c := range i.CollectionIDs {
		for _, id := range ids {
			if c == id {
				return true
			}
		}
	}
	return false
}

// Section is one titled block of a digest.
type Section struct {
	Name  string `json:"name"`
	Items []Item `json:"videos"`
}

// Progress is the resumable cursor of a track.
type Progress struct {
	Name      string `json:"name"`
	Current   int    `json:"current"`
	IsStopped bool   `json:"isStopped,omitempty"`
}

// User describes the recipients of a digest and how it is rendered.
type User struct {
	Email           StringList `json:"email"`
	Subject         string     `json:"subject,omitempty"`
	Body            string     `json:"body,omitempty"`
	Template        string     `json:"template,omitempty"`
	TelegramChatIDs []int64    `json:"telegramChatIds,omitempty"`
}

// DigestConfig is one row of the config table.
type DigestConfig struct {
	ID         int64
	User       User
	Tracks     []Track
	Providers  Providers
	Progresses []Progress
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProgressFor returns the progress record of the named track, if any.
func (c *DigestConfig) ProgressFor(name string) (Progress, bool) {
	for _, p := range c.Progresses {
		if p.Name == name {
			return p, true
		}
	}
	return Progress{}, false
}

// SetProgress replaces or appends the record with the same name.
func (c *DigestConfig) SetProgress(p Progress) {
	for i := range c.Progresses {
		if c.Progresses[i].Name == p.Name {
			c.Progresses[i] = p
			return
		}
	}
	c.Progresses = append(c.Progresses, p)
}

// SheetRow is one curated row of a sheet.
type SheetRow struct {
	Sheet  string
	Row    int
	ItemID string
	Tags   string
	URL    string
	Title  string
}

// Delivery records a digest handed to the mail and chat collaborators.
type Delivery struct {
	ID         string
	RunID      string
	ConfigID   int64
	Subject    string
	Recipients []string
	TrackNames []string
	SentAt     time.Time
}

// SplitTags parses a comma separated tag cell. Blank entries are dropped
// and an empty cell yields nil.
func SplitTags(cell string) []string {
	var out []string
	for _, t := range strings.Split(cell, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// StringList accepts either a single JSON string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		if one == "" {
			*s = nil
			return nil
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
