package model

import (
	"encoding/json"
	"fmt"
)

// Sheet references a curated table by its id and name.
type Sheet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider is a configured item source. The concrete types are
// YouTubeProvider, GooglePhotosProvider, VimeoProvider and CustomProvider.
type Provider interface {
	Kind() ProviderKind
	SheetRef() Sheet
	isProvider()
}

// YouTubeProvider is the uploads feed of a YouTube channel.
type YouTubeProvider struct {
	Sheet             Sheet
	UploadsPlaylistID string
}

// GooglePhotosProvider is a Google Photos library.
type GooglePhotosProvider struct {
	Sheet Sheet
}

// VimeoProvider is a Vimeo account.
type VimeoProvider struct {
	Sheet Sheet
}

// CustomProvider is the curated sheet whose rows override provider metadata.
type CustomProvider struct {
	Sheet Sheet
}

func (YouTubeProvider) Kind() ProviderKind      { return ProviderYouTube }
func (GooglePhotosProvider) Kind() ProviderKind { return ProviderGooglePhotos }
func (VimeoProvider) Kind() ProviderKind        { return ProviderVimeo }
func (CustomProvider) Kind() ProviderKind       { return ProviderCustom }

func (p YouTubeProvider) SheetRef() Sheet      { return p.Sheet }
func (p GooglePhotosProvider) SheetRef() Sheet { return p.Sheet }
func (p VimeoProvider) SheetRef() Sheet        { return p.Sheet }
func (p CustomProvider) SheetRef() Sheet       { return p.Sheet }

func (YouTubeProvider) isProvider()      {}
func (GooglePhotosProvider) isProvider() {}
func (VimeoProvider) isProvider()        {}
func (CustomProvider) isProvider()       {}

// Providers is the provider list of a config row.
type Providers []Provider

// Find returns the first provider of the given kind.
func (ps Providers) Find(kind ProviderKind) (Provider, bool) {
	for _, p := range ps {
		if p.Kind() == kind {
			return p, true
		}
	}
	return nil, false
}

// Custom returns the custom provider, if configured.
func (ps Providers) Custom() (CustomProvider, bool) {
	p, ok := ps.Find(ProviderCustom)
	if !ok {
		return CustomProvider{}, false
	}
	return p.(CustomProvider), true
}

type providerJSON struct {
	Type              ProviderKind `json:"type"`
	Sheet             Sheet        `json:"sheet"`
	UploadsPlaylistID string       `json:"uploadsPlaylistId,omitempty"`
}

// UnmarshalJSON decodes the provider list, rejecting unknown types.
func (ps *Providers) UnmarshalJSON(data []byte) error {
	var raw []providerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Providers, 0, len(raw))
	for _, r := range raw {
		switch r.Type {
		case ProviderYouTube:
			out = append(out, YouTubeProvider{Sheet: r.Sheet, UploadsPlaylistID: r.UploadsPlaylistID})
		case ProviderGooglePhotos:
			out = append(out, GooglePhotosProvider{Sheet: r.Sheet})
		case ProviderVimeo:
			out = append(out, VimeoProvider{Sheet: r.Sheet})
		case ProviderCustom:
			out = append(out, CustomProvider{Sheet: r.Sheet})
		default:
			return fmt.Errorf("provider type is not supported: %q", r.Type)
		}
	}
	*ps = out
	return nil
}

// MarshalJSON encodes the provider list with a type discriminator.
func (ps Providers) MarshalJSON() ([]byte, error) {
	raw := make([]providerJSON, 0, len(ps))
	for _, p := range ps {
		r := providerJSON{Type: p.Kind(), Sheet: p.SheetRef()}
		if yt, ok := p.(YouTubeProvider); ok {
			r.UploadsPlaylistID = yt.UploadsPlaylistID
		}
		raw = append(raw, r)
	}
	return json.Marshal(raw)
}
