package model

// Track is one named selection rule producing one digest section.
type Track struct {
	Name     string    `json:"name"`
	Select   Select    `json:"select"`
	Filter   *Filter   `json:"filter,omitempty"`
	Sort     *Sort     `json:"sort,omitempty"`
	Limit    Limit     `json:"limit"`
	Schedule *Schedule `json:"schedule,omitempty"`
}

// Select lists the provider queries of a track.
type Select struct {
	YouTube      *YouTubeSelect `json:"youtube,omitempty"`
	GooglePhotos *PhotosSearch  `json:"googlePhotos,omitempty"`
	Vimeo        *VimeoSelect   `json:"vimeo,omitempty"`
	Custom       *CustomSelect  `json:"custom,omitempty"`
}

// YouTubeSelect picks uploads by playlist or by video id.
type YouTubeSelect struct {
	PlaylistID StringList `json:"playlistId,omitempty"`
	VideoID    StringList `json:"videoId,omitempty"`
}

// VimeoSelect picks Vimeo videos by id or from RSS feeds.
type VimeoSelect struct {
	VideoID StringList `json:"videoId,omitempty"`
	FeedURL StringList `json:"feedUrl,omitempty"`
}

// CustomSelect picks rows of the custom sheet. No ids selects every row.
type CustomSelect struct {
	VideoID StringList `json:"videoId,omitempty"`
}

// PhotosSearch is a Google Photos mediaItems:search request.
// AlbumID can't be combined with Filters.
type PhotosSearch struct {
	AlbumID   string        `json:"albumId,omitempty"`
	PageSize  int           `json:"pageSize,omitempty"`
	PageToken string        `json:"pageToken,omitempty"`
	Filters   *PhotosFilter `json:"filters,omitempty"`
	OrderBy   string        `json:"orderBy,omitempty"`
}

// PhotosFilter mirrors the filters object of mediaItems:search.
type PhotosFilter struct {
	DateFilter               *DateFilter    `json:"dateFilter,omitempty"`
	ContentFilter            *ContentFilter `json:"contentFilter,omitempty"`
	MediaTypeFilter          *MediaTypes    `json:"mediaTypeFilter,omitempty"`
	FeatureFilter            *Features      `json:"featureFilter,omitempty"`
	IncludeArchivedMedia     bool           `json:"includeArchivedMedia,omitempty"`
	ExcludeNonAppCreatedData bool           `json:"excludeNonAppCreatedData,omitempty"`
}

// ContentFilter selects content categories such as LANDSCAPES or PEOPLE.
type ContentFilter struct {
	IncludedContentCategories []string `json:"includedContentCategories,omitempty"`
	ExcludedContentCategories []string `json:"excludedContentCategories,omitempty"`
}

// MediaTypes restricts results to ALL_MEDIA, VIDEO or PHOTO.
type MediaTypes struct {
	MediaTypes []string `json:"mediaTypes"`
}

// Features selects features such as FAVORITES.
type Features struct {
	IncludedFeatures []string `json:"includedFeatures"`
}

// Filter narrows the selected items.
type Filter struct {
	TagExpression string      `json:"tagExpression,omitempty"`
	PlaylistIDs   []string    `json:"playlistIds,omitempty"`
	DateFilter    *DateFilter `json:"dateFilter,omitempty"`
}

// DateFilter matches exact dates or ranges.
type DateFilter struct {
	Dates  []Date      `json:"dates,omitempty"`
	Ranges []DateRange `json:"ranges,omitempty"`
}

// DateRange bounds are inclusive; a nil bound is open.
type DateRange struct {
	StartDate *Date `json:"startDate,omitempty"`
	EndDate   *Date `json:"endDate,omitempty"`
}

// Date is a calendar date with a 1-based month.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// SortBy names the sort key.
type SortBy string

// Supported sort keys.
const (
	SortNone      SortBy = "none"
	SortTitle     SortBy = "title"
	SortCreatedAt SortBy = "createdAt"
	SortRandom    SortBy = "random"
)

// SortOrder is asc or desc.
type SortOrder string

// Sort orders.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Sort orders the filtered items.
type Sort struct {
	By    SortBy    `json:"by"`
	Order SortOrder `json:"order,omitempty"`
}

// Limit picks a window of the sorted items.
type Limit struct {
	Offset   int            `json:"offset,omitempty"`
	Count    int            `json:"count,omitempty"`
	Progress *ProgressLimit `json:"progress,omitempty"`
}

// ProgressLimit enables resumable progress for a track.
type ProgressLimit struct {
	Loop bool `json:"loop,omitempty"`
}

// EffectiveCount returns Count, defaulting to 1.
func (l Limit) EffectiveCount() int {
	if l.Count < 1 {
		return 1
	}
	return l.Count
}

// EffectiveOffset returns Offset, never negative.
func (l Limit) EffectiveOffset() int {
	if l.Offset < 0 {
		return 0
	}
	return l.Offset
}

// Loop reports whether an exhausted track restarts.
func (l Limit) Loop() bool {
	return l.Progress != nil && l.Progress.Loop
}

// Schedule gates a track on a cron expression.
type Schedule struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone,omitempty"`
}
