// Package model defines the article types shared by the fetch, cache,
// realtime and UI layers.
//
// A ContentItem is immutable once fetched. Nothing downstream mutates it;
// a changed article is picked up by fetching it again.
package model

import (
	"sort"
	"time"
)

// DefaultAuthor is shown when a post carries no embedded author name.
const DefaultAuthor = "East Idaho News"

// Tier names a WordPress image size.
type Tier string

const (
	TierThumbnail   Tier = "thumbnail"
	TierMedium      Tier = "medium"
	TierMediumLarge Tier = "medium_large"
	TierLarge       Tier = "large"
	TierFull        Tier = "full"
)

// TierOrder is the fixed fallback order, smallest first.
var TierOrder = []Tier{TierThumbnail, TierMedium, TierMediumLarge, TierLarge, TierFull}

// ImageVariant is one rendition of an image.
type ImageVariant struct {
	URL    string
	Width  int
	Height int
}

// Media is the featured image of a post with all of its renditions.
type Media struct {
	ID        int64
	SourceURL string // original upload
	Width     int
	Height    int
	Caption   string
	AltText   string
	Sizes     map[Tier]ImageVariant
}

// Tiers returns the tiers present on m: standard tiers in TierOrder, then
// any site-specific sizes sorted by name.
func (m *Media) Tiers() []Tier {
	if m == nil || len(m.Sizes) == 0 {
		return nil
	}
	tiers := make([]Tier, 0, len(m.Sizes))
	known := make(map[Tier]bool, len(TierOrder))
	for _, t := range TierOrder {
		known[t] = true
		if _, ok := m.Sizes[t]; ok {
			tiers = append(tiers, t)
		}
	}
	var extra []Tier
	for t := range m.Sizes {
		if !known[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(tiers, extra...)
}

// ContentItem is one article. Title, Content and Excerpt hold the rendered
// HTML exactly as the server returned it.
type ContentItem struct {
	ID         int64
	Published  time.Time
	Modified   time.Time
	Link       string
	Title      string
	Content    string
	Excerpt    string
	Author     string
	AuthorID   int
	Categories []int

	Media            *Media
	FeaturedImageURL string // flat fallback some sites expose without _embed
}

// PlainTitle returns the title with markup and entities removed.
func (c ContentItem) PlainTitle() string {
	return PlainText(c.Title)
}

// PlainExcerpt returns the excerpt with markup and entities removed.
func (c ContentItem) PlainExcerpt() string {
	return PlainText(c.Excerpt)
}

// OriginalImageURL returns the full-resolution upload URL, or "".
func (c ContentItem) OriginalImageURL() string {
	if c.Media != nil && c.Media.SourceURL != "" {
		return c.Media.SourceURL
	}
	return c.FeaturedImageURL
}

// InCategory reports whether the item is filed under id.
func (c ContentItem) InCategory(id int) bool {
	for _, cat := range c.Categories {
		if cat == id {
			return true
		}
	}
	return false
}
