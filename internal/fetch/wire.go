package fetch

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

// wpTimeLayout is the zone-less ISO form WordPress uses for date_gmt.
const wpTimeLayout = "2006-01-02T15:04:05"

type wpRendered struct {
	Rendered string `json:"rendered"`
}

type wpPost struct {
	ID           int64      `json:"id"`
	Date         string     `json:"date"`
	DateGMT      string     `json:"date_gmt"`
	ModifiedGMT  string     `json:"modified_gmt"`
	Link         string     `json:"link"`
	Title        wpRendered `json:"title"`
	Content      wpRendered `json:"content"`
	Excerpt      wpRendered `json:"excerpt"`
	Author       int        `json:"author"`
	Categories   []int      `json:"categories"`
	JetpackImage string     `json:"jetpack_featured_media_url"`
	Embedded     *struct {
		Author []struct {
			Name string `json:"name"`
		} `json:"author"`
		FeaturedMedia []wpMedia `json:"wp:featuredmedia"`
	} `json:"_embedded"`
}

type wpMedia struct {
	ID           int64           `json:"id"`
	SourceURL    string          `json:"source_url"`
	AltText      string          `json:"alt_text"`
	Caption      wpRendered      `json:"caption"`
	MediaDetails json.RawMessage `json:"media_details"`
}

type wpMediaDetails struct {
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Sizes  map[string]wpSize `json:"sizes"`
}

type wpSize struct {
	SourceURL string `json:"source_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// toItem converts a decoded post. defaultAuthor fills a missing author name.
func (p wpPost) toItem(defaultAuthor string) model.ContentItem {
	item := model.ContentItem{
		ID:               p.ID,
		Published:        parseWPTime(p.DateGMT, p.Date),
		Modified:         parseWPTime(p.ModifiedGMT, ""),
		Link:             p.Link,
		Title:            p.Title.Rendered,
		Content:          p.Content.Rendered,
		Excerpt:          p.Excerpt.Rendered,
		Author:           defaultAuthor,
		AuthorID:         p.Author,
		Categories:       p.Categories,
		FeaturedImageURL: p.JetpackImage,
	}

	if p.Embedded != nil {
		if len(p.Embedded.Author) > 0 && strings.TrimSpace(p.Embedded.Author[0].Name) != "" {
			item.Author = p.Embedded.Author[0].Name
		}
		if len(p.Embedded.FeaturedMedia) > 0 {
			item.Media = p.Embedded.FeaturedMedia[0].toMedia()
		}
	}
	return item
}

// toMedia returns nil for the error objects WordPress embeds when the
// attachment is private or deleted.
func (m wpMedia) toMedia() *model.Media {
	media := &model.Media{
		ID:        m.ID,
		SourceURL: m.SourceURL,
		AltText:   m.AltText,
		Caption:   model.PlainText(m.Caption.Rendered),
	}

	// media_details is an object for images but can be an empty array for
	// other attachment types.
	raw := bytes.TrimSpace(m.MediaDetails)
	if len(raw) > 0 && raw[0] == '{' {
		var d wpMediaDetails
		if err := json.Unmarshal(raw, &d); err == nil {
			media.Width = d.Width
			media.Height = d.Height
			for name, s := range d.Sizes {
				if s.SourceURL == "" {
					continue
				}
				if media.Sizes == nil {
					media.Sizes = make(map[model.Tier]model.ImageVariant, len(d.Sizes))
				}
				media.Sizes[model.Tier(name)] = model.ImageVariant{URL: s.SourceURL, Width: s.Width, Height: s.Height}
			}
		}
	}

	if media.SourceURL == "" && len(media.Sizes) == 0 {
		return nil
	}
	return media
}

// parseWPTime parses gmt as UTC, falling back to the site-local value.
func parseWPTime(gmt, local string) time.Time {
	for _, s := range []string{gmt, local} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(wpTimeLayout, s); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
