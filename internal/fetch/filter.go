package fetch

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

const (
	// DefaultPerPage matches the WordPress REST default.
	DefaultPerPage = 10
	// MaxPerPage is the largest page size WordPress accepts.
	MaxPerPage = 100
)

// Filter selects a page of posts. Zero values mean "unconstrained".
// Category is "" (all), a reserved aggregate token, a numeric id or a slug.
type Filter struct {
	Category string
	Search   string
	After    time.Time
	Before   time.Time
	Author   int
	Page     int // 1-indexed
	PerPage  int
}

// Normalize trims text fields and applies paging defaults.
func (f Filter) Normalize() Filter {
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if f.Author < 0 {
		f.Author = 0
	}
	return f
}

// Key returns the canonical form of the normalized filter. Every field takes
// part and pairs are sorted by name, so structurally equal filters share a key.
func (f Filter) Key() string {
	f = f.Normalize()
	v := url.Values{}
	v.Set("category", f.Category)
	v.Set("search", f.Search)
	v.Set("after", formatTime(f.After))
	v.Set("before", formatTime(f.Before))
	v.Set("author", strconv.Itoa(f.Author))
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("per_page", strconv.Itoa(f.PerPage))
	return v.Encode()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Page is one page of posts plus the server-reported totals, which differ
// from len(Items) once pagination is in effect.
type Page struct {
	Items      []model.ContentItem
	Total      int
	TotalPages int
}
