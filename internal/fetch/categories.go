package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Reserved aggregate tokens.
const (
	AllSports   = "all sports"
	AllFeatured = "all featured"
)

// DefaultAggregates maps the reserved tokens to the site's category ids.
func DefaultAggregates() map[string][]int {
	return map[string][]int{
		AllSports:   {7, 4516, 4517, 4518, 4519, 4520},
		AllFeatured: {2, 3, 5, 6},
	}
}

type wpCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ResolveCategories turns a category filter value into category ids.
//
//   - "" yields no constraint (nil, nil)
//   - a reserved aggregate token yields its fixed id list
//   - an integer is used as the id
//   - anything else is looked up as a slug; no match returns ErrResolutionMiss
func (c *Client) ResolveCategories(ctx context.Context, category string) ([]int, error) {
	cat := strings.TrimSpace(category)
	if cat == "" {
		return nil, nil
	}

	if ids, ok := c.aggregates[strings.ToLower(cat)]; ok {
		out := make([]int, len(ids))
		copy(out, ids)
		return out, nil
	}

	if id, err := strconv.Atoi(cat); err == nil {
		return []int{id}, nil
	}

	slug := slugify(cat)
	q := url.Values{}
	q.Set("slug", slug)

	var cats []wpCategory
	if _, err := c.getJSON(ctx, "/wp/v2/categories", q, &cats); err != nil {
		return nil, err
	}
	for _, wc := range cats {
		if wc.ID > 0 {
			return []int{wc.ID}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrResolutionMiss, slug)
}

// slugify lowercases and hyphenates a display name the way WordPress builds
// default slugs ("Local News" -> "local-news").
func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
