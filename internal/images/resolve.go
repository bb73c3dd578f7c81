// Package images picks the image URLs a view should try for an article,
// best candidate first.
package images

import (
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

// oversize is how far past the target width a tier may be and still win
// the width match.
const oversize = 1.5

// Resolver orders image candidates. PreferSmall puts the thumbnail and
// medium tiers first, for constrained clients where a fast first paint
// matters more than sharpness.
type Resolver struct {
	PreferSmall bool
}

// Resolve returns the deduplicated candidate URLs for item. targetWidth <= 0
// means no width preference. The original upload URL always closes the list
// when the item has one. The result is empty for items without an image.
func (r Resolver) Resolve(item model.ContentItem, targetWidth int) []string {
	var list candidates
	m := item.Media

	if r.PreferSmall && m != nil {
		list.add(m.Sizes[model.TierThumbnail].URL)
		list.add(m.Sizes[model.TierMedium].URL)
	}

	if targetWidth > 0 && m != nil {
		if t, ok := closestTier(m, targetWidth); ok {
			list.add(m.Sizes[t].URL)
		}
	}

	if m != nil {
		for _, t := range model.TierOrder {
			list.add(m.Sizes[t].URL)
		}
	}

	list.add(item.OriginalImageURL())
	return list.urls
}

// closestTier returns the tier whose width is nearest target, admitting only
// tiers no wider than oversize*target. Ties go to the earlier tier in
// Media.Tiers order.
func closestTier(m *model.Media, target int) (model.Tier, bool) {
	limit := oversize * float64(target)
	var (
		best     model.Tier
		bestDiff = -1
	)
	for _, t := range m.Tiers() {
		v := m.Sizes[t]
		if v.URL == "" || v.Width <= 0 || float64(v.Width) > limit {
			continue
		}
		diff := v.Width - target
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = t, diff
		}
	}
	return best, bestDiff >= 0
}

// Next returns the candidate after failed, or "" once the list is
// exhausted. A URL not in the list restarts from the first candidate.
func Next(list []string, failed string) string {
	for i, u := range list {
		if u == failed {
			if i+1 < len(list) {
				return list[i+1]
			}
			return ""
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return ""
}

// candidates is an insertion-ordered set of URLs.
type candidates struct {
	urls []string
	seen map[string]bool
}

func (c *candidates) add(u string) {
	if u == "" || c.seen[u] {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	c.seen[u] = true
	c.urls = append(c.urls, u)
}
