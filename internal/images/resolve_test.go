package images

import (
	"testing"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
)

func testItem() model.ContentItem {
	return model.ContentItem{
		ID: 1,
		Media: &model.Media{
			SourceURL: "https://cdn/orig.jpg",
			Sizes: map[model.Tier]model.ImageVariant{
				model.TierThumbnail: {URL: "https://cdn/t.jpg", Width: 150},
				model.TierMedium:    {URL: "https://cdn/m.jpg", Width: 400},
				model.TierLarge:     {URL: "https://cdn/l.jpg", Width: 1200},
			},
		},
	}
}

func assertURLs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func assertUnique(t *testing.T, urls []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, u := range urls {
		if seen[u] {
			t.Errorf("duplicate URL %q in %v", u, urls)
		}
		seen[u] = true
	}
}

func TestResolveExactWidthMatchFirst(t *testing.T) {
	got := Resolver{}.Resolve(testItem(), 400)
	assertURLs(t, got, []string{
		"https://cdn/m.jpg",
		"https://cdn/t.jpg",
		"https://cdn/l.jpg",
		"https://cdn/orig.jpg",
	})
}

func TestResolveNoTargetUsesTierOrder(t *testing.T) {
	got := Resolver{}.Resolve(testItem(), 0)
	assertURLs(t, got, []string{
		"https://cdn/t.jpg",
		"https://cdn/m.jpg",
		"https://cdn/l.jpg",
		"https://cdn/orig.jpg",
	})
}

func TestResolveRejectsOversizedTier(t *testing.T) {
	// 1.5*700 = 1050 excludes large, so medium is the closest admissible.
	got := Resolver{}.Resolve(testItem(), 700)
	if got[0] != "https://cdn/m.jpg" {
		t.Errorf("expected medium first, got %v", got)
	}

	// 1.5*900 = 1350 admits large, which is closer than medium.
	got = Resolver{}.Resolve(testItem(), 900)
	if got[0] != "https://cdn/l.jpg" {
		t.Errorf("expected large first, got %v", got)
	}
}

func TestResolveNoAdmissibleTier(t *testing.T) {
	// Even the thumbnail is wider than 1.5*50.
	got := Resolver{}.Resolve(testItem(), 50)
	assertURLs(t, got, []string{
		"https://cdn/t.jpg",
		"https://cdn/m.jpg",
		"https://cdn/l.jpg",
		"https://cdn/orig.jpg",
	})
}

func TestResolveTieGoesToEarlierTier(t *testing.T) {
	item := model.ContentItem{Media: &model.Media{
		SourceURL: "o",
		Sizes: map[model.Tier]model.ImageVariant{
			model.TierMedium: {URL: "m", Width: 300},
			model.TierLarge:  {URL: "l", Width: 500},
		},
	}}
	got := Resolver{}.Resolve(item, 400)
	if got[0] != "m" {
		t.Errorf("expected medium on tie, got %v", got)
	}
}

func TestResolvePreferSmall(t *testing.T) {
	got := Resolver{PreferSmall: true}.Resolve(testItem(), 1200)
	assertURLs(t, got, []string{
		"https://cdn/t.jpg",
		"https://cdn/m.jpg",
		"https://cdn/l.jpg",
		"https://cdn/orig.jpg",
	})
}

func TestResolveDeduplicates(t *testing.T) {
	item := testItem()
	item.Media.Sizes[model.TierFull] = model.ImageVariant{URL: "https://cdn/orig.jpg", Width: 2400}
	item.Media.Sizes[model.TierMediumLarge] = model.ImageVariant{URL: "https://cdn/m.jpg", Width: 768}

	for _, r := range []Resolver{{}, {PreferSmall: true}} {
		for _, w := range []int{0, 150, 400, 768, 5000} {
			got := r.Resolve(item, w)
			assertUnique(t, got)
			if w > 2400 {
				continue // full (the original) wins the width match
			}
			if got[len(got)-1] != "https://cdn/orig.jpg" {
				t.Errorf("width %d: expected original last, got %v", w, got)
			}
		}
	}
}

func TestResolveOriginalOnly(t *testing.T) {
	item := model.ContentItem{FeaturedImageURL: "https://cdn/flat.jpg"}
	assertURLs(t, Resolver{}.Resolve(item, 400), []string{"https://cdn/flat.jpg"})

	if got := (Resolver{}).Resolve(model.ContentItem{}, 400); len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestNext(t *testing.T) {
	list := []string{"a", "b", "c"}
	tests := []struct {
		failed string
		want   string
	}{
		{"a", "b"},
		{"b", "c"},
		{"c", ""},
		{"zzz", "a"},
	}
	for _, tt := range tests {
		if got := Next(list, tt.failed); got != tt.want {
			t.Errorf("Next(%q) = %q, want %q", tt.failed, got, tt.want)
		}
	}
	if Next(nil, "a") != "" {
		t.Error("expected empty for empty list")
	}
}
