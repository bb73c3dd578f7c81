// Package cache memoizes article queries by their canonical filter key.
//
// Entries live until Clear or Invalidate by default; Options.TTL and
// Options.MaxEntries bound them when the process is long-lived.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/logging"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// prefetchConcurrency limits parallel fetches in Prefetch.
const prefetchConcurrency = 4

// Fetcher is the content source the cache sits in front of.
type Fetcher interface {
	Fetch(ctx context.Context, f fetch.Filter) (fetch.Page, error)
}

// Options tunes eviction. Zero values keep entries forever.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Logger     *otel.Logger
}

// Result is a cached page. HasMore is computed once, when the entry is
// populated, and is not revised if the server total later changes.
type Result struct {
	Items   []model.ContentItem
	Total   int
	HasMore bool
	Cached  bool // served without calling the source
}

type entry struct {
	result Result
	stored time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	src    Fetcher
	ttl    time.Duration
	max    int
	logger *otel.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	order   []string // insertion order, oldest first
	total   int
	gen     uint64 // bumped by Clear

	group singleflight.Group
}

// New creates a Cache in front of src.
func New(src Fetcher, opts Options) *Cache {
	l := opts.Logger
	if l == nil {
		l = otel.NewNullLogger()
	}
	return &Cache{
		src:     src,
		ttl:     opts.TTL,
		max:     opts.MaxEntries,
		logger:  l,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// GetOrFetch returns the cached page for f, fetching it on a miss. A failed
// fetch yields an empty Result, so callers cannot tell "no articles" from
// "fetch failed"; use Lookup when that difference matters.
func (c *Cache) GetOrFetch(ctx context.Context, f fetch.Filter) Result {
	r, err := c.Lookup(ctx, f)
	if err != nil {
		logging.Warn("query failed, returning empty result", "key", f.Key(), "err", err)
		return Result{}
	}
	return r
}

// Lookup is GetOrFetch with the fetch error surfaced. Failures are never
// cached. Concurrent misses for the same filter share one fetch.
func (c *Cache) Lookup(ctx context.Context, f fetch.Filter) (Result, error) {
	f = f.Normalize()
	key := f.Key()

	if r, ok := c.get(key); ok {
		c.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheHit, Comp: "cache", Query: key, Count: len(r.Items)})
		return r, nil
	}
	c.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheMiss, Comp: "cache", Query: key})

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fill(ctx, f, key)
	})
	if err != nil {
		return Result{}, err
	}
	r := v.(Result)
	r.Items = cloneItems(r.Items)
	return r, nil
}

// fill runs inside the flight for key. A flight that finished between the
// caller's miss and this one may already have stored the page.
func (c *Cache) fill(ctx context.Context, f fetch.Filter, key string) (Result, error) {
	if r, ok := c.get(key); ok {
		return r, nil
	}
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	page, err := c.src.Fetch(ctx, f)
	if err != nil {
		return Result{}, err
	}
	r := Result{
		Items:   page.Items,
		Total:   page.Total,
		HasMore: (f.Page-1)*f.PerPage+len(page.Items) < page.Total,
	}
	c.put(key, r, gen)
	return r, nil
}

// Prefetch warms the cache for several filters concurrently and returns the
// first error encountered.
func (c *Cache) Prefetch(ctx context.Context, filters ...fetch.Filter) error {
	var g errgroup.Group
	g.SetLimit(prefetchConcurrency)
	for _, f := range filters {
		g.Go(func() error {
			_, err := c.Lookup(ctx, f)
			return err
		})
	}
	return g.Wait()
}

// Clear drops every entry and resets Total. Fetches already in flight still
// return to their callers but are not stored.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.order = nil
	c.total = 0
	c.gen++
	c.mu.Unlock()

	c.logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCacheClear, Comp: "cache", Count: n})
}

// Invalidate drops the entry for f, if any.
func (c *Cache) Invalidate(f fetch.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(f.Key())
}

// Total returns the server total reported by the most recent populating
// fetch, or 0 after Clear.
func (c *Cache) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.stored) >= c.ttl {
		c.remove(key)
		return Result{}, false
	}
	r := e.result
	r.Items = cloneItems(r.Items)
	r.Cached = true
	return r, true
}

func (c *Cache) put(key string, r Result, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = &entry{result: r, stored: c.now()}
	c.total = r.Total

	for c.max > 0 && len(c.entries) > c.max {
		oldest := c.order[0]
		c.remove(oldest)
		c.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheEvict, Comp: "cache", Query: oldest})
	}
}

// remove deletes key. Caller holds c.mu.
func (c *Cache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func cloneItems(items []model.ContentItem) []model.ContentItem {
	if items == nil {
		return nil
	}
	out := make([]model.ContentItem, len(items))
	copy(out, items)
	return out
}
