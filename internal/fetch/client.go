// Package fetch is the content source adapter for a WordPress REST API.
//
// It turns a Filter into a /wp/v2/posts request, resolves category aliases,
// and reports the server-side total separately from the page it returns.
// It does not cache; that is the job of package cache.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlexLem84/east-idaho-news-app/internal/logging"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// DefaultBaseURL is the REST root of the site.
const DefaultBaseURL = "https://www.eastidahonews.com/wp-json"

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "eidnews/1.0 (+https://github.com/AlexLem84/east-idaho-news-app)"

	// maxBodyBytes bounds a single response; a 100-post page with _embed is
	// a few MB.
	maxBodyBytes = 32 << 20
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64 // <= 0 disables limiting
	Burst             int
	Aggregates        map[string][]int
	DefaultAuthor     string
	HTTPClient        *http.Client // overrides Timeout when set
	Logger            *otel.Logger
}

// Client talks to one WordPress site.
type Client struct {
	base          string
	client        *http.Client
	userAgent     string
	limiter       *rate.Limiter
	aggregates    map[string][]int
	defaultAuthor string
	logger        *otel.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	aggregates := make(map[string][]int)
	src := opts.Aggregates
	if src == nil {
		src = DefaultAggregates()
	}
	for token, ids := range src {
		aggregates[strings.ToLower(strings.TrimSpace(token))] = ids
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	author := opts.DefaultAuthor
	if author == "" {
		author = model.DefaultAuthor
	}
	l := opts.Logger
	if l == nil {
		l = otel.NewNullLogger()
	}

	return &Client{
		base:          base,
		client:        hc,
		userAgent:     ua,
		limiter:       rate.NewLimiter(limit, burst),
		aggregates:    aggregates,
		defaultAuthor: author,
		logger:        l,
	}
}

// Fetch retrieves one page of posts matching f.
//
// A category that fails to resolve is logged and dropped from the query.
// Network failures and non-2xx responses return *TransportError; an
// unexpected payload returns *DecodeError.
func (c *Client) Fetch(ctx context.Context, f Filter) (Page, error) {
	f = f.Normalize()

	q := url.Values{}
	q.Set("_embed", "1")
	q.Set("per_page", strconv.Itoa(f.PerPage))
	q.Set("page", strconv.Itoa(f.Page))

	ids, err := c.ResolveCategories(ctx, f.Category)
	switch {
	case errors.Is(err, ErrResolutionMiss):
		logging.Debug("category unresolved, fetching unfiltered", "category", f.Category)
		c.logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCategoryMiss, Comp: "fetch", Query: f.Category})
	case err != nil:
		if ctx.Err() != nil {
			return Page{}, err
		}
		logging.Warn("category lookup failed, fetching unfiltered", "category", f.Category, "err", err)
		c.logger.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCategoryMiss, Comp: "fetch", Query: f.Category, Err: err.Error()})
	case len(ids) > 0:
		q.Set("categories", joinIDs(ids))
	}

	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if !f.After.IsZero() {
		q.Set("after", formatTime(f.After))
	}
	if !f.Before.IsZero() {
		q.Set("before", formatTime(f.Before))
	}
	if f.Author > 0 {
		q.Set("author", strconv.Itoa(f.Author))
	}

	span := c.logger.Begin(otel.KindFetchStart, "fetch", f.Key())

	var posts []wpPost
	hdr, err := c.getJSON(ctx, "/wp/v2/posts", q, &posts)
	if err != nil {
		span.Fail(otel.KindFetchError, err)
		return Page{}, err
	}

	page := Page{Items: make([]model.ContentItem, 0, len(posts))}
	for _, p := range posts {
		page.Items = append(page.Items, p.toItem(c.defaultAuthor))
	}
	page.Total = headerInt(hdr, "X-WP-Total", len(page.Items))
	page.TotalPages = headerInt(hdr, "X-WP-TotalPages", 0)

	span.End(otel.KindFetchComplete, len(page.Items))
	return page, nil
}

// Recent returns the n most recently published posts.
func (c *Client) Recent(ctx context.Context, n int) ([]model.ContentItem, error) {
	page, err := c.Fetch(ctx, Filter{PerPage: n})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Post fetches a single post by id.
func (c *Client) Post(ctx context.Context, id int64) (model.ContentItem, error) {
	q := url.Values{}
	q.Set("_embed", "1")

	var p wpPost
	if _, err := c.getJSON(ctx, "/wp/v2/posts/"+strconv.FormatInt(id, 10), q, &p); err != nil {
		return model.ContentItem{}, err
	}
	if p.ID == 0 {
		return model.ContentItem{}, &DecodeError{URL: c.base + "/wp/v2/posts/" + strconv.FormatInt(id, 10), Err: errors.New("post has no id")}
	}
	return p.toItem(c.defaultAuthor), nil
}

// getJSON performs a rate-limited GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) (http.Header, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: u, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &TransportError{Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: u, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, &DecodeError{URL: u, Err: err}
	}
	return resp.Header, nil
}

func headerInt(h http.Header, key string, fallback int) int {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
