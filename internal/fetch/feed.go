package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// FeedSource reads the site's RSS feed. It is much cheaper than the REST
// endpoint and is enough for change detection, but carries no image sizes.
type FeedSource struct {
	url           string
	client        *http.Client
	userAgent     string
	defaultAuthor string
	logger        *otel.Logger
}

// NewFeedSource creates a FeedSource for feedURL (usually https://site/feed/).
func NewFeedSource(feedURL string, timeout time.Duration, l *otel.Logger) *FeedSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if l == nil {
		l = otel.NewNullLogger()
	}
	return &FeedSource{
		url:           feedURL,
		client:        &http.Client{Timeout: timeout},
		userAgent:     defaultUserAgent,
		defaultAuthor: model.DefaultAuthor,
		logger:        l,
	}
}

// Recent returns up to n items from the feed, newest first as published.
// Items whose post id cannot be recovered are skipped.
func (s *FeedSource) Recent(ctx context.Context, n int) ([]model.ContentItem, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	span := s.logger.Begin(otel.KindFetchStart, "feed", s.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Method: http.MethodGet, URL: s.url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &DecodeError{URL: s.url, Err: err}
	}

	items := make([]model.ContentItem, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if n > 0 && len(items) >= n {
			break
		}
		item, ok := s.convert(fi)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	span.End(otel.KindFetchComplete, len(items))
	return items, nil
}

func (s *FeedSource) convert(fi *gofeed.Item) (model.ContentItem, bool) {
	id := postIDFromGUID(fi.GUID)
	if id == 0 {
		id = postIDFromGUID(fi.Link)
	}
	if id == 0 {
		return model.ContentItem{}, false
	}

	item := model.ContentItem{
		ID:      id,
		Link:    fi.Link,
		Title:   fi.Title,
		Content: fi.Content,
		Excerpt: fi.Description,
		Author:  s.defaultAuthor,
	}
	if fi.PublishedParsed != nil {
		item.Published = fi.PublishedParsed.UTC()
	}
	if fi.UpdatedParsed != nil {
		item.Modified = fi.UpdatedParsed.UTC()
	}
	if fi.Author != nil && strings.TrimSpace(fi.Author.Name) != "" {
		item.Author = fi.Author.Name
	}
	if fi.Image != nil {
		item.FeaturedImageURL = fi.Image.URL
	}
	return item, true
}

// postIDFromGUID extracts the numeric post id from a WordPress guid such as
// "https://www.example.com/?p=123".
func postIDFromGUID(guid string) int64 {
	u, err := url.Parse(strings.TrimSpace(guid))
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(u.Query().Get("p"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
