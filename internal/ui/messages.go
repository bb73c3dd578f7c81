// Package ui provides the Bubble Tea reader for eidnews.
package ui

import (
	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
)

// PageLoaded is sent when a query finishes. An empty Items with a nil Err
// may still mean the fetch failed upstream; the view offers a retry either
// way.
type PageLoaded struct {
	Filter  fetch.Filter
	Items   []model.ContentItem
	Total   int
	HasMore bool
	Cached  bool
	Err     error
}

// CacheCleared is sent after the result cache has been emptied.
type CacheCleared struct{}

// UpdateReceived carries a change-detector update into the program.
type UpdateReceived struct {
	Update realtime.Update
}
