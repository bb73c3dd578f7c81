// Package otel records structured events for the sync layer.
//
// Events are typed structs written as JSONL by an async Logger. Fetches,
// cache decisions, poll cycles and analytics all land in the same file, so
// `eidnews events` can replay what the reader did and why.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Content source
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"
	KindCategoryMiss  EventKind = "fetch.category_miss"

	// Result cache
	KindCacheHit   EventKind = "cache.hit"
	KindCacheMiss  EventKind = "cache.miss"
	KindCacheClear EventKind = "cache.clear"
	KindCacheEvict EventKind = "cache.evict"

	// Change detector
	KindPollStart       EventKind = "poll.start"
	KindPollComplete    EventKind = "poll.complete"
	KindPollError       EventKind = "poll.error"
	KindUpdate          EventKind = "realtime.update"
	KindSubscriberPanic EventKind = "realtime.subscriber_panic"

	// Analytics
	KindAnalyticsError EventKind = "analytics.error"

	// UI
	KindKeyPress    EventKind = "ui.key"
	KindMsgReceived EventKind = "trace.msg_received"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// AnalyticsKind returns the kind used for an analytics event name,
// e.g. "analytics.article_view".
func AnalyticsKind(name string) EventKind {
	return EventKind("analytics." + name)
}

// Event is one observability record. Only Kind is required.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "fetch", "cache", "realtime", "ui", "main"
	SessionID string         `json:"session_id,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	PostID    int64          `json:"post_id,omitempty"`
	Source    string         `json:"source,omitempty"`
	Query     string         `json:"query,omitempty"` // cache key or category
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON converts Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := struct {
		alias
	}{alias: alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
