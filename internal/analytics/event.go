// Package analytics records reader behaviour as named events with flat
// parameter maps. Delivery is fire-and-forget: a broken sink never reaches
// the caller.
package analytics

import (
	"context"
	"errors"
	"time"
)

// Event names.
const (
	SessionStartEvent = "session_start"
	ArticleViewEvent  = "article_view"
	ReadTimeEvent     = "article_read_time"
	CategoryViewEvent = "category_view"
)

// Event is one analytics record. Params values are scalars.
type Event struct {
	Name      string         `json:"name"`
	Params    map[string]any `json:"params,omitempty"`
	Time      time.Time      `json:"time"`
	SessionID string         `json:"session_id"`
}

// Sink persists or forwards events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type discard struct{}

func (discard) Record(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Sink = discard{}

type multi []Sink

// Multi fans an event out to every sink. All sinks are tried; their errors
// are joined.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return Discard
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (m multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
