package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// memSink records events and can be told to fail.
type memSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memSink) Record(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memSink) last(t *testing.T) Event {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		t.Fatal("no events recorded")
	}
	return m.events[len(m.events)-1]
}

func testArticle() model.ContentItem {
	return model.ContentItem{
		ID:         4242,
		Title:      "Snake River &amp; you",
		Author:     "Nate Eaton",
		Categories: []int{2, 7},
	}
}

func TestTrackerEvents(t *testing.T) {
	sink := &memSink{}
	tr := NewTracker(sink, nil)
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	tr.SessionStart()
	if e := sink.last(t); e.Name != SessionStartEvent || e.Params["platform"] != "terminal" {
		t.Errorf("session_start = %+v", e)
	}

	tr.ArticleView(testArticle())
	e := sink.last(t)
	if e.Name != ArticleViewEvent {
		t.Errorf("Name = %q", e.Name)
	}
	if e.Params["article_id"] != int64(4242) || e.Params["article_title"] != "Snake River & you" {
		t.Errorf("params = %v", e.Params)
	}
	if e.Params["categories"] != "2,7" || e.Params["author"] != "Nate Eaton" {
		t.Errorf("params = %v", e.Params)
	}
	if !e.Time.Equal(fixed) {
		t.Errorf("Time = %v", e.Time)
	}

	tr.ReadTime(testArticle(), 93600*time.Millisecond)
	if e := sink.last(t); e.Name != ReadTimeEvent || e.Params["read_seconds"] != int64(94) {
		t.Errorf("read time = %+v", e)
	}

	tr.CategoryView("")
	if e := sink.last(t); e.Name != CategoryViewEvent || e.Params["category"] != "all" {
		t.Errorf("category_view = %+v", e)
	}
}

func TestTrackerSessionID(t *testing.T) {
	sink := &memSink{}
	a := NewTracker(sink, nil)
	b := NewTracker(sink, nil)

	if a.SessionID() == "" || a.SessionID() == b.SessionID() {
		t.Fatalf("session ids not unique: %q %q", a.SessionID(), b.SessionID())
	}
	a.CategoryView("news")
	a.CategoryView("sports")
	for _, e := range sink.events {
		if e.SessionID != a.SessionID() {
			t.Errorf("event session = %q, want %q", e.SessionID, a.SessionID())
		}
	}
}

func TestTrackerSwallowsSinkErrors(t *testing.T) {
	var buf bytes.Buffer
	l := otel.NewLogger(&buf)
	tr := NewTracker(&memSink{err: errors.New("quota exceeded")}, l)

	tr.ArticleView(testArticle())
	l.Close()

	if !strings.Contains(buf.String(), `"kind":"analytics.error"`) {
		t.Errorf("expected analytics.error event, got %s", buf.String())
	}
}

func TestTrackerSwallowsSinkPanics(t *testing.T) {
	tr := NewTracker(SinkFunc(func(context.Context, Event) error {
		panic("sink exploded")
	}), nil)

	tr.SessionStart()
}

func TestNilSinkDiscards(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.CategoryView("crime")
}

func TestMulti(t *testing.T) {
	a, b := &memSink{}, &memSink{err: errors.New("down")}
	c := &memSink{}
	s := Multi(a, nil, b, c)

	err := s.Record(context.Background(), Event{Name: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Errorf("err = %v", err)
	}
	if len(a.events) != 1 || len(c.events) != 1 {
		t.Error("healthy sinks should still receive the event")
	}

	if Multi() != Discard {
		t.Error("empty Multi should be Discard")
	}
	if Multi(a) != Sink(a) {
		t.Error("single Multi should return the sink itself")
	}
}

func TestJSONLSink(t *testing.T) {
	var buf bytes.Buffer
	l := otel.NewLogger(&buf)
	sink := NewJSONLSink(l)

	err := sink.Record(context.Background(), Event{
		Name:      ArticleViewEvent,
		Params:    map[string]any{"article_id": 7},
		Time:      time.Now(),
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if got["kind"] != "analytics.article_view" || got["session_id"] != "sess-1" {
		t.Errorf("event = %v", got)
	}
	extra, _ := got["extra"].(map[string]any)
	if extra["article_id"] != float64(7) {
		t.Errorf("extra = %v", extra)
	}
}
