package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AlexLem84/east-idaho-news-app/internal/logging"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// recordTimeout bounds a single sink call.
const recordTimeout = 5 * time.Second

// Tracker stamps events with a session id and hands them to a sink.
// None of its methods return errors or panic.
type Tracker struct {
	sink      Sink
	logger    *otel.Logger
	sessionID string
	now       func() time.Time
}

// NewTracker creates a Tracker with a fresh session id. A nil sink discards.
func NewTracker(sink Sink, l *otel.Logger) *Tracker {
	if sink == nil {
		sink = Discard
	}
	if l == nil {
		l = otel.NewNullLogger()
	}
	return &Tracker{
		sink:      sink,
		logger:    l,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}
}

// SessionID returns the id attached to every event.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// SessionStart records the start of a reading session.
func (t *Tracker) SessionStart() {
	t.record(SessionStartEvent, map[string]any{"platform": "terminal"})
}

// ArticleView records that item was opened.
func (t *Tracker) ArticleView(item model.ContentItem) {
	t.record(ArticleViewEvent, map[string]any{
		"article_id":    item.ID,
		"article_title": item.PlainTitle(),
		"author":        item.Author,
		"categories":    joinInts(item.Categories),
	})
}

// ReadTime records how long item stayed open, in whole seconds.
func (t *Tracker) ReadTime(item model.ContentItem, d time.Duration) {
	t.record(ReadTimeEvent, map[string]any{
		"article_id":    item.ID,
		"article_title": item.PlainTitle(),
		"read_seconds":  int64(math.Round(d.Seconds())),
	})
}

// CategoryView records a switch to category ("" is the unfiltered list).
func (t *Tracker) CategoryView(category string) {
	if category == "" {
		category = "all"
	}
	t.record(CategoryViewEvent, map[string]any{"category": category})
}

func (t *Tracker) record(name string, params map[string]any) {
	e := Event{
		Name:      name,
		Params:    params,
		Time:      t.now(),
		SessionID: t.sessionID,
	}

	defer func() {
		if r := recover(); r != nil {
			t.fail(e, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := t.sink.Record(ctx, e); err != nil {
		t.fail(e, err)
	}
}

func (t *Tracker) fail(e Event, err error) {
	logging.Warn("analytics: event not recorded", "event", e.Name, "err", err)
	t.logger.Emit(otel.Event{
		Level:     otel.LevelWarn,
		Kind:      otel.KindAnalyticsError,
		Comp:      "analytics",
		SessionID: e.SessionID,
		Msg:       e.Name,
		Err:       err.Error(),
	})
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
