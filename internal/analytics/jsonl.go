package analytics

import (
	"context"

	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

// JSONLSink writes events into the observability log as
// "analytics.<name>" records.
type JSONLSink struct {
	logger *otel.Logger
}

// NewJSONLSink creates a sink on l.
func NewJSONLSink(l *otel.Logger) *JSONLSink {
	return &JSONLSink{logger: l}
}

// Record emits e. It never fails; the logger drops events when its buffer
// is full.
func (s *JSONLSink) Record(_ context.Context, e Event) error {
	s.logger.Emit(otel.Event{
		Time:      e.Time,
		Level:     otel.LevelInfo,
		Kind:      otel.AnalyticsKind(e.Name),
		Comp:      "analytics",
		SessionID: e.SessionID,
		Extra:     e.Params,
	})
	return nil
}
