package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSinkRecord(t *testing.T) {
	w := &fakeWriter{}
	s := &KafkaSink{writer: w, topic: "test"}
	now := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)

	err := s.Record(context.Background(), Event{
		Name:      CategoryViewEvent,
		Params:    map[string]any{"category": "sports"},
		Time:      now,
		SessionID: "abc",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "abc" || !msg.Time.Equal(now) {
		t.Errorf("key=%q time=%v", msg.Key, msg.Time)
	}

	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != CategoryViewEvent || got.Params["category"] != "sports" {
		t.Errorf("value = %+v", got)
	}

	s.Close()
	if !w.closed {
		t.Error("Close did not close writer")
	}
}

func TestKafkaSinkWriteError(t *testing.T) {
	broker := errors.New("leader not available")
	s := &KafkaSink{writer: &fakeWriter{err: broker}, topic: "test"}

	err := s.Record(context.Background(), Event{Name: SessionStartEvent})
	if !errors.Is(err, broker) {
		t.Errorf("err = %v", err)
	}
}

func TestNewKafkaSinkDefaultTopic(t *testing.T) {
	s := NewKafkaSink([]string{"localhost:9092"}, "")
	defer s.Close()
	if s.topic != DefaultTopic {
		t.Errorf("topic = %q", s.topic)
	}
	w, ok := s.writer.(*kafka.Writer)
	if !ok || w.Topic != DefaultTopic {
		t.Errorf("writer = %#v", s.writer)
	}
}
