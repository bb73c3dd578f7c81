package ui

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(nil, nil, 80, 24)
	if result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindFetchComplete, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindFetchComplete, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindFetchError, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindCacheHit, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindCacheMiss, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindPollComplete, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindUpdate, Time: time.Now()})

	result := debugOverlay(ring, nil, 120, 40)

	if !strings.Contains(result, "Sync Stats") {
		t.Error("overlay should contain 'Sync Stats' header")
	}
	if !strings.Contains(result, "2 complete, 1 errors") {
		t.Errorf("overlay should show fetch stats, got:\n%s", result)
	}
	if !strings.Contains(result, "1 hits, 1 misses") {
		t.Errorf("overlay should show cache stats, got:\n%s", result)
	}
	if !strings.Contains(result, "1 updates") {
		t.Errorf("overlay should show poll stats, got:\n%s", result)
	}
	if !strings.Contains(result, "7 buffered") {
		t.Errorf("overlay should show buffer size, got:\n%s", result)
	}
}

func TestDebugOverlayShowsEventLogCounts(t *testing.T) {
	log := otel.NewLogger(io.Discard)
	ring := otel.NewRingBuffer(16)
	log.SetRingBuffer(ring)
	log.Info(otel.KindStartup, "main", "")
	log.Info(otel.KindCacheClear, "cache", "")
	log.Info(otel.KindShutdown, "main", "")
	log.Close()

	result := debugOverlay(ring, log, 120, 40)
	if !strings.Contains(result, "3 written, 0 dropped, 3 buffered") {
		t.Errorf("overlay should show event log counts, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindFetchStart, Time: time.Now(), Msg: "hello world"})
	ring.Push(otel.Event{Kind: otel.KindPollError, Time: time.Now(), Err: "timeout"})

	result := debugOverlay(ring, nil, 120, 40)

	if !strings.Contains(result, "Recent Events") {
		t.Error("overlay should contain 'Recent Events' header")
	}
	if !strings.Contains(result, "hello world") {
		t.Errorf("overlay should show event message, got:\n%s", result)
	}
	if !strings.Contains(result, "ERR:timeout") {
		t.Errorf("overlay should show error, got:\n%s", result)
	}
}

func TestDebugOverlayLatestUpdates(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindUpdate, Time: time.Now(), PostID: 101, Msg: "breaking_news"})
	for i := 0; i < 10; i++ {
		ring.Push(otel.Event{Kind: otel.KindCacheHit, Time: time.Now()})
	}
	ring.Push(otel.Event{Kind: otel.KindSubscriberPanic, Time: time.Now(), PostID: 999})

	result := debugOverlay(ring, nil, 120, 60)
	if !strings.Contains(result, "Latest Updates") {
		t.Fatalf("overlay should list realtime updates, got:\n%s", result)
	}
	if !strings.Contains(result, "post 101") || !strings.Contains(result, "breaking_news") {
		t.Errorf("overlay should show the update, got:\n%s", result)
	}
	if strings.Contains(result, "post 999") {
		t.Errorf("subscriber panics are not updates, got:\n%s", result)
	}
}

func TestDebugOverlayNoUpdatesSection(t *testing.T) {
	ring := otel.NewRingBuffer(8)
	ring.Push(otel.Event{Kind: otel.KindCacheHit, Time: time.Now()})
	if result := debugOverlay(ring, nil, 120, 40); strings.Contains(result, "Latest Updates") {
		t.Errorf("no updates section expected, got:\n%s", result)
	}
}

func TestDebugOverlayTruncatesToHeight(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindCacheHit, Time: time.Now()})
	}
	result := debugOverlay(ring, nil, 120, 12)
	if got := strings.Count(result, "\n") + 1; got > 12 {
		t.Errorf("overlay is %d lines, want <= 12", got)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{3 * time.Minute, "3m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
