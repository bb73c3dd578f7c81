package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlexLem84/east-idaho-news-app/internal/analytics"
	"github.com/AlexLem84/east-idaho-news-app/internal/cache"
	"github.com/AlexLem84/east-idaho-news-app/internal/config"
	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/logging"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
	"github.com/AlexLem84/east-idaho-news-app/internal/store"
	"github.com/AlexLem84/east-idaho-news-app/internal/ui"
)

// ringSize is the number of recent events kept for the debug overlay.
const ringSize = 512

// services holds every long-lived component. Each is constructed once here
// and passed to its consumers; nothing is a package-level singleton.
type services struct {
	cfg      *config.Config
	events   *otel.Logger
	ring     *otel.RingBuffer
	client   *fetch.Client
	cache    *cache.Cache
	detector *realtime.Detector
	tracker  *analytics.Tracker

	eventsFile *os.File
	store      *store.Store
	kafka      *analytics.KafkaSink
}

// newServices wires the sync layer from cfg. Analytics sinks beyond the
// event log are only opened when withAnalytics is set.
func newServices(cfg *config.Config, withAnalytics bool) (*services, error) {
	s := &services{cfg: cfg}

	if err := logging.Init(cfg.LogDir(), cfg.Logging.Level); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.EventsPath()), 0o755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	s.eventsFile = f
	s.events = otel.NewLogger(f)
	s.ring = otel.NewRingBuffer(ringSize)
	s.events.SetRingBuffer(s.ring)
	s.events.Info(otel.KindStartup, "main", version)

	s.client = fetch.NewClient(fetch.Options{
		BaseURL:           cfg.Source.BaseURL,
		Timeout:           cfg.Source.TimeoutDuration(),
		UserAgent:         cfg.Source.UserAgent,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Burst:             cfg.Source.Burst,
		Aggregates:        cfg.Categories.Aggregates,
		DefaultAuthor:     cfg.Source.DefaultAuthor,
		Logger:            s.events,
	})

	s.cache = cache.New(s.client, cache.Options{
		TTL:        cfg.Cache.TTLDuration(),
		MaxEntries: cfg.Cache.MaxEntries,
		Logger:     s.events,
	})

	var src realtime.Source = s.client
	if cfg.Realtime.Mode == config.ModeRSS {
		src = fetch.NewFeedSource(cfg.Source.FeedURL, cfg.Source.TimeoutDuration(), s.events)
	}
	s.detector = realtime.NewDetector(src, realtime.Options{
		Interval:  cfg.Realtime.IntervalDuration(),
		Recent:    cfg.Realtime.Recent,
		SeenLimit: cfg.Realtime.SeenLimit,
		SeenKeep:  cfg.Realtime.SeenKeep,
		Logger:    s.events,
	})

	sinks := []analytics.Sink{}
	if cfg.Analytics.Enabled {
		sinks = append(sinks, analytics.NewJSONLSink(s.events))
		if withAnalytics {
			if err := s.openArchive(); err != nil {
				// The event log still records analytics.
				logging.Warn("analytics archive unavailable", "path", cfg.DatabasePath(), "err", err)
			} else {
				sinks = append(sinks, s.store)
			}
			if cfg.Analytics.KafkaEnabled() {
				s.kafka = analytics.NewKafkaSink(cfg.Analytics.Kafka.Brokers, cfg.Analytics.Kafka.Topic)
				sinks = append(sinks, s.kafka)
			}
		}
	}
	s.tracker = analytics.NewTracker(analytics.Multi(sinks...), s.events)

	return s, nil
}

func (s *services) openArchive() error {
	path := s.cfg.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	s.store = st
	return nil
}

// page runs one query through the cache and packages it for the reader.
func (s *services) page(ctx context.Context, f fetch.Filter) ui.PageLoaded {
	r, err := s.cache.Lookup(ctx, f)
	if err != nil {
		logging.Warn("query failed", "key", f.Key(), "err", err)
	}
	return ui.PageLoaded{
		Filter:  f,
		Items:   r.Items,
		Total:   r.Total,
		HasMore: r.HasMore,
		Cached:  r.Cached,
		Err:     err,
	}
}

// startRealtime primes d when asked and then starts it, off the caller's
// goroutine. The returned channel closes once that is done; a cancelled ctx
// skips Start so nothing polls after shutdown begins.
func startRealtime(ctx context.Context, d *realtime.Detector, prime bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if prime {
			if err := d.Prime(ctx); err != nil {
				logging.Warn("priming change detector", "err", err)
			}
		}
		if ctx.Err() != nil {
			return
		}
		d.Start(ctx)
	}()
	return done
}

// Close stops the detector and releases files and connections.
func (s *services) Close() {
	s.detector.Stop()
	s.detector.Wait()

	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			logging.Warn("closing kafka writer", "err", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}

	s.events.Info(otel.KindShutdown, "main", "")
	s.events.Close()
	s.eventsFile.Close()
	logging.Close()
}
