// Package realtime polls the content source for posts it has not announced
// yet and fans them out to subscribers.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AlexLem84/east-idaho-news-app/internal/logging"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/otel"
)

const (
	// DefaultInterval is the pause between the end of one poll and the
	// start of the next.
	DefaultInterval = 30 * time.Second
	// DefaultRecent is how many of the newest posts each poll inspects.
	DefaultRecent = 10
)

// Source returns the n most recent posts, newest first.
// Satisfied by *fetch.Client and *fetch.FeedSource.
type Source interface {
	Recent(ctx context.Context, n int) ([]model.ContentItem, error)
}

// Options configures a Detector. Zero values select defaults.
type Options struct {
	Interval  time.Duration
	Recent    int
	SeenLimit int
	SeenKeep  int
	Logger    *otel.Logger
}

type subscriber struct {
	id int
	fn func(Update)
}

// Detector is a two-state poller: stopped or polling. Polls never overlap,
// and a poll that is running when Stop is called still delivers.
type Detector struct {
	src      Source
	interval time.Duration
	recent   int
	logger   *otel.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc // nil when stopped
	done   chan struct{}      // closed when the most recent loop exits

	pollMu sync.Mutex // serializes polls; guards seen
	seen   *SeenSet

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

// NewDetector creates a stopped Detector reading from src.
func NewDetector(src Source, opts Options) *Detector {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	recent := opts.Recent
	if recent <= 0 {
		recent = DefaultRecent
	}
	l := opts.Logger
	if l == nil {
		l = otel.NewNullLogger()
	}
	return &Detector{
		src:      src,
		interval: interval,
		recent:   recent,
		logger:   l,
		now:      time.Now,
		seen:     NewSeenSet(opts.SeenLimit, opts.SeenKeep),
	}
}

// Start begins polling: once immediately, then Interval after each poll
// completes. Calling Start while polling is a no-op. Cancelling ctx stops
// the loop like Stop does.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	prev := d.done
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	go d.run(loopCtx, prev, done)
}

// Stop cancels the pending wait. A poll already running completes and
// delivers its updates. Stop is idempotent.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel == nil {
		return
	}
	d.cancel()
	d.cancel = nil
}

// Polling reports whether the loop is running.
func (d *Detector) Polling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

// Wait blocks until the most recently started loop has exited.
// Call after Stop or after cancelling the context passed to Start.
func (d *Detector) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (d *Detector) run(ctx context.Context, prev <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer d.exited(done)

	// A restart must not overlap the previous loop's last poll.
	if prev != nil {
		<-prev
	}

	for {
		if ctx.Err() != nil {
			return
		}
		d.poll(context.WithoutCancel(ctx))

		timer := time.NewTimer(d.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// exited moves the detector to stopped if the loop ended on its own, e.g.
// because the parent context was cancelled.
func (d *Detector) exited(done chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done == done && d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Prime fetches once and marks every returned post as seen without
// announcing anything, so a fresh process does not report the whole front
// page as new.
func (d *Detector) Prime(ctx context.Context) error {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()

	items, err := d.src.Recent(ctx, d.recent)
	if err != nil {
		return fmt.Errorf("prime seen set: %w", err)
	}
	for _, it := range items {
		d.seen.Add(it.ID)
	}
	logging.Debug("realtime: primed", "count", len(items))
	return nil
}

// poll runs one cycle. Errors are logged and returned for tests; the loop
// ignores them.
func (d *Detector) poll(ctx context.Context) error {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()

	span := d.logger.Begin(otel.KindPollStart, "realtime", "")

	items, err := d.src.Recent(ctx, d.recent)
	if err != nil {
		logging.Warn("realtime: poll failed", "err", err)
		span.Fail(otel.KindPollError, err)
		return err
	}

	now := d.now()
	var updates []Update
	for _, it := range items {
		if !d.seen.Add(it.ID) {
			continue
		}
		updates = append(updates, Update{Type: Classify(it, now), Item: it, Timestamp: now})
	}

	span.End(otel.KindPollComplete, len(updates))

	for _, u := range updates {
		d.logger.Emit(otel.Event{
			Level:  otel.LevelInfo,
			Kind:   otel.KindUpdate,
			Comp:   "realtime",
			PostID: u.Item.ID,
			Msg:    string(u.Type),
		})
		d.deliver(u)
	}
	return nil
}

// Subscribe registers fn for every future update and returns a function
// that removes it. Callbacks run on the poll goroutine in registration
// order; a panicking callback is logged and does not affect the others.
func (d *Detector) Subscribe(fn func(Update)) (unsubscribe func()) {
	d.subMu.Lock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscriber{id: id, fn: fn})
	d.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.subMu.Lock()
			defer d.subMu.Unlock()
			for i, s := range d.subs {
				if s.id == id {
					d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of registered callbacks.
func (d *Detector) Subscribers() int {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	return len(d.subs)
}

func (d *Detector) deliver(u Update) {
	d.subMu.Lock()
	subs := make([]subscriber, len(d.subs))
	copy(subs, d.subs)
	d.subMu.Unlock()

	for _, s := range subs {
		d.safeCall(s, u)
	}
}

func (d *Detector) safeCall(s subscriber, u Update) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("realtime: subscriber panicked", "subscriber", s.id, "post", u.Item.ID, "panic", r)
			d.logger.Emit(otel.Event{
				Level:  otel.LevelError,
				Kind:   otel.KindSubscriberPanic,
				Comp:   "realtime",
				PostID: u.Item.ID,
				Err:    fmt.Sprint(r),
			})
		}
	}()
	s.fn(u)
}
