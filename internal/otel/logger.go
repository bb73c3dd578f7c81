package otel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the events waiting for the writer goroutine.
const queueSize = 4096

type queued struct {
	line []byte
	ev   Event
}

// Logger appends events to a JSONL stream from one writer goroutine, which
// is the only goroutine touching w. Emit never blocks: when the queue is
// full the event is counted as dropped.
type Logger struct {
	ringMu sync.Mutex
	ring   *RingBuffer

	session string
	queue   chan queued
	w       io.Writer

	written atomic.Uint64
	dropped atomic.Uint64
	closed  atomic.Bool

	discard   bool
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session: uuid.NewString(),
		queue:   make(chan queued, queueSize),
		w:       w,
		stopped: make(chan struct{}),
	}
	go l.writeLoop()
	return l
}

// NewNullLogger returns a Logger that discards everything. It starts no
// writer goroutine and needs no Close.
func NewNullLogger() *Logger {
	return &Logger{session: uuid.NewString(), discard: true}
}

// SessionID identifies this process run.
func (l *Logger) SessionID() string {
	return l.session
}

func (l *Logger) writeLoop() {
	defer close(l.stopped)
	for q := range l.queue {
		if _, err := l.w.Write(q.line); err != nil {
			l.dropped.Add(1)
		} else {
			l.written.Add(1)
		}
		if rb := l.ringBuffer(); rb != nil {
			rb.Push(q.ev)
		}
	}
}

func (l *Logger) ringBuffer() *RingBuffer {
	l.ringMu.Lock()
	defer l.ringMu.Unlock()
	return l.ring
}

// Emit queues e after stamping Time and, when unset, SessionID. A nil
// Logger, a full queue or a closed Logger all drop the event.
func (l *Logger) Emit(e Event) {
	if l == nil || l.discard {
		return
	}
	// Close can win the race between the closed check and the send.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.SessionID == "" {
		e.SessionID = l.session
	}
	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}

	select {
	case l.queue <- queued{line: append(line, '\n'), ev: e}:
	default:
		l.dropped.Add(1)
	}
}

func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event; a nil err is recorded as "".
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// Span times one operation against the source. Begin emits the start event
// at debug level; End or Fail emits the outcome with the elapsed time.
type Span struct {
	l     *Logger
	comp  string
	query string
	start time.Time
}

// Begin emits kind and returns a Span for the matching outcome.
func (l *Logger) Begin(kind EventKind, comp, query string) Span {
	l.Emit(Event{Level: LevelDebug, Kind: kind, Comp: comp, Query: query})
	return Span{l: l, comp: comp, query: query, start: time.Now()}
}

// End records a successful outcome that produced count items.
func (s Span) End(kind EventKind, count int) {
	s.l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: s.comp, Query: s.query, Count: count, Dur: time.Since(s.start)})
}

// Fail records a failed outcome.
func (s Span) Fail(kind EventKind, err error) {
	e := Event{Level: LevelWarn, Kind: kind, Comp: s.comp, Query: s.query, Dur: time.Since(s.start)}
	if err != nil {
		e.Err = err.Error()
	}
	s.l.Emit(e)
}

// SetRingBuffer mirrors every written event into buf.
func (l *Logger) SetRingBuffer(buf *RingBuffer) {
	l.ringMu.Lock()
	defer l.ringMu.Unlock()
	l.ring = buf
}

// Written returns how many events reached the writer.
func (l *Logger) Written() uint64 {
	if l == nil {
		return 0
	}
	return l.written.Load()
}

// Dropped returns how many events were lost.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close drains the queue and stops the writer. Later Emits are dropped.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		if l.discard {
			return
		}
		close(l.queue)
		<-l.stopped

		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "eidnews: %d events dropped during session %s\n", n, l.session)
		}
	})
}
