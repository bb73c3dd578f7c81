package otel

import (
	"strings"
	"sync"
)

// DefaultRingSize is the default ring buffer capacity.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events in memory for the reader's
// activity panel. Safe for concurrent use.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Event
	size  int
	head  int // next write position
	count int
}

// NewRingBuffer creates a ring buffer holding size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size), size: size}
}

// Push adds an event, overwriting the oldest when full. Extra is copied so
// callers may reuse their map.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}
	r.mu.Lock()
	r.buf[r.head] = e
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	r.mu.Unlock()
}

// at returns the i-th oldest event. Caller holds r.mu.
func (r *RingBuffer) at(i int) Event {
	start := 0
	if r.count == r.size {
		start = r.head
	}
	return r.buf[(start+i)%r.size]
}

// Snapshot returns all buffered events, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.size)
}

// Last returns up to n most recent events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > r.count {
		n = r.count
	}
	if n == 0 {
		return nil
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = r.at(r.count - n + i)
	}
	return out
}

// LastMatching returns up to n most recent events whose kind starts with
// prefix, oldest first.
func (r *RingBuffer) LastMatching(prefix string, n int) []Event {
	if n <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var rev []Event
	for i := r.count - 1; i >= 0 && len(rev) < n; i-- {
		if e := r.at(i); strings.HasPrefix(string(e.Kind), prefix) {
			rev = append(rev, e)
		}
	}
	out := make([]Event, len(rev))
	for i, e := range rev {
		out[len(rev)-1-i] = e
	}
	return out
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	for i := 0; i < r.count; i++ {
		counts[r.at(i).Kind]++
	}
	return counts
}
