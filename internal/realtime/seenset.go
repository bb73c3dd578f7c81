package realtime

const (
	// DefaultSeenLimit is the size at which the seen set is pruned.
	DefaultSeenLimit = 100
	// DefaultSeenKeep is how many of the newest ids survive a prune.
	DefaultSeenKeep = 50
)

// SeenSet remembers which post ids have already been announced. When it
// grows past limit it keeps only the keep most recently inserted ids, so an
// old id can be reported again after enough churn.
//
// SeenSet is not safe for concurrent use; the Detector only touches it from
// its poll goroutine.
type SeenSet struct {
	limit int
	keep  int
	ids   map[int64]struct{}
	order []int64 // insertion order, oldest first
}

// NewSeenSet creates a set. Non-positive arguments select the defaults, and
// keep is clamped to limit.
func NewSeenSet(limit, keep int) *SeenSet {
	if limit <= 0 {
		limit = DefaultSeenLimit
	}
	if keep <= 0 {
		keep = DefaultSeenKeep
	}
	if keep > limit {
		keep = limit
	}
	return &SeenSet{
		limit: limit,
		keep:  keep,
		ids:   make(map[int64]struct{}, limit+1),
	}
}

// Add records id and reports whether it was new.
func (s *SeenSet) Add(id int64) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	if len(s.order) > s.limit {
		s.prune()
	}
	return true
}

func (s *SeenSet) prune() {
	drop := s.order[:len(s.order)-s.keep]
	for _, id := range drop {
		delete(s.ids, id)
	}
	kept := make([]int64, s.keep)
	copy(kept, s.order[len(s.order)-s.keep:])
	s.order = kept
}

// Contains reports whether id is currently remembered.
func (s *SeenSet) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of remembered ids.
func (s *SeenSet) Len() int {
	return len(s.order)
}

// IDs returns the remembered ids, oldest first.
func (s *SeenSet) IDs() []int64 {
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out
}
