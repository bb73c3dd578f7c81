package realtime

import "testing"

func TestSeenSetAddReportsNew(t *testing.T) {
	s := NewSeenSet(0, 0)
	if !s.Add(7) {
		t.Error("first Add should report new")
	}
	if s.Add(7) {
		t.Error("second Add should report seen")
	}
	if !s.Contains(7) || s.Contains(8) {
		t.Error("Contains mismatch")
	}
}

func TestSeenSetPrunesToNewest(t *testing.T) {
	s := NewSeenSet(DefaultSeenLimit, DefaultSeenKeep)
	for i := int64(1); i <= 100; i++ {
		s.Add(i)
	}
	if s.Len() != 100 {
		t.Fatalf("Len = %d before prune, want 100", s.Len())
	}

	s.Add(101)
	if s.Len() != 50 {
		t.Fatalf("Len = %d after insertion 101, want 50", s.Len())
	}
	for i := int64(1); i <= 51; i++ {
		if s.Contains(i) {
			t.Errorf("id %d should have been pruned", i)
		}
	}
	ids := s.IDs()
	for i, id := range ids {
		if want := int64(52 + i); id != want {
			t.Fatalf("IDs()[%d] = %d, want %d", i, id, want)
		}
	}
}

func TestSeenSetNeverExceedsLimit(t *testing.T) {
	s := NewSeenSet(DefaultSeenLimit, DefaultSeenKeep)
	for i := int64(0); i < 1000; i++ {
		s.Add(i)
		if s.Len() > DefaultSeenLimit {
			t.Fatalf("Len = %d after %d insertions", s.Len(), i+1)
		}
	}
}

func TestSeenSetPrunedIDIsNewAgain(t *testing.T) {
	s := NewSeenSet(4, 2)
	for i := int64(1); i <= 5; i++ {
		s.Add(i)
	}
	if !s.Add(1) {
		t.Error("pruned id should be reported as new again")
	}
}

func TestNewSeenSetClampsKeep(t *testing.T) {
	s := NewSeenSet(3, 10)
	for i := int64(1); i <= 4; i++ {
		s.Add(i)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}
