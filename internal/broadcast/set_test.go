package broadcast

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSet_AddRemoveSnapshot(t *testing.T) {
	var s Set[string]

	a := s.Add("a")
	b := s.Add("b")
	s.Add("c")

	if diff := cmp.Diff([]string{"a", "b", "c"}, s.Snapshot()); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}

	if !s.Remove(b) {
		t.Fatal("Remove(b) = false, want true")
	}
	if s.Remove(b) {
		t.Error("second Remove(b) = true, want false")
	}
	if diff := cmp.Diff([]string{"a", "c"}, s.Snapshot()); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
	if a.Value() != "a" {
		t.Errorf("Value() = %q, want a", a.Value())
	}
	if s.Remove(nil) {
		t.Error("Remove(nil) = true, want false")
	}
}

func TestSet_DuplicateValuesAreDistinctMembers(t *testing.T) {
	var s Set[int]
	first := s.Add(1)
	s.Add(1)

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	s.Remove(first)
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSet_SnapshotIsStable(t *testing.T) {
	var s Set[string]
	s.Add("a")
	snap := s.Snapshot()
	s.Add("b")

	if len(snap) != 1 {
		t.Errorf("snapshot changed after Add: %v", snap)
	}
}

func TestSet_ConcurrentMutation(t *testing.T) {
	var s Set[int]
	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			toks := make([]*Token[int], 0, perWorker)
			for i := 0; i < perWorker; i++ {
				toks = append(toks, s.Add(w*perWorker+i))
				_ = s.Snapshot()
			}
			for i, tok := range toks {
				if i%2 == 0 && !s.Remove(tok) {
					t.Errorf("Remove lost token %d", tok.Value())
				}
			}
		}(w)
	}
	wg.Wait()

	if got, want := s.Len(), workers*perWorker/2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}
