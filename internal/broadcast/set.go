// Package broadcast provides a subscriber set that publishers can read
// without locking.
//
// The set is an immutable slice published through an atomic pointer. Writers
// copy the current slice, apply their change and CompareAndSwap the new
// version in, retrying when another writer got there first. Readers take a
// snapshot and iterate it, so a publisher never waits on a subscriber being
// added or removed.
//
// Delivery against a snapshot is relaxed: a subscriber removed while a
// publisher is iterating may still receive that one publication, and a
// subscriber added after the snapshot was taken does not.
package broadcast

import "sync/atomic"

// Token identifies one membership in a Set. Two tokens holding equal values
// are still distinct memberships.
type Token[T any] struct {
	value T
}

// Value returns the member held by the token.
func (t *Token[T]) Value() T {
	return t.value
}

// Set is a copy-on-write set of members keyed by token identity.
// The zero value is an empty set ready for use.
type Set[T any] struct {
	members atomic.Pointer[[]*Token[T]]
}

// Add inserts v and returns the token that removes it again.
func (s *Set[T]) Add(v T) *Token[T] {
	tok := &Token[T]{value: v}
	s.apply(func(cur []*Token[T]) ([]*Token[T], bool) {
		next := make([]*Token[T], len(cur), len(cur)+1)
		copy(next, cur)
		return append(next, tok), true
	})
	return tok
}

// Remove deletes the membership identified by tok.
// It reports false if tok was not a member.
func (s *Set[T]) Remove(tok *Token[T]) bool {
	if tok == nil {
		return false
	}
	return s.apply(func(cur []*Token[T]) ([]*Token[T], bool) {
		idx := -1
		for i, t := range cur {
			if t == tok {
				idx = i
				break
			}
		}
		if idx < 0 {
			return cur, false
		}
		next := make([]*Token[T], 0, len(cur)-1)
		next = append(next, cur[:idx]...)
		return append(next, cur[idx+1:]...), true
	})
}

// Snapshot returns the members at the time of the call, in insertion order.
func (s *Set[T]) Snapshot() []T {
	cur := s.load()
	out := make([]T, len(cur))
	for i, t := range cur {
		out[i] = t.value
	}
	return out
}

// Len returns the number of members.
func (s *Set[T]) Len() int {
	return len(s.load())
}

func (s *Set[T]) load() []*Token[T] {
	if p := s.members.Load(); p != nil {
		return *p
	}
	return nil
}

// apply runs change against the current version until the swap succeeds.
// When change reports no modification nothing is stored.
func (s *Set[T]) apply(change func([]*Token[T]) ([]*Token[T], bool)) bool {
	for {
		old := s.members.Load()
		var cur []*Token[T]
		if old != nil {
			cur = *old
		}
		next, changed := change(cur)
		if !changed {
			return false
		}
		if s.members.CompareAndSwap(old, &next) {
			return true
		}
	}
}
