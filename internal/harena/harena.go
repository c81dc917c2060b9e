// Package harena defines a fixed-capacity handle arena: a backing
// array of records plus a free-index stack, used wherever a
// caller needs stable integer handles into a pool of GPU-side
// records (in package graph: the buffer and image records) that
// survive across a begin/end cycle without ever reallocating.
package harena

import "github.com/llGuy/nezha/internal/bitvec"

// Store is a fixed-capacity slice of T indexed by a stable
// integer handle. Handles remain valid across Add/Remove calls
// on other indices, and the backing array never grows past cap,
// which is what lets callers hold onto a handle across a
// begin/end cycle without fear of it being invalidated by a
// reallocation.
type Store[T any] struct {
	data []T
	live bitvec.V[uint64]
	free []int
	n    int
}

// New creates a Store with the given fixed capacity.
func New[T any](cap int) *Store[T] {
	var s Store[T]
	s.data = make([]T, cap)
	s.live.Grow((cap + 63) / 64)
	s.free = make([]int, 0, cap)
	return &s
}

// Add inserts v into the store and returns its handle.
// It panics if the store is at capacity; callers are expected to
// size the store generously enough up front that this never
// triggers in steady state (see the per-graph resource limits in
// package graph).
func (s *Store[T]) Add(v T) int {
	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = s.n
		if idx >= len(s.data) {
			panic("harena: store at capacity")
		}
		s.n++
	}
	s.data[idx] = v
	s.live.Set(idx)
	return idx
}

// Remove vacates the slot at idx, pushing it onto the free list.
// The zero value of T is stored in its place so that any
// lingering reference does not observe stale data.
func (s *Store[T]) Remove(idx int) {
	if !s.live.IsSet(idx) {
		return
	}
	var zero T
	s.data[idx] = zero
	s.live.Unset(idx)
	s.free = append(s.free, idx)
}

// At returns a pointer to the record at idx. The caller must
// ensure idx refers to a live slot.
func (s *Store[T]) At(idx int) *T {
	return &s.data[idx]
}

// Live reports whether idx currently refers to a live slot.
func (s *Store[T]) Live(idx int) bool {
	return idx >= 0 && idx < s.n && s.live.IsSet(idx)
}

// Len returns the number of slots that have ever been allocated,
// i.e., one past the highest handle ever returned by Add. It is
// not the count of live entries; use All to iterate those.
func (s *Store[T]) Len() int {
	return s.n
}

// All calls fn for every live slot in ascending index order.
// Mutating the store from within fn is not supported.
func (s *Store[T]) All(fn func(idx int, v *T)) {
	for i := 0; i < s.n; i++ {
		if s.live.IsSet(i) {
			fn(i, &s.data[i])
		}
	}
}

// Reset empties the store without releasing the backing array,
// as if it had just been created with the same capacity.
func (s *Store[T]) Reset() {
	clear(s.data)
	s.live.Clear()
	s.free = s.free[:0]
	s.n = 0
}
