// Package bump implements a bump-pointer scratch allocator for
// per-job data that is discarded on every begin() call. In package
// graph it backs the push-constant bytes copied by
// ComputePass.SendData; barrier lists, usage nodes and
// descriptor-set slices are ordinary Go allocations, not drawn
// from it.
package bump

// DefaultSize is the scratch arena size graph.NewGraph always uses.
const DefaultSize = 10 << 20 // 10MiB

// Arena is a bump-pointer allocator over a fixed byte slice.
// It never frees individual allocations; the whole arena is
// rewound at once via Reset. It is not safe for concurrent use.
type Arena struct {
	buf []byte
	off int
}

// New creates an Arena with the given capacity in bytes.
func New(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

// Alloc returns a zeroed, 8-byte-aligned slice of n bytes cut
// from the arena. It grows the backing buffer (and so invalidates
// previously returned slices' assumption of arena stability only
// in the sense that the arena's total capacity increases; already
// issued slices remain valid) when the arena is exhausted, which
// should only happen while sizing a new workload shape for the
// first time.
func (a *Arena) Alloc(n int) []byte {
	const align = 8
	start := (a.off + align - 1) &^ (align - 1)
	end := start + n
	if end > len(a.buf) {
		grown := make([]byte, len(a.buf)*2+n)
		copy(grown, a.buf)
		a.buf = grown
	}
	b := a.buf[start:end:end]
	clear(b)
	a.off = end
	return b
}

// Reset rewinds the arena so that the next Alloc call reuses the
// space from the beginning. The underlying memory is not zeroed
// eagerly; each Alloc zeroes only the bytes it hands out.
func (a *Arena) Reset() {
	a.off = 0
}

// Cap returns the arena's current backing capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}
