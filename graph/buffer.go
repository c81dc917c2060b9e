package graph

import (
	"github.com/llGuy/nezha/driver"
	"github.com/llGuy/nezha/graph/internal/ctxt"
)

// BufferInfo carries the parameters of a RegisterBuffer/
// ConfigureBuffer call. Size is recorded only if non-zero;
// shrinking a previously configured size is not supported.
// Usage accumulates flags beyond whatever the resource's future
// bindings imply on their own (most callers leave it zero and
// let bindings drive usage entirely).
type BufferInfo struct {
	Size        int64
	HostVisible bool
	Usage       driver.Usage
}

// RegisterBuffer creates a new, as-yet-uncommitted buffer record
// and returns its handle. The buffer's device object is not
// allocated until the first job execution that touches it, or
// until AllocBuffer/MapBuffer force it.
func (g *Graph) RegisterBuffer(info BufferInfo) BufferHandle {
	idx := g.resources.Add(resource{kind: resBuffer})
	h := BufferHandle(idx)
	g.ConfigureBuffer(h, info)
	return h
}

// ConfigureBuffer applies info to an existing buffer. It never
// allocates; repeated calls are additive.
func (g *Graph) ConfigureBuffer(h BufferHandle, info BufferInfo) {
	rec := g.bufferRecord(h)
	if info.Size > 0 {
		rec.size = info.Size
	}
	if info.HostVisible {
		rec.hostVisible = true
	}
	rec.usage |= info.Usage
}

// AllocBuffer commits the buffer's device object now, if it has
// not been committed already. It is a no-op on an already
// committed buffer.
func (g *Graph) AllocBuffer(h BufferHandle) {
	rec := g.bufferRecord(h)
	if rec.committed() {
		return
	}
	g.commitBuffer(rec)
}

// commitBuffer allocates rec's device object. Per the
// monotone-commitment invariant, it must only be called when
// rec.obj is nil.
func (g *Graph) commitBuffer(rec *bufferRecord) {
	if rec.size <= 0 {
		abort("alloc", errZeroSize)
	}
	buf, err := ctxt.GPU().NewBuffer(rec.size, rec.hostVisible, rec.usage)
	if err != nil {
		abort("alloc", err)
	}
	rec.obj = buf
}

// MappedView is a scoped host-memory view of a buffer's device
// memory, obtained from MapBuffer. Release must be called once
// the caller is done reading/writing the bytes.
type MappedView struct {
	bytes   []byte
	release func()
}

// Bytes returns the mapped memory range.
func (m MappedView) Bytes() []byte { return m.bytes }

// Release ends the scope of the view.
func (m MappedView) Release() {
	if m.release != nil {
		m.release()
	}
}

// MapBuffer returns a host-memory view of h's buffer. If the
// buffer was never committed, it is implicitly configured
// host-visible and committed now; this mirrors the preserved
// "silently commit as host-visible" behavior from the original
// source. Mapping a buffer that was committed device-local (not
// host-visible) is a programmer error.
func (g *Graph) MapBuffer(h BufferHandle) MappedView {
	rec := g.bufferRecord(h)
	if !rec.committed() {
		rec.hostVisible = true
		g.commitBuffer(rec)
	} else if !rec.hostVisible {
		abort("map", errNotVisible)
	}
	return MappedView{bytes: rec.obj.Bytes(), release: func() {}}
}

// bufferRecord resolves h to its record, aborting if h does not
// refer to a live buffer slot belonging to this graph.
func (g *Graph) bufferRecord(h BufferHandle) *bufferRecord {
	if !g.resources.Live(int(h)) {
		abort("buffer", errBadHandle)
	}
	r := g.resources.At(int(h))
	if r.kind != resBuffer {
		abort("buffer", errBadHandle)
	}
	return &r.buf
}
