package graph

import "github.com/llGuy/nezha/driver"

// submissionSlot is the graph-owned record a set of submitted
// jobs holds jointly by reference count. Once refCount reaches
// zero and fence is signaled, its resources are returned to the
// sync pool's free lists and the slot goes inactive for reuse.
type submissionSlot struct {
	fence    driver.Fence
	sems     []driver.Semaphore
	cmdBufs  []driver.CmdBuffer
	refCount int
	active   bool
}

// syncPool is the sync and submission pool described by C9:
// three free collections (fences, semaphores, command buffers),
// all grown lazily and never shrunk, plus the submission table
// those collections are recycled through.
type syncPool struct {
	gpu driver.GPU

	freeFences  []driver.Fence
	freeSems    []driver.Semaphore
	freeCmdBufs []driver.CmdBuffer

	submissions []submissionSlot
	freeSlots   []int
}

func newSyncPool(gpu driver.GPU) *syncPool {
	return &syncPool{gpu: gpu}
}

// recycleOne scans the submission table for one slot whose
// reference count has fallen to zero and whose fence is
// signaled, and if found returns its primitives to the free
// lists. At most one slot is reclaimed per call, which is
// sufficient because the method runs once per fresh-primitive
// request and idle primitives are always preferred over new
// ones.
func (p *syncPool) recycleOne() {
	for i := range p.submissions {
		s := &p.submissions[i]
		if !s.active || s.refCount != 0 {
			continue
		}
		signaled, err := s.fence.Signaled()
		if err != nil || !signaled {
			continue
		}
		p.freeFences = append(p.freeFences, s.fence)
		p.freeSems = append(p.freeSems, s.sems...)
		for _, cb := range s.cmdBufs {
			cb.Reset()
		}
		p.freeCmdBufs = append(p.freeCmdBufs, s.cmdBufs...)
		s.fence = nil
		s.sems = nil
		s.cmdBufs = nil
		s.active = false
		p.freeSlots = append(p.freeSlots, i)
		return
	}
}

func (p *syncPool) getFence() driver.Fence {
	p.recycleOne()
	if n := len(p.freeFences); n > 0 {
		f := p.freeFences[n-1]
		p.freeFences = p.freeFences[:n-1]
		return f
	}
	f, err := p.gpu.NewFence(true)
	if err != nil {
		abort("sync pool", err)
	}
	return f
}

func (p *syncPool) getSemaphore() driver.Semaphore {
	p.recycleOne()
	if n := len(p.freeSems); n > 0 {
		s := p.freeSems[n-1]
		p.freeSems = p.freeSems[:n-1]
		return s
	}
	s, err := p.gpu.NewSemaphore()
	if err != nil {
		abort("sync pool", err)
	}
	return s
}

func (p *syncPool) getCmdBuffer() driver.CmdBuffer {
	p.recycleOne()
	if n := len(p.freeCmdBufs); n > 0 {
		cb := p.freeCmdBufs[n-1]
		p.freeCmdBufs = p.freeCmdBufs[:n-1]
		return cb
	}
	cb, err := p.gpu.NewCmdBuffer()
	if err != nil {
		abort("sync pool", err)
	}
	return cb
}

// newSubmission installs a new active slot (reusing an inactive
// one if the free-slot stack is non-empty) with the given
// initial reference count, and returns its stable index.
func (p *syncPool) newSubmission(refCount int, fence driver.Fence, sems []driver.Semaphore, cmdBufs []driver.CmdBuffer) int {
	s := submissionSlot{fence: fence, sems: sems, cmdBufs: cmdBufs, refCount: refCount, active: true}
	if n := len(p.freeSlots); n > 0 {
		idx := p.freeSlots[n-1]
		p.freeSlots = p.freeSlots[:n-1]
		p.submissions[idx] = s
		return idx
	}
	p.submissions = append(p.submissions, s)
	return len(p.submissions) - 1
}

// decRef drops idx's reference count by one. It never goes
// negative: a double-release is a programmer error that would
// otherwise corrupt recycling, so it aborts instead of
// decrementing past zero.
func (p *syncPool) decRef(idx int) {
	s := &p.submissions[idx]
	if s.refCount <= 0 {
		abort("sync pool", errWrongState)
	}
	s.refCount--
}
