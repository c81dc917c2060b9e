// Package graph implements a compute-and-render graph atop the
// explicit, Vulkan-class primitives described by package driver:
// a builder that records passes and transfer operations into
// jobs, infers per-resource barriers, lazily instantiates GPU
// resources, and schedules submitted jobs with fence/semaphore
// dependencies.
package graph

import (
	"io/fs"

	"github.com/llGuy/nezha/driver"
	"github.com/llGuy/nezha/graph/internal/ctxt"
	"github.com/llGuy/nezha/graph/internal/util"
	"github.com/llGuy/nezha/internal/bump"
	"github.com/llGuy/nezha/internal/harena"
)

// graphState is the host-side state machine: Idle, then
// Recording between begin() and end().
type graphState int

const (
	stateIdle graphState = iota
	stateRecording
)

// Graph is the top-level builder. A Graph instance is meant to
// be owned by a single task at a time; begin/add/end/submit must
// be called in sequence from that task. There are no internal
// locks.
type Graph struct {
	resources *harena.Store[resource]
	kernels   []kernelRecord
	descCache *util.DescLayoutCache
	syncPool  *syncPool
	shaderFS  fs.FS

	scratch *bump.Arena

	state graphState

	stages        []stage
	usedResources []Handle

	computePool   []*ComputePass
	nComputeUsed  int
	renderPool    []*RenderPass
	nRenderUsed   int
	transferPool  []*transferOp
	nTransferUsed int
}

// NewGraph creates a Graph whose resource arena has room for
// capacity handles, loading shader binaries from shaderFS. It
// assumes the active driver.GPU has already been installed via
// graph/internal/ctxt (see ctxt.Load/ctxt.Set).
func NewGraph(capacity int, shaderFS fs.FS) *Graph {
	gpu := ctxt.GPU()
	g := &Graph{
		resources: harena.New[resource](capacity),
		descCache: util.NewDescLayoutCache(gpu),
		syncPool:  newSyncPool(gpu),
		shaderFS:  shaderFS,
		scratch:   bump.New(bump.DefaultSize),
	}
	return g
}

// Begin clears all per-job scratch and transitions the graph
// into the Recording state.
func (g *Graph) Begin() {
	if g.state != stateIdle {
		abort("begin", errWrongState)
	}
	g.scratch.Reset()

	for _, h := range g.usedResources {
		r := g.resources.At(int(h))
		if r.kind == resBuffer {
			r.buf.usedThisJob = false
			r.buf.head, r.buf.tail = invalidUsage, invalidUsage
		} else {
			r.img.usedThisJob = false
			r.img.head, r.img.tail = invalidUsage, invalidUsage
		}
	}

	g.stages = g.stages[:0]
	g.usedResources = g.usedResources[:0]
	g.nComputeUsed = 0
	g.nRenderUsed = 0
	g.nTransferUsed = 0

	g.state = stateRecording
}

// AddComputePass appends a new compute-pass stage and returns it
// for the caller to configure via its chainable Add*/Set*
// methods.
func (g *Graph) AddComputePass() *ComputePass {
	g.checkRecording("add_compute_pass")
	c := g.newComputePass()
	g.stages = append(g.stages, stage{kind: stageCompute, compute: c})
	c.stageIdx = len(g.stages) - 1
	return c
}

// AddRenderPass appends a new render-pass stage and returns it
// for the caller to configure.
func (g *Graph) AddRenderPass() *RenderPass {
	g.checkRecording("add_render_pass")
	r := g.newRenderPass()
	g.stages = append(g.stages, stage{kind: stageRender, render: r})
	r.stageIdx = len(g.stages) - 1
	return r
}

func (g *Graph) newTransferOp(kind transferKind) *transferOp {
	g.checkRecording("add_transfer")
	t := g.pooledTransferOp()
	t.kind = kind
	g.stages = append(g.stages, stage{kind: stageTransfer, transfer: t})
	t.stageIdx = len(g.stages) - 1
	return t
}

func (g *Graph) checkRecording(callsite string) {
	if g.state != stateRecording {
		abort(callsite, errWrongState)
	}
}

func (g *Graph) newComputePass() *ComputePass {
	if g.nComputeUsed < len(g.computePool) {
		c := g.computePool[g.nComputeUsed]
		c.reset()
		g.nComputeUsed++
		return c
	}
	c := &ComputePass{g: g}
	g.computePool = append(g.computePool, c)
	g.nComputeUsed++
	return c
}

func (g *Graph) newRenderPass() *RenderPass {
	if g.nRenderUsed < len(g.renderPool) {
		r := g.renderPool[g.nRenderUsed]
		r.reset()
		g.nRenderUsed++
		return r
	}
	r := &RenderPass{g: g, depthIdx: -1}
	g.renderPool = append(g.renderPool, r)
	g.nRenderUsed++
	return r
}

func (g *Graph) pooledTransferOp() *transferOp {
	if g.nTransferUsed < len(g.transferPool) {
		t := g.transferPool[g.nTransferUsed]
		t.reset()
		g.nTransferUsed++
		return t
	}
	t := &transferOp{g: g}
	g.transferPool = append(g.transferPool, t)
	g.nTransferUsed++
	return t
}

// linkUsage threads a usage node for resource h at (stageIdx,
// bindingIdx) onto h's usage list, pointing the previous tail
// binding's forward link at the new node. This is purely
// analytical bookkeeping; nothing in prepare/execute consumes
// the chain, but it is kept faithfully so a debugger walking a
// resource's usage history finds it intact.
func (g *Graph) linkUsage(h Handle, stageIdx, bindingIdx int) {
	r := g.resources.At(int(h))
	var head, tail *usageNode
	if r.kind == resBuffer {
		head, tail = &r.buf.head, &r.buf.tail
	} else {
		head, tail = &r.img.head, &r.img.tail
	}
	node := usageNode{stage: stageIdx, binding: bindingIdx, valid: true}
	if tail.valid {
		g.getBinding(tail.stage, tail.binding).next = node
	}
	*tail = node
	if !head.valid {
		*head = node
	}
}

func (g *Graph) getBinding(stageIdx, bindingIdx int) *binding {
	s := &g.stages[stageIdx]
	switch s.kind {
	case stageCompute:
		return &s.compute.bindings[bindingIdx]
	case stageRender:
		return &s.render.bindings[bindingIdx]
	default:
		return &s.transfer.binds[bindingIdx]
	}
}

// markUsed records that resource h participated in the current
// job, appending it to usedResources the first time this is
// observed.
func (g *Graph) markUsed(h Handle) {
	r := g.resources.At(int(h))
	var used *bool
	if r.kind == resBuffer {
		used = &r.buf.usedThisJob
	} else {
		used = &r.img.usedThisJob
	}
	if !*used {
		*used = true
		g.usedResources = append(g.usedResources, h)
	}
}

// updateAction sets resource h's per-job action and folds the
// binding kind's usage bit into its accumulated usage flags, per
// the prepare-pass contract.
func (g *Graph) updateAction(h Handle, k Kind) {
	r := g.resources.At(int(h))
	e := k.entry(driver.SNone)
	if r.kind == resBuffer {
		b := &r.buf
		if b.committed() {
			b.action = ActionNone
		} else {
			b.action = ActionToCreate
		}
		b.usage |= e.usage
	} else {
		im := &r.img
		if im.committed() {
			im.action = ActionNone
		} else {
			im.action = ActionToCreate
		}
		im.usage |= e.usage
	}
}

// applyAction commits h's device object if marked to-create, then
// unconditionally ensures a descriptor set exists for every
// descriptor kind implied by its accumulated usage flags.
func (g *Graph) applyAction(h Handle) {
	r := g.resources.At(int(h))
	if r.kind == resBuffer {
		b := &r.buf
		if b.action == ActionToCreate {
			g.commitBuffer(b)
		}
		g.ensureBufferDescriptors(b)
	} else {
		im := &r.img
		if im.action == ActionToCreate && !im.externallyOwned {
			g.commitImage(im)
		}
		g.ensureImageDescriptors(im)
	}
}

func (g *Graph) ensureBufferDescriptors(b *bufferRecord) {
	if b.usage&driver.UStorage != 0 {
		g.ensureDescSet(&b.descSets[driver.DStorageBuffer], driver.DStorageBuffer, func(ds driver.DescSet) {
			ds.SetBuffer(0, b.obj, 0, b.size)
		})
	}
	if b.usage&driver.UUniform != 0 {
		g.ensureDescSet(&b.descSets[driver.DUniformBuffer], driver.DUniformBuffer, func(ds driver.DescSet) {
			ds.SetBuffer(0, b.obj, 0, b.size)
		})
	}
}

func (g *Graph) ensureImageDescriptors(im *imageRecord) {
	if im.usage&driver.UStorage != 0 {
		g.ensureDescSet(&im.descSets[driver.DStorageImage], driver.DStorageImage, func(ds driver.DescSet) {
			ds.SetImage(0, im.view, driver.LGeneral)
		})
	}
	if im.usage&driver.USampled != 0 {
		g.ensureDescSet(&im.descSets[driver.DSampledImage], driver.DSampledImage, func(ds driver.DescSet) {
			ds.SetImage(0, im.view, driver.LShaderReadOnly)
		})
	}
}

func (g *Graph) ensureDescSet(slot *driver.DescSet, dt driver.DescType, point func(driver.DescSet)) {
	layout := g.descCache.Layout(dt, driver.StageCompute)
	if *slot == nil {
		ds, err := ctxt.GPU().NewDescSet(layout)
		if err != nil {
			abort("instantiate", err)
		}
		*slot = ds
	}
	point(*slot)
}

func (g *Graph) descSetFor(r *resource, dt driver.DescType) driver.DescSet {
	if r.kind == resBuffer {
		return r.buf.descSets[dt]
	}
	return r.img.descSets[dt]
}

// emitBarrier records a pipeline barrier transitioning r from its
// currently tracked state to the state e implies, then updates
// the tracker to reflect the new state.
func (g *Graph) emitBarrier(cb driver.CmdBuffer, r *resource, e kindEntry, dstStage driver.Sync) {
	if r.kind == resImage {
		im := &r.img
		srcStage := im.lastStage
		cb.Barrier(srcStage, dstStage, []driver.ImageBarrier{{
			Image: im.obj, LayoutBefore: im.curLayout, LayoutAfter: e.layout,
			AccessBefore: im.curAccess, AccessAfter: e.access, Aspect: im.aspect,
		}}, nil)
		im.curLayout = e.layout
		im.curAccess = e.access
		im.lastStage = dstStage
		return
	}
	b := &r.buf
	srcStage := b.lastStage
	cb.Barrier(srcStage, dstStage, nil, []driver.BufferBarrier{{
		Buffer: b.obj, Offset: 0, Size: b.size,
		AccessBefore: b.curAccess, AccessAfter: e.access,
	}})
	b.curAccess = e.access
	b.lastStage = dstStage
}

// End compiles the recorded stage stream into a Job: prepare
// resolves actions and the used-resource set, instantiate
// allocates anything newly needed, execute emits barriers and
// records commands.
func (g *Graph) End() Job {
	g.checkRecording("end")

	cb := g.syncPool.getCmdBuffer()
	if err := cb.Begin(); err != nil {
		abort("end", err)
	}

	// Prepare pass.
	for si := range g.stages {
		s := &g.stages[si]
		switch s.kind {
		case stageCompute:
			for _, b := range s.compute.bindings {
				g.updateAction(b.res, b.kind)
				g.markUsed(b.res)
			}
		case stageRender:
			for _, b := range s.render.bindings {
				g.updateAction(b.res, b.kind)
				g.markUsed(b.res)
			}
		case stageTransfer:
			g.prepareTransfer(s.transfer)
		}
	}

	// Instantiate.
	for _, h := range g.usedResources {
		g.applyAction(h)
	}

	// Execute pass.
	lastStage := driver.SNone
	for si := range g.stages {
		s := &g.stages[si]
		switch s.kind {
		case stageCompute:
			lastStage = s.compute.execute(cb)
		case stageRender:
			lastStage = s.render.execute(cb)
		case stageTransfer:
			lastStage = s.transfer.execute(cb)
		}
	}

	if err := cb.End(); err != nil {
		abort("end", err)
	}

	sem := g.syncPool.getSemaphore()
	g.state = stateIdle

	return Job{g: g, cmdBuf: cb, finishedSem: sem, lastStage: lastStage, submissionIdx: -1}
}

func (g *Graph) prepareTransfer(t *transferOp) {
	n := 1
	switch t.kind {
	case transferBufferCopy, transferBufferCopyToHost, transferImageBlit:
		n = 2
	}
	for i := 0; i < n; i++ {
		b := &t.binds[i]
		g.updateAction(b.res, b.kind)
		g.markUsed(b.res)
	}
}

// PlaceholderJob returns a job whose command buffer is empty but
// which carries a fresh semaphore and a pre-signaled fence,
// suitable as a "prior frame" sentinel before any real job has
// been submitted.
func (g *Graph) PlaceholderJob() Job {
	if g.state != stateIdle {
		abort("placeholder_job", errWrongState)
	}
	sem := g.syncPool.getSemaphore()
	fence := g.syncPool.getFence()
	idx := g.syncPool.newSubmission(1, fence, nil, nil)
	return Job{g: g, finishedSem: sem, lastStage: driver.SBottomOfPipe, submissionIdx: idx}
}

// Submit submits jobs for execution, waiting on the given
// dependency jobs' finished-semaphores unless a dependency's
// fence is already signaled at submit time, in which case the
// dependency is elided from the wait list and its submission's
// reference count is dropped immediately. A dependency returned by
// AcquireNextSwapchainImage has no submission; its semaphore is
// always waited on and is recycled with this submission. It
// returns a PendingWorkload the caller can Wait on once.
func (g *Graph) Submit(jobs []Job, deps ...Job) PendingWorkload {
	var cmdBufs []driver.CmdBuffer
	var signalSems []driver.Semaphore
	for _, j := range jobs {
		if j.cmdBuf != nil {
			cmdBufs = append(cmdBufs, j.cmdBuf)
		}
		signalSems = append(signalSems, j.finishedSem)
	}

	var waitSems []driver.Semaphore
	var waitStages []driver.Sync
	var acquireSems []driver.Semaphore
	for _, d := range deps {
		if d.submissionIdx < 0 {
			if d.cmdBuf == nil && d.finishedSem != nil {
				waitSems = append(waitSems, d.finishedSem)
				waitStages = append(waitStages, d.lastStage)
				acquireSems = append(acquireSems, d.finishedSem)
			}
			continue
		}
		signaled, err := g.syncPool.submissions[d.submissionIdx].fence.Signaled()
		if err == nil && signaled {
			g.syncPool.decRef(d.submissionIdx)
			continue
		}
		waitSems = append(waitSems, d.finishedSem)
		waitStages = append(waitStages, d.lastStage)
	}

	fence := g.syncPool.getFence()
	if err := fence.Reset(); err != nil {
		abort("submit", err)
	}

	if err := ctxt.GPU().Submit(&driver.SubmitInfo{
		CmdBuffers: cmdBufs,
		WaitSems:   waitSems,
		WaitStages: waitStages,
		SignalSems: signalSems,
		Fence:      fence,
	}); err != nil {
		abort("submit", err)
	}

	idx := g.syncPool.newSubmission(len(jobs)+1, fence, append(signalSems, acquireSems...), cmdBufs)
	for i := range jobs {
		jobs[i].submissionIdx = idx
	}

	return PendingWorkload{g: g, fence: fence, submissionIdx: idx}
}
