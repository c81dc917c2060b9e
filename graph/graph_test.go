package graph_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/llGuy/nezha/driver"
	"github.com/llGuy/nezha/graph"
	"github.com/llGuy/nezha/graph/internal/ctxt"
	"github.com/llGuy/nezha/graph/internal/fakegpu"
)

// newTestGraph installs a fresh fakegpu.GPU as the active driver
// context and returns a Graph plus the GPU for introspection. Tests
// never run in parallel, matching ctxt's package-level global.
func newTestGraph(t *testing.T, capacity int, shaders fstest.MapFS) (*graph.Graph, *fakegpu.GPU) {
	t.Helper()
	gpu := fakegpu.NewGPU(driver.Limits{
		MaxImage2D:       4096,
		MaxLayers:        256,
		MaxDispatch:      [3]int{65535, 65535, 65535},
		MaxPushConstSize: 128,
	})
	drv := fakegpu.NewDriver("fake", gpu)
	ctxt.Set(drv, gpu)
	return graph.NewGraph(capacity, shaders), gpu
}

func recoverMsg(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			msg = fmtRecover(r)
		}
	}()
	fn()
	return ""
}

func fmtRecover(r any) string {
	if s, ok := r.(string); ok {
		return s
	}
	if e, ok := r.(error); ok {
		return e.Error()
	}
	return "<unknown panic>"
}

const compKernel = "kernels/dummy"

func shaderFS() fstest.MapFS {
	return fstest.MapFS{
		"res/spv/kernels/dummy.comp.spv": &fstest.MapFile{Data: []byte{0, 1, 2, 3}},
	}
}

func TestBufferUpdateCopyToHostRoundTrip(t *testing.T) {
	g, _ := newTestGraph(t, 8, shaderFS())

	src := g.RegisterBuffer(graph.BufferInfo{Size: 4, Usage: driver.UTransferDst | driver.UTransferSrc})
	dst := g.RegisterBuffer(graph.BufferInfo{Size: 4})

	g.Begin()
	want := []byte{10, 20, 30, 40}
	g.AddBufferUpdate(src, want, 0)
	g.AddBufferCopyToHost(dst, src, 0, 0, 4)
	job := g.End()

	jobs := []graph.Job{job}
	pending := g.Submit(jobs)
	pending.Wait()
	jobs[0].Drop()

	view := g.MapBuffer(dst)
	got := view.Bytes()
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBeginEndIdempotence(t *testing.T) {
	g, _ := newTestGraph(t, 8, shaderFS())

	buf := g.RegisterBuffer(graph.BufferInfo{Size: 4})
	for i := 0; i < 3; i++ {
		g.Begin()
		g.AddBufferUpdate(buf, []byte{byte(i)}, 0)
		job := g.End()
		jobs := []graph.Job{job}
		pending := g.Submit(jobs)
		pending.Wait()
		jobs[0].Drop()
	}
}

func TestDoubleBeginPanics(t *testing.T) {
	g, _ := newTestGraph(t, 8, shaderFS())
	g.Begin()
	msg := recoverMsg(t, func() { g.Begin() })
	if msg == "" || !strings.Contains(msg, "call not valid in current state") {
		t.Fatalf("expected wrong-state panic, got %q", msg)
	}
}

func TestDispatchWavesCeilRounding(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())

	img := g.RegisterImage(graph.ImageInfo{
		Extent: driver.Dim3D{Width: 10, Height: 10},
		Format: driver.RGBA8Unorm,
		Usage:  driver.UStorage,
	})
	kern := g.RegisterKernel(compKernel)

	g.Begin()
	g.AddComputePass().SetKernel(kern).AddStorageImage(img, nil).DispatchWaves(3, 3, 1, img)
	g.End()

	cb := gpu.CmdBuffers[len(gpu.CmdBuffers)-1]
	if len(cb.Dispatches) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(cb.Dispatches))
	}
	d := cb.Dispatches[0]
	if d.X != 4 || d.Y != 4 || d.Z != 1 {
		t.Fatalf("got dispatch (%d,%d,%d), want (4,4,1)", d.X, d.Y, d.Z)
	}
}

func TestMapUncommittedBufferPanicsZeroSize(t *testing.T) {
	g, _ := newTestGraph(t, 8, shaderFS())
	buf := g.RegisterBuffer(graph.BufferInfo{})
	msg := recoverMsg(t, func() { g.MapBuffer(buf) })
	if msg == "" || !strings.Contains(msg, "size=0") {
		t.Fatalf("expected size=0 panic, got %q", msg)
	}
}

func TestRenderPassNoAttachmentsPanics(t *testing.T) {
	g, _ := newTestGraph(t, 8, shaderFS())
	g.Begin()
	g.AddRenderPass().SetDraw(func(cb driver.CmdBuffer, area driver.Rect2D, user any) {}, nil)
	msg := recoverMsg(t, func() { g.End() })
	if msg == "" || !strings.Contains(msg, "no attachments") {
		t.Fatalf("expected no-attachment panic, got %q", msg)
	}
}

func TestPresentReadyWithoutPresentIsLegal(t *testing.T) {
	g, _ := newTestGraph(t, 8, shaderFS())
	img := g.RegisterImage(graph.ImageInfo{
		Extent: driver.Dim3D{Width: 4, Height: 4},
		Format: driver.RGBA8Unorm,
		Usage:  driver.UColorAttachment,
	})
	g.AllocImage(img)

	g.Begin()
	g.AddPresentReady(img)
	job := g.End()
	jobs := []graph.Job{job}
	pending := g.Submit(jobs)
	pending.Wait()
	jobs[0].Drop()
}

func TestRefCountCloneAndDrop(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())
	buf := g.RegisterBuffer(graph.BufferInfo{Size: 4})

	g.Begin()
	g.AddBufferUpdate(buf, []byte{1}, 0)
	job := g.End()

	jobs := []graph.Job{job}
	pending := g.Submit(jobs)
	job = jobs[0]

	clone := job.Clone()

	job.Drop()
	clone.Drop()

	// Submission refCount is now 1 (the pending workload's claim)
	// and the fence is still unsignaled, so a recycling attempt
	// must not reclaim it yet.
	before := len(gpu.Fences)
	g.Begin()
	g.AddBufferUpdate(buf, []byte{2}, 0)
	job2 := g.End()
	jobs2 := []graph.Job{job2}
	g.Submit(jobs2)
	if len(gpu.Fences) == before {
		t.Fatalf("expected a new fence while the prior submission's fence was unsignaled")
	}

	pending.Wait()
}

func TestSyncPoolRecyclePlateaus(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())
	buf := g.RegisterBuffer(graph.BufferInfo{Size: 4})

	for i := 0; i < 4; i++ {
		g.Begin()
		g.AddBufferUpdate(buf, []byte{byte(i)}, 0)
		job := g.End()
		jobs := []graph.Job{job}
		pending := g.Submit(jobs)
		pending.Wait()
		jobs[0].Drop()
	}

	if len(gpu.Fences) != 1 {
		t.Errorf("fences: got %d, want 1 (plateaued after reuse)", len(gpu.Fences))
	}
	if len(gpu.Semaphores) != 1 {
		t.Errorf("semaphores: got %d, want 1", len(gpu.Semaphores))
	}
	if len(gpu.CmdBuffers) != 1 {
		t.Errorf("command buffers: got %d, want 1", len(gpu.CmdBuffers))
	}
}

func TestCrossFrameDependencyWaitsOnSemaphore(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())
	buf := g.RegisterBuffer(graph.BufferInfo{Size: 4})

	g.Begin()
	g.AddBufferUpdate(buf, []byte{1}, 0)
	jobA := g.End()
	jobsA := []graph.Job{jobA}
	g.Submit(jobsA)
	jobA = jobsA[0]

	g.Begin()
	g.AddBufferUpdate(buf, []byte{2}, 0)
	jobB := g.End()
	jobsB := []graph.Job{jobB}
	g.Submit(jobsB, jobA)

	last := gpu.Submits[len(gpu.Submits)-1]
	if len(last.WaitSems) != 1 {
		t.Fatalf("expected jobB's submission to wait on jobA's semaphore, got %d wait sems", len(last.WaitSems))
	}
	if last.WaitSems[0] != gpu.Semaphores[0] {
		t.Fatalf("jobB waited on the wrong semaphore")
	}
}

func TestDependencySemaphorePresenceElidedWhenSignaled(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())
	buf := g.RegisterBuffer(graph.BufferInfo{Size: 4})

	g.Begin()
	g.AddBufferUpdate(buf, []byte{1}, 0)
	jobA := g.End()
	jobsA := []graph.Job{jobA}
	g.Submit(jobsA)
	jobA = jobsA[0]

	// Simulate device completion before jobB submits.
	gpu.Fences[0].Signal()

	g.Begin()
	g.AddBufferUpdate(buf, []byte{2}, 0)
	jobB := g.End()
	jobsB := []graph.Job{jobB}
	g.Submit(jobsB, jobA)

	last := gpu.Submits[len(gpu.Submits)-1]
	if len(last.WaitSems) != 0 {
		t.Fatalf("expected the already-signaled dependency to be elided, got %d wait sems", len(last.WaitSems))
	}
}

func TestDescriptorCoverage(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())
	storage := g.RegisterBuffer(graph.BufferInfo{Size: 16, Usage: driver.UStorage})
	uniform := g.RegisterBuffer(graph.BufferInfo{Size: 16, Usage: driver.UUniform})
	kern := g.RegisterKernel(compKernel)

	g.Begin()
	g.AddComputePass().SetKernel(kern).
		AddStorageBuffer(storage).
		AddUniformBuffer(uniform).
		Dispatch(1, 1, 1)
	g.End()

	if len(gpu.DescSets) != 2 {
		t.Fatalf("expected 2 descriptor sets (one per binding), got %d", len(gpu.DescSets))
	}
	for _, ds := range gpu.DescSets {
		if len(ds.BufferBinds) != 1 {
			t.Errorf("expected each descriptor set to bind exactly one buffer, got %d", len(ds.BufferBinds))
		}
	}
}

func TestBarrierCompleteness(t *testing.T) {
	g, gpu := newTestGraph(t, 8, shaderFS())
	img := g.RegisterImage(graph.ImageInfo{
		Extent: driver.Dim3D{Width: 4, Height: 4},
		Format: driver.RGBA8Unorm,
		Usage:  driver.UStorage,
	})
	buf := g.RegisterBuffer(graph.BufferInfo{Size: 16, Usage: driver.UStorage})
	kern := g.RegisterKernel(compKernel)

	g.Begin()
	g.AddComputePass().SetKernel(kern).
		AddStorageImage(img, nil).
		AddStorageBuffer(buf).
		Dispatch(1, 1, 1)
	g.End()

	cb := gpu.CmdBuffers[len(gpu.CmdBuffers)-1]
	if len(cb.Barriers) != 2 {
		t.Fatalf("expected one barrier per bound resource, got %d", len(cb.Barriers))
	}
	var sawImage, sawBuffer bool
	for _, b := range cb.Barriers {
		if len(b.Images) == 1 {
			sawImage = true
		}
		if len(b.Buffers) == 1 {
			sawBuffer = true
		}
	}
	if !sawImage || !sawBuffer {
		t.Fatalf("expected both an image and a buffer barrier, got image=%v buffer=%v", sawImage, sawBuffer)
	}
}
