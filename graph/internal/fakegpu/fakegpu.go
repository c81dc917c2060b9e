// Package fakegpu implements an in-memory driver.Driver/driver.GPU
// pair for exercising the graph package's scheduling, barrier and
// recycling logic without a real device. It interprets no shader
// code: Dispatch/Draw are recorded, not simulated, BlitImage is
// ignored, and UpdateBuffer/CopyBuffer do move real bytes so that
// round-trip transfers can be asserted on directly.
package fakegpu

import (
	"errors"

	"github.com/llGuy/nezha/driver"
)

// Driver implements driver.Driver around a single, already
// constructed GPU value.
type Driver struct {
	name   string
	gpu    *GPU
	opened bool
}

// NewDriver wraps gpu in a Driver named name, wiring gpu.Driver()
// to return it.
func NewDriver(name string, gpu *GPU) *Driver {
	d := &Driver{name: name, gpu: gpu}
	gpu.Driv = d
	return d
}

func (d *Driver) Open() (driver.GPU, error) {
	d.opened = true
	return d.gpu, nil
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) Close() { d.opened = false }

// BarrierCall records a single CmdBuffer.Barrier invocation.
type BarrierCall struct {
	SrcStage, DstStage driver.Sync
	Images             []driver.ImageBarrier
	Buffers            []driver.BufferBarrier
}

// DispatchCall records a single CmdBuffer.Dispatch invocation.
type DispatchCall struct {
	X, Y, Z int
}

// GPU implements driver.GPU entirely in host memory. The New*
// calls for fences, semaphores, command buffers, buffers, images,
// descriptor sets and descriptor set layouts also append the
// created object to a tracking slice so
// tests can inspect creation order and count without needing
// access to the graph package's private fields.
type GPU struct {
	limits driver.Limits

	Driv driver.Driver

	Fences      []*Fence
	Semaphores  []*Semaphore
	CmdBuffers  []*CmdBuffer
	Buffers     []*Buffer
	Images      []*Image
	DescSets    []*DescSet
	DescLayouts []*DescSetLayout
	Submits     []driver.SubmitInfo
}

// NewGPU creates a GPU reporting the given limits.
func NewGPU(limits driver.Limits) *GPU {
	return &GPU{limits: limits}
}

func (g *GPU) Driver() driver.Driver { return g.Driv }

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	cb := &CmdBuffer{g: g}
	g.CmdBuffers = append(g.CmdBuffers, cb)
	return cb, nil
}

func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	if len(data) == 0 {
		return nil, errors.New("fakegpu: empty shader code")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return &ShaderCode{data: cp}, nil
}

func (g *GPU) NewDescSetLayout(binds []driver.DescBinding) (driver.DescSetLayout, error) {
	cp := make([]driver.DescBinding, len(binds))
	copy(cp, binds)
	l := &DescSetLayout{binds: cp}
	g.DescLayouts = append(g.DescLayouts, l)
	return l, nil
}

func (g *GPU) NewDescSet(layout driver.DescSetLayout) (driver.DescSet, error) {
	l := layout.(*DescSetLayout)
	s := &DescSet{layout: l}
	g.DescSets = append(g.DescSets, s)
	return s, nil
}

func (g *GPU) NewPipelineLayout(sets []driver.DescSetLayout, pushConstSize int) (driver.PipelineLayout, error) {
	cp := make([]driver.DescSetLayout, len(sets))
	copy(cp, sets)
	return &PipelineLayout{sets: cp, pushConstSize: pushConstSize}, nil
}

func (g *GPU) NewComputePipeline(layout driver.PipelineLayout, code driver.ShaderCode, entry string) (driver.Pipeline, error) {
	return &Pipeline{layout: layout, entry: entry, compute: true}, nil
}

func (g *GPU) NewGraphicsPipeline(layout driver.PipelineLayout, state *driver.GraphicsState) (driver.Pipeline, error) {
	return &Pipeline{layout: layout, state: state}, nil
}

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	if size <= 0 {
		return nil, errors.New("fakegpu: buffer size=0")
	}
	b := &Buffer{data: make([]byte, size), visible: visible, usage: usg}
	g.Buffers = append(g.Buffers, b)
	return b, nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, errors.New("fakegpu: image size=0")
	}
	im := &Image{g: g, format: pf, extent: size, layers: layers, levels: levels, samples: samples, usage: usg}
	g.Images = append(g.Images, im)
	return im, nil
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	return &Sampler{sampling: *spln}, nil
}

func (g *GPU) NewFence(signaled bool) (driver.Fence, error) {
	f := &Fence{signaled: signaled}
	g.Fences = append(g.Fences, f)
	return f, nil
}

func (g *GPU) NewSemaphore() (driver.Semaphore, error) {
	s := &Semaphore{}
	g.Semaphores = append(g.Semaphores, s)
	return s, nil
}

// Submit records the submission and, since there is no device to
// run ahead of the host, leaves every fence exactly as it found it:
// callers that want to observe completion must call Fence.Signal
// (in tests) or Wait, matching the fact that a fence genuinely
// signaled by device completion is unobservable-in-advance from the
// host's point of view.
func (g *GPU) Submit(info *driver.SubmitInfo) error {
	g.Submits = append(g.Submits, *info)
	return nil
}

func (g *GPU) Limits() driver.Limits { return g.limits }

// Fence implements driver.Fence. It only becomes signaled via an
// explicit Signal call or via Wait, never as a side effect of
// Submit, so that tests can exercise the window between a job being
// submitted and its dependents observing completion.
type Fence struct {
	signaled bool
}

func (f *Fence) Destroy() {}

func (f *Fence) Reset() error {
	f.signaled = false
	return nil
}

func (f *Fence) Signaled() (bool, error) { return f.signaled, nil }

func (f *Fence) Wait() error {
	f.signaled = true
	return nil
}

// Signal marks the fence as completed, simulating device progress.
// Test-only: not part of driver.Fence.
func (f *Fence) Signal() { f.signaled = true }

// Semaphore implements driver.Semaphore. It carries no state of its
// own: ordering is established purely by which WaitSems/SignalSems
// slices a test observes in GPU.Submits.
type Semaphore struct{}

func (s *Semaphore) Destroy() {}

// CmdBuffer implements driver.CmdBuffer, recording barriers,
// dispatches, draw counts and bound state instead of translating
// them into device commands. SetViewport, SetScissor and
// BlitImage are ignored.
type CmdBuffer struct {
	g *GPU

	Began, Ended  bool
	ResetCount    int
	Barriers      []BarrierCall
	Dispatches    []DispatchCall
	InRendering   bool
	BoundPipeline driver.Pipeline
	BoundPoint    driver.BindPoint
	BoundSets     []driver.DescSet
	PushData      []byte
	DrawCount     int
}

func (cb *CmdBuffer) Destroy() {}

func (cb *CmdBuffer) Begin() error {
	cb.Began = true
	cb.Ended = false
	return nil
}

func (cb *CmdBuffer) End() error {
	cb.Ended = true
	return nil
}

func (cb *CmdBuffer) Reset() error {
	cb.ResetCount++
	cb.Barriers = nil
	cb.Dispatches = nil
	cb.Began, cb.Ended = false, false
	return nil
}

func (cb *CmdBuffer) Barrier(srcStage, dstStage driver.Sync, imgs []driver.ImageBarrier, bufs []driver.BufferBarrier) {
	cb.Barriers = append(cb.Barriers, BarrierCall{SrcStage: srcStage, DstStage: dstStage, Images: imgs, Buffers: bufs})
}

func (cb *CmdBuffer) BeginRendering(area driver.Rect2D, color []driver.ColorAttachment, depth *driver.DepthAttachment) {
	cb.InRendering = true
}

func (cb *CmdBuffer) EndRendering() { cb.InRendering = false }

func (cb *CmdBuffer) BindPipeline(pl driver.Pipeline, bindPoint driver.BindPoint) {
	cb.BoundPipeline = pl
	cb.BoundPoint = bindPoint
}

func (cb *CmdBuffer) BindDescSets(layout driver.PipelineLayout, bindPoint driver.BindPoint, start int, sets []driver.DescSet) {
	cb.BoundSets = append(cb.BoundSets[:0], sets...)
}

func (cb *CmdBuffer) PushConstants(layout driver.PipelineLayout, stages driver.Stage, offset int, data []byte) {
	cb.PushData = append(cb.PushData[:0], data...)
}

func (cb *CmdBuffer) SetViewport(vp []driver.Viewport) {}

func (cb *CmdBuffer) SetScissor(sciss []driver.Rect2D) {}

func (cb *CmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) { cb.DrawCount++ }

func (cb *CmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) { cb.DrawCount++ }

func (cb *CmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	cb.Dispatches = append(cb.Dispatches, DispatchCall{X: grpCountX, Y: grpCountY, Z: grpCountZ})
}

func (cb *CmdBuffer) UpdateBuffer(buf driver.Buffer, offset int64, data []byte) {
	b := buf.(*Buffer)
	copy(b.data[offset:], data)
}

func (cb *CmdBuffer) CopyBuffer(param *driver.BufferCopy) {
	from := param.From.(*Buffer)
	to := param.To.(*Buffer)
	copy(to.data[param.ToOff:param.ToOff+param.Size], from.data[param.FromOff:param.FromOff+param.Size])
}

func (cb *CmdBuffer) BlitImage(src, dst driver.Image) {}

// Buffer implements driver.Buffer over a plain byte slice. Unlike a
// real backend it always allocates host memory regardless of
// visibility, since there is no separate device address space to
// model; Bytes still honors the interface's "nil when not visible"
// contract so callers can't accidentally read device-local memory.
type Buffer struct {
	data    []byte
	visible bool
	usage   driver.Usage
}

func (b *Buffer) Destroy() {}

func (b *Buffer) Visible() bool { return b.visible }

func (b *Buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

func (b *Buffer) Cap() int64 { return int64(len(b.data)) }

// Image implements driver.Image.
type Image struct {
	g       *GPU
	format  driver.PixelFmt
	extent  driver.Dim3D
	layers  int
	levels  int
	samples int
	usage   driver.Usage
	Views   []*ImageView
}

func (im *Image) Destroy() {}

func (im *Image) NewView() (driver.ImageView, error) {
	v := &ImageView{img: im}
	im.Views = append(im.Views, v)
	return v, nil
}

func (im *Image) Extent() driver.Dim3D { return im.extent }

// ImageView implements driver.ImageView.
type ImageView struct {
	img *Image
}

func (v *ImageView) Destroy() {}

// ShaderCode implements driver.ShaderCode.
type ShaderCode struct {
	data []byte
}

func (s *ShaderCode) Destroy() {}

// DescSetLayout implements driver.DescSetLayout.
type DescSetLayout struct {
	binds []driver.DescBinding
}

func (l *DescSetLayout) Destroy() {}

// DescSet implements driver.DescSet, recording every Set* call so
// descriptor-coverage assertions can be made without a real
// descriptor heap to inspect.
type DescSet struct {
	layout *DescSetLayout

	BufferBinds  map[int]boundBuffer
	ImageBinds   map[int]boundImage
	SamplerBinds map[int]driver.Sampler
}

type boundBuffer struct {
	Buf        driver.Buffer
	Off, Size int64
}

type boundImage struct {
	View   driver.ImageView
	Layout driver.Layout
}

func (s *DescSet) Destroy() {}

func (s *DescSet) SetBuffer(nr int, buf driver.Buffer, off, size int64) {
	if s.BufferBinds == nil {
		s.BufferBinds = make(map[int]boundBuffer)
	}
	s.BufferBinds[nr] = boundBuffer{Buf: buf, Off: off, Size: size}
}

func (s *DescSet) SetImage(nr int, iv driver.ImageView, layout driver.Layout) {
	if s.ImageBinds == nil {
		s.ImageBinds = make(map[int]boundImage)
	}
	s.ImageBinds[nr] = boundImage{View: iv, Layout: layout}
}

func (s *DescSet) SetSampler(nr int, splr driver.Sampler) {
	if s.SamplerBinds == nil {
		s.SamplerBinds = make(map[int]driver.Sampler)
	}
	s.SamplerBinds[nr] = splr
}

// PipelineLayout implements driver.PipelineLayout.
type PipelineLayout struct {
	sets          []driver.DescSetLayout
	pushConstSize int
}

func (l *PipelineLayout) Destroy() {}

// Pipeline implements driver.Pipeline.
type Pipeline struct {
	layout  driver.PipelineLayout
	entry   string
	compute bool
	state   *driver.GraphicsState
}

func (p *Pipeline) Destroy() {}

// Sampler implements driver.Sampler.
type Sampler struct {
	sampling driver.Sampling
}

func (s *Sampler) Destroy() {}
