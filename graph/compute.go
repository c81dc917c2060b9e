package graph

import (
	"github.com/llGuy/nezha/driver"
	"github.com/llGuy/nezha/graph/internal/ctxt"
	"github.com/llGuy/nezha/graph/internal/util"
)

// ComputePass records a kernel invocation: a kernel, the
// resources it binds, an optional push-constant blob, and
// dispatch parameters. It is obtained from Graph.AddComputePass
// and is only valid until the next End/Begin.
type ComputePass struct {
	g        *Graph
	stageIdx int
	kernel   KernelHandle
	hasKernel bool
	bindings []binding

	pushData []byte
	hasPush  bool

	dispatchX, dispatchY, dispatchZ int
	waveX, waveY, waveZ             int
	waveImage                       ImageHandle
	useWaves                        bool
}

func (c *ComputePass) reset() {
	c.hasKernel = false
	c.bindings = c.bindings[:0]
	c.pushData = nil
	c.hasPush = false
	c.dispatchX, c.dispatchY, c.dispatchZ = 0, 0, 0
	c.useWaves = false
}

// SetKernel selects the kernel this pass dispatches.
func (c *ComputePass) SetKernel(k KernelHandle) *ComputePass {
	c.kernel = k
	c.hasKernel = true
	return c
}

func (c *ComputePass) addBinding(kind Kind, h Handle) *binding {
	idx := len(c.bindings)
	c.bindings = append(c.bindings, binding{index: idx, kind: kind, res: h, next: invalidUsage})
	c.g.linkUsage(h, c.stageIdx, idx)
	return &c.bindings[idx]
}

// AddSampledImage binds an image for read-only shader sampling.
func (c *ComputePass) AddSampledImage(h ImageHandle) *ComputePass {
	c.addBinding(KindSampledImage, Handle(h))
	return c
}

// AddStorageImage binds an image for read-write shader access.
// info, if non-nil, is applied to the image before binding
// (sticky only on the image's first commit).
func (c *ComputePass) AddStorageImage(h ImageHandle, info *ImageInfo) *ComputePass {
	if info != nil {
		c.g.ConfigureImage(h, *info)
	}
	c.addBinding(KindStorageImage, Handle(h))
	return c
}

// AddStorageBuffer binds a buffer for read-write shader access.
func (c *ComputePass) AddStorageBuffer(h BufferHandle) *ComputePass {
	c.addBinding(KindStorageBuffer, Handle(h))
	return c
}

// AddUniformBuffer binds a buffer for read-only shader access.
func (c *ComputePass) AddUniformBuffer(h BufferHandle) *ComputePass {
	c.addBinding(KindUniformBuffer, Handle(h))
	return c
}

// SendData copies data into the pass's push-constant blob,
// replacing any data sent by a previous SendData call on this
// pass within the same job.
func (c *ComputePass) SendData(data []byte) *ComputePass {
	limit := ctxt.Limits().MaxPushConstSize
	if limit > 0 && len(data) > limit {
		abort("send_data", errPushConstSize)
	}
	buf := c.g.scratch.Alloc(len(data))
	copy(buf, data)
	c.pushData = buf
	c.hasPush = len(data) > 0
	return c
}

// Dispatch sets absolute compute group counts.
func (c *ComputePass) Dispatch(x, y, z int) *ComputePass {
	c.dispatchX, c.dispatchY, c.dispatchZ = x, y, z
	c.useWaves = false
	return c
}

// DispatchWaves records a group size; at execute time the actual
// group counts are ceil(extent.dim / wave.dim) using imgHandle's
// extent, so that a dispatch whose extent is not a multiple of
// the wave size still covers every texel.
func (c *ComputePass) DispatchWaves(wx, wy, wz int, imgHandle ImageHandle) *ComputePass {
	c.waveX, c.waveY, c.waveZ = wx, wy, wz
	c.waveImage = imgHandle
	c.useWaves = true
	return c
}

// build lazily constructs the kernel's pipeline layout and
// pipeline, the first time any job executes a pass referencing
// it. The layout is derived purely from this pass's current
// bindings, one descriptor set per binding.
func (c *ComputePass) build(k *kernelRecord) {
	if k.built() {
		return
	}
	sets := make([]driver.DescSetLayout, len(c.bindings))
	for i, b := range c.bindings {
		e := b.kind.entry(driver.SComputeShading)
		if !e.hasDesc {
			abort("compute pass", errBadKind)
		}
		sets[i] = c.g.descCache.Layout(e.descType, driver.StageCompute)
	}
	k.setLayouts = sets

	pushSize := 0
	if c.hasPush {
		pushSize = len(c.pushData)
	}
	layout, err := ctxt.GPU().NewPipelineLayout(sets, pushSize)
	if err != nil {
		abort("compute pass", err)
	}

	code, entry, err := c.g.loadShader(k.source, driver.StageCompute)
	if err != nil {
		abort("compute pass", err)
	}
	pl, err := ctxt.GPU().NewComputePipeline(layout, code, entry)
	if err != nil {
		abort("compute pass", err)
	}
	k.layout = layout
	k.pipeline = pl
}

// execute emits barriers for every binding, binds the pipeline
// and descriptor sets, pushes constants if any, and dispatches.
func (c *ComputePass) execute(cb driver.CmdBuffer) driver.Sync {
	if !c.hasKernel {
		abort("compute pass", errNoKernel)
	}
	k := c.g.kernel(c.kernel)
	c.build(k)

	sets := make([]driver.DescSet, len(c.bindings))
	for _, b := range c.bindings {
		e := b.kind.entry(driver.SComputeShading)
		rec := c.g.resources.At(int(b.res))
		c.g.emitBarrier(cb, rec, e, driver.SComputeShading)
		sets[b.index] = c.g.descSetFor(rec, e.descType)
	}

	cb.BindPipeline(k.pipeline, driver.BindCompute)
	cb.BindDescSets(k.layout, driver.BindCompute, 0, sets)
	if c.hasPush {
		cb.PushConstants(k.layout, driver.StageCompute, 0, c.pushData)
	}

	x, y, z := c.dispatchX, c.dispatchY, c.dispatchZ
	if c.useWaves {
		rec := c.g.resources.At(int(c.waveImage))
		ext := rec.img.extent
		x = util.CeilDiv(ext.Width, c.waveX)
		y = util.CeilDiv(ext.Height, c.waveY)
		z = util.CeilDiv(maxInt(ext.Depth, 1), c.waveZ)
	}
	cb.Dispatch(x, y, z)
	return driver.SComputeShading
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
