package graph

import "github.com/llGuy/nezha/driver"

// DrawFunc is the user callback invoked inside a render pass's
// dynamic-rendering scope.
type DrawFunc func(cb driver.CmdBuffer, area driver.Rect2D, user any)

// PrepareFunc is an optional callback invoked before the
// rendering scope begins, e.g. to bind a pipeline or update a
// uniform buffer that the draw callback will read.
type PrepareFunc func(cb driver.CmdBuffer, user any)

// noClear is the sentinel clear value meaning "load", matching
// the distilled spec's "clear.r < 0 means load" rule.
const noClear = -1

// RenderPass records a set of color/depth attachments and a user
// draw callback. It is obtained from Graph.AddRenderPass and is
// only valid until the next End/Begin.
type RenderPass struct {
	g        *Graph
	stageIdx int
	bindings []binding
	depthIdx int // -1 if none

	area    driver.Rect2D
	hasArea bool

	prepare PrepareFunc
	draw    DrawFunc
	user    any
}

func (r *RenderPass) reset() {
	r.bindings = r.bindings[:0]
	r.depthIdx = -1
	r.hasArea = false
	r.prepare = nil
	r.draw = nil
	r.user = nil
}

// AddColorAttachment adds a color render target. A negative
// clear.r means "load" rather than clear.
func (r *RenderPass) AddColorAttachment(h ImageHandle, clear [4]float32) *RenderPass {
	idx := len(r.bindings)
	r.bindings = append(r.bindings, binding{
		index: idx, kind: KindColorAttachment, res: Handle(h),
		clear: clear, hasClear: clear[0] >= 0, next: invalidUsage,
	})
	r.g.linkUsage(Handle(h), r.stageIdx, idx)
	return r
}

// AddDepthAttachment adds the (single) depth render target. A
// negative clear means "load" rather than clear.
func (r *RenderPass) AddDepthAttachment(h ImageHandle, clear float32) *RenderPass {
	idx := len(r.bindings)
	r.bindings = append(r.bindings, binding{
		index: idx, kind: KindDepthAttachment, res: Handle(h),
		clear: [4]float32{clear, 0, 0, 0}, hasClear: clear >= 0, next: invalidUsage,
	})
	r.depthIdx = idx
	r.g.linkUsage(Handle(h), r.stageIdx, idx)
	return r
}

// SetRenderArea overrides the inferred render area.
func (r *RenderPass) SetRenderArea(area driver.Rect2D) *RenderPass {
	r.area = area
	r.hasArea = true
	return r
}

// SetPrepare installs an optional callback run before the
// rendering scope begins.
func (r *RenderPass) SetPrepare(fn PrepareFunc) *RenderPass {
	r.prepare = fn
	return r
}

// SetDraw installs the required draw callback.
func (r *RenderPass) SetDraw(fn DrawFunc, user any) *RenderPass {
	r.draw = fn
	r.user = user
	return r
}

// execute emits a barrier per attachment, assembles attachment
// descriptors, and runs the rendering scope.
func (r *RenderPass) execute(cb driver.CmdBuffer) driver.Sync {
	if len(r.bindings) == 0 {
		abort("render pass", errNoAttachment)
	}
	if r.draw == nil {
		abort("render pass", errWrongState)
	}

	area := r.area
	if !r.hasArea {
		first := r.g.resources.At(int(r.bindings[0].res))
		ext := first.img.extent
		area = driver.Rect2D{Width: ext.Width, Height: ext.Height}
	}

	var color []driver.ColorAttachment
	var depth *driver.DepthAttachment
	for i, b := range r.bindings {
		e := b.kind.entry(0)
		rec := r.g.resources.At(int(b.res))
		r.g.emitBarrier(cb, rec, e, e.stage)

		load := driver.LoadLoad
		if b.hasClear {
			load = driver.LoadClear
		}
		if i == r.depthIdx {
			depth = &driver.DepthAttachment{View: rec.img.view, Load: load, Clear: b.clear[0]}
		} else {
			color = append(color, driver.ColorAttachment{View: rec.img.view, Load: load, Clear: b.clear})
		}
	}

	if r.prepare != nil {
		r.prepare(cb, r.user)
	}
	cb.BeginRendering(area, color, depth)
	cb.SetViewport([]driver.Viewport{{Width: float32(area.Width), Height: float32(area.Height), Zfar: 1}})
	cb.SetScissor([]driver.Rect2D{area})
	r.draw(cb, area, r.user)
	cb.EndRendering()
	return driver.SColorOutput
}
