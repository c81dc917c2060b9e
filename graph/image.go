package graph

import (
	"github.com/llGuy/nezha/driver"
	"github.com/llGuy/nezha/graph/internal/ctxt"
)

// ImageInfo carries the parameters of a RegisterImage/
// ConfigureImage call.
type ImageInfo struct {
	Extent driver.Dim3D
	Format driver.PixelFmt
	Depth  bool // true selects the depth aspect instead of color
	Layers int
	Usage  driver.Usage
}

// RegisterImage creates a new, as-yet-uncommitted image record
// and returns its handle.
func (g *Graph) RegisterImage(info ImageInfo) ImageHandle {
	idx := g.resources.Add(resource{kind: resImage})
	h := ImageHandle(idx)
	g.ConfigureImage(h, info)
	return h
}

// ConfigureImage applies info to an existing image. Per
// first-commit-wins, calls after the image has been committed
// are ignored.
func (g *Graph) ConfigureImage(h ImageHandle, info ImageInfo) {
	rec := g.imageRecord(h)
	if rec.committed() {
		return
	}
	if info.Extent.Width > 0 {
		rec.extent = info.Extent
	}
	rec.format = info.Format
	if info.Depth {
		rec.aspect = driver.AspectDepth
	} else {
		rec.aspect = driver.AspectColor
	}
	if info.Layers > 0 {
		rec.layers = info.Layers
	} else if rec.layers == 0 {
		rec.layers = 1
	}
	rec.usage |= info.Usage
}

// AllocImage commits the image's device object and view now, if
// it has not been committed already.
func (g *Graph) AllocImage(h ImageHandle) {
	rec := g.imageRecord(h)
	if rec.committed() {
		return
	}
	g.commitImage(rec)
}

func (g *Graph) commitImage(rec *imageRecord) {
	if rec.extent.Width <= 0 || rec.extent.Height <= 0 {
		abort("alloc", errZeroSize)
	}
	img, err := ctxt.GPU().NewImage(rec.format, rec.extent, rec.layers, 1, 1, rec.usage)
	if err != nil {
		abort("alloc", err)
	}
	view, err := img.NewView()
	if err != nil {
		abort("alloc", err)
	}
	rec.obj = img
	rec.view = view
	rec.curLayout = driver.LUndefined
}

// RegisterSwapchainImage wraps an externally owned image/view
// pair (e.g. a swapchain backbuffer) as an image record that is
// already considered committed. Destroying the underlying object
// remains the surface's responsibility; the graph never destroys
// an externally owned image.
func (g *Graph) RegisterSwapchainImage(obj driver.Image, view driver.ImageView, format driver.PixelFmt) ImageHandle {
	idx := g.resources.Add(resource{kind: resImage})
	r := g.resources.At(idx)
	r.img.extent = obj.Extent()
	r.img.format = format
	r.img.aspect = driver.AspectColor
	r.img.layers = 1
	r.img.usage = driver.UColorAttachment
	r.img.obj = obj
	r.img.view = view
	r.img.curLayout = driver.LUndefined
	r.img.externallyOwned = true
	return ImageHandle(idx)
}

func (g *Graph) imageRecord(h ImageHandle) *imageRecord {
	if !g.resources.Live(int(h)) {
		abort("image", errBadHandle)
	}
	r := g.resources.At(int(h))
	if r.kind != resImage {
		abort("image", errBadHandle)
	}
	return &r.img
}
