package vkbackend

import (
	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// image implements driver.Image.
type image struct {
	m      *memory
	img    vk.Image
	format vk.Format
	aspect vk.ImageAspectFlagBits
	extent driver.Dim3D
	layers int
	levels int
}

// NewImage creates a new 2D or 3D image and binds memory to it.
func (d *Driver) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	format := convPixelFmt(pf)
	aspect := aspectOf(pf)

	typ := vk.ImageType2d
	if size.Depth > 1 {
		typ = vk.ImageType3d
	}

	var usage vk.ImageUsageFlagBits
	if usg&driver.UStorage != 0 {
		usage |= vk.ImageUsageStorageBit
	}
	if usg&driver.USampled != 0 {
		usage |= vk.ImageUsageSampledBit
	}
	if usg&driver.UColorAttachment != 0 {
		usage |= vk.ImageUsageColorAttachmentBit
	}
	if usg&driver.UDepthAttachment != 0 {
		usage |= vk.ImageUsageDepthStencilAttachmentBit
	}
	if usg&driver.UTransferSrc != 0 {
		usage |= vk.ImageUsageTransferSrcBit
	}
	if usg&driver.UTransferDst != 0 {
		usage |= vk.ImageUsageTransferDstBit
	}
	if usage == 0 {
		panic("vkbackend: image created without a valid usage")
	}

	depth := size.Depth
	if depth < 1 {
		depth = 1
	}
	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: typ,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  uint32(size.Width),
			Height: uint32(size.Height),
			Depth:  uint32(depth),
		},
		MipLevels:     uint32(levels),
		ArrayLayers:   uint32(layers),
		Samples:       convSamples(samples),
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if err := checkResult(vk.CreateImage(d.dev, &info, nil, &img)); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, img, &req)
	req.Deref()
	m, err := d.newMemory(req, false)
	if err != nil {
		vk.DestroyImage(d.dev, img, nil)
		return nil, err
	}
	if err := checkResult(vk.BindImageMemory(d.dev, img, m.mem, 0)); err != nil {
		m.free()
		vk.DestroyImage(d.dev, img, nil)
		return nil, err
	}

	return &image{
		m:      m,
		img:    img,
		format: format,
		aspect: aspect,
		extent: size,
		layers: layers,
		levels: levels,
	}, nil
}

// Extent returns the image's dimensions.
func (im *image) Extent() driver.Dim3D { return im.extent }

// Destroy destroys the image and frees its memory.
func (im *image) Destroy() {
	if im == nil {
		return
	}
	if im.m != nil && im.m.d != nil {
		vk.DestroyImage(im.m.d.dev, im.img, nil)
		im.m.free()
	}
	*im = image{}
}

// imageView implements driver.ImageView.
type imageView struct {
	d      *Driver
	view   vk.ImageView
	img    vk.Image
	aspect vk.ImageAspectFlagBits
	layers int
	levels int
}

// NewView creates a new image view over the image's full extent
// and layer/level range.
func (im *image) NewView() (driver.ImageView, error) {
	typ := vk.ImageViewType2d
	if im.extent.Depth > 1 {
		typ = vk.ImageViewType3d
	}
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    im.img,
		ViewType: typ,
		Format:   im.format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(im.aspect),
			BaseMipLevel:   0,
			LevelCount:     uint32(im.levels),
			BaseArrayLayer: 0,
			LayerCount:     uint32(im.layers),
		},
	}
	var view vk.ImageView
	if err := checkResult(vk.CreateImageView(im.m.d.dev, &info, nil, &view)); err != nil {
		return nil, err
	}
	return &imageView{
		d:      im.m.d,
		view:   view,
		img:    im.img,
		aspect: im.aspect,
		layers: im.layers,
		levels: im.levels,
	}, nil
}

// Destroy destroys the image view.
func (v *imageView) Destroy() {
	if v == nil {
		return
	}
	if v.d != nil {
		vk.DestroyImageView(v.d.dev, v.view, nil)
	}
	*v = imageView{}
}

// convPixelFmt converts a driver.PixelFmt to a VkFormat.
func convPixelFmt(pf driver.PixelFmt) vk.Format {
	switch pf {
	case driver.RGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case driver.RGBA32Float:
		return vk.FormatR32g32b32a32Sfloat
	case driver.R32Float:
		return vk.FormatR32Sfloat
	case driver.D32Float:
		return vk.FormatD32Sfloat
	}
	return vk.FormatUndefined
}

// aspectOf returns the image aspect(s) implied by a driver.PixelFmt.
func aspectOf(pf driver.PixelFmt) vk.ImageAspectFlagBits {
	if pf == driver.D32Float {
		return vk.ImageAspectDepthBit
	}
	return vk.ImageAspectColorBit
}

// convAspect converts a driver.Aspect to a VkImageAspectFlagBits.
func convAspect(a driver.Aspect) vk.ImageAspectFlagBits {
	var flags vk.ImageAspectFlagBits
	if a&driver.AspectColor != 0 {
		flags |= vk.ImageAspectColorBit
	}
	if a&driver.AspectDepth != 0 {
		flags |= vk.ImageAspectDepthBit
	}
	return flags
}

// convSamples converts a sample count to a VkSampleCountFlagBits.
func convSamples(ns int) vk.SampleCountFlagBits {
	switch ns {
	case 1:
		return vk.SampleCount1Bit
	case 2:
		return vk.SampleCount2Bit
	case 4:
		return vk.SampleCount4Bit
	case 8:
		return vk.SampleCount8Bit
	case 16:
		return vk.SampleCount16Bit
	}
	return vk.SampleCount1Bit
}

// convLayout converts a driver.Layout to a VkImageLayout.
func convLayout(lay driver.Layout) vk.ImageLayout {
	switch lay {
	case driver.LUndefined:
		return vk.ImageLayoutUndefined
	case driver.LGeneral:
		return vk.ImageLayoutGeneral
	case driver.LColorAttachment:
		return vk.ImageLayoutColorAttachmentOptimal
	case driver.LDepthAttachment:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case driver.LTransferSrc:
		return vk.ImageLayoutTransferSrcOptimal
	case driver.LTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case driver.LShaderReadOnly:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case driver.LPresentSrc:
		return vk.ImageLayoutPresentSrcKHR
	}
	return vk.ImageLayoutUndefined
}
