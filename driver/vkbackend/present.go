package vkbackend

import (
	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// swapchain implements driver.Swapchain. It assumes a single
// queue family serves both rendering and presentation, which holds
// for every device initDevice is willing to select.
type swapchain struct {
	d      *Driver
	sf     vk.Surface
	sc     vk.Swapchain
	pf     driver.PixelFmt
	extent vk.Extent2D
	imgs   []vk.Image
	views  []driver.ImageView
	broken bool
}

// NewSwapchain creates a swapchain over a platform surface handed
// in as a vk.Surface, created by platform-specific window
// integration code that lives outside this package.
func (d *Driver) NewSwapchain(surf driver.Surface, imageCount int) (driver.Swapchain, error) {
	sf, ok := surf.(vk.Surface)
	if !ok {
		return nil, driver.ErrSurface
	}
	s := &swapchain{d: d, sf: sf}
	if err := s.create(imageCount); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *swapchain) create(imageCount int) error {
	d := s.d
	var capab vk.SurfaceCapabilities
	if err := checkResult(vk.GetPhysicalDeviceSurfaceCapabilities(d.pdev, s.sf, &capab)); err != nil {
		return err
	}
	capab.Deref()
	capab.CurrentExtent.Deref()

	nimg := uint32(imageCount)
	if capab.MinImageCount > nimg {
		nimg = capab.MinImageCount
	}
	if capab.MaxImageCount != 0 && nimg > capab.MaxImageCount {
		nimg = capab.MaxImageCount
	}
	extent := capab.CurrentExtent

	var nfmt uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.pdev, s.sf, &nfmt, nil)
	if nfmt == 0 {
		return driver.ErrSurface
	}
	fmts := make([]vk.SurfaceFormat, nfmt)
	vk.GetPhysicalDeviceSurfaceFormats(d.pdev, s.sf, &nfmt, fmts)
	fmts[0].Deref()
	format := fmts[0].Format
	colorSpace := fmts[0].ColorSpace
	for _, f := range fmts {
		f.Deref()
		if f.Format == vk.FormatR8g8b8a8Unorm {
			format, colorSpace = f.Format, f.ColorSpace
			break
		}
	}
	s.pf = driver.RGBA8Unorm

	old := s.sc
	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.sf,
		MinImageCount:    nimg,
		ImageFormat:      format,
		ImageColorSpace:  colorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capab.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
		OldSwapchain:     old,
	}
	var sc vk.Swapchain
	if err := checkResult(vk.CreateSwapchain(d.dev, &info, nil, &sc)); err != nil {
		return err
	}
	if old != 0 {
		vk.DestroySwapchain(d.dev, old, nil)
	}
	s.sc = sc
	s.extent = extent

	var n uint32
	vk.GetSwapchainImages(d.dev, s.sc, &n, nil)
	s.imgs = make([]vk.Image, n)
	vk.GetSwapchainImages(d.dev, s.sc, &n, s.imgs)

	for _, v := range s.views {
		v.Destroy()
	}
	s.views = make([]driver.ImageView, n)
	for i, img := range s.imgs {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vk.ImageViewType2d,
			Format:   format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if err := checkResult(vk.CreateImageView(d.dev, &viewInfo, nil, &view)); err != nil {
			return err
		}
		s.views[i] = &imageView{d: d, view: view, img: img, aspect: vk.ImageAspectColorBit, layers: 1, levels: 1}
	}
	s.broken = false
	return nil
}

// Views returns the swapchain's backing image views.
func (s *swapchain) Views() []driver.ImageView { return s.views }

// AcquireNext acquires the next writable image, signaling sem when
// it becomes available.
func (s *swapchain) AcquireNext(sem driver.Semaphore) (int, error) {
	if s.broken {
		return -1, driver.ErrSwapchain
	}
	var idx uint32
	res := vk.AcquireNextImage(s.d.dev, s.sc, vk.MaxUint64, sem.(*semaphore).sem, vk.Fence(0), &idx)
	switch res {
	case vk.Success:
		return int(idx), nil
	case vk.Suboptimal:
		return int(idx), nil
	case vk.ErrorOutOfDateKHR:
		s.broken = true
		return -1, driver.ErrSwapchain
	default:
		return -1, checkResult(res)
	}
}

// Present enqueues an image for presentation after wait is
// signaled.
func (s *swapchain) Present(index int, wait driver.Semaphore) error {
	if s.broken {
		return driver.ErrSwapchain
	}
	idx := uint32(index)
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(*semaphore).sem},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.sc},
		PImageIndices:      []uint32{idx},
	}
	res := vk.QueuePresent(s.d.que, &info)
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal, vk.ErrorOutOfDateKHR:
		s.broken = true
		return driver.ErrSwapchain
	default:
		return checkResult(res)
	}
}

// Recreate recreates the swapchain, e.g. after a resize.
func (s *swapchain) Recreate() error {
	vk.QueueWaitIdle(s.d.que)
	return s.create(len(s.imgs))
}

// Format returns the swapchain image format.
func (s *swapchain) Format() driver.PixelFmt { return s.pf }

// Destroy destroys the swapchain and its image views.
func (s *swapchain) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.QueueWaitIdle(s.d.que)
		for _, v := range s.views {
			v.Destroy()
		}
		vk.DestroySwapchain(s.d.dev, s.sc, nil)
		vk.DestroySurface(s.d.inst, s.sf, nil)
	}
	*s = swapchain{}
}
