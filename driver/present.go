package driver

import "errors"

// ErrCannotPresent means that the driver and/or device do not
// support presentation.
var ErrCannotPresent = errors.New("presentation not supported")

// ErrSurface represents an error related to a specific surface.
// This error usually indicates that the surface is misconfigured
// in a way that prevents correct operation, such as the driver
// requiring a visible surface to create a swapchain.
var ErrSurface = errors.New("surface-related error")

// ErrSwapchain represents an error related to a specific
// swapchain.
// This error usually indicates that changes to the surface or
// compositor made the swapchain unusable, and Recreate must be
// called.
var ErrSwapchain = errors.New("swapchain-related error")

// ErrNoBackbuffer means that all available backbuffers were
// acquired and none has been presented back yet.
var ErrNoBackbuffer = errors.New("all backbuffers in use")

// Surface is an opaque, platform-specific presentation target.
// Bringing up a window/surface is a collaborator's job; client
// code obtains a Surface by whatever platform mechanism it needs
// (e.g., a VkSurfaceKHR wrapped by a concrete backend) and hands
// it to Presenter.NewSwapchain.
type Surface interface{}

// Presenter is the interface that a GPU may implement to enable
// presentation on a display.
type Presenter interface {
	// NewSwapchain creates a new swapchain targeting surf.
	// Only one swapchain can be associated with a specific
	// Surface at a time.
	NewSwapchain(surf Surface, imageCount int) (Swapchain, error)
}

// Swapchain is the interface that defines an n-buffered
// swapchain for presentation. Unlike ordinary command buffer
// submission, acquire and present are synchronized purely
// through semaphores: there is no host-visible completion signal
// for either, which is why the graph package's surface adapter
// always threads a placeholder job through them rather than
// letting a caller wait on them directly.
type Swapchain interface {
	Destroyer

	// Views returns the list of image views that comprise the
	// swapchain. This value remains unchanged as long as Destroy
	// or Recreate are not called.
	Views() []ImageView

	// AcquireNext returns the index of the next writable image
	// view. sem is signaled by the device once the image is
	// actually available for writing; any command buffer that
	// renders into the image must wait on sem before doing so.
	AcquireNext(sem Semaphore) (int, error)

	// Present presents the image view identified by index. wait
	// is the semaphore that must be signaled before the device
	// is allowed to present, i.e., the finished-semaphore of the
	// last submission that wrote to the image.
	Present(index int, wait Semaphore) error

	// Recreate recreates the swapchain. It is meant to be called
	// in response to an ErrSwapchain error.
	Recreate() error

	// Format returns the image views' PixelFmt.
	Format() PixelFmt
}
