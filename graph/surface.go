package graph

import "github.com/llGuy/nezha/driver"

// AcquireNextSwapchainImage acquires the next writable image from
// sc and wraps the acquisition in a job: an empty command buffer
// and a fresh semaphore that the platform's acquire call signals
// once the image is actually available for writing. The returned
// job is never submitted itself; it exists only to be passed as a
// dependency to Graph.Submit, so that a job rendering into the
// acquired image waits on the right semaphore at the right stage.
// The returned index selects among the image's pre-registered
// swapchain handles.
func AcquireNextSwapchainImage(g *Graph, sc driver.Swapchain) (Job, int) {
	sem := g.syncPool.getSemaphore()
	idx, err := sc.AcquireNext(sem)
	if err != nil {
		abort("acquire_next_swapchain_image", err)
	}
	return Job{g: g, finishedSem: sem, lastStage: driver.SColorOutput, submissionIdx: -1}, idx
}

// Present submits a present on the platform present queue, waiting
// on j's finished-semaphore. j must come from a submitted Job
// whose dependency chain recorded a present-ready transfer on the
// image at imageIndex; the graph cannot check this and the device
// will fault if it does not hold. A driver.ErrSwapchain return
// means the caller must call sc.Recreate before presenting again.
func Present(sc driver.Swapchain, j Job, imageIndex int) error {
	return sc.Present(imageIndex, j.finishedSem)
}
