package vkbackend

import (
	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// fence implements driver.Fence.
type fence struct {
	d *Driver
	f vk.Fence
}

// NewFence creates a fence, optionally pre-signaled.
func (d *Driver) NewFence(signaled bool) (driver.Fence, error) {
	var flags vk.FenceCreateFlagBits
	if signaled {
		flags = vk.FenceCreateSignaledBit
	}
	info := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(flags),
	}
	var f vk.Fence
	if err := checkResult(vk.CreateFence(d.dev, &info, nil, &f)); err != nil {
		return nil, err
	}
	return &fence{d: d, f: f}, nil
}

// Reset sets the fence back to the unsignaled state.
func (fn *fence) Reset() error {
	return checkResult(vk.ResetFences(fn.d.dev, 1, []vk.Fence{fn.f}))
}

// Signaled reports whether the fence is currently signaled.
func (fn *fence) Signaled() (bool, error) {
	res := vk.GetFenceStatus(fn.d.dev, fn.f)
	switch res {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, checkResult(res)
	}
}

// Wait blocks until the fence is signaled.
func (fn *fence) Wait() error {
	return checkResult(vk.WaitForFences(fn.d.dev, 1, []vk.Fence{fn.f}, vk.True, vk.MaxUint64))
}

// Destroy destroys the fence.
func (fn *fence) Destroy() {
	if fn == nil {
		return
	}
	if fn.d != nil {
		vk.DestroyFence(fn.d.dev, fn.f, nil)
	}
	*fn = fence{}
}

// semaphore implements driver.Semaphore.
type semaphore struct {
	d   *Driver
	sem vk.Semaphore
}

// NewSemaphore creates a semaphore.
func (d *Driver) NewSemaphore() (driver.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if err := checkResult(vk.CreateSemaphore(d.dev, &info, nil, &sem)); err != nil {
		return nil, err
	}
	return &semaphore{d: d, sem: sem}, nil
}

// Destroy destroys the semaphore.
func (s *semaphore) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroySemaphore(s.d.dev, s.sem, nil)
	}
	*s = semaphore{}
}

// Submit submits a batch of command buffers for execution.
func (d *Driver) Submit(info *driver.SubmitInfo) error {
	cbs := make([]vk.CommandBuffer, len(info.CmdBuffers))
	for i, c := range info.CmdBuffers {
		cbs[i] = c.(*cmdBuffer).cb
	}
	waitSems := make([]vk.Semaphore, len(info.WaitSems))
	for i, s := range info.WaitSems {
		waitSems[i] = s.(*semaphore).sem
	}
	waitStages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		waitStages[i] = vk.PipelineStageFlags(convSync(s))
	}
	signalSems := make([]vk.Semaphore, len(info.SignalSems))
	for i, s := range info.SignalSems {
		signalSems[i] = s.(*semaphore).sem
	}

	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSems)),
		PWaitSemaphores:      waitSems,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   uint32(len(cbs)),
		PCommandBuffers:      cbs,
		SignalSemaphoreCount: uint32(len(signalSems)),
		PSignalSemaphores:    signalSems,
	}

	var f vk.Fence
	if info.Fence != nil {
		f = info.Fence.(*fence).f
	}
	return checkResult(vk.QueueSubmit(d.que, 1, []vk.SubmitInfo{submit}, f))
}
