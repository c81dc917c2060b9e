package vkbackend

import (
	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// cmdBuffer implements driver.CmdBuffer. Each one owns an
// exclusive command pool, matching the one-pool-per-buffer scheme
// the rest of the package uses to keep lifetime management simple.
type cmdBuffer struct {
	d    *Driver
	pool vk.CommandPool
	cb   vk.CommandBuffer
}

// NewCmdBuffer creates a new command buffer.
func (d *Driver) NewCmdBuffer() (driver.CmdBuffer, error) {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.qfam,
	}
	var pool vk.CommandPool
	if err := checkResult(vk.CreateCommandPool(d.dev, &poolInfo, nil, &pool)); err != nil {
		return nil, err
	}
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	cbs := make([]vk.CommandBuffer, 1)
	if err := checkResult(vk.AllocateCommandBuffers(d.dev, &allocInfo, cbs)); err != nil {
		vk.DestroyCommandPool(d.dev, pool, nil)
		return nil, err
	}
	return &cmdBuffer{d: d, pool: pool, cb: cbs[0]}, nil
}

// Begin prepares the command buffer for recording.
func (cb *cmdBuffer) Begin() error {
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return checkResult(vk.BeginCommandBuffer(cb.cb, &info))
}

// End ends command recording.
func (cb *cmdBuffer) End() error {
	return checkResult(vk.EndCommandBuffer(cb.cb))
}

// Reset discards all recorded commands.
func (cb *cmdBuffer) Reset() error {
	return checkResult(vk.ResetCommandBuffer(cb.cb, vk.CommandBufferResetFlags(0)))
}

// Barrier inserts a pipeline barrier covering any combination of
// buffer ranges and image subresources.
func (cb *cmdBuffer) Barrier(srcStage, dstStage driver.Sync, imgs []driver.ImageBarrier, bufs []driver.BufferBarrier) {
	var imgBars []vk.ImageMemoryBarrier
	for _, b := range imgs {
		im := b.Image.(*image)
		imgBars = append(imgBars, vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(convAccess(b.AccessBefore)),
			DstAccessMask:       vk.AccessFlags(convAccess(b.AccessAfter)),
			OldLayout:           convLayout(b.LayoutBefore),
			NewLayout:           convLayout(b.LayoutAfter),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               im.img,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(convAspect(b.Aspect)),
				BaseMipLevel:   0,
				LevelCount:     uint32(im.levels),
				BaseArrayLayer: 0,
				LayerCount:     uint32(im.layers),
			},
		})
	}
	var bufBars []vk.BufferMemoryBarrier
	for _, b := range bufs {
		buf := b.Buffer.(*buffer)
		bufBars = append(bufBars, vk.BufferMemoryBarrier{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(convAccess(b.AccessBefore)),
			DstAccessMask:       vk.AccessFlags(convAccess(b.AccessAfter)),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              buf.buf,
			Offset:              vk.DeviceSize(b.Offset),
			Size:                vk.DeviceSize(b.Size),
		})
	}
	vk.CmdPipelineBarrier(
		cb.cb,
		vk.PipelineStageFlags(convSync(srcStage)),
		vk.PipelineStageFlags(convSync(dstStage)),
		vk.DependencyFlags(0),
		0, nil,
		uint32(len(bufBars)), bufBars,
		uint32(len(imgBars)), imgBars,
	)
}

// BeginRendering begins a dynamic-rendering scope.
func (cb *cmdBuffer) BeginRendering(area driver.Rect2D, color []driver.ColorAttachment, depth *driver.DepthAttachment) {
	colorAtts := make([]vk.RenderingAttachmentInfoKHR, len(color))
	for i, c := range color {
		load := vk.AttachmentLoadOpLoad
		if c.Load == driver.LoadClear {
			load = vk.AttachmentLoadOpClear
		}
		var clear vk.ClearValue
		clear.SetColor(c.Clear[:])
		colorAtts[i] = vk.RenderingAttachmentInfoKHR{
			SType:       vk.StructureTypeRenderingAttachmentInfoKHR,
			ImageView:   c.View.(*imageView).view,
			ImageLayout: vk.ImageLayoutColorAttachmentOptimal,
			LoadOp:      load,
			StoreOp:     vk.AttachmentStoreOpStore,
			ClearValue:  clear,
		}
	}
	var pdepth *vk.RenderingAttachmentInfoKHR
	if depth != nil {
		load := vk.AttachmentLoadOpLoad
		if depth.Load == driver.LoadClear {
			load = vk.AttachmentLoadOpClear
		}
		var clear vk.ClearValue
		clear.SetDepthStencil(depth.Clear, 0)
		d := vk.RenderingAttachmentInfoKHR{
			SType:       vk.StructureTypeRenderingAttachmentInfoKHR,
			ImageView:   depth.View.(*imageView).view,
			ImageLayout: vk.ImageLayoutDepthStencilAttachmentOptimal,
			LoadOp:      load,
			StoreOp:     vk.AttachmentStoreOpStore,
			ClearValue:  clear,
		}
		pdepth = &d
	}
	info := vk.RenderingInfoKHR{
		SType: vk.StructureTypeRenderingInfoKHR,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: int32(area.X), Y: int32(area.Y)},
			Extent: vk.Extent2D{Width: uint32(area.Width), Height: uint32(area.Height)},
		},
		LayerCount:           1,
		ColorAttachmentCount: uint32(len(colorAtts)),
		PColorAttachments:    colorAtts,
		PDepthAttachment:     pdepth,
	}
	vk.CmdBeginRenderingKHR(cb.cb, &info)
}

// EndRendering ends the current dynamic-rendering scope.
func (cb *cmdBuffer) EndRendering() {
	vk.CmdEndRenderingKHR(cb.cb)
}

// BindPipeline binds a compute or graphics pipeline.
func (cb *cmdBuffer) BindPipeline(pl driver.Pipeline, bindPoint driver.BindPoint) {
	vk.CmdBindPipeline(cb.cb, convBindPoint(bindPoint), pl.(*pipeline).pl)
}

// BindDescSets binds descriptor sets starting at start.
func (cb *cmdBuffer) BindDescSets(layout driver.PipelineLayout, bindPoint driver.BindPoint, start int, sets []driver.DescSet) {
	vksets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		vksets[i] = s.(*descSet).set
	}
	vk.CmdBindDescriptorSets(cb.cb, convBindPoint(bindPoint), layout.(*pipelineLayout).layout, uint32(start), uint32(len(vksets)), vksets, 0, nil)
}

// PushConstants updates a push-constant range.
func (cb *cmdBuffer) PushConstants(layout driver.PipelineLayout, stages driver.Stage, offset int, data []byte) {
	vk.CmdPushConstants(cb.cb, layout.(*pipelineLayout).layout, vk.ShaderStageFlags(convStage(stages)), uint32(offset), uint32(len(data)), unsafePtr(data))
}

// SetViewport sets the viewport bounds.
func (cb *cmdBuffer) SetViewport(vp []driver.Viewport) {
	vps := make([]vk.Viewport, len(vp))
	for i, v := range vp {
		vps[i] = vk.Viewport{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height, MinDepth: v.Znear, MaxDepth: v.Zfar}
	}
	vk.CmdSetViewport(cb.cb, 0, uint32(len(vps)), vps)
}

// SetScissor sets the scissor rectangles.
func (cb *cmdBuffer) SetScissor(sciss []driver.Rect2D) {
	rects := make([]vk.Rect2D, len(sciss))
	for i, s := range sciss {
		rects[i] = vk.Rect2D{
			Offset: vk.Offset2D{X: int32(s.X), Y: int32(s.Y)},
			Extent: vk.Extent2D{Width: uint32(s.Width), Height: uint32(s.Height)},
		}
	}
	vk.CmdSetScissor(cb.cb, 0, uint32(len(rects)), rects)
}

// Draw draws non-indexed primitives.
func (cb *cmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	vk.CmdDraw(cb.cb, uint32(vertCount), uint32(instCount), uint32(baseVert), uint32(baseInst))
}

// DrawIndexed draws indexed primitives.
func (cb *cmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	vk.CmdDrawIndexed(cb.cb, uint32(idxCount), uint32(instCount), uint32(baseIdx), int32(vertOff), uint32(baseInst))
}

// Dispatch dispatches compute thread groups.
func (cb *cmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	vk.CmdDispatch(cb.cb, uint32(grpCountX), uint32(grpCountY), uint32(grpCountZ))
}

// UpdateBuffer writes data inline into a buffer range.
func (cb *cmdBuffer) UpdateBuffer(buf driver.Buffer, offset int64, data []byte) {
	vk.CmdUpdateBuffer(cb.cb, buf.(*buffer).buf, vk.DeviceSize(offset), vk.DeviceSize(len(data)), unsafePtr(data))
}

// CopyBuffer copies data between buffers.
func (cb *cmdBuffer) CopyBuffer(param *driver.BufferCopy) {
	region := vk.BufferCopy{
		SrcOffset: vk.DeviceSize(param.FromOff),
		DstOffset: vk.DeviceSize(param.ToOff),
		Size:      vk.DeviceSize(param.Size),
	}
	vk.CmdCopyBuffer(cb.cb, param.From.(*buffer).buf, param.To.(*buffer).buf, 1, []vk.BufferCopy{region})
}

// BlitImage performs a filtered blit of src's full extent into
// dst's full extent.
func (cb *cmdBuffer) BlitImage(src, dst driver.Image) {
	s := src.(*image)
	t := dst.(*image)
	region := vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(s.aspect),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     uint32(s.layers),
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(t.aspect),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     uint32(t.layers),
		},
	}
	region.SrcOffsets[1] = vk.Offset3D{X: int32(s.extent.Width), Y: int32(s.extent.Height), Z: 1}
	region.DstOffsets[1] = vk.Offset3D{X: int32(t.extent.Width), Y: int32(t.extent.Height), Z: 1}
	vk.CmdBlitImage(
		cb.cb,
		s.img, vk.ImageLayoutTransferSrcOptimal,
		t.img, vk.ImageLayoutTransferDstOptimal,
		1, []vk.ImageBlit{region},
		vk.FilterLinear,
	)
}

// Destroy destroys the command buffer and its pool.
func (cb *cmdBuffer) Destroy() {
	if cb == nil {
		return
	}
	if cb.d != nil {
		vk.DestroyCommandPool(cb.d.dev, cb.pool, nil)
	}
	*cb = cmdBuffer{}
}

func convBindPoint(bp driver.BindPoint) vk.PipelineBindPoint {
	if bp == driver.BindGraphics {
		return vk.PipelineBindPointGraphics
	}
	return vk.PipelineBindPointCompute
}

// convSync converts a driver.Sync to a VkPipelineStageFlagBits.
func convSync(s driver.Sync) vk.PipelineStageFlagBits {
	if s == driver.SNone {
		return vk.PipelineStageTopOfPipeBit
	}
	var flags vk.PipelineStageFlagBits
	if s&driver.SVertexInput != 0 {
		flags |= vk.PipelineStageVertexInputBit
	}
	if s&driver.SVertexShading != 0 {
		flags |= vk.PipelineStageVertexShaderBit
	}
	if s&driver.SFragmentShading != 0 {
		flags |= vk.PipelineStageFragmentShaderBit
	}
	if s&driver.SComputeShading != 0 {
		flags |= vk.PipelineStageComputeShaderBit
	}
	if s&driver.SColorOutput != 0 {
		flags |= vk.PipelineStageColorAttachmentOutputBit
	}
	if s&driver.SEarlyFragmentTests != 0 {
		flags |= vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit
	}
	if s&driver.STransfer != 0 {
		flags |= vk.PipelineStageTransferBit
	}
	if s&driver.SBottomOfPipe != 0 {
		flags |= vk.PipelineStageBottomOfPipeBit
	}
	return flags
}

// convAccess converts a driver.Access to a VkAccessFlagBits.
func convAccess(a driver.Access) vk.AccessFlagBits {
	if a == driver.ANone {
		return 0
	}
	var flags vk.AccessFlagBits
	if a&driver.AVertexAttribRead != 0 {
		flags |= vk.AccessVertexAttributeReadBit
	}
	if a&driver.AColorRead != 0 {
		flags |= vk.AccessColorAttachmentReadBit
	}
	if a&driver.AColorWrite != 0 {
		flags |= vk.AccessColorAttachmentWriteBit
	}
	if a&driver.ADSRead != 0 {
		flags |= vk.AccessDepthStencilAttachmentReadBit
	}
	if a&driver.ADSWrite != 0 {
		flags |= vk.AccessDepthStencilAttachmentWriteBit
	}
	if a&driver.ATransferRead != 0 {
		flags |= vk.AccessTransferReadBit
	}
	if a&driver.ATransferWrite != 0 {
		flags |= vk.AccessTransferWriteBit
	}
	if a&driver.AShaderRead != 0 {
		flags |= vk.AccessShaderReadBit
	}
	if a&driver.AShaderWrite != 0 {
		flags |= vk.AccessShaderWriteBit
	}
	if a&driver.AMemoryRead != 0 {
		flags |= vk.AccessMemoryReadBit
	}
	if a&driver.AMemoryWrite != 0 {
		flags |= vk.AccessMemoryWriteBit
	}
	return flags
}

// convStage converts a driver.Stage to a VkShaderStageFlagBits.
func convStage(s driver.Stage) vk.ShaderStageFlagBits {
	var flags vk.ShaderStageFlagBits
	if s&driver.StageVertex != 0 {
		flags |= vk.ShaderStageVertexBit
	}
	if s&driver.StageFragment != 0 {
		flags |= vk.ShaderStageFragmentBit
	}
	if s&driver.StageCompute != 0 {
		flags |= vk.ShaderStageComputeBit
	}
	return flags
}
