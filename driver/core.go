package driver

// GPU is the main interface to an underlying driver implementation.
// It is used to create other types and to submit command buffers
// for execution. A GPU is obtained from a call to Driver.Open.
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// NewShaderCode creates a new shader module from a SPIR-V
	// binary payload, passed uninterpreted.
	NewShaderCode(data []byte) (ShaderCode, error)

	// NewDescSetLayout creates a descriptor set layout from a
	// sequence of bindings, each given a single slot (count=1).
	// Layouts are meant to be cached and reused: creating two
	// layouts with the same (type, count) shape is valid but
	// wasteful, which is why the graph package never calls this
	// directly and instead goes through its descriptor-layout
	// cache (see the util package).
	NewDescSetLayout(binds []DescBinding) (DescSetLayout, error)

	// NewDescSet allocates a descriptor set from a previously
	// created layout.
	NewDescSet(layout DescSetLayout) (DescSet, error)

	// NewPipelineLayout creates a pipeline layout from a sequence
	// of descriptor set layouts (one set per layout, in order)
	// and an optional push-constant range size (zero means none).
	NewPipelineLayout(sets []DescSetLayout, pushConstSize int) (PipelineLayout, error)

	// NewComputePipeline creates a compute pipeline from a shader
	// module, its entry point name, and a pipeline layout.
	NewComputePipeline(layout PipelineLayout, code ShaderCode, entry string) (Pipeline, error)

	// NewGraphicsPipeline creates a graphics pipeline targeting a
	// dynamic-rendering scope with the given color/depth formats.
	// There is no render pass or framebuffer object to tie a
	// graphics pipeline to; state.ColorFmts/state.DepthFmt instead
	// describe the attachment formats it must be compatible with.
	NewGraphicsPipeline(layout PipelineLayout, state *GraphicsState) (Pipeline, error)

	// NewBuffer creates a new buffer and binds memory to it with
	// the given visibility (host-visible or device-local).
	NewBuffer(size int64, visible bool, usg Usage) (Buffer, error)

	// NewImage creates a new image (2D if size.Depth <= 1,
	// otherwise 3D) and binds memory to it.
	NewImage(pf PixelFmt, size Dim3D, layers, levels, samples int, usg Usage) (Image, error)

	// NewSampler creates a new Sampler.
	NewSampler(spln *Sampling) (Sampler, error)

	// NewFence creates a new fence, optionally pre-signaled.
	NewFence(signaled bool) (Fence, error)

	// NewSemaphore creates a new semaphore.
	NewSemaphore() (Semaphore, error)

	// Submit submits a batch of command buffers to the GPU for
	// execution. The command buffers in info.CmdBuffers cannot be
	// used for recording again until the fence in info.Fence is
	// signaled.
	Submit(info *SubmitInfo) error

	// Limits returns the implementation limits.
	// They are immutable for the lifetime of the GPU.
	Limits() Limits
}

// SubmitInfo describes a single queue submission.
type SubmitInfo struct {
	CmdBuffers   []CmdBuffer
	WaitSems     []Semaphore
	WaitStages   []Sync
	SignalSems   []Semaphore
	Fence        Fence
}

// Destroyer is the interface that wraps the Destroy method.
// Types that implement this interface may allocate external
// memory that is not managed by GC, so Destroy must be called
// explicitly to ensure such memory is deallocated.
type Destroyer interface {
	Destroy()
}

// Fence is the interface that defines a host-waitable sync
// primitive signaled by the device upon completion of a
// submission.
type Fence interface {
	Destroyer

	// Reset sets the fence back to the unsignaled state.
	Reset() error

	// Signaled reports whether the fence is currently signaled,
	// without blocking.
	Signaled() (bool, error)

	// Wait blocks until the fence is signaled. There is no
	// timeout variant: per the concurrency model, device-lost is
	// a fatal condition, not one a caller recovers from by
	// giving up on a wait.
	Wait() error
}

// Semaphore is the interface that defines a device-side sync
// primitive used to order submissions without any host
// involvement. It carries no methods beyond Destroy: semaphores
// are opaque tokens passed to Submit and to a Presenter.
type Semaphore interface {
	Destroyer
}

// CmdBuffer is the interface that defines a command buffer.
// Commands are recorded into command buffers and later submitted
// to the GPU for execution via GPU.Submit. The usage is:
//
//  1. call Begin
//  2. record barriers, dispatches, draws and copies in any order
//     that respects the Vulkan-class rule that a command must be
//     issued inside the right scope (BeginRendering/EndRendering
//     around draws; no scope required around dispatch/copy)
//  3. call End
//  4. call GPU.Submit
//
// Begin must not be called again until the command buffer has
// either completed execution or been Reset.
type CmdBuffer interface {
	Destroyer

	// Begin prepares the command buffer for recording.
	Begin() error

	// End ends command recording and prepares the command buffer
	// for submission.
	End() error

	// Reset discards all recorded commands from the command
	// buffer, returning it to the state it was in right after
	// creation.
	Reset() error

	// Barrier inserts a pipeline barrier covering zero or more
	// buffer ranges and zero or more image subresources (with an
	// optional layout transition for the latter).
	Barrier(srcStage, dstStage Sync, imgs []ImageBarrier, bufs []BufferBarrier)

	// BeginRendering begins a dynamic-rendering scope targeting
	// the given color and optional depth attachments.
	BeginRendering(area Rect2D, color []ColorAttachment, depth *DepthAttachment)

	// EndRendering ends the current dynamic-rendering scope.
	EndRendering()

	// BindPipeline binds a compute or graphics pipeline.
	// There is a separate binding point for each kind.
	BindPipeline(pl Pipeline, bindPoint BindPoint)

	// BindDescSets binds descriptor sets starting at the given
	// set index.
	BindDescSets(layout PipelineLayout, bindPoint BindPoint, start int, sets []DescSet)

	// PushConstants updates a range of the currently bound
	// pipeline layout's push-constant block.
	PushConstants(layout PipelineLayout, stages Stage, offset int, data []byte)

	// SetViewport sets the bounds of one or more viewports.
	SetViewport(vp []Viewport)

	// SetScissor sets the rectangles of one or more viewport
	// scissors.
	SetScissor(sciss []Rect2D)

	// Draw draws non-indexed primitives.
	// It must only be called inside a rendering scope.
	Draw(vertCount, instCount, baseVert, baseInst int)

	// DrawIndexed draws indexed primitives.
	// It must only be called inside a rendering scope.
	DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int)

	// Dispatch dispatches compute thread groups.
	Dispatch(grpCountX, grpCountY, grpCountZ int)

	// UpdateBuffer writes data inline into a buffer range. data
	// is expected to be small (the Vulkan-class limit is 64KiB);
	// larger transfers should go through a staging buffer and
	// CopyBuffer instead.
	UpdateBuffer(buf Buffer, offset int64, data []byte)

	// CopyBuffer copies data between buffers.
	CopyBuffer(param *BufferCopy)

	// BlitImage performs a filtered blit of the full extent of
	// src into the full extent of dst.
	BlitImage(src, dst Image)
}

// BindPoint selects which pipeline binding point a command
// applies to.
type BindPoint int

// Bind points.
const (
	BindCompute BindPoint = iota
	BindGraphics
)

// BufferCopy describes the parameters of a copy command that
// copies data from one buffer to another.
type BufferCopy struct {
	From    Buffer
	FromOff int64
	To      Buffer
	ToOff   int64
	Size    int64
}

// Sync is the type of a pipeline-stage synchronization scope.
type Sync int

// Pipeline stages.
const (
	SVertexInput Sync = 1 << iota
	SVertexShading
	SFragmentShading
	SComputeShading
	SColorOutput
	SEarlyFragmentTests
	STransfer
	SBottomOfPipe
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AVertexAttribRead Access = 1 << iota
	AColorRead
	AColorWrite
	ADSRead
	ADSWrite
	ATransferRead
	ATransferWrite
	AShaderRead
	AShaderWrite
	AMemoryRead
	AMemoryWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LGeneral
	LColorAttachment
	LDepthAttachment
	LTransferSrc
	LTransferDst
	LShaderReadOnly
	LPresentSrc
)

// ImageBarrier represents a synchronization barrier on a single
// image subresource, optionally transitioning its layout.
type ImageBarrier struct {
	Image        Image
	LayoutBefore Layout
	LayoutAfter  Layout
	AccessBefore Access
	AccessAfter  Access
	Aspect       Aspect
}

// BufferBarrier represents a synchronization barrier on a buffer
// range.
type BufferBarrier struct {
	Buffer       Buffer
	Offset, Size int64
	AccessBefore Access
	AccessAfter  Access
}

// Aspect selects an image's aspect(s) for barriers and views.
type Aspect int

// Image aspects.
const (
	AspectColor Aspect = 1 << iota
	AspectDepth
)

// LoadOp is the type of an attachment's load operation.
type LoadOp int

// Load operations.
const (
	LoadClear LoadOp = iota
	LoadLoad
)

// Rect2D is an integer rectangle, used for render areas and
// scissors.
type Rect2D struct {
	X, Y, Width, Height int
}

// ColorAttachment describes a single color render target for a
// dynamic-rendering scope.
type ColorAttachment struct {
	View  ImageView
	Load  LoadOp
	Clear [4]float32
}

// DepthAttachment describes the depth render target for a
// dynamic-rendering scope.
type DepthAttachment struct {
	View  ImageView
	Load  LoadOp
	Clear float32
}

// ShaderCode is the interface that defines a shader binary for
// execution in a programmable pipeline stage.
type ShaderCode interface {
	Destroyer
}

// Stage is a mask of programmable shader stages.
type Stage int

// Stages.
const (
	StageVertex Stage = 1 << iota
	StageFragment
	StageCompute
)

// DescType is the type of a descriptor.
type DescType int

// Descriptor types.
const (
	DStorageBuffer DescType = iota
	DUniformBuffer
	DStorageImage
	DSampledImage
	DSampler
)

// DescBinding describes a single binding slot within a descriptor
// set layout. The graph package always creates layouts with a
// single binding (Nr=0, Len=1); Nr/Len exist to mirror the shape
// of a real Vulkan-class API and let a backend reuse the same
// type for more elaborate layouts.
type DescBinding struct {
	Type   DescType
	Stages Stage
	Nr     int
	Len    int
}

// DescSetLayout is the interface that defines the shape of a
// descriptor set.
type DescSetLayout interface {
	Destroyer
}

// DescSet is the interface that defines an allocated descriptor
// set bound to concrete resources via SetBuffer/SetImage/SetSampler.
type DescSet interface {
	Destroyer

	// SetBuffer points the set's buffer binding at a buffer
	// range.
	SetBuffer(nr int, buf Buffer, off, size int64)

	// SetImage points the set's image binding at an image view.
	SetImage(nr int, iv ImageView, layout Layout)

	// SetSampler points the set's sampler binding at a sampler.
	SetSampler(nr int, splr Sampler)
}

// PipelineLayout is the interface that defines the bindings
// between a number of descriptor set layouts, in order, and an
// optional push-constant range.
type PipelineLayout interface {
	Destroyer
}

// Pipeline is the interface that defines a GPU pipeline.
type Pipeline interface {
	Destroyer
}

// VertexFmt describes the data format of a single vertex attribute.
type VertexFmt int

// Vertex attribute formats.
const (
	VertexFloat1 VertexFmt = iota
	VertexFloat2
	VertexFloat3
	VertexFloat4
)

// VertexAttr describes a single vertex input attribute read from
// the vertex buffer bound at draw time.
type VertexAttr struct {
	Location int
	Format   VertexFmt
	Offset   int
}

// Topology is the type of primitive topology assembled from a
// vertex stream.
type Topology int

// Primitive topologies.
const (
	TopologyTriangleList Topology = iota
	TopologyLineList
	TopologyPointList
)

// CullMode selects which primitive faces are discarded before
// rasterization.
type CullMode int

// Cull modes.
const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// GraphicsState describes the fixed-function and programmable
// state of a graphics pipeline. It plays the same role
// NewComputePipeline's (code, entry) pair plays for compute, bundled
// into a single value because a graphics pipeline has many more
// independently varying parts.
type GraphicsState struct {
	VertCode  ShaderCode
	VertEntry string
	FragCode  ShaderCode
	FragEntry string

	VertexStride int
	VertexAttrs  []VertexAttr

	Topology Topology
	Cull     CullMode

	ColorFmts []PixelFmt
	HasDepth  bool
	DepthFmt  PixelFmt
	DepthTest bool
	DepthWrite bool

	Blend bool
}

// Usage is a mask indicating valid uses for a resource.
type Usage int

// Usage flags for Buffer and Image.
const (
	UTransferSrc Usage = 1 << iota
	UTransferDst
	UStorage
	UUniform
	USampled
	UColorAttachment
	UDepthAttachment
	UVertexData
)

// Buffer is the interface that defines a GPU buffer.
// The size of the buffer is fixed; when a larger buffer is
// necessary, a new one must be created and the data copied
// explicitly.
type Buffer interface {
	Destroyer

	// Visible returns whether the buffer is host visible.
	// Non-visible memory cannot be accessed by the CPU.
	Visible() bool

	// Bytes returns a slice of length Cap referring to the
	// underlying mapped memory. If the buffer is not host
	// visible, it returns nil.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes.
	// This value is immutable.
	Cap() int64
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Pixel formats.
const (
	RGBA8Unorm PixelFmt = iota
	RGBA32Float
	R32Float
	D32Float
)

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Image is the interface that defines a GPU image.
// Direct access to image memory is not provided; copying data
// between the CPU and an image resource requires a staging
// buffer and a buffer-to-image copy, which is out of scope for
// the graph core's transfer-op set (the core only models
// image-to-image blits).
type Image interface {
	Destroyer

	// NewView creates a new image view over the image's full
	// extent and layer/level range.
	NewView() (ImageView, error)

	// Extent returns the image's dimensions.
	Extent() Dim3D
}

// ImageView is the interface that defines a typed view of an
// Image resource.
type ImageView interface {
	Destroyer
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FNearest Filter = iota
	FLinear
)

// Sampler is the interface that defines an image sampler.
type Sampler interface {
	Destroyer
}

// Sampling describes image sampler state.
type Sampling struct {
	Min, Mag Filter
}

// Viewport defines the bounds of a viewport.
type Viewport struct {
	X, Y, Width, Height, Znear, Zfar float32
}

// Limits describes implementation limits.
// These may vary across drivers and devices.
type Limits struct {
	// MaxImage2D is the maximum width/height of a 2D image.
	MaxImage2D int
	// MaxLayers is the maximum number of layers in an image.
	MaxLayers int
	// MaxDispatch is the maximum dispatch group count per axis.
	MaxDispatch [3]int
	// MaxPushConstSize is the maximum size, in bytes, of a
	// push-constant block.
	MaxPushConstSize int
}
