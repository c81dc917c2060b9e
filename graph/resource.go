package graph

import "github.com/llGuy/nezha/driver"

// Action is the per-resource transient marker computed during
// the prepare pass of end(). It never outlives a single end()
// call.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionToCreate
)

// usageNode is an entry in a resource's per-job usage list. It
// names a (stage, binding) pair by index into the current stage
// stream rather than holding a pointer, so that it trivially goes
// stale (and is just as trivially ignored) once begin() clears
// the stream.
type usageNode struct {
	stage, binding int
	valid          bool
}

var invalidUsage = usageNode{-1, -1, false}

// nDescSlot is the number of driver.DescType values; resource
// records cache at most one descriptor set per descriptor type
// (a buffer whose usage includes both storage and uniform holds
// one set of each).
const nDescSlot = 5

// resKind tags which of the two record shapes below is live in a
// resource slot.
type resKind int

const (
	resBuffer resKind = iota
	resImage
)

// bufferRecord is the state the graph keeps for a registered
// buffer. Exactly one field set drives commitment: obj is nil
// until alloc() succeeds, and per the monotone-commitment
// invariant it is never cleared afterward.
type bufferRecord struct {
	size        int64
	usage       driver.Usage
	hostVisible bool
	obj         driver.Buffer
	descSets    [nDescSlot]driver.DescSet
	curAccess   driver.Access
	lastStage   driver.Sync
	head, tail  usageNode
	usedThisJob bool
	action      Action
}

func (b *bufferRecord) committed() bool { return b.obj != nil }

// imageRecord is the state the graph keeps for a registered
// image, including swapchain-backed ones (externallyOwned).
type imageRecord struct {
	extent          driver.Dim3D
	format          driver.PixelFmt
	aspect          driver.Aspect
	layers          int
	usage           driver.Usage
	obj             driver.Image
	view            driver.ImageView
	descSets        [nDescSlot]driver.DescSet
	curLayout       driver.Layout
	curAccess       driver.Access
	lastStage       driver.Sync
	head, tail      usageNode
	usedThisJob     bool
	action          Action
	externallyOwned bool
}

func (im *imageRecord) committed() bool { return im.obj != nil }

// resource is the tagged union stored in the graph's handle
// arena. Both record fields are embedded directly (rather than
// behind pointers) so that a single harena.Store[resource] can
// hold buffers and images side by side without extra allocation
// per slot.
type resource struct {
	kind resKind
	buf  bufferRecord
	img  imageRecord
}

// Handle is an opaque, stable reference into the graph's resource
// store. BufferHandle and ImageHandle are its two user-visible
// flavors.
type Handle int

// BufferHandle references a registered buffer.
type BufferHandle Handle

// ImageHandle references a registered image.
type ImageHandle Handle
