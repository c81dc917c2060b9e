package graph

import "github.com/llGuy/nezha/driver"

// Kind identifies how a resource is used by a single binding
// within a stage. It is a closed enum: every value in [0, nKind)
// has an entry in kindTable, and any other value is a programmer
// error.
type Kind int

// Binding kinds.
const (
	KindSampledImage Kind = iota
	KindStorageImage
	KindColorAttachment
	KindDepthAttachment
	KindImageTransferSrc
	KindImageTransferDst
	KindPresentReady
	KindStorageBuffer
	KindUniformBuffer
	KindBufferTransferSrc
	KindBufferTransferDst
	KindVertexBuffer
	nKind
)

// kindEntry is the static, total mapping from a Kind to the
// device-level state it implies. descType/hasDesc describe the
// descriptor binding, if any (attachments and vertex buffers have
// none). hasLayout marks image kinds, for which layout is
// meaningful; contextStage marks kinds whose pipeline stage is
// "whatever stage the enclosing pass runs at" rather than fixed.
type kindEntry struct {
	descType     driver.DescType
	hasDesc      bool
	layout       driver.Layout
	hasLayout    bool
	access       driver.Access
	stage        driver.Sync
	contextStage bool
	usage        driver.Usage
}

var kindTable = [nKind]kindEntry{
	KindSampledImage: {
		descType: driver.DSampledImage, hasDesc: true,
		layout: driver.LShaderReadOnly, hasLayout: true,
		access: driver.AShaderRead, stage: driver.SComputeShading, contextStage: true,
		usage: driver.USampled,
	},
	KindStorageImage: {
		descType: driver.DStorageImage, hasDesc: true,
		layout: driver.LGeneral, hasLayout: true,
		access: driver.AShaderRead | driver.AShaderWrite, stage: driver.SComputeShading,
		usage: driver.UStorage,
	},
	KindColorAttachment: {
		layout: driver.LColorAttachment, hasLayout: true,
		access: driver.AColorWrite, stage: driver.SColorOutput,
		usage: driver.UColorAttachment,
	},
	KindDepthAttachment: {
		layout: driver.LDepthAttachment, hasLayout: true,
		access: driver.ADSRead | driver.ADSWrite, stage: driver.SEarlyFragmentTests,
		usage: driver.UDepthAttachment,
	},
	KindImageTransferSrc: {
		layout: driver.LTransferSrc, hasLayout: true,
		access: driver.ATransferRead, stage: driver.STransfer,
		usage: driver.UTransferSrc,
	},
	KindImageTransferDst: {
		layout: driver.LTransferDst, hasLayout: true,
		access: driver.ATransferWrite, stage: driver.STransfer,
		usage: driver.UTransferDst,
	},
	KindPresentReady: {
		layout: driver.LPresentSrc, hasLayout: true,
		access: driver.ANone, stage: driver.SBottomOfPipe,
	},
	KindStorageBuffer: {
		descType: driver.DStorageBuffer, hasDesc: true,
		access: driver.AMemoryRead | driver.AMemoryWrite, stage: driver.SComputeShading, contextStage: true,
		usage: driver.UStorage,
	},
	KindUniformBuffer: {
		descType: driver.DUniformBuffer, hasDesc: true,
		access: driver.AMemoryRead, stage: driver.SComputeShading, contextStage: true,
		usage: driver.UUniform,
	},
	KindBufferTransferSrc: {
		access: driver.ATransferRead, stage: driver.STransfer,
		usage: driver.UTransferSrc,
	},
	KindBufferTransferDst: {
		access: driver.ATransferWrite, stage: driver.STransfer,
		usage: driver.UTransferDst,
	},
	KindVertexBuffer: {
		access: driver.AVertexAttribRead, stage: driver.SVertexInput,
		usage: driver.UVertexData,
	},
}

// check panics if k is outside the closed enum. Every internal
// lookup into kindTable goes through this first: an out-of-range
// kind is always a caller bug, never a recoverable condition.
func (k Kind) check() {
	if k < 0 || k >= nKind {
		panic("graph: binding kind out of range")
	}
}

// entry returns the static state implied by k. passStage is used
// only for kinds whose stage is context-dependent (sampled
// images and buffers read by the enclosing pass); pass SNone for
// kinds that don't need it.
func (k Kind) entry(passStage driver.Sync) kindEntry {
	k.check()
	e := kindTable[k]
	if e.contextStage {
		e.stage = passStage
	}
	return e
}

// isImageKind reports whether k applies to an image resource.
func (k Kind) isImageKind() bool {
	switch k {
	case KindSampledImage, KindStorageImage, KindColorAttachment, KindDepthAttachment,
		KindImageTransferSrc, KindImageTransferDst, KindPresentReady:
		return true
	}
	return false
}
