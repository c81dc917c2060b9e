package graph

import "github.com/llGuy/nezha/driver"

// transferKind tags which of the five transfer-op variants a
// transferOp holds.
type transferKind int

const (
	transferBufferUpdate transferKind = iota
	transferBufferCopy
	transferBufferCopyToHost
	transferImageBlit
	transferPresentReady
)

// transferOp is one recorded transfer-op stage. Only the fields
// relevant to its kind are populated.
type transferOp struct {
	g        *Graph
	stageIdx int
	kind     transferKind

	dstBuf, srcBuf   BufferHandle
	data             []byte
	dstOff, srcOff   int64
	size             int64

	srcImg, dstImg ImageHandle
	presentImg     ImageHandle

	// binds backs the usage-node chain only; a transfer op has at
	// most two bindings, known statically by its kind, so unlike
	// compute/render passes it has no need for a growable list.
	binds [2]binding
}

func (t *transferOp) reset() {
	t.data = t.data[:0]
}

// bindBuffer records a binding for a buffer used by this
// transfer op and threads its usage node.
func (t *transferOp) bindBuffer(kind Kind, h BufferHandle, idx int) {
	t.binds[idx] = binding{index: idx, kind: kind, res: Handle(h), next: invalidUsage}
	t.g.linkUsage(Handle(h), t.stageIdx, idx)
}

func (t *transferOp) bindImage(kind Kind, h ImageHandle, idx int) {
	t.binds[idx] = binding{index: idx, kind: kind, res: Handle(h), next: invalidUsage}
	t.g.linkUsage(Handle(h), t.stageIdx, idx)
}

// execute dispatches to the behavior of t.kind, emitting the
// barrier(s) the kind implies before issuing the transfer
// command.
func (t *transferOp) execute(cb driver.CmdBuffer) driver.Sync {
	switch t.kind {
	case transferBufferUpdate:
		rec := t.g.resources.At(int(t.dstBuf))
		e := KindBufferTransferDst.entry(0)
		t.g.emitBarrier(cb, rec, e, driver.STransfer)
		cb.UpdateBuffer(rec.buf.obj, t.dstOff, t.data)

	case transferBufferCopy, transferBufferCopyToHost:
		dst := t.g.resources.At(int(t.dstBuf))
		src := t.g.resources.At(int(t.srcBuf))
		de := KindBufferTransferDst.entry(0)
		se := KindBufferTransferSrc.entry(0)
		t.g.emitBarrier(cb, dst, de, driver.STransfer)
		t.g.emitBarrier(cb, src, se, driver.STransfer)
		cb.CopyBuffer(&driver.BufferCopy{
			From: src.buf.obj, FromOff: t.srcOff,
			To: dst.buf.obj, ToOff: t.dstOff,
			Size: t.size,
		})

	case transferImageBlit:
		dst := t.g.resources.At(int(t.dstImg))
		src := t.g.resources.At(int(t.srcImg))
		de := KindImageTransferDst.entry(0)
		se := KindImageTransferSrc.entry(0)
		t.g.emitBarrier(cb, dst, de, driver.STransfer)
		t.g.emitBarrier(cb, src, se, driver.STransfer)
		cb.BlitImage(src.img.obj, dst.img.obj)

	case transferPresentReady:
		rec := t.g.resources.At(int(t.presentImg))
		e := KindPresentReady.entry(0)
		t.g.emitBarrier(cb, rec, e, driver.SBottomOfPipe)
	}
	return driver.STransfer
}

// AddBufferUpdate records an inline write of data into buf at
// offset.
func (g *Graph) AddBufferUpdate(buf BufferHandle, data []byte, offset int64) {
	t := g.newTransferOp(transferBufferUpdate)
	t.dstBuf = buf
	t.data = append(t.data[:0], data...)
	t.dstOff = offset
	t.size = int64(len(data))
	t.bindBuffer(KindBufferTransferDst, buf, 0)
}

// AddBufferCopy records a device-to-device copy of [srcOff,
// srcOff+size) from src into dst at dstOff.
func (g *Graph) AddBufferCopy(dst, src BufferHandle, dstOff, srcOff, size int64) {
	t := g.newTransferOp(transferBufferCopy)
	t.dstBuf, t.srcBuf = dst, src
	t.dstOff, t.srcOff, t.size = dstOff, srcOff, size
	t.bindBuffer(KindBufferTransferDst, dst, 0)
	t.bindBuffer(KindBufferTransferSrc, src, 1)
}

// AddBufferCopyToHost behaves like AddBufferCopy, additionally
// forcing dst to be host-visible so the result can be mapped
// after the job completes.
func (g *Graph) AddBufferCopyToHost(dst, src BufferHandle, dstOff, srcOff, size int64) {
	g.ConfigureBuffer(dst, BufferInfo{HostVisible: true})
	t := g.newTransferOp(transferBufferCopyToHost)
	t.dstBuf, t.srcBuf = dst, src
	t.dstOff, t.srcOff, t.size = dstOff, srcOff, size
	t.bindBuffer(KindBufferTransferDst, dst, 0)
	t.bindBuffer(KindBufferTransferSrc, src, 1)
}

// AddImageBlit records a filtered blit of src's full extent into
// dst's full extent.
func (g *Graph) AddImageBlit(dst, src ImageHandle) {
	t := g.newTransferOp(transferImageBlit)
	t.dstImg, t.srcImg = dst, src
	t.bindImage(KindImageTransferDst, dst, 0)
	t.bindImage(KindImageTransferSrc, src, 1)
}

// AddPresentReady records the mandatory terminal transition of
// img to the present-source layout.
func (g *Graph) AddPresentReady(img ImageHandle) {
	t := g.newTransferOp(transferPresentReady)
	t.presentImg = img
	t.bindImage(KindPresentReady, img, 0)
}
