package vkbackend

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// buffer implements driver.Buffer.
type buffer struct {
	m    *memory
	buf  vk.Buffer
	size int64
}

// NewBuffer creates a new buffer and binds memory to it.
func (d *Driver) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	var usage vk.BufferUsageFlagBits
	if usg&driver.UTransferSrc != 0 {
		usage |= vk.BufferUsageTransferSrcBit
	}
	if usg&driver.UTransferDst != 0 {
		usage |= vk.BufferUsageTransferDstBit
	}
	if usg&driver.UStorage != 0 {
		usage |= vk.BufferUsageStorageBufferBit
	}
	if usg&driver.UUniform != 0 {
		usage |= vk.BufferUsageUniformBufferBit
	}
	if usg&driver.UVertexData != 0 {
		usage |= vk.BufferUsageVertexBufferBit
	}
	if usage == 0 {
		panic("vkbackend: buffer created without a valid usage")
	}

	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buf vk.Buffer
	if err := checkResult(vk.CreateBuffer(d.dev, &info, nil, &buf)); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.dev, buf, &req)
	req.Deref()
	m, err := d.newMemory(req, visible)
	if err != nil {
		vk.DestroyBuffer(d.dev, buf, nil)
		return nil, err
	}
	if err := checkResult(vk.BindBufferMemory(d.dev, buf, m.mem, 0)); err != nil {
		m.free()
		vk.DestroyBuffer(d.dev, buf, nil)
		return nil, err
	}
	return &buffer{m: m, buf: buf, size: size}, nil
}

// Visible reports whether the buffer's memory is host visible.
func (b *buffer) Visible() bool { return b.m.visible }

// Bytes returns a slice over the buffer's mapped memory, or nil if
// the buffer is not host visible.
func (b *buffer) Bytes() []byte {
	if !b.m.visible {
		return nil
	}
	return unsafe.Slice((*byte)(b.m.mapped), b.size)
}

// Cap returns the buffer's capacity in bytes.
func (b *buffer) Cap() int64 { return b.size }

// Destroy destroys the buffer and frees its memory.
func (b *buffer) Destroy() {
	if b == nil {
		return
	}
	if b.m != nil && b.m.d != nil {
		vk.DestroyBuffer(b.m.d.dev, b.buf, nil)
		b.m.free()
	}
	*b = buffer{}
}
