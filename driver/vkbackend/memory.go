package vkbackend

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// memory wraps a single VkDeviceMemory allocation bound to exactly
// one buffer or image. It is not a suballocator: every resource
// gets its own allocation, matching the rest of the package's
// one-object-one-resource simplicity.
type memory struct {
	d       *Driver
	mem     vk.DeviceMemory
	size    vk.DeviceSize
	mapped  unsafe.Pointer
	visible bool
}

func (d *Driver) selectMemType(typeBits uint32, flags vk.MemoryPropertyFlagBits) (uint32, bool) {
	for i := uint32(0); i < d.mprop.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		mt := d.mprop.MemoryTypes[i]
		if vk.MemoryPropertyFlagBits(mt.PropertyFlags)&flags == flags {
			return i, true
		}
	}
	return 0, false
}

// newMemory allocates memory satisfying req, preferring host-visible
// and host-coherent types when visible is true and device-local
// otherwise.
func (d *Driver) newMemory(req vk.MemoryRequirements, visible bool) (*memory, error) {
	var flags vk.MemoryPropertyFlagBits
	if visible {
		flags = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
	} else {
		flags = vk.MemoryPropertyDeviceLocalBit
	}
	idx, ok := d.selectMemType(req.MemoryTypeBits, flags)
	if !ok && visible {
		// Fall back to any host-visible type.
		idx, ok = d.selectMemType(req.MemoryTypeBits, vk.MemoryPropertyHostVisibleBit)
	}
	if !ok {
		return nil, driver.ErrNoDeviceMemory
	}
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: idx,
	}
	var mem vk.DeviceMemory
	if err := checkResult(vk.AllocateMemory(d.dev, &info, nil, &mem)); err != nil {
		return nil, err
	}
	m := &memory{d: d, mem: mem, size: req.Size, visible: visible}
	if visible {
		var p unsafe.Pointer
		if err := checkResult(vk.MapMemory(d.dev, mem, 0, vk.DeviceSize(vk.WholeSize), 0, &p)); err != nil {
			vk.FreeMemory(d.dev, mem, nil)
			return nil, err
		}
		m.mapped = p
	}
	return m, nil
}

func (m *memory) free() {
	if m == nil || m.d == nil {
		return
	}
	if m.mapped != nil {
		vk.UnmapMemory(m.d.dev, m.mem)
	}
	vk.FreeMemory(m.d.dev, m.mem, nil)
	*m = memory{}
}
