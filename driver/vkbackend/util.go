package vkbackend

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// unsafePtr returns a pointer to the first byte of data, or nil if
// data is empty. Vulkan entry points that take raw byte payloads
// (push constants, inline buffer updates) want a bare pointer, not
// a Go slice header.
func unsafePtr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

// vkBool converts a Go bool to a VkBool32.
func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
