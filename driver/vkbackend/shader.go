package vkbackend

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// shaderCode implements driver.ShaderCode.
type shaderCode struct {
	d  *Driver
	mod vk.ShaderModule
}

// NewShaderCode creates a shader module from a SPIR-V binary.
func (d *Driver) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("vkbackend: shader code size (%d) is zero or not a multiple of 4", len(data))
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    (*uint32)(unsafe.Pointer(&data[0])),
	}
	var mod vk.ShaderModule
	if err := checkResult(vk.CreateShaderModule(d.dev, &info, nil, &mod)); err != nil {
		return nil, err
	}
	return &shaderCode{d: d, mod: mod}, nil
}

// Destroy destroys the shader module.
func (s *shaderCode) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroyShaderModule(s.d.dev, s.mod, nil)
	}
	*s = shaderCode{}
}
