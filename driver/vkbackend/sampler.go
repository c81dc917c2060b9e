package vkbackend

import (
	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// sampler implements driver.Sampler.
type sampler struct {
	d   *Driver
	spl vk.Sampler
}

// NewSampler creates a sampler. The driver.Sampling type only
// carries min/mag filters, so every other piece of state is fixed:
// clamp-to-edge addressing, no mipmapping, no compare op.
func (d *Driver) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               convFilter(spln.Mag),
		MinFilter:               convFilter(spln.Min),
		MipmapMode:              vk.SamplerMipmapModeNearest,
		AddressModeU:            vk.SamplerAddressModeClampToEdge,
		AddressModeV:            vk.SamplerAddressModeClampToEdge,
		AddressModeW:            vk.SamplerAddressModeClampToEdge,
		MaxAnisotropy:           1,
		CompareOp:               vk.CompareOpNever,
		MinLod:                  0,
		MaxLod:                  0,
		BorderColor:             vk.BorderColorFloatTransparentBlack,
		UnnormalizedCoordinates: vk.False,
	}
	var spl vk.Sampler
	if err := checkResult(vk.CreateSampler(d.dev, &info, nil, &spl)); err != nil {
		return nil, err
	}
	return &sampler{d: d, spl: spl}, nil
}

// Destroy destroys the sampler.
func (s *sampler) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroySampler(s.d.dev, s.spl, nil)
	}
	*s = sampler{}
}

func convFilter(f driver.Filter) vk.Filter {
	if f == driver.FLinear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}
