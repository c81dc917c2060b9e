package vkbackend

import (
	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// descSetLayout implements driver.DescSetLayout.
type descSetLayout struct {
	d      *Driver
	layout vk.DescriptorSetLayout
	binds  []driver.DescBinding
}

// NewDescSetLayout creates a descriptor set layout from a sequence
// of single-slot bindings.
func (d *Driver) NewDescSetLayout(binds []driver.DescBinding) (driver.DescSetLayout, error) {
	vkbinds := make([]vk.DescriptorSetLayoutBinding, len(binds))
	for i, b := range binds {
		vkbinds[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(b.Nr),
			DescriptorType:  convDescType(b.Type),
			DescriptorCount: uint32(b.Len),
			StageFlags:      vk.ShaderStageFlags(convStage(b.Stages)),
		}
	}
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkbinds)),
		PBindings:    vkbinds,
	}
	var layout vk.DescriptorSetLayout
	if err := checkResult(vk.CreateDescriptorSetLayout(d.dev, &info, nil, &layout)); err != nil {
		return nil, err
	}
	cp := make([]driver.DescBinding, len(binds))
	copy(cp, binds)
	return &descSetLayout{d: d, layout: layout, binds: cp}, nil
}

// Destroy destroys the descriptor set layout.
func (l *descSetLayout) Destroy() {
	if l == nil {
		return
	}
	if l.d != nil {
		vk.DestroyDescriptorSetLayout(l.d.dev, l.layout, nil)
	}
	*l = descSetLayout{}
}

// descSet implements driver.DescSet. Each one owns its own pool
// sized to fit exactly the layout it was allocated from, since the
// driver package never asks for more than one set per layout at a
// time.
type descSet struct {
	d    *Driver
	pool vk.DescriptorPool
	set  vk.DescriptorSet
}

// NewDescSet allocates a descriptor set from a layout.
func (d *Driver) NewDescSet(layout driver.DescSetLayout) (driver.DescSet, error) {
	l := layout.(*descSetLayout)
	sizes := make([]vk.DescriptorPoolSize, len(l.binds))
	for i, b := range l.binds {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            convDescType(b.Type),
			DescriptorCount: uint32(b.Len),
		}
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if err := checkResult(vk.CreateDescriptorPool(d.dev, &poolInfo, nil, &pool)); err != nil {
		return nil, err
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{l.layout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if err := checkResult(vk.AllocateDescriptorSets(d.dev, &allocInfo, sets)); err != nil {
		vk.DestroyDescriptorPool(d.dev, pool, nil)
		return nil, err
	}
	return &descSet{d: d, pool: pool, set: sets[0]}, nil
}

// SetBuffer points a buffer binding at a buffer range.
func (s *descSet) SetBuffer(nr int, buf driver.Buffer, off, size int64) {
	binfo := vk.DescriptorBufferInfo{
		Buffer: buf.(*buffer).buf,
		Offset: vk.DeviceSize(off),
		Range:  vk.DeviceSize(size),
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.set,
		DstBinding:      uint32(nr),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{binfo},
	}
	vk.UpdateDescriptorSets(s.d.dev, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// SetImage points an image binding at an image view.
func (s *descSet) SetImage(nr int, iv driver.ImageView, layout driver.Layout) {
	iinfo := vk.DescriptorImageInfo{
		ImageView:   iv.(*imageView).view,
		ImageLayout: convLayout(layout),
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.set,
		DstBinding:      uint32(nr),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageImage,
		PImageInfo:      []vk.DescriptorImageInfo{iinfo},
	}
	vk.UpdateDescriptorSets(s.d.dev, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// SetSampler points a sampler binding at a sampler.
func (s *descSet) SetSampler(nr int, splr driver.Sampler) {
	iinfo := vk.DescriptorImageInfo{
		Sampler: splr.(*sampler).spl,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.set,
		DstBinding:      uint32(nr),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeSampler,
		PImageInfo:      []vk.DescriptorImageInfo{iinfo},
	}
	vk.UpdateDescriptorSets(s.d.dev, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}

// Destroy destroys the descriptor set's pool.
func (s *descSet) Destroy() {
	if s == nil {
		return
	}
	if s.d != nil {
		vk.DestroyDescriptorPool(s.d.dev, s.pool, nil)
	}
	*s = descSet{}
}

// pipelineLayout implements driver.PipelineLayout.
type pipelineLayout struct {
	d      *Driver
	layout vk.PipelineLayout
}

// NewPipelineLayout creates a pipeline layout from a sequence of
// descriptor set layouts and an optional push-constant range.
func (d *Driver) NewPipelineLayout(sets []driver.DescSetLayout, pushConstSize int) (driver.PipelineLayout, error) {
	vksets := make([]vk.DescriptorSetLayout, len(sets))
	for i, s := range sets {
		vksets[i] = s.(*descSetLayout).layout
	}
	info := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(vksets)),
		PSetLayouts:    vksets,
	}
	if pushConstSize > 0 {
		info.PushConstantRangeCount = 1
		info.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageAll),
			Offset:     0,
			Size:       uint32(pushConstSize),
		}}
	}
	var layout vk.PipelineLayout
	if err := checkResult(vk.CreatePipelineLayout(d.dev, &info, nil, &layout)); err != nil {
		return nil, err
	}
	return &pipelineLayout{d: d, layout: layout}, nil
}

// Destroy destroys the pipeline layout.
func (l *pipelineLayout) Destroy() {
	if l == nil {
		return
	}
	if l.d != nil {
		vk.DestroyPipelineLayout(l.d.dev, l.layout, nil)
	}
	*l = pipelineLayout{}
}

func convDescType(t driver.DescType) vk.DescriptorType {
	switch t {
	case driver.DStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	case driver.DUniformBuffer:
		return vk.DescriptorTypeUniformBuffer
	case driver.DStorageImage:
		return vk.DescriptorTypeStorageImage
	case driver.DSampledImage:
		return vk.DescriptorTypeSampledImage
	case driver.DSampler:
		return vk.DescriptorTypeSampler
	}
	return vk.DescriptorTypeStorageBuffer
}
