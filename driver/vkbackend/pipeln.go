package vkbackend

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

// pipeline implements driver.Pipeline.
type pipeline struct {
	d  *Driver
	pl vk.Pipeline
}

// NewComputePipeline creates a compute pipeline.
func (d *Driver) NewComputePipeline(layout driver.PipelineLayout, code driver.ShaderCode, entry string) (driver.Pipeline, error) {
	stage := vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageComputeBit,
		Module: code.(*shaderCode).mod,
		PName:  safeCString(entry),
	}
	info := vk.ComputePipelineCreateInfo{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  stage,
		Layout: layout.(*pipelineLayout).layout,
	}
	pls := make([]vk.Pipeline, 1)
	if err := checkResult(vk.CreateComputePipelines(d.dev, vk.PipelineCache(0), 1, []vk.ComputePipelineCreateInfo{info}, nil, pls)); err != nil {
		return nil, err
	}
	return &pipeline{d: d, pl: pls[0]}, nil
}

// NewGraphicsPipeline creates a graphics pipeline compatible with a
// dynamic-rendering scope using the given color/depth formats.
func (d *Driver) NewGraphicsPipeline(layout driver.PipelineLayout, state *driver.GraphicsState) (driver.Pipeline, error) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: state.VertCode.(*shaderCode).mod,
			PName:  safeCString(state.VertEntry),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: state.FragCode.(*shaderCode).mod,
			PName:  safeCString(state.FragEntry),
		},
	}

	var attrs []vk.VertexInputAttributeDescription
	for _, a := range state.VertexAttrs {
		attrs = append(attrs, vk.VertexInputAttributeDescription{
			Location: uint32(a.Location),
			Binding:  0,
			Format:   convVertexFmt(a.Format),
			Offset:   uint32(a.Offset),
		})
	}
	var bindDescs []vk.VertexInputBindingDescription
	if state.VertexStride > 0 {
		bindDescs = []vk.VertexInputBindingDescription{{
			Binding:   0,
			Stride:    uint32(state.VertexStride),
			InputRate: vk.VertexInputRateVertex,
		}}
	}
	vertInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindDescs)),
		PVertexBindingDescriptions:      bindDescs,
		VertexAttributeDescriptionCount: uint32(len(attrs)),
		PVertexAttributeDescriptions:    attrs,
	}

	inputAsm := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: convTopology(state.Topology),
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	raster := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(convCullMode(state.Cull)),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1,
	}

	ms := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	ds := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vkBool(state.DepthTest),
		DepthWriteEnable: vkBool(state.DepthWrite),
		DepthCompareOp:   vk.CompareOpLess,
	}

	blendAtt := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if state.Blend {
		blendAtt.BlendEnable = vk.True
		blendAtt.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAtt.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAtt.ColorBlendOp = vk.BlendOpAdd
		blendAtt.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAtt.DstAlphaBlendFactor = vk.BlendFactorZero
		blendAtt.AlphaBlendOp = vk.BlendOpAdd
	}
	blend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAtt},
	}

	dynStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dyn := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynStates)),
		PDynamicStates:    dynStates,
	}

	colorFmts := make([]vk.Format, len(state.ColorFmts))
	for i, pf := range state.ColorFmts {
		colorFmts[i] = convPixelFmt(pf)
	}
	renderInfo := vk.PipelineRenderingCreateInfoKHR{
		SType:                   vk.StructureTypePipelineRenderingCreateInfoKHR,
		ColorAttachmentCount:    uint32(len(colorFmts)),
		PColorAttachmentFormats: colorFmts,
	}
	if state.HasDepth {
		renderInfo.DepthAttachmentFormat = convPixelFmt(state.DepthFmt)
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:               unsafe.Pointer(&renderInfo),
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertInput,
		PInputAssemblyState: &inputAsm,
		PViewportState:      &viewportState,
		PRasterizationState: &raster,
		PMultisampleState:   &ms,
		PDepthStencilState:  &ds,
		PColorBlendState:    &blend,
		PDynamicState:       &dyn,
		Layout:              layout.(*pipelineLayout).layout,
	}
	pls := make([]vk.Pipeline, 1)
	if err := checkResult(vk.CreateGraphicsPipelines(d.dev, vk.PipelineCache(0), 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pls)); err != nil {
		return nil, err
	}
	return &pipeline{d: d, pl: pls[0]}, nil
}

// Destroy destroys the pipeline.
func (p *pipeline) Destroy() {
	if p == nil {
		return
	}
	if p.d != nil {
		vk.DestroyPipeline(p.d.dev, p.pl, nil)
	}
	*p = pipeline{}
}

func convVertexFmt(f driver.VertexFmt) vk.Format {
	switch f {
	case driver.VertexFloat1:
		return vk.FormatR32Sfloat
	case driver.VertexFloat2:
		return vk.FormatR32g32Sfloat
	case driver.VertexFloat3:
		return vk.FormatR32g32b32Sfloat
	case driver.VertexFloat4:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatR32Sfloat
}

func convTopology(t driver.Topology) vk.PrimitiveTopology {
	switch t {
	case driver.TopologyTriangleList:
		return vk.PrimitiveTopologyTriangleList
	case driver.TopologyLineList:
		return vk.PrimitiveTopologyLineList
	case driver.TopologyPointList:
		return vk.PrimitiveTopologyPointList
	}
	return vk.PrimitiveTopologyTriangleList
}

func convCullMode(c driver.CullMode) vk.CullModeFlagBits {
	switch c {
	case driver.CullNone:
		return vk.CullModeNone
	case driver.CullBack:
		return vk.CullModeBackBit
	case driver.CullFront:
		return vk.CullModeFrontBit
	}
	return vk.CullModeNone
}
