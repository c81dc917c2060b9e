package vkbackend

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/llGuy/nezha/driver"
)

func TestConvPixelFmt(t *testing.T) {
	cases := []struct {
		pf   driver.PixelFmt
		want vk.Format
	}{
		{driver.RGBA8Unorm, vk.FormatR8g8b8a8Unorm},
		{driver.RGBA32Float, vk.FormatR32g32b32a32Sfloat},
		{driver.R32Float, vk.FormatR32Sfloat},
		{driver.D32Float, vk.FormatD32Sfloat},
		{driver.PixelFmt(99), vk.FormatUndefined},
	}
	for _, c := range cases {
		if got := convPixelFmt(c.pf); got != c.want {
			t.Errorf("convPixelFmt(%v) = %v, want %v", c.pf, got, c.want)
		}
	}
}

func TestAspectOf(t *testing.T) {
	if got := aspectOf(driver.D32Float); got != vk.ImageAspectDepthBit {
		t.Errorf("aspectOf(D32Float) = %v, want ImageAspectDepthBit", got)
	}
	for _, pf := range []driver.PixelFmt{driver.RGBA8Unorm, driver.RGBA32Float, driver.R32Float} {
		if got := aspectOf(pf); got != vk.ImageAspectColorBit {
			t.Errorf("aspectOf(%v) = %v, want ImageAspectColorBit", pf, got)
		}
	}
}

func TestConvAspect(t *testing.T) {
	if got := convAspect(driver.AspectColor); got != vk.ImageAspectFlagBits(vk.ImageAspectColorBit) {
		t.Errorf("convAspect(AspectColor) = %v, want ColorBit", got)
	}
	if got := convAspect(driver.AspectDepth); got != vk.ImageAspectFlagBits(vk.ImageAspectDepthBit) {
		t.Errorf("convAspect(AspectDepth) = %v, want DepthBit", got)
	}
}

func TestConvSamples(t *testing.T) {
	cases := []struct {
		n    int
		want vk.SampleCountFlagBits
	}{
		{1, vk.SampleCount1Bit},
		{2, vk.SampleCount2Bit},
		{4, vk.SampleCount4Bit},
		{8, vk.SampleCount8Bit},
		{16, vk.SampleCount16Bit},
		{3, vk.SampleCount1Bit},
		{0, vk.SampleCount1Bit},
	}
	for _, c := range cases {
		if got := convSamples(c.n); got != c.want {
			t.Errorf("convSamples(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}

func TestConvLayout(t *testing.T) {
	cases := []struct {
		l    driver.Layout
		want vk.ImageLayout
	}{
		{driver.LUndefined, vk.ImageLayoutUndefined},
		{driver.LGeneral, vk.ImageLayoutGeneral},
		{driver.LColorAttachment, vk.ImageLayoutColorAttachmentOptimal},
		{driver.LDepthAttachment, vk.ImageLayoutDepthStencilAttachmentOptimal},
		{driver.LTransferSrc, vk.ImageLayoutTransferSrcOptimal},
		{driver.LTransferDst, vk.ImageLayoutTransferDstOptimal},
		{driver.LShaderReadOnly, vk.ImageLayoutShaderReadOnlyOptimal},
		{driver.LPresentSrc, vk.ImageLayoutPresentSrcKHR},
		{driver.Layout(99), vk.ImageLayoutUndefined},
	}
	for _, c := range cases {
		if got := convLayout(c.l); got != c.want {
			t.Errorf("convLayout(%v) = %v, want %v", c.l, got, c.want)
		}
	}
}

func TestConvDescType(t *testing.T) {
	cases := []struct {
		d    driver.DescType
		want vk.DescriptorType
	}{
		{driver.DStorageBuffer, vk.DescriptorTypeStorageBuffer},
		{driver.DUniformBuffer, vk.DescriptorTypeUniformBuffer},
		{driver.DStorageImage, vk.DescriptorTypeStorageImage},
		{driver.DSampledImage, vk.DescriptorTypeSampledImage},
		{driver.DSampler, vk.DescriptorTypeSampler},
	}
	for _, c := range cases {
		if got := convDescType(c.d); got != c.want {
			t.Errorf("convDescType(%v) = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestConvFilter(t *testing.T) {
	if got := convFilter(driver.FLinear); got != vk.FilterLinear {
		t.Errorf("convFilter(FLinear) = %v, want FilterLinear", got)
	}
	if got := convFilter(driver.FNearest); got != vk.FilterNearest {
		t.Errorf("convFilter(FNearest) = %v, want FilterNearest", got)
	}
}

func TestConvBindPoint(t *testing.T) {
	if got := convBindPoint(driver.BindGraphics); got != vk.PipelineBindPointGraphics {
		t.Errorf("convBindPoint(BindGraphics) = %v, want Graphics", got)
	}
	if got := convBindPoint(driver.BindCompute); got != vk.PipelineBindPointCompute {
		t.Errorf("convBindPoint(BindCompute) = %v, want Compute", got)
	}
}

func TestConvSync(t *testing.T) {
	if got := convSync(driver.SNone); got != vk.PipelineStageFlagBits(vk.PipelineStageTopOfPipeBit) {
		t.Errorf("convSync(SNone) = %v, want TopOfPipeBit", got)
	}
	combo := driver.SVertexInput | driver.SComputeShading | driver.STransfer
	got := convSync(combo)
	want := vk.PipelineStageFlagBits(vk.PipelineStageVertexInputBit | vk.PipelineStageComputeShaderBit | vk.PipelineStageTransferBit)
	if got != want {
		t.Errorf("convSync(combo) = %v, want %v", got, want)
	}
	// early fragment tests pulls in both fragment-test stages.
	got = convSync(driver.SEarlyFragmentTests)
	want = vk.PipelineStageFlagBits(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	if got != want {
		t.Errorf("convSync(SEarlyFragmentTests) = %v, want %v", got, want)
	}
}

func TestConvAccess(t *testing.T) {
	if got := convAccess(driver.ANone); got != 0 {
		t.Errorf("convAccess(ANone) = %v, want 0", got)
	}
	combo := driver.AShaderRead | driver.AShaderWrite
	got := convAccess(combo)
	want := vk.AccessFlagBits(vk.AccessShaderReadBit | vk.AccessShaderWriteBit)
	if got != want {
		t.Errorf("convAccess(combo) = %v, want %v", got, want)
	}
}

func TestConvStage(t *testing.T) {
	combo := driver.StageVertex | driver.StageCompute
	got := convStage(combo)
	want := vk.ShaderStageFlagBits(vk.ShaderStageVertexBit | vk.ShaderStageComputeBit)
	if got != want {
		t.Errorf("convStage(combo) = %v, want %v", got, want)
	}
}

func TestConvVertexFmt(t *testing.T) {
	cases := []struct {
		f    driver.VertexFmt
		want vk.Format
	}{
		{driver.VertexFloat1, vk.FormatR32Sfloat},
		{driver.VertexFloat2, vk.FormatR32g32Sfloat},
		{driver.VertexFloat3, vk.FormatR32g32b32Sfloat},
		{driver.VertexFloat4, vk.FormatR32g32b32a32Sfloat},
	}
	for _, c := range cases {
		if got := convVertexFmt(c.f); got != c.want {
			t.Errorf("convVertexFmt(%v) = %v, want %v", c.f, got, c.want)
		}
	}
}

func TestConvTopology(t *testing.T) {
	cases := []struct {
		top  driver.Topology
		want vk.PrimitiveTopology
	}{
		{driver.TopologyTriangleList, vk.PrimitiveTopologyTriangleList},
		{driver.TopologyLineList, vk.PrimitiveTopologyLineList},
		{driver.TopologyPointList, vk.PrimitiveTopologyPointList},
	}
	for _, c := range cases {
		if got := convTopology(c.top); got != c.want {
			t.Errorf("convTopology(%v) = %v, want %v", c.top, got, c.want)
		}
	}
}

func TestConvCullMode(t *testing.T) {
	cases := []struct {
		c    driver.CullMode
		want vk.CullModeFlagBits
	}{
		{driver.CullNone, vk.CullModeNone},
		{driver.CullBack, vk.CullModeBackBit},
		{driver.CullFront, vk.CullModeFrontBit},
	}
	for _, c := range cases {
		if got := convCullMode(c.c); got != c.want {
			t.Errorf("convCullMode(%v) = %v, want %v", c.c, got, c.want)
		}
	}
}

func TestVkBool(t *testing.T) {
	if vkBool(true) != vk.True {
		t.Error("vkBool(true) != vk.True")
	}
	if vkBool(false) != vk.False {
		t.Error("vkBool(false) != vk.False")
	}
}

func TestUnsafePtr(t *testing.T) {
	if unsafePtr(nil) != nil {
		t.Error("unsafePtr(nil) should be nil")
	}
	if unsafePtr([]byte{}) != nil {
		t.Error("unsafePtr(empty) should be nil")
	}
	if unsafePtr([]byte{1, 2, 3}) == nil {
		t.Error("unsafePtr(non-empty) should not be nil")
	}
}
