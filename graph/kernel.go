package graph

import "github.com/llGuy/nezha/driver"

// KernelHandle references a registered compute kernel.
type KernelHandle int

// kernelRecord pairs a shader source identifier with its lazily
// built pipeline. Kernels are never removed once registered, so
// a plain append-only slice gives stable handles without needing
// the free-list machinery of harena.Store.
type kernelRecord struct {
	source string
	setLayouts []driver.DescSetLayout
	layout     driver.PipelineLayout
	pipeline   driver.Pipeline
}

func (k *kernelRecord) built() bool { return k.pipeline != nil }

// RegisterKernel registers a compute kernel whose shader source
// is identified by source (resolved via shaderPath and loaded by
// loadShader at build time). The returned handle is stable for the graph's
// lifetime. The kernel's pipeline is not built until the first
// job that references it reaches execute.
func (g *Graph) RegisterKernel(source string) KernelHandle {
	g.kernels = append(g.kernels, kernelRecord{source: source})
	return KernelHandle(len(g.kernels) - 1)
}

func (g *Graph) kernel(h KernelHandle) *kernelRecord {
	if int(h) < 0 || int(h) >= len(g.kernels) {
		abort("kernel", errBadHandle)
	}
	return &g.kernels[h]
}
