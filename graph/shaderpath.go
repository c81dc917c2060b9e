package graph

import (
	"fmt"
	"io/fs"

	"github.com/llGuy/nezha/driver"
	"github.com/llGuy/nezha/graph/internal/ctxt"
)

// shaderPath resolves a kernel's source identifier plus
// programmable stage to a path under res/spv, following the
// convention: <name>.comp.spv for compute, .vert.spv for vertex,
// .frag.spv for fragment. File I/O itself is delegated to an
// injected fs.FS rather than opened directly, keeping the actual
// loading mechanism a caller-supplied collaborator.
func shaderPath(name string, stage driver.Stage) string {
	var ext string
	switch stage {
	case driver.StageCompute:
		ext = "comp.spv"
	case driver.StageVertex:
		ext = "vert.spv"
	case driver.StageFragment:
		ext = "frag.spv"
	default:
		panic("graph: unknown shader stage")
	}
	return fmt.Sprintf("res/spv/%s.%s", name, ext)
}

// loadShader resolves and reads the SPIR-V payload for a
// kernel's source identifier and hands it to the GPU uninterpreted.
// The entry point name is always "main", matching the convention
// every SPIR-V compiler in the pack's toolchains emits by default.
func (g *Graph) loadShader(name string, stage driver.Stage) (driver.ShaderCode, string, error) {
	path := shaderPath(name, stage)
	data, err := fs.ReadFile(g.shaderFS, path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", errShaderMissing, path)
	}
	code, err := ctxt.GPU().NewShaderCode(data)
	if err != nil {
		return nil, "", err
	}
	return code, "main", nil
}
