package graph

import (
	"errors"
	"fmt"
)

const errPrefix = "graph: "

// Package-level sentinel errors, named by kind rather than by
// call site, matching the distilled error taxonomy: programmer
// error, device failure, resource exhaustion, not-found.
var (
	errBadHandle     = errors.New(errPrefix + "handle does not belong to this graph")
	errBadKind       = errors.New(errPrefix + "binding kind out of range")
	errNoKernel      = errors.New(errPrefix + "compute pass has no kernel")
	errNoAttachment  = errors.New(errPrefix + "render pass has no attachments")
	errZeroSize      = errors.New(errPrefix + "size=0")
	errPushConstSize = errors.New(errPrefix + "push-constant data exceeds limit")
	errArenaFull     = errors.New(errPrefix + "resource arena at capacity")
	errShaderMissing = errors.New(errPrefix + "shader source not found")
	errWrongState    = errors.New(errPrefix + "call not valid in current state")
	errNotVisible    = errors.New(errPrefix + "buffer is not host-visible")
)

// abort converts an internal failure into the graph API's
// boundary behavior: print the failing call site and the
// diagnostic string, then panic. Per the error handling design,
// no failure crosses the public API as a value — callers that
// need retry semantics rebuild the graph at a higher level.
func abort(callsite string, err error) {
	panic(fmt.Sprintf("%s%s: %v", errPrefix, callsite, err))
}
