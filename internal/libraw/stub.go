//go:build !cgo || nolibraw

// Package libraw binds the LibRaw C library to the engine contract.
//
// This build carries no LibRaw: every context allocation fails with
// engine.NotImplemented.
package libraw

import (
	"fmt"

	"github.com/vearutop/rawdec/engine"
)

// Available reports whether the binding is compiled in.
const Available = false

// Engine is the placeholder engine used when LibRaw is not linked.
type Engine struct{}

// New returns the placeholder engine.
func New() engine.Engine {
	return Engine{}
}

// NewContext implements engine.Engine.
func (Engine) NewContext() (engine.Context, engine.Status) {
	return nil, engine.NotImplemented
}

// StrError implements engine.Engine.
func (Engine) StrError(code engine.Status) string {
	if code == engine.NotImplemented {
		return "LibRaw support is not compiled in (build with cgo and without the nolibraw tag)"
	}
	return fmt.Sprintf("LibRaw unavailable (status %d)", int(code))
}

// Version implements engine.Engine.
func (Engine) Version() string {
	return ""
}
