// errors.go
package uenv

import (
	"fmt"

	"github.com/arc-language/uenv/pkg/config"
	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/env"
	"github.com/arc-language/uenv/pkg/nix"
	"github.com/arc-language/uenv/pkg/overlay"
	"github.com/arc-language/uenv/pkg/toolchain"
)

var (
	// ErrUnsupportedExtension indicates a requested extension the channel does not advertise
	ErrUnsupportedExtension = core.ErrUnsupportedExtension

	// ErrUnknownTool indicates an included tool defined by neither the base index nor an overlay
	ErrUnknownTool = core.ErrUnknownTool

	// ErrUnknownOverlay indicates an overlay name with no definition
	ErrUnknownOverlay = overlay.ErrUnknownOverlay

	// ErrUnknownChannel indicates a toolchain channel missing from the catalog
	ErrUnknownChannel = toolchain.ErrUnknownChannel

	// ErrUnknownPreset indicates a preset missing from the catalog
	ErrUnknownPreset = toolchain.ErrUnknownPreset

	// ErrInvalidConfig indicates a malformed config or environment file
	ErrInvalidConfig = config.ErrInvalidConfig

	// ErrEnvNotFound indicates no saved environment has the requested name
	ErrEnvNotFound = env.ErrEnvNotFound

	// ErrNotInCache indicates the binary cache cannot substitute a store path
	ErrNotInCache = nix.ErrNotInCache
)

// Error wraps an error with additional context
type Error struct {
	Op   string // Operation that failed
	Name string // Environment or package name if applicable
	Err  error  // Underlying error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
