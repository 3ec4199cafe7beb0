package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedExtension indicates a toolchain extension the channel does not advertise
	ErrUnsupportedExtension = errors.New("unsupported extension")

	// ErrUnknownTool indicates an included tool absent from the merged index
	ErrUnknownTool = errors.New("unknown tool")
)

// ErrorKind classifies a resolution failure
type ErrorKind int

const (
	// UnsupportedExtension is reported when a requested feature is not on the channel
	UnsupportedExtension ErrorKind = iota + 1
	// UnknownTool is reported when the inclusion list names a missing tool
	UnknownTool
)

// String returns the name of the kind
func (k ErrorKind) String() string {
	switch k {
	case UnsupportedExtension:
		return "UnsupportedExtension"
	case UnknownTool:
		return "UnknownTool"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ResolutionError reports why an environment could not be resolved.
// Names lists every offending name, in the order they were requested.
type ResolutionError struct {
	Kind    ErrorKind
	Names   []string
	Channel string // set for UnsupportedExtension
}

func (e *ResolutionError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, name := range e.Names {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	names := strings.Join(quoted, ", ")
	switch e.Kind {
	case UnsupportedExtension:
		return fmt.Sprintf("channel %q does not advertise extension(s): %s", e.Channel, names)
	case UnknownTool:
		return fmt.Sprintf("tool(s) not defined by base index or overlays: %s", names)
	default:
		return fmt.Sprintf("resolution failed: %s", names)
	}
}

// Is matches the sentinel that corresponds to the error kind
func (e *ResolutionError) Is(target error) bool {
	switch e.Kind {
	case UnsupportedExtension:
		return target == ErrUnsupportedExtension
	case UnknownTool:
		return target == ErrUnknownTool
	}
	return false
}

// NewUnsupportedExtension builds an UnsupportedExtension error
func NewUnsupportedExtension(channel string, names ...string) *ResolutionError {
	return &ResolutionError{Kind: UnsupportedExtension, Channel: channel, Names: names}
}

// NewUnknownTool builds an UnknownTool error
func NewUnknownTool(names ...string) *ResolutionError {
	return &ResolutionError{Kind: UnknownTool, Names: names}
}
