// pkg/core/package.go
package core

import "strings"

// Origin names used for entries that do not come from an overlay
const (
	OriginBase      = "base"
	originToolchain = "toolchain:"
)

// PackageRef is a resolved reference to a package in the index
type PackageRef struct {
	Name        string `yaml:"name" json:"name"`                                   // Tool name (e.g., "ag", "clippy")
	Attribute   string `yaml:"attribute,omitempty" json:"attribute,omitempty"`     // Nix attribute path, defaults to Name
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`         // Version if known
	StorePath   string `yaml:"store_path,omitempty" json:"store_path,omitempty"`   // Pinned store path (optional)
	Description string `yaml:"description,omitempty" json:"description,omitempty"` // Human readable description
	Origin      string `yaml:"origin,omitempty" json:"origin,omitempty"`           // Layer that defined this entry
}

// AttrPath returns the attribute to build for this package
func (p PackageRef) AttrPath() string {
	if p.Attribute != "" {
		return p.Attribute
	}
	return p.Name
}

// WithOrigin returns a copy of the reference stamped with the given origin
func (p PackageRef) WithOrigin(origin string) PackageRef {
	p.Origin = origin
	return p
}

// ToolchainOrigin returns the origin label for entries contributed by a channel
func ToolchainOrigin(channel string) string {
	return originToolchain + channel
}

// IsToolchainOrigin reports whether origin was produced by ToolchainOrigin
func IsToolchainOrigin(origin string) bool {
	return strings.HasPrefix(origin, originToolchain)
}

// SplitNameVersion splits a "name-version" string as found in store path names.
// The version starts at the first dash followed by a digit.
// e.g. "silver-searcher-2.2.0" -> ("silver-searcher", "2.2.0")
func SplitNameVersion(s string) (name, version string) {
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '-' && s[i+1] >= '0' && s[i+1] <= '9' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}
