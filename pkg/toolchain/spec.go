package toolchain

import (
	"github.com/arc-language/uenv/pkg/core"
)

// Spec selects a toolchain channel, version and feature extensions
type Spec struct {
	Channel    string   `yaml:"channel,omitempty" json:"channel,omitempty" toml:"channel"`
	Version    string   `yaml:"version,omitempty" json:"version,omitempty" toml:"version"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty" toml:"extensions"`
}

// IsZero reports whether the spec selects nothing
func (s Spec) IsZero() bool {
	return s.Channel == "" && s.Version == "" && len(s.Extensions) == 0
}

// Preset is a named, selectable toolchain spec
type Preset struct {
	Name        string `toml:"name" yaml:"name"`
	Description string `toml:"description" yaml:"description"`
	Spec        Spec   `toml:"spec" yaml:"spec"`
}

// Resolved is an instantiated toolchain
type Resolved struct {
	Spec       Spec              `yaml:"spec" json:"spec"` // Version filled in from the channel default
	Ref        core.PackageRef   `yaml:"ref" json:"ref"`
	Extensions []core.PackageRef `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// Entries returns the index entries contributed by the toolchain
func (r *Resolved) Entries() []core.PackageRef {
	if r == nil {
		return nil
	}
	entries := make([]core.PackageRef, 0, len(r.Extensions)+1)
	entries = append(entries, r.Ref)
	return append(entries, r.Extensions...)
}

// uniqueAppend appends values not already present, keeping first-seen order
func uniqueAppend(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// merge layers next over s.
// Switching channel resets the version to the one next carries.
// Extensions are unioned in first-seen order.
func (s Spec) merge(next Spec) Spec {
	out := Spec{
		Channel:    s.Channel,
		Version:    s.Version,
		Extensions: uniqueAppend(nil, s.Extensions...),
	}
	if next.Channel != "" && next.Channel != out.Channel {
		out.Channel = next.Channel
		out.Version = next.Version
	} else if next.Version != "" {
		out.Version = next.Version
	}
	out.Extensions = uniqueAppend(out.Extensions, next.Extensions...)
	return out
}
