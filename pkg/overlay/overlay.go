// Package overlay implements named transforms over a package index.
//
// An overlay contributes or replaces entries by name. A Set is applied
// left to right, so a later overlay shadows an earlier definition of the
// same tool.
package overlay

import (
	"errors"
	"fmt"

	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/index"
)

// ErrUnknownOverlay indicates a referenced overlay has no definition
var ErrUnknownOverlay = errors.New("unknown overlay")

// Overlay is a named transform adding or replacing index entries
type Overlay struct {
	Name    string            `yaml:"name" json:"name"`
	Import  string            `yaml:"import,omitempty" json:"import,omitempty"` // nix overlay expression (path or URL)
	Entries []core.PackageRef `yaml:"entries" json:"entries"`
}

// Set is an ordered sequence of overlays
type Set []*Overlay

// Validate checks the overlay is well formed
func (o *Overlay) Validate() error {
	if o == nil {
		return fmt.Errorf("overlay cannot be nil")
	}
	if o.Name == "" {
		return fmt.Errorf("overlay name is required")
	}

	seen := make(map[string]bool, len(o.Entries))
	for i, entry := range o.Entries {
		if entry.Name == "" {
			return fmt.Errorf("overlay %q: entry %d has no name", o.Name, i)
		}
		if seen[entry.Name] {
			return fmt.Errorf("overlay %q: duplicate entry %q", o.Name, entry.Name)
		}
		seen[entry.Name] = true
	}
	return nil
}

// ApplyTo folds the overlay into ix. Entries are stamped with the overlay name.
func (o *Overlay) ApplyTo(ix *index.Index) {
	for _, entry := range o.Entries {
		ix.Set(entry.WithOrigin(o.Name))
	}
}

// Names returns the overlay names in application order
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for _, o := range s {
		names = append(names, o.Name)
	}
	return names
}

// Apply folds the set over a copy of base; base is never modified
func Apply(base core.PackageSource, set Set) *index.Index {
	merged := index.FromSource(base)
	for _, o := range set {
		o.ApplyTo(merged)
	}
	return merged
}
