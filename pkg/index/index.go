// Package index holds the ordered package index the resolver works on.
package index

import (
	"github.com/arc-language/uenv/pkg/core"
)

// Index maps tool names to package references, preserving insertion order.
// Setting a name that already exists replaces the entry in place.
type Index struct {
	order   []string
	entries map[string]core.PackageRef
}

// New creates an empty index
func New() *Index {
	return &Index{entries: make(map[string]core.PackageRef)}
}

// FromRefs builds an index from refs; a later ref replaces an earlier one of the same name
func FromRefs(refs ...core.PackageRef) *Index {
	ix := New()
	for _, ref := range refs {
		ix.Set(ref)
	}
	return ix
}

// FromSource copies any package source into a new index
func FromSource(src core.PackageSource) *Index {
	if ix, ok := src.(*Index); ok {
		return ix.Clone()
	}
	ix := New()
	if src == nil {
		return ix
	}
	for _, name := range src.Names() {
		if ref, ok := src.Get(name); ok {
			ix.Set(ref)
		}
	}
	return ix
}

// Set adds or replaces the entry for ref.Name
func (ix *Index) Set(ref core.PackageRef) {
	if _, exists := ix.entries[ref.Name]; !exists {
		ix.order = append(ix.order, ref.Name)
	}
	ix.entries[ref.Name] = ref
}

// Get returns the entry for name
func (ix *Index) Get(name string) (core.PackageRef, bool) {
	if ix == nil {
		return core.PackageRef{}, false
	}
	ref, ok := ix.entries[name]
	return ref, ok
}

// Has reports whether name is in the index
func (ix *Index) Has(name string) bool {
	_, ok := ix.Get(name)
	return ok
}

// Len returns the number of entries
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Names returns the entry names in insertion order
func (ix *Index) Names() []string {
	if ix == nil {
		return nil
	}
	names := make([]string, len(ix.order))
	copy(names, ix.order)
	return names
}

// Entries returns the entries in insertion order
func (ix *Index) Entries() []core.PackageRef {
	if ix == nil {
		return nil
	}
	refs := make([]core.PackageRef, 0, len(ix.order))
	for _, name := range ix.order {
		refs = append(refs, ix.entries[name])
	}
	return refs
}

// Clone returns an independent copy
func (ix *Index) Clone() *Index {
	c := New()
	if ix == nil {
		return c
	}
	c.order = append(c.order, ix.order...)
	for name, ref := range ix.entries {
		c.entries[name] = ref
	}
	return c
}
