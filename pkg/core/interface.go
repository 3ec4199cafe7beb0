package core

// PackageSource is a read-only view of a package index.
// The base index handed to the resolver only needs to satisfy this.
type PackageSource interface {
	// Names returns the entry names in index order
	Names() []string

	// Get returns the entry for name
	Get(name string) (PackageRef, bool)
}
