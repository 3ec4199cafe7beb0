package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/uenv/pkg/core"
)

// Entry represents a single deps/<name>/index.toml file
type Entry struct {
	Name        string `toml:"name"`
	Attribute   string `toml:"attribute"`
	Version     string `toml:"version"`
	StorePath   string `toml:"store_path"`
	Description string `toml:"description"`
	Homepage    string `toml:"homepage"`
	License     string `toml:"license"`
}

// Ref converts the entry into a package reference
func (e *Entry) Ref() core.PackageRef {
	return core.PackageRef{
		Name:        e.Name,
		Attribute:   e.Attribute,
		Version:     e.Version,
		StorePath:   e.StorePath,
		Description: e.Description,
	}
}

// Registry provides lookup into a deps/ folder
type Registry struct {
	depsDir string
}

// New creates a Registry pointed at a directory containing deps/
func New(rootDir string) *Registry {
	return &Registry{
		depsDir: filepath.Join(rootDir, "deps"),
	}
}

// Dir returns the deps directory backing the registry
func (r *Registry) Dir() string {
	return r.depsDir
}

// Names lists the packages in the registry, sorted
func (r *Registry) Names() ([]string, error) {
	entries, err := os.ReadDir(r.depsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("registry: deps not found at %s, run 'uenv index sync' first", r.depsDir)
		}
		return nil, fmt.Errorf("registry: reading deps: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and parses deps/<name>/index.toml.
// An entry without a name takes the directory name.
func (r *Registry) Load(name string) (*Entry, error) {
	if _, err := os.Stat(r.depsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("registry: deps not found, run sync first")
	}

	path := filepath.Join(r.depsDir, name, "index.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		// Check if the directory exists, to give a better error message.
		dirPath := filepath.Dir(path)
		if _, statErr := os.Stat(dirPath); statErr == nil {
			return nil, fmt.Errorf("registry: found package '%s' directory, but missing index.toml", name)
		}
		return nil, fmt.Errorf("registry: package '%s' not found", name)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("registry: failed to parse '%s': %w", name, err)
	}
	if entry.Name == "" {
		entry.Name = name
	}

	return &entry, nil
}

// LoadAll loads every entry in name order
func (r *Registry) LoadAll() ([]*Entry, error) {
	names, err := r.Names()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		entry, err := r.Load(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
