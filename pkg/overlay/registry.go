package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds overlay definitions by name
type Registry struct {
	overlays map[string]*Overlay
}

// NewRegistry creates a registry holding the given overlays
func NewRegistry(overlays ...*Overlay) (*Registry, error) {
	r := &Registry{overlays: make(map[string]*Overlay)}
	for _, o := range overlays {
		if err := r.Add(o); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers an overlay. A second definition with the same name replaces the first.
func (r *Registry) Add(o *Overlay) error {
	if err := o.Validate(); err != nil {
		return err
	}
	r.overlays[o.Name] = o
	return nil
}

// Clone returns a registry holding the same overlays
func (r *Registry) Clone() *Registry {
	c := &Registry{overlays: make(map[string]*Overlay, len(r.overlays))}
	for name, o := range r.overlays {
		c.overlays[name] = o
	}
	return c
}

// Get returns the overlay with the given name
func (r *Registry) Get(name string) (*Overlay, bool) {
	o, ok := r.overlays[name]
	return o, ok
}

// Names lists registered overlay names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.overlays))
	for name := range r.overlays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named overlays in the order given.
// Every missing name is reported in one error.
func (r *Registry) Lookup(names ...string) (Set, error) {
	set := make(Set, 0, len(names))
	var missing []string
	for _, name := range names {
		o, ok := r.overlays[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		set = append(set, o)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOverlay, strings.Join(missing, ", "))
	}
	return set, nil
}

// LoadFile reads an overlay definition from a YAML file.
// The overlay name defaults to the file name without extension.
func LoadFile(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overlay: %w", err)
	}

	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing overlay %s: %w", path, err)
	}
	if o.Name == "" {
		o.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// LoadDir adds every *.yaml / *.yml overlay in dir to the registry.
// A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading overlay dir: %w", err)
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		o, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if err := r.Add(o); err != nil {
			return err
		}
	}
	return nil
}
