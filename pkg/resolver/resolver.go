// Package resolver turns a base index, overlays, a toolchain spec and an
// inclusion list into an environment descriptor.
//
// Resolution is pure: the inputs are never modified and equal inputs
// always produce equal descriptors, fingerprint included.
package resolver

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/env"
	"github.com/arc-language/uenv/pkg/overlay"
	"github.com/arc-language/uenv/pkg/toolchain"
)

// DefaultName is used when Options.Name is empty
const DefaultName = "default"

// Config holds resolver configuration
type Config struct {
	// Catalog supplies channels for toolchain instantiation (default: built-in catalog)
	Catalog *toolchain.Catalog

	// Logger for debug output (default: discard)
	Logger *log.Logger
}

// Options carries the descriptor fields that do not take part in tool selection
type Options struct {
	Name         string
	System       string
	SourceFilter *env.SourceFilter
	InitSteps    []string
	Nixpkgs      *env.Nixpkgs
}

// Resolver resolves environments against a toolchain catalog
type Resolver struct {
	catalog *toolchain.Catalog
	logger  *log.Logger
}

// New creates a resolver
func New(cfg Config) *Resolver {
	if cfg.Catalog == nil {
		cfg.Catalog = toolchain.DefaultCatalog()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Resolver{catalog: cfg.Catalog, logger: cfg.Logger}
}

// Catalog returns the catalog used for instantiation
func (r *Resolver) Catalog() *toolchain.Catalog {
	return r.catalog
}

// Resolve builds the descriptor for an environment.
//
// Overlays are folded left to right over a copy of base, later entries
// winning. A non-zero spec is instantiated from its channel and its tool
// and extension entries are added after the overlays. The result holds
// exactly the included tools. Unadvertised extensions fail with
// UnsupportedExtension; included names missing from the merged index
// fail with UnknownTool. Both errors list every offending name.
func (r *Resolver) Resolve(base core.PackageSource, overlays overlay.Set, spec toolchain.Spec, included []string, opts Options) (*env.Descriptor, error) {
	for _, o := range overlays {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("invalid overlay: %w", err)
		}
	}

	merged := overlay.Apply(base, overlays)
	r.logger.Debug("overlays applied", "overlays", overlays.Names(), "entries", merged.Len())

	var resolved *toolchain.Resolved
	if !spec.IsZero() {
		var err error
		resolved, err = r.catalog.Instantiate(spec)
		if err != nil {
			return nil, err
		}
		for _, entry := range resolved.Entries() {
			if prev, ok := merged.Get(entry.Name); ok {
				r.logger.Debug("toolchain shadows entry", "name", entry.Name, "origin", prev.Origin)
			}
			merged.Set(entry)
		}
		r.logger.Debug("toolchain instantiated", "channel", resolved.Spec.Channel,
			"version", resolved.Spec.Version, "extensions", resolved.Spec.Extensions)
	}

	var (
		selected []core.PackageRef
		missing  []string
		seen     = make(map[string]bool, len(included))
	)
	for _, name := range included {
		if seen[name] {
			continue
		}
		seen[name] = true

		ref, ok := merged.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, ref)
	}
	if len(missing) > 0 {
		return nil, core.NewUnknownTool(missing...)
	}

	desc := &env.Descriptor{
		Name:         opts.Name,
		System:       opts.System,
		Toolchain:    resolved,
		Tools:        env.NewToolSet(selected...),
		SourceFilter: opts.SourceFilter,
		InitSteps:    opts.InitSteps,
		Nixpkgs:      opts.Nixpkgs,
	}
	if desc.Name == "" {
		desc.Name = DefaultName
	}
	for _, o := range overlays {
		desc.Overlays = append(desc.Overlays, env.OverlayRef{Name: o.Name, Import: o.Import})
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if err := desc.Stamp(); err != nil {
		return nil, err
	}

	r.logger.Debug("environment resolved", "name", desc.Name, "tools", desc.Tools.Names(),
		"fingerprint", desc.Fingerprint)
	return desc, nil
}

// Resolve resolves with the built-in catalog and default options
func Resolve(base core.PackageSource, overlays overlay.Set, spec toolchain.Spec, included []string) (*env.Descriptor, error) {
	return New(Config{}).Resolve(base, overlays, spec, included, Options{})
}
