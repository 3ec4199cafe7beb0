// uenv.go
package uenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/arc-language/uenv/pkg/config"
	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/env"
	"github.com/arc-language/uenv/pkg/index"
	"github.com/arc-language/uenv/pkg/nix"
	"github.com/arc-language/uenv/pkg/overlay"
	"github.com/arc-language/uenv/pkg/platform"
	"github.com/arc-language/uenv/pkg/registry"
	"github.com/arc-language/uenv/pkg/resolver"
	"github.com/arc-language/uenv/pkg/toolchain"
)

// Re-export types for convenience
type (
	Config          = config.Config
	Environment     = config.Environment
	Descriptor      = env.Descriptor
	ToolSet         = env.ToolSet
	Record          = env.Record
	PackageRef      = core.PackageRef
	ToolchainSpec   = toolchain.Spec
	Preset          = toolchain.Preset
	Channel         = toolchain.Channel
	Activation      = nix.Activation
	ResolutionError = core.ResolutionError
	// RegistryEntry is the metadata for a package from the deps/ registry.
	RegistryEntry = registry.Entry
)

const (
	overlaysDir = "overlays"
	catalogFile = "channels.toml"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadEnvironment reads a uenv.yaml or uenv.cue environment file
func LoadEnvironment(path string) (*Environment, error) {
	return config.LoadEnvironment(path)
}

// Builder turns a descriptor into a usable environment
type Builder interface {
	Build(ctx context.Context, desc *Descriptor, workdir string) (*Activation, error)
}

// Options configures a Manager
type Options struct {
	// Logger for progress and debug output (default: stderr when cfg.Debug, discard otherwise)
	Logger *log.Logger

	// Builder used by Build (default: nix-build and nix-shell)
	Builder Builder

	// NoSync disables cloning the index repository when the cache is empty
	NoSync bool
}

// CacheStatus tells whether a pinned tool can be fetched from the binary cache
type CacheStatus struct {
	Name          string
	StorePath     string
	Substitutable bool
}

// Manager resolves, builds and stores environments
type Manager struct {
	config   *Config
	logger   *log.Logger
	base     *index.Index
	overlays *overlay.Registry
	catalog  *toolchain.Catalog
	resolver *resolver.Resolver
	store    *env.Store
	builder  Builder
	cache    *nix.CacheClient
	host     *platform.Platform
}

// NewManager loads the base index, overlays and channel catalog described by cfg.
// When the index cache is empty it is synced first unless opts.NoSync is set.
func NewManager(ctx context.Context, cfg *Config, opts *Options) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if opts == nil {
		opts = &Options{}
	}

	logger := opts.Logger
	if logger == nil {
		if cfg.Debug {
			logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.DebugLevel, Prefix: "uenv"})
		} else {
			logger = log.New(io.Discard)
		}
	}

	m := &Manager{
		config:  cfg,
		logger:  logger,
		store:   env.NewStore(cfg.StorePath),
		builder: opts.Builder,
		cache:   nix.NewCacheClient(nix.CacheConfig{CacheURL: cfg.Nix.CacheURL, Logger: logger}),
	}
	if m.builder == nil {
		m.builder = nix.NewBuilder(nix.BuilderConfig{Logger: logger})
	}

	if host, err := platform.Detect(); err == nil {
		m.host = host
		logger.Debug("detected host", "platform", host.String())
	} else {
		logger.Debug("host detection failed", "err", err)
	}

	// Sync if deps folder doesn't exist yet
	if cfg.IndexPath == "" && !opts.NoSync {
		depsDir := filepath.Join(cfg.CachePath, "deps")
		if _, err := os.Stat(depsDir); os.IsNotExist(err) {
			if err := m.sync(ctx); err != nil {
				return nil, &Error{Op: "sync index", Err: err}
			}
		}
	}

	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// load reads the base index, overlays and catalog from disk
func (m *Manager) load() error {
	root := m.config.BaseIndexPath()

	base := index.New()
	info, err := os.Stat(root)
	switch {
	case err == nil:
		if info.IsDir() && !dirExists(filepath.Join(root, "deps")) {
			m.logger.Warn("index has no deps directory, base index is empty", "path", root)
		} else {
			if base, err = index.Load(root); err != nil {
				return &Error{Op: "load index", Err: err}
			}
		}
	case os.IsNotExist(err) && m.config.IndexPath == "":
		m.logger.Warn("index cache is empty, run 'uenv index sync'", "path", root)
	default:
		return &Error{Op: "load index", Err: err}
	}

	// overlays and channels live beside a single-file index
	dataDir := root
	if err == nil && !info.IsDir() {
		dataDir = filepath.Dir(root)
	}

	overlays, _ := overlay.NewRegistry()
	catalog := toolchain.DefaultCatalog()
	if dirExists(dataDir) {
		if err := overlays.LoadDir(filepath.Join(dataDir, overlaysDir)); err != nil {
			return &Error{Op: "load overlays", Err: err}
		}
		if err := catalog.LoadFile(filepath.Join(dataDir, catalogFile)); err != nil {
			return &Error{Op: "load channels", Err: err}
		}
	}

	m.base = base
	m.overlays = overlays
	m.catalog = catalog
	m.resolver = resolver.New(resolver.Config{Catalog: catalog, Logger: m.logger})

	m.logger.Debug("index loaded", "path", root, "entries", base.Len(),
		"overlays", len(overlays.Names()), "channels", len(catalog.Channels()))
	return nil
}

func (m *Manager) sync(ctx context.Context) error {
	return index.Sync(ctx, m.config.CachePath, index.SyncOptions{
		RepoURL: m.config.Index.RepoURL,
		Branch:  m.config.Index.Branch,
		Logger:  m.logger,
	})
}

// SyncIndex updates the index cache from the index repository and reloads it
func (m *Manager) SyncIndex(ctx context.Context) error {
	if err := m.sync(ctx); err != nil {
		return &Error{Op: "sync index", Err: err}
	}
	return m.load()
}

// Resolve resolves an environment file into a descriptor.
//
// Overlay definitions in the file replace index overlays of the same name;
// only overlays listed in e.Overlays are applied, in that order. The
// toolchain is composed from e.Presets with e.Toolchain applied last.
func (m *Manager) Resolve(e *Environment) (*Descriptor, error) {
	if e == nil {
		return nil, &Error{Op: "resolve", Err: fmt.Errorf("environment cannot be nil")}
	}

	overlays := m.overlays.Clone()
	for _, o := range e.OverlayDefinitions {
		if err := overlays.Add(o); err != nil {
			return nil, &Error{Op: "resolve", Name: e.Name, Err: err}
		}
	}
	set, err := overlays.Lookup(e.Overlays...)
	if err != nil {
		return nil, &Error{Op: "resolve", Name: e.Name, Err: err}
	}

	spec, err := m.catalog.Compose(e.Presets, e.Toolchain)
	if err != nil {
		return nil, &Error{Op: "resolve", Name: e.Name, Err: err}
	}

	system, err := m.system(e)
	if err != nil {
		return nil, &Error{Op: "resolve", Name: e.Name, Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
	}

	desc, err := m.resolver.Resolve(m.base, set, spec, e.IncludedTools, resolver.Options{
		Name:         e.Name,
		System:       system,
		SourceFilter: e.SourceFilter,
		InitSteps:    e.InitSteps,
		Nixpkgs:      e.Nixpkgs,
	})
	if err != nil {
		return nil, &Error{Op: "resolve", Name: e.Name, Err: err}
	}
	return desc, nil
}

// system picks the nix system: the environment file, then the config, then the host.
// An explicit system must be valid; without one, a host nix cannot build for
// resolves with no system.
func (m *Manager) system(e *Environment) (string, error) {
	configured := e.System
	if configured == "" {
		configured = m.config.Nix.System
	}
	system, err := platform.ResolveSystem(m.host, configured)
	if err != nil {
		if configured != "" {
			return "", err
		}
		m.logger.Debug("no nix system", "err", err)
		return "", nil
	}
	return system.String(), nil
}

// Render returns the shell.nix expression for a descriptor
func (m *Manager) Render(desc *Descriptor) (string, error) {
	out, err := nix.RenderShell(desc)
	if err != nil {
		return "", &Error{Op: "render", Name: desc.Name, Err: err}
	}
	return out, nil
}

// Build builds the environment in workdir and saves it with its prefix
func (m *Manager) Build(ctx context.Context, desc *Descriptor, workdir string) (*Activation, error) {
	act, err := m.builder.Build(ctx, desc, workdir)
	if err != nil {
		return nil, &Error{Op: "build", Name: desc.Name, Err: err}
	}
	if err := m.store.Save(desc, act.Prefix); err != nil {
		return nil, &Error{Op: "save", Name: desc.Name, Err: err}
	}
	return act, nil
}

// Save stores a descriptor without building it
func (m *Manager) Save(desc *Descriptor) error {
	if err := m.store.Save(desc, ""); err != nil {
		return &Error{Op: "save", Name: desc.Name, Err: err}
	}
	return nil
}

// ActivationScript returns the shell script entering a saved environment
func (m *Manager) ActivationScript(name string) (string, error) {
	rec, err := m.store.Load(name)
	if err != nil {
		return "", &Error{Op: "activate", Name: name, Err: err}
	}
	script, err := rec.ActivationScript()
	if err != nil {
		return "", &Error{Op: "activate", Name: name, Err: err}
	}
	return script, nil
}

// CacheStatus checks which pinned tools the binary cache can substitute.
// Tools without a store path are skipped.
func (m *Manager) CacheStatus(ctx context.Context, desc *Descriptor) ([]CacheStatus, error) {
	var statuses []CacheStatus
	for _, tool := range desc.Tools {
		if tool.StorePath == "" {
			continue
		}
		ok, err := m.cache.Substitutable(ctx, tool.StorePath)
		if err != nil {
			return nil, &Error{Op: "check cache", Name: tool.Name, Err: err}
		}
		statuses = append(statuses, CacheStatus{Name: tool.Name, StorePath: tool.StorePath, Substitutable: ok})
	}
	return statuses, nil
}

// GetInfo returns the base index entry for a tool
func (m *Manager) GetInfo(name string) (PackageRef, error) {
	if name == "" {
		return PackageRef{}, fmt.Errorf("package name is required")
	}
	ref, ok := m.base.Get(name)
	if !ok {
		return PackageRef{}, &Error{Op: "info", Name: name, Err: core.NewUnknownTool(name)}
	}
	return ref, nil
}

// GetRegistryEntry retrieves the full registry entry for a package.
// Only available when the base index is a deps/ registry.
func (m *Manager) GetRegistryEntry(name string) (*RegistryEntry, error) {
	root := m.config.BaseIndexPath()
	if !dirExists(filepath.Join(root, "deps")) {
		return nil, fmt.Errorf("registry is only available for a deps/ index")
	}
	return registry.New(root).Load(name)
}

// Index returns the base index
func (m *Manager) Index() *index.Index {
	return m.base
}

// Overlays returns the overlay registry loaded from the index
func (m *Manager) Overlays() *overlay.Registry {
	return m.overlays
}

// Catalog returns the toolchain catalog
func (m *Manager) Catalog() *toolchain.Catalog {
	return m.catalog
}

// Store returns the saved-environment store
func (m *Manager) Store() *env.Store {
	return m.store
}

// Platform returns the detected host, nil if detection failed
func (m *Manager) Platform() *platform.Platform {
	return m.host
}

// Logger returns the manager's logger
func (m *Manager) Logger() *log.Logger {
	return m.logger
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
