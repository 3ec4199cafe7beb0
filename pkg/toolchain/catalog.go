package toolchain

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/arc-language/uenv/pkg/core"
)

var (
	// ErrUnknownChannel indicates a channel missing from the catalog
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrUnknownPreset indicates a preset missing from the catalog
	ErrUnknownPreset = errors.New("unknown preset")
)

// Catalog holds the known channels and presets
type Catalog struct {
	channels map[string]*Channel
	presets  map[string]Preset
}

// catalogFile is the layout of channels.toml
type catalogFile struct {
	Channels []*Channel `toml:"channel"`
	Presets  []Preset   `toml:"preset"`
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		channels: make(map[string]*Channel),
		presets:  make(map[string]Preset),
	}
}

// DefaultCatalog returns a catalog with the built-in channels and presets
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, ch := range defaultChannels() {
		// built-ins are known to be valid
		c.channels[ch.Name] = ch
	}
	for _, p := range defaultPresets() {
		c.presets[p.Name] = p
	}
	return c
}

// AddChannel registers a channel, replacing any channel of the same name
func (c *Catalog) AddChannel(ch *Channel) error {
	if ch == nil {
		return fmt.Errorf("channel cannot be nil")
	}
	if err := ch.Validate(); err != nil {
		return err
	}
	c.channels[ch.Name] = ch
	return nil
}

// Channel returns the channel with the given name
func (c *Catalog) Channel(name string) (*Channel, error) {
	ch, ok := c.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
	}
	return ch, nil
}

// Channels returns all channels sorted by name
func (c *Catalog) Channels() []*Channel {
	out := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddPreset registers a preset, replacing any preset of the same name
func (c *Catalog) AddPreset(p Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	c.presets[p.Name] = p
	return nil
}

// Preset returns the preset with the given name
func (c *Catalog) Preset(name string) (Preset, error) {
	p, ok := c.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Presets returns all presets sorted by name
func (c *Catalog) Presets() []Preset {
	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadFile merges channels and presets from a channels.toml file.
// A missing file is not an error.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading catalog: %w", err)
	}

	var file catalogFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	for _, ch := range file.Channels {
		if err := c.AddChannel(ch); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	for _, p := range file.Presets {
		if err := c.AddPreset(p); err != nil {
			return fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	return nil
}

// Compose layers the named presets left to right and applies override last
func (c *Catalog) Compose(presets []string, override Spec) (Spec, error) {
	var spec Spec
	for _, name := range presets {
		p, err := c.Preset(name)
		if err != nil {
			return Spec{}, err
		}
		spec = spec.merge(p.Spec)
	}
	return spec.merge(override), nil
}

// Instantiate resolves spec against its channel.
// Every requested extension the channel does not advertise is reported in a
// single UnsupportedExtension error.
func (c *Catalog) Instantiate(spec Spec) (*Resolved, error) {
	ch, err := c.Channel(spec.Channel)
	if err != nil {
		return nil, err
	}

	extensions := uniqueAppend(nil, spec.Extensions...)
	var unsupported []string
	for _, ext := range extensions {
		if !ch.Advertises(ext) {
			unsupported = append(unsupported, ext)
		}
	}
	if len(unsupported) > 0 {
		return nil, core.NewUnsupportedExtension(ch.Name, unsupported...)
	}

	version := spec.Version
	if version == "" {
		version = ch.DefaultVersion
	}

	attr, err := ch.AttributeFor(version)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", ch.Name, err)
	}

	origin := core.ToolchainOrigin(ch.Name)
	resolved := &Resolved{
		Spec: Spec{Channel: ch.Name, Version: version, Extensions: extensions},
		Ref: core.PackageRef{
			Name:        ch.ToolName(),
			Attribute:   attr,
			Version:     version,
			Description: ch.Description,
			Origin:      origin,
		},
	}
	for _, ext := range extensions {
		resolved.Extensions = append(resolved.Extensions, core.PackageRef{
			Name:        ext,
			Attribute:   attr,
			Version:     version,
			Description: fmt.Sprintf("%s extension of the %s toolchain", ext, ch.Name),
			Origin:      origin,
		})
	}
	return resolved, nil
}
