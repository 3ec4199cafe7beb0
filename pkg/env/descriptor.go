package env

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/toolchain"
)

// fingerprintPrefix marks the hash function used for fingerprints
const fingerprintPrefix = "blake3:"

// Descriptor is a named, reproducible bundle of tools and settings,
// ready to hand to a build engine
type Descriptor struct {
	Name         string              `yaml:"name" json:"name"`
	System       string              `yaml:"system,omitempty" json:"system,omitempty"`
	Toolchain    *toolchain.Resolved `yaml:"toolchain,omitempty" json:"toolchain,omitempty"`
	Tools        ToolSet             `yaml:"tools" json:"tools"`
	Overlays     []OverlayRef        `yaml:"overlays,omitempty" json:"overlays,omitempty"`
	SourceFilter *SourceFilter       `yaml:"source_filter,omitempty" json:"source_filter,omitempty"`
	InitSteps    []string            `yaml:"init_steps,omitempty" json:"init_steps,omitempty"`
	Nixpkgs      *Nixpkgs            `yaml:"nixpkgs,omitempty" json:"nixpkgs,omitempty"`
	Fingerprint  string              `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
}

// OverlayRef records an applied overlay
type OverlayRef struct {
	Name   string `yaml:"name" json:"name"`
	Import string `yaml:"import,omitempty" json:"import,omitempty"`
}

// SourceFilter excludes files from the project source handed to builds
type SourceFilter struct {
	Gitignore bool     `yaml:"gitignore,omitempty" json:"gitignore,omitempty"` // honour .gitignore files
	Exclude   []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`     // extra gitignore-style patterns
}

// Nixpkgs pins the package set to a tarball
type Nixpkgs struct {
	URL    string `yaml:"url" json:"url"`
	SHA256 string `yaml:"sha256,omitempty" json:"sha256,omitempty"`
}

// ToolSet is a set of package references sorted by name
type ToolSet []core.PackageRef

// NewToolSet builds a ToolSet; a later ref replaces an earlier ref of the same name
func NewToolSet(refs ...core.PackageRef) ToolSet {
	byName := make(map[string]core.PackageRef, len(refs))
	for _, ref := range refs {
		byName[ref.Name] = ref
	}

	set := make(ToolSet, 0, len(byName))
	for _, ref := range byName {
		set = append(set, ref)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Name < set[j].Name })
	return set
}

// Names returns the tool names in order
func (s ToolSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, ref := range s {
		names = append(names, ref.Name)
	}
	return names
}

// Get returns the tool with the given name
func (s ToolSet) Get(name string) (core.PackageRef, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Name >= name })
	if i < len(s) && s[i].Name == name {
		return s[i], true
	}
	return core.PackageRef{}, false
}

// Has reports whether the set contains name
func (s ToolSet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Validate checks the descriptor is complete enough to hand to a builder
func (d *Descriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("descriptor cannot be nil")
	}
	if d.Name == "" {
		return fmt.Errorf("descriptor name is required")
	}
	if err := validateEnvName(d.Name); err != nil {
		return err
	}
	for i := 1; i < len(d.Tools); i++ {
		if d.Tools[i-1].Name >= d.Tools[i].Name {
			return fmt.Errorf("descriptor %q: tools not sorted or duplicated at %q", d.Name, d.Tools[i].Name)
		}
	}
	for _, step := range d.InitSteps {
		if err := ValidateInitStep(step); err != nil {
			return fmt.Errorf("descriptor %q: %w", d.Name, err)
		}
	}
	return nil
}

// ComputeFingerprint hashes the descriptor contents, ignoring any stored fingerprint.
// Equal descriptors always produce equal fingerprints.
func (d *Descriptor) ComputeFingerprint() (string, error) {
	c := *d
	c.Fingerprint = ""

	// nil and empty containers must hash alike: YAML drops empty lists
	opts := cbor.CanonicalEncOptions()
	opts.NilContainers = cbor.NilContainerAsEmpty
	mode, err := opts.EncMode()
	if err != nil {
		return "", fmt.Errorf("creating cbor encoder: %w", err)
	}
	data, err := mode.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("encoding descriptor: %w", err)
	}

	sum := blake3.Sum256(data)
	return fingerprintPrefix + hex.EncodeToString(sum[:]), nil
}

// Stamp sets the Fingerprint field
func (d *Descriptor) Stamp() error {
	fp, err := d.ComputeFingerprint()
	if err != nil {
		return err
	}
	d.Fingerprint = fp
	return nil
}

// Verify checks the stored fingerprint matches the contents
func (d *Descriptor) Verify() error {
	fp, err := d.ComputeFingerprint()
	if err != nil {
		return err
	}
	if fp != d.Fingerprint {
		return fmt.Errorf("descriptor %q: fingerprint mismatch: stored %s, computed %s", d.Name, d.Fingerprint, fp)
	}
	return nil
}
