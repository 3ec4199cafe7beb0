package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/uenv/pkg/env"
	"github.com/arc-language/uenv/pkg/nix"
	"github.com/arc-language/uenv/pkg/overlay"
	"github.com/arc-language/uenv/pkg/toolchain"
)

//go:embed env_schema.cue
var envSchema string

// EnvironmentFiles are the names FindEnvironment looks for, in order
var EnvironmentFiles = []string{"uenv.yaml", "uenv.yml", "uenv.cue"}

// Environment is the declarative description of one environment
type Environment struct {
	Name               string             `yaml:"name" json:"name"`
	System             string             `yaml:"system,omitempty" json:"system,omitempty"`
	Presets            []string           `yaml:"presets,omitempty" json:"presets,omitempty"`
	Toolchain          toolchain.Spec     `yaml:"toolchain,omitempty" json:"toolchain,omitempty"`
	Overlays           []string           `yaml:"overlays,omitempty" json:"overlays,omitempty"`
	OverlayDefinitions []*overlay.Overlay `yaml:"overlay_definitions,omitempty" json:"overlay_definitions,omitempty"`
	IncludedTools      []string           `yaml:"included_tools" json:"included_tools"`
	SourceFilter       *env.SourceFilter  `yaml:"source_filter,omitempty" json:"source_filter,omitempty"`
	InitSteps          []string           `yaml:"init_steps,omitempty" json:"init_steps,omitempty"`
	Nixpkgs            *env.Nixpkgs       `yaml:"nixpkgs,omitempty" json:"nixpkgs,omitempty"`

	// Dir is the directory holding the file; relative paths resolve against it
	Dir string `yaml:"-" json:"-"`
}

// FindEnvironment returns the environment file in dir
func FindEnvironment(dir string) (string, error) {
	for _, name := range EnvironmentFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no environment file (%s) in %s", strings.Join(EnvironmentFiles, ", "), dir)
}

// LoadEnvironment reads a YAML or CUE environment file.
// The name defaults to the name of the directory holding the file.
func LoadEnvironment(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading environment file: %w", err)
	}

	var e *Environment
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		e, err = ParseCUE(data, path)
	} else {
		e, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	e.Dir = filepath.Dir(abs)
	if e.Name == "" {
		e.Name = filepath.Base(e.Dir)
	}

	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return e, nil
}

// ParseYAML decodes a YAML environment; unknown keys are rejected
func ParseYAML(data []byte) (*Environment, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var e Environment
	if err := dec.Decode(&e); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return &e, nil
}

// ParseCUE validates a CUE environment against the embedded schema and decodes it
func ParseCUE(data []byte, filename string) (*Environment, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(envSchema)
	if schema.Err() != nil {
		return nil, fmt.Errorf("internal error: compiling schema: %w", schema.Err())
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if user.Err() != nil {
		return nil, fmt.Errorf("parsing cue: %w", user.Err())
	}

	root := schema.LookupPath(cue.ParsePath("#Environment"))
	if root.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition #Environment not found: %w", root.Err())
	}

	unified := root.Unify(user)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating cue: %w", err)
	}

	var e Environment
	if err := unified.Decode(&e); err != nil {
		return nil, fmt.Errorf("decoding cue: %w", err)
	}
	return &e, nil
}

// Validate checks what neither decoder can: the nix system, shell syntax of
// init steps and well formed overlay definitions
func (e *Environment) Validate() error {
	if e.System != "" {
		if _, err := nix.ParsePlatform(e.System); err != nil {
			return fmt.Errorf("system: %w", err)
		}
	}

	for _, step := range e.InitSteps {
		if err := env.ValidateInitStep(step); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(e.OverlayDefinitions))
	for _, o := range e.OverlayDefinitions {
		if err := o.Validate(); err != nil {
			return err
		}
		if seen[o.Name] {
			return fmt.Errorf("overlay %q defined twice", o.Name)
		}
		seen[o.Name] = true
	}

	if e.Nixpkgs != nil && e.Nixpkgs.URL == "" {
		return fmt.Errorf("nixpkgs: url is required")
	}
	return nil
}

// SourceRoot returns the directory source filtering applies to
func (e *Environment) SourceRoot() string {
	return e.Dir
}
