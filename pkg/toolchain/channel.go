// pkg/toolchain/channel.go
package toolchain

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Channel is a versioned release line of a compiler or runtime
type Channel struct {
	Name           string   `toml:"name" yaml:"name"`
	Tool           string   `toml:"tool" yaml:"tool"`                       // Index name of the toolchain entry (e.g., "rust")
	Attribute      string   `toml:"attribute" yaml:"attribute"`             // Attribute template, {{.Channel}} and {{.Version}} are available
	DefaultVersion string   `toml:"default_version" yaml:"default_version"` // Used when the spec gives no version
	Extensions     []string `toml:"extensions" yaml:"extensions"`           // Advertised feature extensions
	Description    string   `toml:"description" yaml:"description"`
}

// attributeData is passed to the attribute template
type attributeData struct {
	Channel string
	Version string
}

var attributeFuncs = template.FuncMap{
	"underscore": func(s string) string { return strings.ReplaceAll(s, ".", "_") },
}

// Validate checks the channel definition
func (ch *Channel) Validate() error {
	if ch.Name == "" {
		return fmt.Errorf("channel name is required")
	}
	if ch.Attribute == "" {
		return fmt.Errorf("channel %q: attribute is required", ch.Name)
	}
	if _, err := template.New(ch.Name).Funcs(attributeFuncs).Parse(ch.Attribute); err != nil {
		return fmt.Errorf("channel %q: invalid attribute template: %w", ch.Name, err)
	}
	seen := make(map[string]bool)
	for _, ext := range ch.Extensions {
		if ext == "" {
			return fmt.Errorf("channel %q: empty extension name", ch.Name)
		}
		if seen[ext] {
			return fmt.Errorf("channel %q: duplicate extension %q", ch.Name, ext)
		}
		seen[ext] = true
	}
	return nil
}

// ToolName returns the index name of the toolchain entry
func (ch *Channel) ToolName() string {
	if ch.Tool != "" {
		return ch.Tool
	}
	return ch.Name
}

// Advertises reports whether the channel offers the extension
func (ch *Channel) Advertises(ext string) bool {
	for _, e := range ch.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// AttributeFor renders the nix attribute of the channel at version
func (ch *Channel) AttributeFor(version string) (string, error) {
	tmpl, err := template.New(ch.Name).Funcs(attributeFuncs).Option("missingkey=error").Parse(ch.Attribute)
	if err != nil {
		return "", fmt.Errorf("parsing attribute template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, attributeData{Channel: ch.Name, Version: version}); err != nil {
		return "", fmt.Errorf("rendering attribute: %w", err)
	}
	return buf.String(), nil
}

// defaultChannels are always present in a catalog.
// Attributes follow the rust-overlay layout of nixpkgs overlays.
func defaultChannels() []*Channel {
	rustExtensions := []string{"clippy", "rustfmt", "rust-src", "rust-docs", "rust-analyzer", "llvm-tools-preview"}
	nightlyExtensions := append(append([]string{}, rustExtensions...), "miri", "rust-analysis", "rls-preview")

	return []*Channel{
		{
			Name:           "stable",
			Tool:           "rust",
			Attribute:      `rust-bin.stable."{{.Version}}".default`,
			DefaultVersion: "latest",
			Extensions:     rustExtensions,
			Description:    "Rust stable releases",
		},
		{
			Name:           "beta",
			Tool:           "rust",
			Attribute:      `rust-bin.beta."{{.Version}}".default`,
			DefaultVersion: "latest",
			Extensions:     rustExtensions,
			Description:    "Rust beta releases",
		},
		{
			Name:           "nightly",
			Tool:           "rust",
			Attribute:      `rust-bin.nightly."{{.Version}}".default`,
			DefaultVersion: "latest",
			Extensions:     nightlyExtensions,
			Description:    "Rust nightly builds, versioned by date",
		},
		{
			Name:           "go",
			Tool:           "go",
			Attribute:      `go_{{underscore .Version}}`,
			DefaultVersion: "1.22",
			Description:    "Go releases from nixpkgs",
		},
	}
}
