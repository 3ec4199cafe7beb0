package toolchain

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/arc-language/uenv/pkg/core"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	if err := c.AddChannel(&Channel{
		Name:           "nightly",
		Tool:           "rust",
		Attribute:      `rust-bin.{{.Channel}}."{{.Version}}".default`,
		DefaultVersion: "latest",
		Extensions:     []string{"clippy", "rustfmt"},
	}); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestInstantiate(t *testing.T) {
	t.Parallel()

	resolved, err := testCatalog(t).Instantiate(Spec{Channel: "nightly", Version: "2020-04-01", Extensions: []string{"clippy", "clippy"}})
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}

	if resolved.Ref.Name != "rust" {
		t.Errorf("Ref.Name = %q, want rust", resolved.Ref.Name)
	}
	if want := `rust-bin.nightly."2020-04-01".default`; resolved.Ref.Attribute != want {
		t.Errorf("Ref.Attribute = %q, want %q", resolved.Ref.Attribute, want)
	}
	if !reflect.DeepEqual(resolved.Spec.Extensions, []string{"clippy"}) {
		t.Errorf("Extensions = %v, want deduplicated", resolved.Spec.Extensions)
	}

	entries := resolved.Entries()
	if len(entries) != 2 || entries[1].Name != "clippy" {
		t.Fatalf("Entries() = %+v", entries)
	}
	for _, e := range entries {
		if e.Origin != core.ToolchainOrigin("nightly") || !core.IsToolchainOrigin(e.Origin) {
			t.Errorf("entry %s origin = %q", e.Name, e.Origin)
		}
	}
}

func TestInstantiateDefaultVersion(t *testing.T) {
	t.Parallel()

	resolved, err := testCatalog(t).Instantiate(Spec{Channel: "nightly"})
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Spec.Version != "latest" || resolved.Ref.Version != "latest" {
		t.Errorf("version = %q/%q, want latest", resolved.Spec.Version, resolved.Ref.Version)
	}
}

func TestInstantiateUnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := testCatalog(t).Instantiate(Spec{Channel: "nightly", Extensions: []string{"clippy", "miri", "rls"}})
	if !errors.Is(err, core.ErrUnsupportedExtension) {
		t.Fatalf("error = %v, want ErrUnsupportedExtension", err)
	}
	var resErr *core.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("error type = %T", err)
	}
	if !reflect.DeepEqual(resErr.Names, []string{"miri", "rls"}) || resErr.Channel != "nightly" {
		t.Errorf("ResolutionError = %+v", resErr)
	}
}

func TestInstantiateUnknownChannel(t *testing.T) {
	t.Parallel()

	_, err := testCatalog(t).Instantiate(Spec{Channel: "stable"})
	if !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("error = %v, want ErrUnknownChannel", err)
	}
}

func TestAttributeUnderscore(t *testing.T) {
	t.Parallel()

	resolved, err := DefaultCatalog().Instantiate(Spec{Channel: "go", Version: "1.21"})
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Ref.Attribute != "go_1_21" {
		t.Errorf("Attribute = %q, want go_1_21", resolved.Ref.Attribute)
	}
}

func TestChannelValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		channel Channel
	}{
		{name: "no name", channel: Channel{Attribute: "x"}},
		{name: "no attribute", channel: Channel{Name: "x"}},
		{name: "bad template", channel: Channel{Name: "x", Attribute: "{{.Version"}},
		{name: "duplicate extension", channel: Channel{Name: "x", Attribute: "x", Extensions: []string{"a", "a"}}},
		{name: "empty extension", channel: Channel{Name: "x", Attribute: "x", Extensions: []string{""}}},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if err := testCase.channel.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestCompose(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	tests := []struct {
		name     string
		presets  []string
		override Spec
		want     Spec
	}{
		{
			name:    "single preset",
			presets: []string{"rust-stable"},
			want:    Spec{Channel: "stable", Extensions: []string{"clippy", "rustfmt"}},
		},
		{
			name:    "later channel wins and extensions union",
			presets: []string{"rust-stable", "rust-nightly-ide"},
			want:    Spec{Channel: "nightly", Extensions: []string{"clippy", "rustfmt", "rust-src", "rust-analysis", "rls-preview"}},
		},
		{
			name:     "override pins version on same channel",
			presets:  []string{"rust-nightly"},
			override: Spec{Version: "2020-04-01", Extensions: []string{"rust-src"}},
			want:     Spec{Channel: "nightly", Version: "2020-04-01", Extensions: []string{"clippy", "rustfmt", "rust-src"}},
		},
		{
			name:     "switching channel drops earlier version",
			override: Spec{Channel: "stable"},
			presets:  nil,
			want:     Spec{Channel: "stable"},
		},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.Compose(testCase.presets, testCase.override)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if !reflect.DeepEqual(got, testCase.want) {
				t.Errorf("Compose() = %+v, want %+v", got, testCase.want)
			}
		})
	}
}

func TestComposeChannelSwitchResetsVersion(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	_ = c.AddPreset(Preset{Name: "dated", Spec: Spec{Channel: "nightly", Version: "2020-04-01"}})
	_ = c.AddPreset(Preset{Name: "stable", Spec: Spec{Channel: "stable"}})

	got, err := c.Compose([]string{"dated", "stable"}, Spec{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Channel != "stable" || got.Version != "" {
		t.Errorf("Compose() = %+v, want stable without the nightly date", got)
	}
}

func TestComposeUnknownPreset(t *testing.T) {
	t.Parallel()

	_, err := DefaultCatalog().Compose([]string{"nope"}, Spec{})
	if !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("error = %v, want ErrUnknownPreset", err)
	}
}

func TestDefaultPresetsInstantiate(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	for _, p := range c.Presets() {
		if _, err := c.Instantiate(p.Spec); err != nil {
			t.Errorf("preset %s does not instantiate: %v", p.Name, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "channels.toml")
	content := `
[[channel]]
name = "python"
tool = "python"
attribute = "python{{underscore .Version}}"
default_version = "3.11"
extensions = ["pip"]

[[preset]]
name = "py"
description = "python with pip"
[preset.spec]
channel = "python"
extensions = ["pip"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := DefaultCatalog()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	spec, err := c.Compose([]string{"py"}, Spec{})
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := c.Instantiate(spec)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Ref.Attribute != "python3_11" {
		t.Errorf("Attribute = %q", resolved.Ref.Attribute)
	}

	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err != nil {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
}
