package uenv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arc-language/uenv/pkg/config"
	"github.com/arc-language/uenv/pkg/nix"
	"github.com/arc-language/uenv/pkg/toolchain"
)

const testPrefix = "/nix/store/s66mzxpvicwk07gjbjfw9izjfa797vsw-uenv-demo"

const testIndex = `
- name: ag
  attribute: silver-searcher
  version: 2.2.0
- name: jq
  version: "1.7"
`

const testOverlay = `
name: haskell
import: https://example.org/haskell-overlay.tar.gz
entries:
  - name: niv
    attribute: haskellPackages.niv
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestManager(t *testing.T) (*Manager, *[]string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index", "index.yaml"), testIndex)
	writeFile(t, filepath.Join(dir, "index", "overlays", "haskell.yaml"), testOverlay)

	cfg := config.DefaultConfig()
	cfg.IndexPath = filepath.Join(dir, "index", "index.yaml")
	cfg.CachePath = filepath.Join(dir, "cache")
	cfg.StorePath = filepath.Join(dir, "envs")
	cfg.Nix.System = "x86_64-linux"

	var calls []string
	run := func(ctx context.Context, workdir, binary string, args ...string) (string, error) {
		calls = append(calls, binary+" "+strings.Join(args, " "))
		if binary == "nix-build" {
			return "building...\n" + testPrefix + "\n", nil
		}
		return "", nil
	}

	m, err := NewManager(context.Background(), cfg, &Options{
		NoSync:  true,
		Builder: nix.NewBuilder(nix.BuilderConfig{Run: run}),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, &calls
}

func demoEnvironment() *Environment {
	return &Environment{
		Name:          "demo",
		Toolchain:     toolchain.Spec{Channel: "stable", Extensions: []string{"clippy"}},
		Overlays:      []string{"haskell"},
		IncludedTools: []string{"ag", "niv", "clippy"},
		InitSteps:     []string{"echo ready"},
	}
}

func TestManagerLoadsIndex(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	if got := m.Index().Len(); got != 2 {
		t.Errorf("index has %d entries, want 2", got)
	}
	if _, ok := m.Overlays().Get("haskell"); !ok {
		t.Error("haskell overlay not loaded from overlays/")
	}
	ref, err := m.GetInfo("ag")
	if err != nil {
		t.Fatalf("GetInfo(ag) error = %v", err)
	}
	if ref.AttrPath() != "silver-searcher" {
		t.Errorf("ag attribute = %q", ref.AttrPath())
	}
	if _, err := m.GetInfo("nope"); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("GetInfo(nope) error = %v, want ErrUnknownTool", err)
	}
}

func TestManagerResolve(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	desc, err := m.Resolve(demoEnvironment())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := strings.Join(desc.Tools.Names(), ","); got != "ag,clippy,niv" {
		t.Errorf("tools = %s, want ag,clippy,niv", got)
	}
	if desc.System != "x86_64-linux" {
		t.Errorf("system = %q, want configured x86_64-linux", desc.System)
	}
	if err := desc.Verify(); err != nil {
		t.Errorf("descriptor not stamped: %v", err)
	}
}

func TestManagerResolveSystemFromEnvironment(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	e := demoEnvironment()
	e.System = "aarch64-darwin"
	desc, err := m.Resolve(e)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if desc.System != "aarch64-darwin" {
		t.Errorf("system = %q, want aarch64-darwin", desc.System)
	}
}

func TestManagerResolveInlineOverlay(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	e, err := config.ParseYAML([]byte(`
name: inline
overlays: [haskell]
overlay_definitions:
  - name: haskell
    entries:
      - name: niv
        attribute: niv-fork
included_tools: [niv]
`))
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	desc, err := m.Resolve(e)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	niv, _ := desc.Tools.Get("niv")
	if niv.AttrPath() != "niv-fork" {
		t.Errorf("niv attribute = %q, want inline definition niv-fork", niv.AttrPath())
	}

	// the index registry is untouched
	o, _ := m.Overlays().Get("haskell")
	if o.Entries[0].Attribute != "haskellPackages.niv" {
		t.Error("inline definition leaked into the index overlays")
	}
}

func TestManagerResolveErrors(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t)

	tests := []struct {
		name   string
		mutate func(e *Environment)
		want   error
	}{
		{"unknown overlay", func(e *Environment) { e.Overlays = []string{"missing"} }, ErrUnknownOverlay},
		{"unknown tool", func(e *Environment) { e.IncludedTools = append(e.IncludedTools, "cargo-edit") }, ErrUnknownTool},
		{"unsupported extension", func(e *Environment) { e.Toolchain.Extensions = []string{"miri"} }, ErrUnsupportedExtension},
		{"unknown preset", func(e *Environment) { e.Presets = []string{"nope"} }, ErrUnknownPreset},
		{"unknown channel", func(e *Environment) { e.Toolchain.Channel = "ancient" }, ErrUnknownChannel},
		{"invalid system", func(e *Environment) { e.System = "x86_64-windows" }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := demoEnvironment()
			tt.mutate(e)
			_, err := m.Resolve(e)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.want)
			}
			var uerr *Error
			if !errors.As(err, &uerr) || uerr.Op != "resolve" {
				t.Errorf("error %v is not wrapped as a resolve error", err)
			}
		})
	}
}

func TestManagerBuild(t *testing.T) {
	t.Parallel()
	m, calls := newTestManager(t)

	desc, err := m.Resolve(demoEnvironment())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	workdir := t.TempDir()
	act, err := m.Build(context.Background(), desc, workdir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if act.Prefix != testPrefix {
		t.Errorf("prefix = %q, want %q", act.Prefix, testPrefix)
	}
	if len(*calls) != 2 {
		t.Errorf("nix invocations = %v, want nix-build then nix-shell", *calls)
	}
	if _, err := os.Stat(filepath.Join(workdir, nix.ShellFile)); err != nil {
		t.Errorf("shell.nix not written: %v", err)
	}

	rec, err := m.Store().Load("demo")
	if err != nil {
		t.Fatalf("saved record not found: %v", err)
	}
	if rec.Prefix != testPrefix {
		t.Errorf("saved prefix = %q", rec.Prefix)
	}

	script, err := m.ActivationScript("demo")
	if err != nil {
		t.Fatalf("ActivationScript() error = %v", err)
	}
	for _, want := range []string{"UENV_NAME=", "echo ready"} {
		if !strings.Contains(script, want) {
			t.Errorf("activation script missing %q:\n%s", want, script)
		}
	}
}

func TestManagerSaveAndRender(t *testing.T) {
	t.Parallel()
	m, calls := newTestManager(t)

	desc, err := m.Resolve(demoEnvironment())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Save(desc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("Save ran nix: %v", *calls)
	}

	shell, err := m.Render(desc)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(shell, "mkShell") || !strings.Contains(shell, "silver-searcher") {
		t.Errorf("unexpected shell.nix:\n%s", shell)
	}

	if _, err := m.ActivationScript("missing"); !errors.Is(err, ErrEnvNotFound) {
		t.Errorf("ActivationScript(missing) error = %v, want ErrEnvNotFound", err)
	}
}

func TestNewManagerWithoutIndex(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.CachePath = filepath.Join(t.TempDir(), "cache")
	cfg.StorePath = filepath.Join(t.TempDir(), "envs")

	m, err := NewManager(context.Background(), cfg, &Options{NoSync: true})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Index().Len() != 0 {
		t.Errorf("expected empty index, got %d entries", m.Index().Len())
	}
	if len(m.Catalog().Channels()) == 0 {
		t.Error("default channels missing")
	}
}
