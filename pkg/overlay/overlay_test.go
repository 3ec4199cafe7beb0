package overlay

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/arc-language/uenv/pkg/core"
	"github.com/arc-language/uenv/pkg/index"
)

func TestApplyLastWriteWins(t *testing.T) {
	t.Parallel()

	base := index.FromRefs(core.PackageRef{Name: "ag", Origin: core.OriginBase}, core.PackageRef{Name: "entr", Origin: core.OriginBase})
	a := &Overlay{Name: "A", Entries: []core.PackageRef{{Name: "fmt", Version: "1"}}}
	b := &Overlay{Name: "B", Entries: []core.PackageRef{{Name: "fmt", Version: "2"}, {Name: "ag", Attribute: "silver-searcher"}}}

	tests := []struct {
		name        string
		set         Set
		wantVersion string
		wantOrigin  string
	}{
		{name: "B after A", set: Set{a, b}, wantVersion: "2", wantOrigin: "B"},
		{name: "A after B", set: Set{b, a}, wantVersion: "1", wantOrigin: "A"},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			merged := Apply(base, testCase.set)
			ref, ok := merged.Get("fmt")
			if !ok {
				t.Fatal("fmt missing")
			}
			if ref.Version != testCase.wantVersion || ref.Origin != testCase.wantOrigin {
				t.Errorf("fmt = %+v, want version %s from %s", ref, testCase.wantVersion, testCase.wantOrigin)
			}
		})
	}
}

func TestApplyDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := index.FromRefs(core.PackageRef{Name: "ag"})
	merged := Apply(base, Set{{Name: "x", Entries: []core.PackageRef{{Name: "ag", Version: "2"}, {Name: "niv"}}}})

	if base.Has("niv") {
		t.Error("base gained niv")
	}
	if ref, _ := base.Get("ag"); ref.Version != "" {
		t.Errorf("base ag modified: %+v", ref)
	}
	if got := merged.Names(); !reflect.DeepEqual(got, []string{"ag", "niv"}) {
		t.Errorf("merged names = %v", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		overlay *Overlay
		wantErr string
	}{
		{name: "nil", overlay: nil, wantErr: "nil"},
		{name: "no name", overlay: &Overlay{}, wantErr: "name is required"},
		{name: "unnamed entry", overlay: &Overlay{Name: "o", Entries: []core.PackageRef{{}}}, wantErr: "has no name"},
		{name: "duplicate", overlay: &Overlay{Name: "o", Entries: []core.PackageRef{{Name: "a"}, {Name: "a"}}}, wantErr: "duplicate"},
		{name: "valid", overlay: &Overlay{Name: "o", Entries: []core.PackageRef{{Name: "a"}}}},
	}
	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			err := testCase.overlay.Validate()
			if testCase.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), testCase.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, testCase.wantErr)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(&Overlay{Name: "one"}, &Overlay{Name: "two"})
	if err != nil {
		t.Fatal(err)
	}

	set, err := reg.Lookup("two", "one")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{"two", "one"}) {
		t.Errorf("Lookup order = %v", got)
	}

	_, err = reg.Lookup("one", "three", "four")
	if !errors.Is(err, ErrUnknownOverlay) {
		t.Fatalf("Lookup() error = %v, want ErrUnknownOverlay", err)
	}
	if !strings.Contains(err.Error(), "three, four") {
		t.Errorf("error should list all missing overlays: %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]string{
		"mozilla.yaml": "import: ./mozilla.nix\nentries:\n  - name: niv\n",
		"named.yml":    "name: tools\nentries:\n  - name: entr\n    version: \"4.4\"\n",
		"notes.txt":    "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	reg, _ := NewRegistry()
	if err := reg.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"mozilla", "tools"}) {
		t.Errorf("Names() = %v", got)
	}
	o, _ := reg.Get("mozilla")
	if o.Import != "./mozilla.nix" {
		t.Errorf("Import = %q", o.Import)
	}

	if err := reg.LoadDir(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("LoadDir(missing) error = %v", err)
	}
}
