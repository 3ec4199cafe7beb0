package source

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/arc-language/uenv/pkg/env"
)

// writeTree creates files under root; a trailing newline is not added
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func projectTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":         "target/\n*.log\n!keep.log\n# comment\n",
		"README.md":          "# project\n",
		"build.log":          "noise",
		"keep.log":           "kept",
		"docs/guide.md":      "guide",
		"src/main.rs":        "fn main() {}\n",
		"src/sub/.gitignore": "secret.txt\n",
		"src/sub/secret.txt": "hunter2",
		"src/sub/lib.rs":     "pub fn f() {}\n",
		"target/debug/app":   "binary",
		".git/HEAD":          "ref: refs/heads/main\n",
	})
	return root
}

var projectRule = &env.SourceFilter{Gitignore: true, Exclude: []string{"docs/"}}

func TestFilterFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule *env.SourceFilter
		want []string
	}{
		{
			name: "gitignore and excludes",
			rule: projectRule,
			want: []string{".gitignore", "README.md", "keep.log", "src/main.rs", "src/sub/.gitignore", "src/sub/lib.rs"},
		},
		{
			name: "no rule drops only .git",
			rule: nil,
			want: []string{".gitignore", "README.md", "build.log", "docs/guide.md", "keep.log", "src/main.rs",
				"src/sub/.gitignore", "src/sub/lib.rs", "src/sub/secret.txt", "target/debug/app"},
		},
		{
			name: "excludes without gitignore",
			rule: &env.SourceFilter{Exclude: []string{"*.rs", "target"}},
			want: []string{".gitignore", "README.md", "build.log", "docs/guide.md", "keep.log",
				"src/sub/.gitignore", "src/sub/secret.txt"},
		},
	}

	root := projectTree(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := NewFilter(root, tt.rule)
			if err != nil {
				t.Fatal(err)
			}
			got, err := f.Files()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Files() = %v\nwant %v", got, tt.want)
			}
		})
	}
}

func TestNewFilterErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "file")
	writeTree(t, root, map[string]string{"file": "x"})

	if _, err := NewFilter(filepath.Join(root, "missing"), nil); err == nil {
		t.Error("NewFilter(missing) = nil error")
	}
	if _, err := NewFilter(file, nil); err == nil {
		t.Error("NewFilter(file) = nil error")
	}
}

func TestHashIgnoresFilteredFiles(t *testing.T) {
	t.Parallel()

	root := projectTree(t)
	before, err := Hash(root, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(before, "sha256:") {
		t.Fatalf("Hash() = %q, want sha256: prefix", before)
	}

	writeTree(t, root, map[string]string{
		"build.log":          "different noise",
		"target/debug/app":   "rebuilt",
		"src/sub/secret.txt": "changed",
		"docs/new.md":        "new doc",
		".git/ORIG_HEAD":     "abc",
	})
	after, err := Hash(root, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("hash changed after editing ignored files: %s -> %s", before, after)
	}
	if err := VerifyHash(root, projectRule, before); err != nil {
		t.Errorf("VerifyHash() error = %v", err)
	}

	writeTree(t, root, map[string]string{"src/main.rs": "fn main() { println!(\"hi\"); }\n"})
	changed, err := Hash(root, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	if changed == before {
		t.Error("hash did not change after editing an included file")
	}
	if err := VerifyHash(root, projectRule, before); err == nil {
		t.Error("VerifyHash() = nil error for a stale hash")
	}
}

func TestExportExtract(t *testing.T) {
	t.Parallel()

	root := projectTree(t)
	if err := os.Chmod(filepath.Join(root, "src", "main.rs"), 0755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Export(root, projectRule, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "out")
	if err := Extract(&buf, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "src", "sub", "lib.rs"))
	if err != nil || string(data) != "pub fn f() {}\n" {
		t.Errorf("extracted lib.rs = %q, %v", data, err)
	}
	for _, gone := range []string{"build.log", "target", "docs", ".git", "src/sub/secret.txt"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(gone))); !os.IsNotExist(err) {
			t.Errorf("%s was exported", gone)
		}
	}
	info, err := os.Stat(filepath.Join(dest, "src", "main.rs"))
	if err != nil || info.Mode()&0o111 == 0 {
		t.Errorf("main.rs lost its executable bit: %v, %v", info, err)
	}

	want, err := Hash(root, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Hash(dest, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("extracted tree hashes to %s, want %s", got, want)
	}
}

func TestFilterSkipsBuildDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.rs":         "fn main() {}\n",
		"uenv.yaml":       "included_tools: []\n",
		".uenv/shell.nix": "{ }",
		".uenv/env.nix":   "{ }",
	})
	if err := os.Symlink("/nix/store/s66mzxpvicwk07gjbjfw9izjfa797vsw-uenv-demo", filepath.Join(root, ".uenv", ".uenv-result")); err != nil {
		t.Fatal(err)
	}

	f, err := NewFilter(root, &env.SourceFilter{Gitignore: true})
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.Files()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"main.rs", "uenv.yaml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files() = %v\nwant %v", got, want)
	}

	before, err := Hash(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	writeTree(t, root, map[string]string{".uenv/shell.nix": "{ pkgs ? import <nixpkgs> {} }: pkgs.mkShell {}"})
	if err := VerifyHash(root, nil, before); err != nil {
		t.Errorf("rebuilding changed the source hash: %v", err)
	}
}

func TestVerifyHashRejectsMalformed(t *testing.T) {
	t.Parallel()

	root := projectTree(t)
	for _, want := range []string{"sha256:eeee", "sha256:0z", "not a hash"} {
		err := VerifyHash(root, projectRule, want)
		if err == nil || !strings.Contains(err.Error(), "expected hash") {
			t.Errorf("VerifyHash(%q) error = %v, want malformed hash error", want, err)
		}
	}
}

func TestExportFileInsideRoot(t *testing.T) {
	t.Parallel()

	root := projectTree(t)
	archive := filepath.Join(root, "src.nar.xz")
	if err := ExportFile(root, projectRule, archive); err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if _, err := os.Stat(archive + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	f, err := os.Open(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dest := filepath.Join(t.TempDir(), "out")
	if err := Extract(f, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "src.nar.xz")); !os.IsNotExist(err) {
		t.Error("archive contains itself")
	}
	if _, err := os.Stat(filepath.Join(dest, "src", "main.rs")); err != nil {
		t.Errorf("main.rs missing from archive: %v", err)
	}

	// the archive is not part of the source either way
	want, err := Hash(dest, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	withoutArchive := projectTree(t)
	got, err := Hash(withoutArchive, projectRule)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("exported tree hashes to %s, want %s", want, got)
	}
}
