package nix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type call struct {
	dir    string
	binary string
	args   []string
}

func TestBuild(t *testing.T) {
	t.Parallel()

	var calls []call
	run := func(ctx context.Context, dir, binary string, args ...string) (string, error) {
		calls = append(calls, call{dir, binary, args})
		if binary == "nix-build" {
			return "these paths will be fetched\n" + helloPath + "\n", nil
		}
		return "", nil
	}

	workdir := filepath.Join(t.TempDir(), "work")
	b := NewBuilder(BuilderConfig{Run: run})
	act, err := b.Build(context.Background(), testDescriptor(t), workdir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if act.Prefix != helloPath {
		t.Errorf("Prefix = %q, want %q", act.Prefix, helloPath)
	}
	for _, f := range []string{act.ShellFile, act.EnvFile} {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected %s to be written: %v", f, err)
		}
	}

	if len(calls) != 2 {
		t.Fatalf("calls = %+v, want nix-build then nix-shell", calls)
	}
	if calls[0].binary != "nix-build" || calls[0].dir != workdir || calls[0].args[0] != EnvFile {
		t.Errorf("first call = %+v", calls[0])
	}
	if calls[1].binary != "nix-shell" || strings.Join(calls[1].args, " ") != "shell.nix --run true" {
		t.Errorf("second call = %+v", calls[1])
	}
}

func TestBuildFailure(t *testing.T) {
	t.Parallel()

	buildErr := &BuildError{Command: "nix-build env.nix", Stderr: "error: attribute 'nope' missing", Err: errors.New("exit status 1")}
	run := func(ctx context.Context, dir, binary string, args ...string) (string, error) {
		return "", buildErr
	}

	b := NewBuilder(BuilderConfig{Run: run})
	_, err := b.Build(context.Background(), testDescriptor(t), t.TempDir())

	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("Build() error = %v, want BuildError", err)
	}
	if !strings.Contains(err.Error(), "attribute 'nope' missing") {
		t.Errorf("error = %q, want stderr text", err)
	}
}

func TestBuildUnexpectedOutput(t *testing.T) {
	t.Parallel()

	run := func(ctx context.Context, dir, binary string, args ...string) (string, error) {
		return "not a store path\n", nil
	}
	b := NewBuilder(BuilderConfig{Run: run, SkipShellCheck: true})
	if _, err := b.Build(context.Background(), testDescriptor(t), t.TempDir()); err == nil {
		t.Fatal("Build() = nil error for garbage nix-build output")
	}
}

func TestBuildRejectsStaleDescriptor(t *testing.T) {
	t.Parallel()

	d := testDescriptor(t)
	d.InitSteps = nil
	b := NewBuilder(BuilderConfig{Run: func(context.Context, string, string, ...string) (string, error) {
		t.Fatal("nix invoked for a stale descriptor")
		return "", nil
	}})
	if _, err := b.Build(context.Background(), d, t.TempDir()); err == nil {
		t.Fatal("Build() = nil error")
	}
}

func TestFindBinaryMissing(t *testing.T) {
	t.Parallel()

	_, err := FindBinary("nix-definitely-does-not-exist-abcxyz")
	if err == nil || !strings.Contains(err.Error(), "not found on PATH") {
		t.Fatalf("FindBinary() error = %v", err)
	}
}
