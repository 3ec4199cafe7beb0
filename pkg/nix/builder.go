package nix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/arc-language/uenv/pkg/env"
)

// BuildError reports a failed nix invocation
type BuildError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Command, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// RunFunc executes a binary in dir and returns its stdout
type RunFunc func(ctx context.Context, dir, binary string, args ...string) (string, error)

// BuilderConfig configures the builder
type BuilderConfig struct {
	// Run executes nix binaries (default: resolve with FindBinary and exec)
	Run RunFunc

	// SkipShellCheck skips evaluating shell.nix after the prefix is built
	SkipShellCheck bool

	// Logger for debug output (optional)
	Logger *log.Logger
}

// Activation is the result of building an environment
type Activation struct {
	Name        string
	Fingerprint string
	ShellFile   string // shell.nix for nix-shell
	EnvFile     string // env.nix for nix-build
	Prefix      string // store path of the built prefix
}

// Builder hands descriptors to nix
type Builder struct {
	run            RunFunc
	skipShellCheck bool
	logger         *log.Logger
}

// NewBuilder creates a builder
func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.Run == nil {
		cfg.Run = execRun
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Builder{run: cfg.Run, skipShellCheck: cfg.SkipShellCheck, logger: cfg.Logger}
}

// Build writes shell.nix and env.nix into workdir, builds the prefix with
// nix-build and checks that nix-shell can enter the environment.
func (b *Builder) Build(ctx context.Context, desc *env.Descriptor, workdir string) (*Activation, error) {
	if err := desc.Verify(); err != nil {
		return nil, err
	}

	shell, err := RenderShell(desc)
	if err != nil {
		return nil, err
	}
	envExpr, err := RenderEnv(desc)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(workdir, 0755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	act := &Activation{
		Name:        desc.Name,
		Fingerprint: desc.Fingerprint,
		ShellFile:   filepath.Join(workdir, ShellFile),
		EnvFile:     filepath.Join(workdir, EnvFile),
	}
	if err := os.WriteFile(act.ShellFile, []byte(shell), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", ShellFile, err)
	}
	if err := os.WriteFile(act.EnvFile, []byte(envExpr), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", EnvFile, err)
	}

	b.logger.Debug("building environment", "name", desc.Name, "workdir", workdir)
	out, err := b.run(ctx, workdir, "nix-build", EnvFile, "--out-link", resultLink, "--no-build-output")
	if err != nil {
		return nil, err
	}
	prefix := lastLine(out)
	if _, err := StoreDirectory(prefix); err != nil {
		return nil, fmt.Errorf("nix-build returned unexpected output: %w", err)
	}
	act.Prefix = prefix
	b.logger.Debug("prefix built", "prefix", prefix)

	if !b.skipShellCheck {
		if _, err := b.run(ctx, workdir, "nix-shell", ShellFile, "--run", "true"); err != nil {
			return nil, err
		}
	}

	return act, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// FindBinary resolves a nix binary, checking PATH first and then the
// default profile directory
func FindBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	profilePath := filepath.Join(determinateProfileBin, name)
	if _, err := os.Stat(profilePath); err == nil {
		return profilePath, nil
	}

	return "", fmt.Errorf("%s not found on PATH or at %s: install nix first", name, profilePath)
}

// execRun runs binary with stderr captured into a BuildError
func execRun(ctx context.Context, dir, binary string, args ...string) (string, error) {
	path, err := FindBinary(binary)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &BuildError{
			Command: binary + " " + strings.Join(args, " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.String(), nil
}
