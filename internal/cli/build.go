// internal/cli/build.go
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arc-language/uenv/pkg/nix"
	"github.com/arc-language/uenv/pkg/platform"
)

var buildWorkdir string

var buildCmd = &cobra.Command{
	Use:   "build [file|dir]",
	Short: "Build an environment with nix and save it",
	Long: `Build resolves the environment, writes shell.nix and env.nix into the
work directory, builds the prefix with nix-build and checks that nix-shell
can enter it. The result is saved to the store.

Examples:
  uenv build
  uenv build ./project --workdir /tmp/uenv-build`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildWorkdir, "workdir", "", "directory for generated nix files (default <env dir>/.uenv)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	e, desc, err := resolveEnvironment(cmd, args)
	if err != nil {
		return err
	}

	if host := manager.Platform(); host != nil {
		if err := platform.RequireEngines(host); err != nil {
			return err
		}
	}

	workdir := buildWorkdir
	if workdir == "" {
		workdir = filepath.Join(e.Dir, nix.WorkDir)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Building %s (%d tools)...\n", titleStyle.Render(desc.Name), len(desc.Tools))

	act, err := manager.Build(cmd.Context(), desc, workdir)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, successStyle.Render("✓ built "+act.Name))
	fmt.Fprintln(out, field("Prefix", act.Prefix))
	fmt.Fprintln(out, field("Fingerprint", act.Fingerprint))
	fmt.Fprintln(out, field("Shell", act.ShellFile))
	fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("enter with: nix-shell %s, or eval \"$(uenv env script %s)\"", act.ShellFile, act.Name)))
	return nil
}

var cacheCmd = &cobra.Command{
	Use:   "cache [file|dir]",
	Short: "Check which pinned tools the binary cache can substitute",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCache,
}

func runCache(cmd *cobra.Command, args []string) error {
	_, desc, err := resolveEnvironment(cmd, args)
	if err != nil {
		return err
	}

	statuses, err := manager.CacheStatus(cmd.Context(), desc)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(statuses) == 0 {
		fmt.Fprintln(out, hintStyle.Render("no tools are pinned to a store path"))
		return nil
	}
	for _, s := range statuses {
		marker := warningStyle.Render("✗")
		if s.Substitutable {
			marker = successStyle.Render("✓")
		}
		fmt.Fprintf(out, "  %s %s %s\n", marker, s.Name, hintStyle.Render(s.StorePath))
	}
	return nil
}
