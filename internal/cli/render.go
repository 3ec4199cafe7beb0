package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arc-language/uenv/pkg/nix"
)

var (
	renderEnv    bool
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render [file|dir]",
	Short: "Render an environment as nix expressions",
	Long: `Render prints the shell.nix expression for an environment, or env.nix
with --env. With --output both files are written to the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderEnv, "env", false, "print env.nix (buildEnv) instead of shell.nix")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write shell.nix and env.nix into this directory")
}

func runRender(cmd *cobra.Command, args []string) error {
	_, desc, err := resolveEnvironment(cmd, args)
	if err != nil {
		return err
	}

	shell, err := nix.RenderShell(desc)
	if err != nil {
		return err
	}
	envExpr, err := nix.RenderEnv(desc)
	if err != nil {
		return err
	}

	if renderOutput == "" {
		if renderEnv {
			fmt.Fprint(cmd.OutOrStdout(), envExpr)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), shell)
		}
		return nil
	}

	if err := os.MkdirAll(renderOutput, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	files := map[string]string{nix.ShellFile: shell, nix.EnvFile: envExpr}
	for name, content := range files {
		path := filepath.Join(renderOutput, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render("wrote "+path))
	}
	return nil
}
