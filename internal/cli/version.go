// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags)
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags)
	Commit = "unknown"
)

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "uenv version "+versionString())
		fmt.Fprintln(cmd.OutOrStdout(), "Reproducible developer environments on nix")
		fmt.Fprintln(cmd.OutOrStdout(), "https://github.com/arc-language/uenv")
	},
}
