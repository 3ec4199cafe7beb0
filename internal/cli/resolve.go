package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var resolveSave bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [file|dir]",
	Short: "Resolve an environment file into a descriptor",
	Long: `Resolve folds the selected overlays over the base index, instantiates
the toolchain and keeps exactly the included tools. The fingerprinted
descriptor is printed as YAML.

Examples:
  uenv resolve
  uenv resolve ./project/uenv.cue --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveSave, "save", false, "save the descriptor to the store")
}

func runResolve(cmd *cobra.Command, args []string) error {
	_, desc, err := resolveEnvironment(cmd, args)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))

	if resolveSave {
		if err := manager.Save(desc); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), successStyle.Render("saved "+desc.Name))
	}
	return nil
}
