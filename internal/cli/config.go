package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/uenv/pkg/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the uenv configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.NoArgs,
	// the file does not exist yet, so the root config loading is skipped
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := config.Save(config.DefaultConfig(), path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("wrote "+path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
