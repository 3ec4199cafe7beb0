// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/arc-language/uenv"
	"github.com/arc-language/uenv/pkg/config"
)

var (
	cfgFile string
	debug   bool
	noSync  bool

	cfg     *config.Config
	manager *uenv.Manager
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "uenv",
	Short: "Reproducible developer environments on nix",
	Long: titleStyle.Render("uenv") + subtitleStyle.Render(" - reproducible developer environments") + `

uenv resolves a declared environment (a base package index, named
overlays, a toolchain channel and the tools you want) into a
fingerprinted descriptor, renders it as nix expressions and builds it.

` + subtitleStyle.Render("Examples:") + `
  uenv resolve              Resolve ./uenv.yaml and print the descriptor
  uenv render -o .uenv      Write shell.nix and env.nix
  uenv build                Build the environment and save it
  eval "$(uenv env script demo)"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command with fang styling
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/uenv/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noSync, "no-sync", false, "do not clone the index when the cache is empty")

	// Add commands
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override config with flags
	if debug {
		cfg.Debug = true
	}
	manager = nil
	return nil
}

// getManager creates the manager on first use so commands that only touch
// the store or the filesystem do not load the index
func getManager(cmd *cobra.Command) (*uenv.Manager, error) {
	if manager != nil {
		return manager, nil
	}

	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "uenv"})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	m, err := uenv.NewManager(cmd.Context(), cfg, &uenv.Options{Logger: logger, NoSync: noSync})
	if err != nil {
		return nil, err
	}
	manager = m
	return m, nil
}

// loadEnvironment reads the environment file at path, or finds one in the
// working directory when path is empty
func loadEnvironment(args []string) (*uenv.Environment, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		path = wd
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		found, err := config.FindEnvironment(path)
		if err != nil {
			return nil, err
		}
		path = found
	}
	return uenv.LoadEnvironment(path)
}

// resolveEnvironment loads and resolves the environment named by args
func resolveEnvironment(cmd *cobra.Command, args []string) (*uenv.Environment, *uenv.Descriptor, error) {
	e, err := loadEnvironment(args)
	if err != nil {
		return nil, nil, err
	}
	m, err := getManager(cmd)
	if err != nil {
		return nil, nil, err
	}
	desc, err := m.Resolve(e)
	if err != nil {
		return nil, nil, err
	}
	return e, desc, nil
}
