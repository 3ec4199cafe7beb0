package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arc-language/uenv/pkg/env"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage saved environments",
}

var envSaveCmd = &cobra.Command{
	Use:   "save [file|dir]",
	Short: "Resolve an environment and save it without building",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, desc, err := resolveEnvironment(cmd, args)
		if err != nil {
			return err
		}
		if err := manager.Save(desc); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("saved "+desc.Name))
		return nil
	},
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved environments",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var envShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := store().Load(args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var envActivateCmd = &cobra.Command{
	Use:   "activate <name>",
	Short: "Mark a saved environment as active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store().Activate(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("active: "+args[0]))
		return nil
	},
}

var envDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Clear the active environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return store().Deactivate()
	},
}

var envRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved environment",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store().Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "removed "+args[0])
		return nil
	},
}

var (
	flagsLayout string
	flagsLibs   []string
)

var envFlagsCmd = &cobra.Command{
	Use:   "flags <name>",
	Short: "Print compiler flags and libraries of a built environment",
	Long: `Flags prints -I and -L flags for the built prefix of a saved environment
and the libraries found in it. Use --lib to look up specific libraries.

Example:
  uenv env flags demo --lib ssl --lib z`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvFlags,
}

var envScriptCmd = &cobra.Command{
	Use:   "script [name]",
	Short: "Print the activation script of a saved environment",
	Long: `Script prints a bash script exporting the environment's variables and
running its init steps. Without a name the active environment is used.

Example:
  eval "$(uenv env script demo)"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnvScript,
}

func init() {
	envCmd.AddCommand(envSaveCmd)
	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envShowCmd)
	envCmd.AddCommand(envActivateCmd)
	envCmd.AddCommand(envDeactivateCmd)
	envCmd.AddCommand(envRemoveCmd)
	envCmd.AddCommand(envScriptCmd)
	envCmd.AddCommand(envFlagsCmd)

	envFlagsCmd.Flags().StringVar(&flagsLayout, "layout", "nix", "prefix layout (nix or fhs)")
	envFlagsCmd.Flags().StringSliceVar(&flagsLibs, "lib", nil, "library to locate (repeatable)")
}

func store() *env.Store {
	return env.NewStore(cfg.StorePath)
}

func runEnvScript(cmd *cobra.Command, args []string) error {
	s := store()

	var rec *env.Record
	var err error
	if len(args) == 1 {
		rec, err = s.Load(args[0])
	} else {
		rec, err = s.Active()
	}
	if err != nil {
		return err
	}

	script, err := rec.ActivationScript()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), script)
	return nil
}

func runEnvFlags(cmd *cobra.Command, args []string) error {
	rec, err := store().Load(args[0])
	if err != nil {
		return err
	}
	if rec.Prefix == "" {
		return fmt.Errorf("environment %q has not been built, run 'uenv build' first", args[0])
	}
	if flagsLayout != "nix" && flagsLayout != "fhs" {
		return fmt.Errorf("unknown layout %q, want nix or fhs", flagsLayout)
	}

	prefix := &env.Prefix{Root: rec.Prefix, Layout: env.LayoutFor(flagsLayout)}
	flags := prefix.CompilerFlags()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, field("CFLAGS", strings.Join(flags.IncludeFlags, " ")))
	fmt.Fprintln(out, field("LDFLAGS", strings.Join(flags.LibraryFlags, " ")))
	fmt.Fprintln(out, field("Libraries", strings.Join(prefix.ListLibraryNames(), " ")))

	var missing []string
	for _, name := range flagsLibs {
		lib := prefix.FindLibrary(name)
		if lib == nil {
			missing = append(missing, name)
			continue
		}
		kind := "shared"
		if lib.IsStatic {
			kind = "static"
		}
		fmt.Fprintf(out, "  %s %s %s\n", titleStyle.Render(lib.Name), valueStyle.Render(lib.Path), hintStyle.Render(kind))
	}
	if len(missing) > 0 {
		return fmt.Errorf("libraries not found in %s: %s", rec.Prefix, strings.Join(missing, ", "))
	}
	return nil
}
