// internal/cli/info.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show information about a package",
	Long:  `Display the base index entry for a package, with registry metadata when the index is a deps/ registry.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	m, err := getManager(cmd)
	if err != nil {
		return err
	}

	ref, err := m.GetInfo(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, field("Package", ref.Name))
	fmt.Fprintln(out, field("Attribute", ref.AttrPath()))
	if ref.Version != "" {
		fmt.Fprintln(out, field("Version", ref.Version))
	}
	if ref.StorePath != "" {
		fmt.Fprintln(out, field("Store path", ref.StorePath))
	}
	if ref.Description != "" {
		fmt.Fprintln(out, field("Description", ref.Description))
	}

	if entry, err := m.GetRegistryEntry(args[0]); err == nil {
		if entry.Homepage != "" {
			fmt.Fprintln(out, field("Homepage", entry.Homepage))
		}
		if entry.License != "" {
			fmt.Fprintln(out, field("License", entry.License))
		}
	}

	if overlays := m.Overlays(); overlays != nil {
		for _, name := range overlays.Names() {
			o, _ := overlays.Get(name)
			for _, entry := range o.Entries {
				if entry.Name == ref.Name {
					fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("overridden by overlay %q as %s", name, entry.AttrPath())))
				}
			}
		}
	}
	return nil
}
