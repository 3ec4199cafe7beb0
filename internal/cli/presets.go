package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:     "presets",
	Aliases: []string{"channels"},
	Short:   "List toolchain channels and presets",
	RunE:    runPresets,
}

func runPresets(cmd *cobra.Command, args []string) error {
	m, err := getManager(cmd)
	if err != nil {
		return err
	}
	catalog := m.Catalog()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, subtitleStyle.Render("Channels:"))
	for _, ch := range catalog.Channels() {
		fmt.Fprintf(out, "  %s %s\n", titleStyle.Render(ch.Name), hintStyle.Render(ch.Description))
		fmt.Fprintf(out, "    %s\n", field("tool", ch.Tool))
		fmt.Fprintf(out, "    %s\n", field("default version", ch.DefaultVersion))
		if len(ch.Extensions) > 0 {
			fmt.Fprintf(out, "    %s\n", field("extensions", strings.Join(ch.Extensions, ", ")))
		}
	}

	presets := catalog.Presets()
	if len(presets) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, subtitleStyle.Render("Presets:"))
	for _, p := range presets {
		spec := p.Spec.Channel
		if p.Spec.Version != "" {
			spec += "@" + p.Spec.Version
		}
		if len(p.Spec.Extensions) > 0 {
			spec += " +" + strings.Join(p.Spec.Extensions, " +")
		}
		fmt.Fprintf(out, "  %s %s %s\n", titleStyle.Render(p.Name), valueStyle.Render(spec), hintStyle.Render(p.Description))
	}
	return nil
}
