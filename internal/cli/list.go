// internal/cli/list.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved environments",
	Long:  `List every environment in the store. The active one is marked with *.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	s := store()
	records, err := s.List()
	if err != nil {
		return fmt.Errorf("listing environments: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, hintStyle.Render("no saved environments, run 'uenv build' or 'uenv resolve --save'"))
		return nil
	}

	active := ""
	if rec, err := s.Active(); err == nil {
		active = rec.Descriptor.Name
	}

	for _, rec := range records {
		marker := " "
		if rec.Descriptor.Name == active {
			marker = "*"
		}
		state := hintStyle.Render("not built")
		if rec.Prefix != "" {
			state = successStyle.Render("built")
		}
		fmt.Fprintf(out, "  %s %-20s %3d tools  %s  %s\n", marker, titleStyle.Render(rec.Descriptor.Name),
			len(rec.Descriptor.Tools), state, hintStyle.Render(rec.SavedAt))
	}

	if active != "" {
		fmt.Fprintf(out, "\n* = active environment\n")
	}
	return nil
}
