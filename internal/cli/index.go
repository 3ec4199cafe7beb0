package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the package index cache",
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update the index cache from the index repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noSync = true // sync explicitly below, not on manager creation
		m, err := getManager(cmd)
		if err != nil {
			return err
		}
		if err := m.SyncIndex(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ index synced: %d packages, %d overlays",
			m.Index().Len(), len(m.Overlays().Names()))))
		return nil
	},
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages and overlays in the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := getManager(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ref := range m.Index().Entries() {
			fmt.Fprintf(out, "  %-24s %s\n", ref.Name, hintStyle.Render(ref.Version))
		}
		if names := m.Overlays().Names(); len(names) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, field("Overlays", fmt.Sprint(names)))
		}
		return nil
	},
}

func init() {
	indexCmd.AddCommand(indexSyncCmd)
	indexCmd.AddCommand(indexListCmd)
}
