package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arc-language/uenv/pkg/source"
)

var (
	sourceOutput string
	sourceVerify string
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Inspect the filtered project source",
	Long: `The project source is the directory of the environment file minus the
paths excluded by its source_filter (.gitignore files and extra patterns).`,
}

var sourceFilesCmd = &cobra.Command{
	Use:   "files [file|dir]",
	Short: "List the files kept by the source filter",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnvironment(args)
		if err != nil {
			return err
		}
		f, err := source.NewFilter(e.SourceRoot(), e.SourceFilter)
		if err != nil {
			return err
		}
		files, err := f.Files()
		if err != nil {
			return err
		}
		for _, file := range files {
			fmt.Fprintln(cmd.OutOrStdout(), file)
		}
		return nil
	},
}

var sourceHashCmd = &cobra.Command{
	Use:   "hash [file|dir]",
	Short: "Print the nix sha256 of the filtered source",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnvironment(args)
		if err != nil {
			return err
		}
		if sourceVerify != "" {
			if err := source.VerifyHash(e.SourceRoot(), e.SourceFilter, sourceVerify); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ source matches "+sourceVerify))
			return nil
		}
		hash, err := source.Hash(e.SourceRoot(), e.SourceFilter)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var sourceExportCmd = &cobra.Command{
	Use:   "export [file|dir]",
	Short: "Write the filtered source as an xz-compressed NAR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnvironment(args)
		if err != nil {
			return err
		}
		if sourceOutput == "" {
			return source.Export(e.SourceRoot(), e.SourceFilter, cmd.OutOrStdout())
		}
		return source.ExportFile(e.SourceRoot(), e.SourceFilter, sourceOutput)
	},
}

var sourceExtractCmd = &cobra.Command{
	Use:   "extract <archive> <dir>",
	Short: "Unpack an exported source archive",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := source.Extract(f, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("extracted to "+args[1]))
		return nil
	},
}

func init() {
	sourceHashCmd.Flags().StringVar(&sourceVerify, "verify", "", "fail unless the source hashes to this value")
	sourceExportCmd.Flags().StringVarP(&sourceOutput, "output", "o", "", "output file (default stdout)")

	sourceCmd.AddCommand(sourceFilesCmd)
	sourceCmd.AddCommand(sourceHashCmd)
	sourceCmd.AddCommand(sourceExportCmd)
	sourceCmd.AddCommand(sourceExtractCmd)
}
