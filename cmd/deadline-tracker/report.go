// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/deadline-tracker/internal/search"
	"github.com/pdiddy/deadline-tracker/internal/snapshot"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render the saved snapshot without contacting Canvas",
	Long: `Report reads deadlines.json (and changes.json when present) from the
output directory and prints the Markdown report. Use --display for styled
terminal output and --search to narrow the listing.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().String("snapshot", "", "snapshot file (default: <output dir>/deadlines.json)")
	reportCmd.Flags().String("changes", "", "change record (default: <output dir>/changes.json)")
	reportCmd.Flags().String("output-dir", "", "directory holding the saved artefacts")
	reportCmd.Flags().Bool("display", false, "render for the terminal")
	reportCmd.Flags().String("search", "", "only show deadlines matching these keywords (comma-separated)")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	var out types.OutputConfig
	if err := viper.UnmarshalKey("output", &out); err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		out.Dir = dir
	}
	paths := snapshot.PathsFor(out)
	if p, _ := cmd.Flags().GetString("snapshot"); p != "" {
		paths.Snapshot = p
	}
	if p, _ := cmd.Flags().GetString("changes"); p != "" {
		paths.Changes = p
	}

	records, err := snapshot.Load(paths.Snapshot)
	if err != nil {
		return err
	}
	changes, err := snapshot.LoadChanges(paths.Changes)
	if err != nil {
		return err
	}

	display, _ := cmd.Flags().GetBool("display")
	keywords, _ := cmd.Flags().GetString("search")
	return show(cmd.OutOrStdout(), records, changes, search.ParseQuery(keywords), display)
}
