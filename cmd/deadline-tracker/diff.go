// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deadline-tracker/internal/reconcile"
	"github.com/pdiddy/deadline-tracker/internal/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Compare two deadline snapshots offline",
	Long: `Diff loads two deadlines.json snapshots and prints the added, removed,
and date-changed deadlines as JSON (or YAML with --yaml). No network access
and no files are written.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().Bool("yaml", false, "print the change set as YAML")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	old, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	cur, err := snapshot.Load(args[1])
	if err != nil {
		return err
	}

	cs := reconcile.Reconcile(old, cur)

	asYAML, _ := cmd.Flags().GetBool("yaml")
	var out []byte
	if asYAML {
		out, err = snapshot.MarshalChangesYAML(cs)
	} else {
		out, err = snapshot.MarshalChangesJSON(cs)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(out))
	return err
}
