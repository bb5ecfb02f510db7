package main

import (
	"fmt"

	"github.com/renyezhang/toppaper/internal/consolidate"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Fold partial collections into the canonical store",
	Long: `Merge every partial collection into papers.jsonl.

The canonical store is read first, then partials in name order. Records
with the same normalized title are collapsed: the first one wins and later
duplicates only fill fields it lacks. The result is sorted by year, newest
first, and written atomically. Partials are deleted only after the new
store has been written.`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

// MergeResult is the response for the merge command.
type MergeResult struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	*consolidate.Report
}

func runMerge(cmd *cobra.Command, args []string) error {
	ws := mustResolveWorkspace()

	report, err := consolidate.Run(ws, logger)
	if err != nil {
		exitWithError(ExitDataError, "merging: %v", err)
	}

	status := "merged"
	if len(report.Partials) == 0 {
		status = "nothing to merge"
	}

	if humanOutput {
		if len(report.Partials) == 0 {
			fmt.Printf("No partial collections to merge; store has %d records\n", report.Output)
			return nil
		}
		fmt.Printf("Merged %d partials into %s\n", len(report.Partials), ws.StorePath())
		fmt.Printf("  canonical before: %d\n", report.Canonical)
		fmt.Printf("  records read:     %d\n", report.Inputs)
		fmt.Printf("  duplicates:       %d\n", report.Duplicates)
		if report.Untitled > 0 {
			fmt.Printf("  untitled dropped: %d\n", report.Untitled)
		}
		fmt.Printf("  records written:  %d\n", report.Output)
		if report.Removed < len(report.Partials) {
			fmt.Printf("  partials left:    %d (could not be removed)\n", len(report.Partials)-report.Removed)
		}
	} else {
		outputJSON(MergeResult{Status: status, Store: ws.StorePath(), Report: report})
	}

	return nil
}
