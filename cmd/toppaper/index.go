package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite query index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index from papers.jsonl",
	Long: `Rebuild the SQLite query index from the canonical store.

The index is derived state under .toppaper/ and can be deleted at any time.
Run this after merge, delete or enrich to refresh search and stats.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

// RebuildResult is the response for the index rebuild command.
type RebuildResult struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	ws := mustResolveWorkspace()
	db := mustOpenIndex(ws)
	defer db.Close()

	n, err := db.RebuildFromJSONL(ws.StorePath())
	if err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt index with %d records\n", n)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Path: ws.IndexPath(), Records: n})
	}
	return nil
}
