package main

import (
	"fmt"

	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts and enrichment coverage per venue and year",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

// StatsResult is the response for the stats command.
type StatsResult struct {
	Total    int                       `json:"total"`
	Searched int                       `json:"searched"`
	WithCode int                       `json:"with_code"`
	Editions []storage.SourceYearCount `json:"editions"`
}

func runStats(cmd *cobra.Command, args []string) error {
	ws := mustResolveWorkspace()
	db := mustOpenExistingIndex(ws)
	defer db.Close()

	total, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting records: %v", err)
	}
	editions, err := db.CountBySourceYear()
	if err != nil {
		exitWithError(ExitError, "counting editions: %v", err)
	}
	if editions == nil {
		editions = []storage.SourceYearCount{}
	}

	result := StatsResult{Total: total, Editions: editions}
	for _, e := range editions {
		result.Searched += e.Searched
		result.WithCode += e.WithCodeLink
	}

	if !humanOutput {
		outputJSON(result)
		return nil
	}

	fmt.Printf("%-10s %6s %8s %8s %8s %8s %8s\n", "SOURCE", "YEAR", "PAPERS", "AUTHORS", "PDF", "SEARCHED", "CODE")
	for _, e := range editions {
		year := "-"
		if e.Year > 0 {
			year = fmt.Sprint(e.Year)
		}
		fmt.Printf("%-10s %6s %8d %8d %8d %8d %8d\n", e.Source, year, e.Papers, e.WithAuthors, e.WithPDF, e.Searched, e.WithCodeLink)
	}
	fmt.Printf("\n%d records, %d searched, %d with code\n", result.Total, result.Searched, result.WithCode)
	return nil
}
