package main

import (
	"fmt"
	"strings"

	"github.com/renyezhang/toppaper/internal/record"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <title>",
	Short: "Show a single record by title",
	Long: `Show the record whose title matches, ignoring case and punctuation.

Example:
  toppaper show "masked autoencoders are scalable vision learners"`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ws := mustResolveWorkspace()
	db := mustOpenExistingIndex(ws)
	defer db.Close()

	title := args[0]
	rec, err := db.FindByTitle(title)
	if err != nil {
		exitWithError(ExitError, "finding record: %v", err)
	}
	if rec == nil {
		exitWithError(ExitError, "record not found: %s", title)
	}

	if humanOutput {
		printRecordDetail(*rec)
	} else {
		outputJSON(rec)
	}
	return nil
}

func printRecordDetail(rec record.Record) {
	fmt.Println(rec.Title)
	fmt.Println(strings.Repeat("=", min(len([]rune(rec.Title)), SearchTitleMaxLen)))
	fmt.Println()

	if len(rec.Authors) > 0 {
		fmt.Printf("Authors:  %s\n", strings.Join(rec.Authors, ", "))
	}
	year := "unknown"
	if rec.Year > 0 {
		year = fmt.Sprint(int(rec.Year))
	}
	fmt.Printf("Venue:    %s %s\n", rec.Source, year)
	if rec.PDFLink != "" {
		fmt.Printf("PDF:      %s\n", rec.PDFLink)
	}

	switch {
	case !rec.HasCode():
		fmt.Println("Code:     (not searched)")
	case rec.CodeURL() == "":
		fmt.Println("Code:     (none found)")
	default:
		fmt.Printf("Code:     %s\n", rec.CodeURL())
	}
}
