package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/renyezhang/toppaper/internal/consolidate"
	"github.com/spf13/cobra"
)

var deleteYes bool

func init() {
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <source> [year]",
	Short: "Delete all records of a venue, optionally of one year",
	Long: `Delete records from the canonical store by venue code and optional year.

The number of matching records is shown and the deletion must be confirmed
with "y" or "yes" unless --yes is given. Nothing is written when there are
no matches or the confirmation is declined.

Examples:
  toppaper delete CVPR 2020
  toppaper delete COLM --yes`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDelete,
}

// DeleteResult is the response for the delete command.
type DeleteResult struct {
	Status string `json:"status"`
	*consolidate.DeleteReport
}

func runDelete(cmd *cobra.Command, args []string) error {
	var yearArg string
	if len(args) == 2 {
		yearArg = args[1]
	}
	year, err := consolidate.ParseYearArg(yearArg)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ws := mustResolveWorkspace()

	var confirm consolidate.Confirmer = consolidate.AlwaysConfirm
	if !deleteYes {
		confirm = consolidate.Prompt(os.Stdin, os.Stderr)
	}

	report, err := consolidate.Delete(ws.StorePath(), args[0], year, confirm)
	switch {
	case errors.Is(err, consolidate.ErrDeclined):
		if humanOutput {
			fmt.Println("Aborted; nothing deleted")
		} else {
			outputJSON(DeleteResult{Status: "declined", DeleteReport: report})
		}
		os.Exit(ExitAborted)
	case err != nil:
		exitWithError(ExitDataError, "deleting: %v", err)
	}

	status := "deleted"
	if report.Matched == 0 {
		status = "no matches"
	}

	if humanOutput {
		if report.Matched == 0 {
			fmt.Println("No matching records; nothing deleted")
		} else {
			fmt.Printf("Deleted %d records; %d remain\n", report.Removed, report.Remaining)
		}
	} else {
		outputJSON(DeleteResult{Status: status, DeleteReport: report})
	}

	return nil
}
