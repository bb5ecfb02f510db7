package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/renyezhang/toppaper/internal/consolidate"
	"github.com/renyezhang/toppaper/internal/export"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportSource   string
	exportYear     string
	exportOutput   string
	exportWithCode bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportSource, "source", "s", "", "Only export this venue")
	exportCmd.Flags().StringVar(&exportYear, "year", "", "Only export this year")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportWithCode, "with-code", false, "Only export records with a code link")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records as BibTeX",
	Long: `Export records from the canonical store as BibTeX inproceedings entries.

Examples:
  toppaper export --source ICLR --year 2024 -o iclr2024.bib
  toppaper export --with-code`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// ExportResult is the response for the export command when writing to a file.
type ExportResult struct {
	Status  string `json:"status"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

func runExport(cmd *cobra.Command, args []string) error {
	year, err := consolidate.ParseYearArg(exportYear)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	ws := mustResolveWorkspace()
	catalog := mustLoadCatalog(ws)

	recs, err := storage.ReadAll(ws.StorePath())
	if err != nil {
		exitWithError(ExitDataError, "reading store: %v", err)
	}

	var selected []record.Record
	for _, rec := range recs {
		if exportSource != "" && !strings.EqualFold(rec.Source, exportSource) {
			continue
		}
		if year != nil && int(rec.Year) != *year {
			continue
		}
		if exportWithCode && rec.CodeURL() == "" {
			continue
		}
		selected = append(selected, rec)
	}

	names := export.VenueNames{}
	for _, v := range catalog.Venues() {
		names[strings.ToUpper(v.Code)] = v.Name
	}
	bib := export.ToBibTeXList(selected, names)

	if exportOutput == "" {
		fmt.Print(bib)
		return nil
	}

	if err := os.WriteFile(exportOutput, []byte(bib), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", exportOutput, err)
	}
	if humanOutput {
		fmt.Printf("Exported %d records to %s\n", len(selected), exportOutput)
	} else {
		outputJSON(ExportResult{Status: "exported", Path: exportOutput, Records: len(selected)})
	}
	return nil
}
