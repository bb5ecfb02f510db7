package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/renyezhang/toppaper/internal/logging"
	"github.com/renyezhang/toppaper/internal/openreview"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/source"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/spf13/cobra"
)

var (
	scrapeYear          int
	scrapeURL           string
	scrapeDropTrailing  int
	scrapeEntryDelay    time.Duration
	scrapeGroupingDelay time.Duration
	scrapeLookupTimeout time.Duration
	scrapeFetch         fetchFlags
)

func init() {
	scrapeCmd.Flags().IntVarP(&scrapeYear, "year", "y", 0, "Edition year (required)")
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "Override the listing URL from the venue catalog")
	scrapeCmd.Flags().IntVar(&scrapeDropTrailing, "drop-trailing", -1, "Number of trailing groupings to ignore (-1 keeps the catalog value)")
	scrapeCmd.Flags().DurationVar(&scrapeEntryDelay, "entry-delay", source.DefaultEntryDelay, "Pause between entries")
	scrapeCmd.Flags().DurationVar(&scrapeGroupingDelay, "grouping-delay", source.DefaultGroupingDelay, "Pause between groupings")
	scrapeCmd.Flags().DurationVar(&scrapeLookupTimeout, "lookup-timeout", openreview.DefaultLookupTimeout, "Time limit for one OpenReview query, after which it counts as empty")
	scrapeFetch.register(scrapeCmd)
	scrapeCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <venue>",
	Short: "Harvest one venue edition into a partial collection",
	Long: `Harvest the paper listing of one venue edition.

Records are written to partials/<VENUE><YEAR>papers.jsonl after every
grouping (track, issue or conference day), so an interrupted run keeps
what it already collected. Run 'toppaper merge' to fold partials into
the canonical store.

Examples:
  toppaper scrape CVPR --year 2023
  toppaper scrape AAAI --year 2024 --drop-trailing 2
  toppaper scrape COLT --year 2026 --url https://proceedings.mlr.press/v300/`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

// ScrapeResult is the response for the scrape command.
type ScrapeResult struct {
	Status   string       `json:"status"`
	Source   string       `json:"source"`
	Year     int          `json:"year"`
	Partial  string       `json:"partial,omitempty"`
	Records  int          `json:"records"`
	Stats    source.Stats `json:"stats"`
	Duration string       `json:"duration"`
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if scrapeYear <= 0 {
		exitWithError(ExitError, "--year must be a positive year")
	}

	ws := mustResolveWorkspace()
	catalog := mustLoadCatalog(ws)
	fetcher := scrapeFetch.client()
	log := logging.WithVenue(logger, args[0], scrapeYear)

	opts := source.DefaultOptions()
	opts.URL = scrapeURL
	opts.DropTrailing = scrapeDropTrailing
	opts.Fetcher = fetcher
	opts.OpenReview = openreview.NewClient(fetcher, openreview.WithLookupTimeout(scrapeLookupTimeout))
	opts.Logger = log

	adapter, err := source.New(catalog, args[0], scrapeYear, opts)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	partial := ws.PartialPath(storage.PartialName(adapter.Source(), scrapeYear))
	written := false

	runner := source.NewRunner(log)
	runner.EntryDelay = scrapeEntryDelay
	runner.GroupingDelay = scrapeGroupingDelay
	runner.Sink = func(recs []record.Record) error {
		if err := storage.WriteAll(partial, recs); err != nil {
			return fmt.Errorf("writing partial: %w", err)
		}
		written = true
		return nil
	}

	start := time.Now()
	harvest, runErr := runner.Run(ctx, adapter)

	result := ScrapeResult{
		Status:   "complete",
		Source:   adapter.Source(),
		Year:     scrapeYear,
		Records:  len(harvest.Records),
		Stats:    harvest.Stats,
		Duration: formatDuration(time.Since(start)),
	}
	if written {
		result.Partial = partial
	}

	if runErr != nil {
		code := exitCodeFor(runErr)
		if code != ExitAborted {
			exitWithError(code, "scraping %s %d: %v", adapter.Source(), scrapeYear, runErr)
		}
		result.Status = "interrupted"
	} else if len(harvest.Records) == 0 {
		result.Status = "empty"
	}

	if humanOutput {
		printScrapeHuman(result)
	} else {
		outputJSON(result)
	}

	if result.Status == "interrupted" {
		os.Exit(ExitAborted)
	}
	return nil
}

func printScrapeHuman(r ScrapeResult) {
	switch r.Status {
	case "empty":
		fmt.Printf("No records found for %s %d\n", r.Source, r.Year)
	case "interrupted":
		fmt.Printf("Interrupted after %d records for %s %d\n", r.Records, r.Source, r.Year)
	default:
		fmt.Printf("Scraped %d records for %s %d in %s\n", r.Records, r.Source, r.Year, r.Duration)
	}
	if r.Partial != "" {
		fmt.Printf("  written to:      %s\n", r.Partial)
	}
	s := r.Stats
	fmt.Printf("  groupings:       %d (%d failed)\n", s.Groupings, s.GroupingsFailed)
	fmt.Printf("  entries found:   %d (kept %d, skipped %d)\n", s.Found, s.Kept, s.Skipped)
	fmt.Printf("  without authors: %d\n", s.WithoutAuthors)
	fmt.Printf("  without pdf:     %d\n", s.WithoutPDF)
	names := make([]string, 0, len(s.Strategies))
	for name := range s.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  authors via %-11s %d\n", name+":", s.Strategies[name])
	}
}
