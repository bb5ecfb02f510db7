package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/spf13/cobra"
)

var (
	searchLimit   int
	searchAuthor  string
	searchSource  string
	searchYear    string
	searchHasCode bool
)

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	searchCmd.Flags().StringVarP(&searchAuthor, "author", "a", "", "Search author names (prefix match)")
	searchCmd.Flags().StringVarP(&searchSource, "source", "s", "", "Filter by venue code")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "Filter by year: exact (2024), range (2020:2024), or open (2020: or :2024)")
	searchCmd.Flags().BoolVar(&searchHasCode, "has-code", false, "Only records with a code link")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search records by keyword, author, venue, or year",
	Long: `Search the query index.

The positional query is matched against titles and authors. Build the
index first with 'toppaper index rebuild'.

Year syntax:
  --year 2024         - Exact year
  --year 2020:2024    - Range (inclusive)
  --year 2020:        - 2020 and later
  --year :2020        - 2020 and earlier

Examples:
  toppaper search "diffusion"
  toppaper search -a "Kaiming" --source CVPR --year 2020:
  toppaper search "graph neural" --has-code --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters := storage.SearchFilters{
		Author:  searchAuthor,
		Source:  searchSource,
		HasCode: searchHasCode,
	}
	if len(args) > 0 {
		filters.Keyword = args[0]
	}
	if searchYear != "" {
		from, to, err := parseYearRange(searchYear)
		if err != nil {
			exitWithError(ExitError, "invalid year format: %v", err)
		}
		filters.YearFrom = from
		filters.YearTo = to
	}
	if filters == (storage.SearchFilters{}) {
		exitWithError(ExitError, "must specify a query or at least one filter (--author, --source, --year, --has-code)")
	}

	ws := mustResolveWorkspace()
	db := mustOpenExistingIndex(ws)
	defer db.Close()

	recs, err := db.Search(filters, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	// Empty result is not an error
	if recs == nil {
		recs = []record.Record{}
	}

	if humanOutput {
		if len(recs) == 0 {
			fmt.Println("No records found")
		} else {
			fmt.Printf("Found %d records:\n\n", len(recs))
			for i, rec := range recs {
				printRecordSummary(i+1, rec)
			}
		}
	} else {
		outputJSON(recs)
	}

	return nil
}

// parseYearRange parses a year specification into from/to values.
// Supported formats: "2024", "2020:2024", "2020:", ":2024"
func parseYearRange(spec string) (from, to int, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0, nil
	}

	// Check for range syntax
	if strings.Contains(spec, ":") {
		parts := strings.SplitN(spec, ":", 2)

		if parts[0] != "" {
			from, err = strconv.Atoi(parts[0])
			if err != nil {
				return 0, 0, fmt.Errorf("invalid start year %q", parts[0])
			}
		}

		if parts[1] != "" {
			to, err = strconv.Atoi(parts[1])
			if err != nil {
				return 0, 0, fmt.Errorf("invalid end year %q", parts[1])
			}
		}

		return from, to, nil
	}

	// Single year - exact match
	year, err := strconv.Atoi(spec)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", spec)
	}

	return year, year, nil
}

func printRecordSummary(num int, rec record.Record) {
	fmt.Printf("[%d] %s\n", num, truncateString(rec.Title, SearchTitleMaxLen))

	if len(rec.Authors) > 0 {
		fmt.Printf("    %s\n", formatAuthorsShort(rec.Authors, 3))
	}

	if rec.Year.Known() {
		fmt.Printf("    %s (%d)\n", rec.Source, rec.Year)
	} else {
		fmt.Printf("    %s\n", rec.Source)
	}
	if url := rec.CodeURL(); url != "" {
		fmt.Printf("    code: %s\n", url)
	}
	fmt.Println()
}
