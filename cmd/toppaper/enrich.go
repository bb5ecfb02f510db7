package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/enrich"
	"github.com/renyezhang/toppaper/internal/github"
	"github.com/renyezhang/toppaper/internal/search"
	"github.com/spf13/cobra"
)

var (
	enrichFile       string
	enrichMinDelay   time.Duration
	enrichMaxDelay   time.Duration
	enrichResetEvery int
	enrichChannel    string
	enrichHosts      []string
	enrichVerify     bool
	enrichTitle      string
	enrichTimeout    time.Duration
)

func init() {
	defaults := config.DefaultEnrichConfig()
	enrichCmd.Flags().StringVarP(&enrichFile, "file", "f", "", "Store to enrich (default: the workspace papers.jsonl)")
	enrichCmd.Flags().DurationVar(&enrichMinDelay, "min-delay", defaults.MinDelay, "Minimum pause between lookups")
	enrichCmd.Flags().DurationVar(&enrichMaxDelay, "max-delay", defaults.MaxDelay, "Maximum pause between lookups")
	enrichCmd.Flags().IntVar(&enrichResetEvery, "reset-every", defaults.ResetEvery, "Reset the search session after this many lookups (0 never)")
	enrichCmd.Flags().StringVar(&enrichChannel, "channel", defaults.Channel, "Search channel: browser or html")
	enrichCmd.Flags().StringSliceVar(&enrichHosts, "host", defaults.Hosts, "Accepted code hosts (repeatable)")
	enrichCmd.Flags().BoolVar(&enrichVerify, "verify", false, "Check GitHub links against the GitHub API")
	enrichCmd.Flags().DurationVar(&enrichTimeout, "page-timeout", search.DefaultPageTimeout, "Time limit for loading one results page")
	enrichCmd.Flags().StringVar(&enrichTitle, "title", "", "Search again for one record by title, replacing its code marker")
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Attach code repository links by searching each paper title",
	Long: `Search the web for every record that has never been searched and attach
the first result hosted on a code host as its "code" link. Records with no
such result get an empty "code" so they are not searched again.

The store is rewritten after every lookup, so the command can be stopped
and resumed at any time. Defaults come from the enrich section of the
global config (~/.config/toppaper/config.yml).

With --title, only the record with that title is searched, even if it was
searched before.

Examples:
  toppaper enrich
  toppaper enrich --channel html --min-delay 2s --max-delay 5s
  toppaper enrich --file other/papers.jsonl --verify
  toppaper enrich --title "Masked Autoencoders Are Scalable Vision Learners"`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

// EnrichResult is the response for the enrich command.
type EnrichResult struct {
	Status string `json:"status"`
	File   string `json:"file"`
	*enrich.Stats
}

// RefreshResult is the response for enrich --title.
type RefreshResult struct {
	File   string `json:"file"`
	Title  string `json:"title"`
	Code   string `json:"code"`
	Source string `json:"source"`
	Year   int    `json:"year"`
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.GetEnrichConfig()
	flags := cmd.Flags()

	pacing := enrich.Pacing{MinDelay: cfg.MinDelay, MaxDelay: cfg.MaxDelay, ResetEvery: cfg.ResetEvery}
	if flags.Changed("min-delay") {
		pacing.MinDelay = enrichMinDelay
	}
	if flags.Changed("max-delay") {
		pacing.MaxDelay = enrichMaxDelay
	}
	if flags.Changed("reset-every") {
		pacing.ResetEvery = enrichResetEvery
	}
	if pacing.MaxDelay < pacing.MinDelay {
		exitWithError(ExitError, "--max-delay must not be less than --min-delay")
	}
	channel, hosts := cfg.Channel, cfg.Hosts
	if flags.Changed("channel") {
		channel = enrichChannel
	}
	if flags.Changed("host") {
		hosts = enrichHosts
	}

	path := enrichFile
	if path == "" {
		path = mustResolveWorkspace().StorePath()
	} else {
		path = config.ExpandPath(path)
	}
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitDataError, "store not found: %s", path)
	}

	searcher, err := newSearcher(ctx, channel, enrichTimeout)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer searcher.Close()

	engine := enrich.NewEngine(searcher, pacing, logger)
	engine.Hosts = hosts
	if enrichVerify {
		engine.Verifier = github.NewClient(
			github.WithToken(config.GetGitHubToken()),
			github.WithUserAgent(config.GetUserAgent()),
		)
	}

	if enrichTitle != "" {
		runRefresh(ctx, engine, searcher, path)
		return nil
	}

	stats, runErr := engine.Run(ctx, path)
	if stats == nil {
		exitWithError(ExitDataError, "enriching: %v", runErr)
	}

	result := EnrichResult{Status: "complete", File: path, Stats: stats}
	if runErr != nil {
		if exitCodeFor(runErr) != ExitAborted {
			searcher.Close()
			exitWithError(ExitDataError, "enriching: %v", runErr)
		}
		result.Status = "interrupted"
	}

	if humanOutput {
		if result.Status == "interrupted" {
			fmt.Print("Interrupted: ")
		}
		fmt.Println(stats.Summary())
	} else {
		outputJSON(result)
	}

	if result.Status == "interrupted" {
		searcher.Close()
		os.Exit(ExitAborted)
	}
	return nil
}

// runRefresh searches again for the record named by --title.
func runRefresh(ctx context.Context, engine *enrich.Engine, searcher enrich.Searcher, path string) {
	rec, err := engine.Refresh(ctx, path, enrichTitle)
	if err != nil {
		searcher.Close()
		switch {
		case errors.Is(err, enrich.ErrRecordNotFound):
			exitWithError(ExitDataError, "%v", err)
		case ctx.Err() != nil:
			exitWithError(ExitAborted, "interrupted")
		default:
			exitWithError(ExitNetworkError, "%v", err)
		}
	}

	result := RefreshResult{
		File:   path,
		Title:  rec.Title,
		Code:   rec.CodeURL(),
		Source: rec.Source,
		Year:   int(rec.Year),
	}
	if !humanOutput {
		outputJSON(result)
		return
	}
	if result.Code == "" {
		fmt.Printf("No code link found for %q\n", result.Title)
		return
	}
	fmt.Printf("%s\n  %s\n", result.Title, result.Code)
}

// newSearcher starts the search channel named by channel.
func newSearcher(ctx context.Context, channel string, pageTimeout time.Duration) (enrich.Searcher, error) {
	switch strings.ToLower(channel) {
	case "browser", "":
		b, err := search.NewBrowser(ctx, search.BrowserConfig{
			UserAgent:   config.GetUserAgent(),
			ExecPath:    config.GetChromePath(),
			PageTimeout: pageTimeout,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case "html":
		return search.NewHTML(config.GetUserAgent(), search.WithRequestTimeout(pageTimeout)), nil
	default:
		return nil, fmt.Errorf("unknown search channel %q (use browser or html)", channel)
	}
}
