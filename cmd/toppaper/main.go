// Package main provides the toppaper CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/logging"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput  bool
	workspaceDir string
	logLevel     string
	logFormat    string

	logger = zerolog.Nop()
)

func main() {
	// A .env file may carry GITHUB_TOKEN or TOPPAPER_WORKSPACE.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "toppaper",
	Short: "Harvest top-venue paper listings and link them to their code",
	Long: `toppaper collects bibliographic records from the public proceedings of
top AI venues (AAAI, CVPR, ICCV, ECCV, ICLR, ICML, NeurIPS, COLM, COLT, IJCAI),
consolidates them into one deduplicated JSONL store and enriches each record
with a link to its source code repository.

Workspace layout:
  papers.jsonl              canonical store
  partials/                 one collection per scrape run
  .toppaper/index.db        SQLite query index (rebuildable)
  .toppaper/venues.yml      optional venue catalog override

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{Level: logLevel, Format: logFormat})
	},
}

func init() {
	logDefaults := logging.DefaultConfig()
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "dir", "C", "", "Workspace directory (default: $TOPPAPER_WORKSPACE, global config, or current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logDefaults.Level, "Log level: trace, debug, info, warn, error, off")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logDefaults.Format, "Log format: console or json")
	rootCmd.Version = Version
}

// mustResolveWorkspace finds the workspace and creates its directories, exits on error.
func mustResolveWorkspace() config.Workspace {
	ws, err := config.ResolveWorkspace(workspaceDir)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := ws.Init(); err != nil {
		exitWithError(ExitConfigError, "initializing workspace: %v", err)
	}
	return ws
}

// mustLoadCatalog loads the venue catalog with the workspace override, exits on error.
func mustLoadCatalog(ws config.Workspace) *config.Catalog {
	catalog, err := config.LoadCatalog(ws.VenuesPath())
	if err != nil {
		exitWithError(ExitConfigError, "loading venue catalog: %v", err)
	}
	return catalog
}

// mustOpenIndex opens the SQLite index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenIndex(ws config.Workspace) *storage.DB {
	db, err := storage.OpenDB(ws.IndexPath())
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	return db
}

// mustOpenExistingIndex opens the index and fails if it was never built.
func mustOpenExistingIndex(ws config.Workspace) *storage.DB {
	if _, err := os.Stat(ws.IndexPath()); os.IsNotExist(err) {
		exitWithError(ExitConfigError, "index not found\n\nRun 'toppaper index rebuild' to create it.")
	}
	return mustOpenIndex(ws)
}

// fetchFlags are shared by commands that download pages.
type fetchFlags struct {
	rate    float64
	timeout int
	retries int
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.rate, "rate", fetch.DefaultRateLimit, "Maximum requests per second")
	cmd.Flags().IntVar(&f.timeout, "timeout", int(fetch.DefaultTimeout.Seconds()), "Per-request timeout in seconds")
	cmd.Flags().IntVar(&f.retries, "retries", 2, "Retries for 429 and 5xx responses")
}

func (f *fetchFlags) client() *fetch.Client {
	return fetch.NewClient(
		fetch.WithUserAgent(config.GetUserAgent()),
		fetch.WithTimeout(secondsToDuration(f.timeout)),
		fetch.WithRateLimit(f.rate),
		fetch.WithRetries(f.retries, fetchRetryDelay),
	)
}
