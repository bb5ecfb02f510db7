package consolidate

import (
	"fmt"
	"os"

	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/storage"
	"github.com/rs/zerolog"
)

// Report summarises one consolidation.
type Report struct {
	Canonical  int      `json:"canonical"`
	Partials   []string `json:"partials"`
	Inputs     int      `json:"inputs"`
	Duplicates int      `json:"duplicates"`
	Untitled   int      `json:"untitled"`
	Output     int      `json:"output"`
	Removed    int      `json:"removed"`
}

// Run merges every partial collection of the workspace into the canonical
// store. The new store is written atomically; partials are deleted only after
// that write succeeded. Any unreadable input aborts the run untouched.
func Run(ws config.Workspace, logger zerolog.Logger) (*Report, error) {
	storePath := ws.StorePath()

	canonical, err := storage.ReadAll(storePath)
	if err != nil {
		return nil, fmt.Errorf("reading canonical store: %w", err)
	}

	paths, err := storage.ListPartials(ws.PartialsPath(), storePath)
	if err != nil {
		return nil, err
	}

	report := &Report{Canonical: len(canonical), Partials: paths}
	if len(paths) == 0 {
		logger.Info().Msg("no partial collections to merge")
		report.Inputs = len(canonical)
		report.Output = len(canonical)
		return report, nil
	}

	partials := make([][]record.Record, 0, len(paths))
	for _, p := range paths {
		recs, err := storage.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("reading partial %s: %w", p, err)
		}
		logger.Info().Str("partial", p).Int("records", len(recs)).Msg("loaded")
		partials = append(partials, recs)
	}

	res := Merge(canonical, partials...)
	report.Inputs = res.Inputs
	report.Duplicates = res.Duplicates
	report.Untitled = res.Untitled
	report.Output = len(res.Records)

	if err := storage.WriteAll(storePath, res.Records); err != nil {
		return nil, fmt.Errorf("writing canonical store (partials kept): %w", err)
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			logger.Warn().Err(err).Str("partial", p).Msg("could not remove merged partial")
			continue
		}
		report.Removed++
	}

	logger.Info().
		Int("inputs", report.Inputs).
		Int("duplicates", report.Duplicates).
		Int("output", report.Output).
		Msg("consolidation complete")
	return report, nil
}
