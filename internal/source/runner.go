package source

import (
	"context"
	"time"

	"github.com/renyezhang/toppaper/internal/logging"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
)

const (
	DefaultEntryDelay    = 50 * time.Millisecond
	DefaultGroupingDelay = time.Second
)

// Stats counts what happened during one run.
type Stats struct {
	Groupings       int            `json:"groupings"`
	GroupingsFailed int            `json:"groupings_failed"`
	Found           int            `json:"found"`
	Kept            int            `json:"kept"`
	Skipped         int            `json:"skipped"`
	WithoutAuthors  int            `json:"without_authors"`
	WithoutPDF      int            `json:"without_pdf"`
	Strategies      map[string]int `json:"author_strategies,omitempty"`
}

// Harvest accumulates the records of one adapter run in discovery order.
type Harvest struct {
	Source  string          `json:"source"`
	Records []record.Record `json:"-"`
	Stats   Stats           `json:"stats"`
}

// Sink receives the accumulated records after every grouping so progress
// survives an interrupted run.
type Sink func(records []record.Record) error

// Runner drives an adapter strictly sequentially.
type Runner struct {
	EntryDelay    time.Duration
	GroupingDelay time.Duration
	Sink          Sink
	Logger        zerolog.Logger
}

// NewRunner returns a runner with the default pacing.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{
		EntryDelay:    DefaultEntryDelay,
		GroupingDelay: DefaultGroupingDelay,
		Logger:        logger,
	}
}

// Run lists the adapter's groupings and extracts each in turn. A failing
// grouping is logged and skipped. A cancelled context stops the run and
// returns what was harvested so far together with the context error.
func (r *Runner) Run(ctx context.Context, a Adapter) (*Harvest, error) {
	h := &Harvest{Source: a.Source(), Stats: Stats{Strategies: map[string]int{}}}

	groupings, err := a.Groupings(ctx)
	if err != nil {
		return h, err
	}
	h.Stats.Groupings = len(groupings)
	r.Logger.Info().Int("groupings", len(groupings)).Msg("listing resolved")

	for i, g := range groupings {
		if i > 0 {
			if err := sleep(ctx, r.GroupingDelay); err != nil {
				return h, err
			}
		}

		log := logging.WithGrouping(r.Logger, g.Index, g.URL)

		cands, err := a.Extract(ctx, g)
		if err != nil {
			if ctx.Err() != nil {
				return h, ctx.Err()
			}
			h.Stats.GroupingsFailed++
			log.Warn().Err(err).Msg("grouping skipped")
			continue
		}

		kept, err := r.collect(ctx, h, cands, log)
		if err != nil {
			return h, err
		}
		log.Info().
			Str("name", g.Name).
			Int("found", len(cands)).
			Int("kept", kept).
			Int("total", len(h.Records)).
			Msgf("[%d/%d] grouping done", i+1, len(groupings))

		if r.Sink != nil && kept > 0 {
			if err := r.Sink(h.Records); err != nil {
				return h, err
			}
		}
	}

	return h, nil
}

func (r *Runner) collect(ctx context.Context, h *Harvest, cands []Candidate, log zerolog.Logger) (int, error) {
	kept := 0
	for i, c := range cands {
		if i > 0 {
			if err := sleep(ctx, r.EntryDelay); err != nil {
				return kept, err
			}
		}

		h.Stats.Found++
		if c.Err != nil {
			h.Stats.Skipped++
			log.Warn().Err(c.Err).Msg("entry skipped")
			continue
		}
		if c.Title == "" {
			h.Stats.Skipped++
			log.Debug().Str("article_url", c.ArticleURL).Msg("entry without title dropped")
			continue
		}

		if c.Source == "" {
			c.Source = h.Source
		}
		rec := c.Record()
		if len(rec.Authors) == 0 {
			h.Stats.WithoutAuthors++
		}
		if rec.PDFLink == "" {
			h.Stats.WithoutPDF++
		}
		h.Stats.Strategies[c.AuthorStrategy.String()]++
		h.Stats.Kept++
		kept++

		log.Debug().Str("title", rec.Title).Str("track", c.Track).Int("authors", len(rec.Authors)).Msg("entry")
		h.Records = append(h.Records, rec)
	}
	return kept, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
