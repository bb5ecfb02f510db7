package source

import (
	"context"
	"fmt"

	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/openreview"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
)

// OpenReview harvests a venue through the notes API. The schema version is
// chosen from the catalog by year.
type OpenReview struct {
	client *openreview.Client
	venue  config.Venue
	year   int
	query  openreview.Query
	logger zerolog.Logger
}

// NewOpenReview creates a query-API adapter.
func NewOpenReview(client *openreview.Client, venue config.Venue, year int, logger zerolog.Logger) *OpenReview {
	return &OpenReview{
		client: client,
		venue:  venue,
		year:   year,
		query:  openreview.QueryFor(venue.VenueIDFor(year), venue.UsesV2(year)),
		logger: logger,
	}
}

func (o *OpenReview) Source() string { return o.venue.Code }

// Groupings returns the single query as one grouping.
func (o *OpenReview) Groupings(ctx context.Context) ([]Grouping, error) {
	return []Grouping{{Name: o.query.String(), URL: o.query.String(), Index: 1}}, nil
}

// Extract runs the query. A lookup that times out is abandoned as empty; a
// note of unexpected shape becomes a skipped candidate.
func (o *OpenReview) Extract(ctx context.Context, g Grouping) ([]Candidate, error) {
	notes, err := o.client.Notes(ctx, o.query)
	if err != nil {
		if fetch.IsTimeout(err) && ctx.Err() == nil {
			o.logger.Warn().Err(err).Int("partial_notes", len(notes)).Msg("lookup timed out, treating as empty")
			return nil, nil
		}
		return nil, err
	}

	cands := make([]Candidate, 0, len(notes))
	for _, n := range notes {
		p, err := n.Decode()
		if err != nil {
			cands = append(cands, Candidate{Source: o.venue.Code, Err: fmt.Errorf("%s: %w", o.query, err)})
			continue
		}
		strategy := extract.StrategyNone
		if len(p.Authors) > 0 {
			strategy = extract.StrategyStructural
		}
		cands = append(cands, Candidate{
			Title:          p.Title,
			Authors:        p.Authors,
			PDFLink:        p.PDFLink,
			Source:         o.venue.Code,
			Year:           record.Year(o.year),
			ArticleURL:     "https://openreview.net/forum?id=" + p.ID,
			AuthorStrategy: strategy,
		})
	}
	return cands, nil
}
