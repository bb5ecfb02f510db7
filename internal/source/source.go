// Package source turns venue listings into candidate records. Each listing
// format family is one Adapter; a Runner drives an adapter through its
// groupings sequentially and accumulates the result in a Harvest.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/openreview"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
)

// Grouping is one independently fetched sub-partition of a listing: a track,
// an issue, a conference day or a whole single-page volume.
type Grouping struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Index int    `json:"index"`
}

// Candidate is a record under construction. Track, ArticleURL and Err never
// leave the adapter layer.
type Candidate struct {
	Title          string
	Authors        []string
	PDFLink        string
	Source         string
	Year           record.Year
	Track          string
	ArticleURL     string
	AuthorStrategy extract.Strategy

	// Err marks an entry that failed extraction; the runner logs and skips it.
	Err error
}

// Record strips the adapter-internal fields.
func (c Candidate) Record() record.Record {
	authors := make([]string, len(c.Authors))
	copy(authors, c.Authors)
	return record.Record{
		Title:   c.Title,
		Authors: authors,
		PDFLink: c.PDFLink,
		Source:  c.Source,
		Year:    c.Year,
	}
}

// Adapter lists the groupings of one venue/year and extracts each of them.
type Adapter interface {
	// Source is the venue code stamped on every record.
	Source() string
	Groupings(ctx context.Context) ([]Grouping, error)
	Extract(ctx context.Context, g Grouping) ([]Candidate, error)
}

// Options tune adapter construction.
type Options struct {
	// URL overrides the catalog-derived listing URL.
	URL string
	// DropTrailing overrides the catalog's trailing-grouping policy when >= 0.
	DropTrailing int
	Fetcher      *fetch.Client
	OpenReview   *openreview.Client
	Logger       zerolog.Logger
}

// DefaultOptions leaves every catalog value in effect.
func DefaultOptions() Options {
	return Options{DropTrailing: -1, Logger: zerolog.Nop()}
}

// New builds the adapter for a venue and year from the catalog.
func New(catalog *config.Catalog, code string, year int, opts Options) (Adapter, error) {
	venue, ok := catalog.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("unknown venue %q (known: %s)", code, strings.Join(catalog.Codes(), ", "))
	}
	venue = venue.ForYear(year)

	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewClient()
	}
	if opts.DropTrailing >= 0 {
		venue.DropTrailing = opts.DropTrailing
	}

	listing := opts.URL
	if listing == "" && venue.Family != config.FamilyOpenReview {
		u, err := venue.ListingURL(year)
		if err != nil {
			return nil, err
		}
		listing = u
	}

	switch venue.Family {
	case config.FamilyOJS:
		o, err := NewOJS(opts.Fetcher, venue, year, listing, opts.Logger)
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.FamilyCVF:
		return NewCVF(opts.Fetcher, venue, year, listing, opts.Logger), nil
	case config.FamilyECVA:
		return NewECVA(opts.Fetcher, venue, year, listing, opts.Logger), nil
	case config.FamilyProceedings:
		return NewProceedings(opts.Fetcher, venue, year, listing, opts.Logger), nil
	case config.FamilyOpenReview:
		client := opts.OpenReview
		if client == nil {
			client = openreview.NewClient(opts.Fetcher)
		}
		return NewOpenReview(client, venue, year, opts.Logger), nil
	default:
		return nil, fmt.Errorf("venue %s: unsupported family %q", venue.Code, venue.Family)
	}
}
