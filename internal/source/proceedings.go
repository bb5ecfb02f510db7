package source

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
)

// Proceedings harvests a single volume page whose entries are located by
// catalog selectors (PMLR volumes, IJCAI proceedings).
type Proceedings struct {
	fetch  *fetch.Client
	venue  config.Venue
	year   int
	index  string
	logger zerolog.Logger
}

// NewProceedings creates a selector-driven single-page adapter.
func NewProceedings(f *fetch.Client, venue config.Venue, year int, index string, logger zerolog.Logger) *Proceedings {
	return &Proceedings{fetch: f, venue: venue, year: year, index: index, logger: logger}
}

func (p *Proceedings) Source() string { return p.venue.Code }

func (p *Proceedings) Groupings(ctx context.Context) ([]Grouping, error) {
	return []Grouping{{Name: fmt.Sprintf("%s %d", p.venue.Code, p.year), URL: p.index, Index: 1}}, nil
}

func (p *Proceedings) Extract(ctx context.Context, g Grouping) ([]Candidate, error) {
	s := p.venue.Selectors
	if s.Entry == "" {
		return nil, fmt.Errorf("venue %s has no entry selector", p.venue.Code)
	}

	doc, err := p.fetch.GetDocument(ctx, g.URL)
	if err != nil {
		return nil, err
	}

	rules := extract.Rules{
		TitleSelector:  s.Title,
		AuthorSelector: s.Authors,
		BaseURL:        g.URL,
	}

	var cands []Candidate
	doc.Find(s.Entry).Each(func(_ int, entry *goquery.Selection) {
		res := extract.Entry(entry, rules)
		if s.Links != "" {
			if pdf := extract.PDFLink(entry.Find(s.Links), rules); pdf != "" {
				res.PDFLink = pdf
			}
		}
		cands = append(cands, Candidate{
			Title:          res.Title,
			Authors:        res.Authors,
			PDFLink:        res.PDFLink,
			Source:         p.venue.Code,
			Year:           record.Year(p.year),
			ArticleURL:     res.ArticleURL,
			AuthorStrategy: res.AuthorStrategy,
		})
	})
	return cands, nil
}
