package source

import (
	"context"
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
)

var yearInLinkRe = regexp.MustCompile(`\d{4}`)

// ECVA harvests the single ECVA papers page, which lists every ECCV edition.
// Only entries whose link-derived year matches the run year are kept.
type ECVA struct {
	fetch  *fetch.Client
	venue  config.Venue
	year   int
	index  string
	logger zerolog.Logger
}

// NewECVA creates the ECVA single-page adapter.
func NewECVA(f *fetch.Client, venue config.Venue, year int, index string, logger zerolog.Logger) *ECVA {
	return &ECVA{fetch: f, venue: venue, year: year, index: index, logger: logger}
}

func (e *ECVA) Source() string { return e.venue.Code }

func (e *ECVA) Groupings(ctx context.Context) ([]Grouping, error) {
	return []Grouping{{Name: "papers", URL: e.index, Index: 1}}, nil
}

func (e *ECVA) Extract(ctx context.Context, g Grouping) ([]Candidate, error) {
	doc, err := e.fetch.GetDocument(ctx, g.URL)
	if err != nil {
		return nil, err
	}

	base := e.venue.Base(e.year) + "/"
	var cands []Candidate
	otherYears := 0
	doc.Find("dt.ptitle").Each(func(_ int, dt *goquery.Selection) {
		a := dt.Find("a").First()
		href, _ := a.Attr("href")
		link := extract.Resolve(base, href)

		year := YearFromLink(link, e.year)
		if year != e.year {
			otherYears++
			return
		}

		details := dt.NextUntil("dt")
		cand := Candidate{
			Title:      extract.CleanText(a.Text()),
			Source:     e.venue.Code,
			Year:       record.Year(year),
			ArticleURL: link,
			PDFLink:    link,
		}
		if pdf := extract.PDFLink(details, extract.Rules{BaseURL: base}); pdf != "" {
			cand.PDFLink = pdf
		}
		if dd := details.Filter("dd").First(); dd.Length() > 0 {
			cand.Authors = extract.SplitAuthors(dd.Text(), ",")
			if len(cand.Authors) > 0 {
				cand.AuthorStrategy = extract.StrategyStructural
			}
		}
		cands = append(cands, cand)
	})

	e.logger.Debug().Int("other_years", otherYears).Msg("entries from other editions ignored")
	return cands, nil
}

// YearFromLink returns the first four-digit number in [2000, 2030] found in
// the path of link, or fallback.
func YearFromLink(link string, fallback int) int {
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		link = u.Path
	}
	for _, m := range yearInLinkRe.FindAllString(link, -1) {
		y, err := strconv.Atoi(m)
		if err == nil && y >= 2000 && y <= 2030 {
			return y
		}
	}
	return fallback
}
