package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var (
	dayParamRe   = regexp.MustCompile(`[?&]day=([^&\s#]+)`)
	bibAuthorsRe = regexp.MustCompile(`(?i)author\s*=\s*\{([^}]+)\}`)
)

// CVF harvests the open-access listings of CVPR and ICCV. From the paging
// year on the listing is split by conference day; earlier years list every
// paper on one page with authors only in bibtex blocks.
type CVF struct {
	fetch  *fetch.Client
	venue  config.Venue
	year   int
	index  string
	logger zerolog.Logger
}

// NewCVF creates a CVF open-access adapter.
func NewCVF(f *fetch.Client, venue config.Venue, year int, index string, logger zerolog.Logger) *CVF {
	return &CVF{fetch: f, venue: venue, year: year, index: index, logger: logger}
}

func (c *CVF) Source() string { return c.venue.Code }

func (c *CVF) paged() bool {
	return c.venue.PagingSince > 0 && c.year >= c.venue.PagingSince
}

// Groupings returns one grouping per conference day, sorted, or the index page
// itself for single-page years.
func (c *CVF) Groupings(ctx context.Context) ([]Grouping, error) {
	if !c.paged() {
		return []Grouping{{Name: fmt.Sprintf("%s%d", c.venue.Code, c.year), URL: c.index, Index: 1}}, nil
	}

	doc, err := c.fetch.GetDocument(ctx, c.index)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}

	seen := make(map[string]bool)
	var days []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := dayParamRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		day, err := url.QueryUnescape(strings.TrimSpace(m[1]))
		if err != nil || day == "" || seen[day] {
			return
		}
		seen[day] = true
		days = append(days, day)
	})
	if len(days) == 0 {
		return nil, fmt.Errorf("no day links on %s", c.index)
	}
	sort.Strings(days)

	base := strings.SplitN(c.index, "?", 2)[0]
	groupings := make([]Grouping, len(days))
	for i, day := range days {
		groupings[i] = Grouping{Name: day, URL: base + "?day=" + url.QueryEscape(day), Index: i + 1}
	}
	return groupings, nil
}

// Extract parses one day page or the legacy single page.
func (c *CVF) Extract(ctx context.Context, g Grouping) ([]Candidate, error) {
	if !c.paged() {
		body, err := c.fetch.Get(ctx, g.URL)
		if err != nil {
			return nil, err
		}
		return c.parseLegacy(string(body)), nil
	}

	doc, err := c.fetch.GetDocument(ctx, g.URL)
	if err != nil {
		return nil, err
	}
	return c.parseDay(doc, g.Name), nil
}

func (c *CVF) parseDay(doc *goquery.Document, day string) []Candidate {
	base := c.venue.Base(c.year)
	var cands []Candidate
	doc.Find("dt.ptitle").Each(func(_ int, dt *goquery.Selection) {
		a := dt.Find("a").First()
		href, _ := a.Attr("href")
		cand := Candidate{
			Title:  extract.CleanText(a.Text()),
			Source: c.venue.Code,
			Year:   record.Year(c.year),
			Track:  day,
		}
		if href == "" {
			cand.Err = fmt.Errorf("title %q has no link", cand.Title)
			cands = append(cands, cand)
			return
		}
		cand.ArticleURL = extract.Resolve(base+"/", href)
		cand.PDFLink = extract.Resolve(base+"/", htmlToPDF(href))

		if dd := dt.NextAllFiltered("dd").First(); dd.Length() > 0 {
			cand.Authors = extract.SplitAuthors(dd.Text(), ",")
			if len(cand.Authors) > 0 {
				cand.AuthorStrategy = extract.StrategyStructural
			}
		}
		cands = append(cands, cand)
	})
	return cands
}

// parseLegacy pairs the n-th title link with the n-th bibtex author block.
// The pairing is positional and best effort: when there are fewer author
// blocks than titles the trailing titles keep empty authors.
func (c *CVF) parseLegacy(page string) []Candidate {
	prefix := fmt.Sprintf("content_%s_%d", strings.ToLower(c.venue.Code), c.year)
	titleRe := regexp.MustCompile(`(?is)<a\s+href="(` + regexp.QuoteMeta(prefix) + `/html/[^"]+\.html)"[^>]*>([^<]+)</a>`)

	titles := titleRe.FindAllStringSubmatch(page, -1)
	blocks := bibAuthorsRe.FindAllStringSubmatch(page, -1)
	if len(titles) != len(blocks) {
		c.logger.Warn().
			Int("titles", len(titles)).
			Int("author_blocks", len(blocks)).
			Msg("title and author block counts differ; trailing entries lose authors")
	}

	base := c.venue.Base(c.year)
	cands := make([]Candidate, 0, len(titles))
	for i, m := range titles {
		href := m[1]
		cand := Candidate{
			Title:      extract.CleanText(html.UnescapeString(m[2])),
			PDFLink:    extract.Resolve(base+"/", htmlToPDF(href)),
			ArticleURL: extract.Resolve(base+"/", href),
			Source:     c.venue.Code,
			Year:       record.Year(c.year),
		}
		if i < len(blocks) {
			cand.Authors = extract.SplitAuthors(extract.CleanText(blocks[i][1]), " and ")
			if len(cand.Authors) > 0 {
				cand.AuthorStrategy = extract.StrategyPositional
			}
		}
		cands = append(cands, cand)
	}
	return cands
}

func htmlToPDF(href string) string {
	return strings.Replace(strings.Replace(href, "/html/", "/papers/", 1), ".html", ".pdf", 1)
}
