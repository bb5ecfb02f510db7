package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/renyezhang/toppaper/internal/config"
	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// minContainerText is the text length an ancestor container needs before it
// is taken to hold a whole entry (title plus authors).
const minContainerText = 50

var containerTags = map[string]bool{"li": true, "div": true, "article": true, "section": true, "p": true}

// OJS harvests listings organised as an index page linking to issue or track
// pages, each holding repeated entry blocks.
type OJS struct {
	fetch   *fetch.Client
	venue   config.Venue
	year    int
	index   string
	pattern *regexp.Regexp
	logger  zerolog.Logger
}

// NewOJS creates an index-and-track adapter.
func NewOJS(f *fetch.Client, venue config.Venue, year int, index string, logger zerolog.Logger) (*OJS, error) {
	pattern, err := regexp.Compile(venue.TrackPattern)
	if err != nil {
		return nil, fmt.Errorf("venue %s: track pattern: %w", venue.Code, err)
	}
	return &OJS{fetch: f, venue: venue, year: year, index: index, pattern: pattern, logger: logger}, nil
}

func (o *OJS) Source() string { return o.venue.Code }

// Groupings reads the index page and returns the track links in discovery
// order, de-duplicated, minus the configured number of trailing entries. When
// the index yields nothing the catalog's fallback issue range is used.
func (o *OJS) Groupings(ctx context.Context) ([]Grouping, error) {
	var urls []string
	var names []string

	doc, err := o.fetch.GetDocument(ctx, o.index)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn().Err(err).Str("url", o.index).Msg("index unavailable")
	} else {
		urls, names = o.trackLinks(doc)
	}

	if n := o.venue.DropTrailing; n > 0 && len(urls) > 0 {
		if n >= len(urls) {
			n = len(urls)
		}
		o.logger.Debug().Strs("dropped", urls[len(urls)-n:]).Msg("dropping trailing groupings")
		urls, names = urls[:len(urls)-n], names[:len(names)-n]
	}

	if len(urls) == 0 {
		urls = o.venue.FallbackURLs(o.year)
		names = make([]string, len(urls))
		if len(urls) == 0 {
			if err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("no track links matching %q on %s", o.venue.TrackPattern, o.index)
		}
		o.logger.Warn().Int("issues", len(urls)).Msg("index yielded no tracks, using fallback issue range")
	}

	groupings := make([]Grouping, len(urls))
	for i, u := range urls {
		name := names[i]
		if name == "" {
			name = u
		}
		groupings[i] = Grouping{Name: name, URL: u, Index: i + 1}
	}
	return groupings, nil
}

func (o *OJS) trackLinks(doc *goquery.Document) ([]string, []string) {
	seen := make(map[string]bool)
	var urls, names []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !o.pattern.MatchString(href) {
			return
		}
		u := extract.Resolve(o.index, href)
		if seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
		names = append(names, extract.CleanText(a.Text()))
	})
	return urls, names
}

// Extract parses one track page.
func (o *OJS) Extract(ctx context.Context, g Grouping) ([]Candidate, error) {
	doc, err := o.fetch.GetDocument(ctx, g.URL)
	if err != nil {
		return nil, err
	}

	track := extract.CleanText(doc.Find("h1").First().Text())
	if track == "" {
		track = g.Name
	}

	rules := extract.Rules{
		TitleSelector:  o.venue.Selectors.Title,
		AuthorSelector: o.venue.Selectors.Authors,
		ItemLinkMarker: o.venue.ItemMarker,
		BaseURL:        o.venue.Base(o.year),
	}

	entries := o.entries(doc)
	cands := make([]Candidate, 0, len(entries))
	for _, sel := range entries {
		res := extract.Entry(sel, rules)
		cands = append(cands, Candidate{
			Title:          res.Title,
			Authors:        res.Authors,
			PDFLink:        res.PDFLink,
			Source:         o.venue.Code,
			Year:           record.Year(o.year),
			Track:          track,
			ArticleURL:     res.ArticleURL,
			AuthorStrategy: res.AuthorStrategy,
		})
	}
	return cands, nil
}

// entries finds entry blocks: list items that carry a title-like item link,
// or failing that the nearest sizeable container around each item link.
// Blocks are de-duplicated by node identity.
func (o *OJS) entries(doc *goquery.Document) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var out []*goquery.Selection
	add := func(sel *goquery.Selection) {
		n := sel.Get(0)
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, sel)
	}

	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if o.isEntry(li) {
			add(li)
		}
	})
	if len(out) > 0 {
		return out
	}

	marker := o.venue.ItemMarker
	if marker == "" {
		return nil
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := extract.CleanText(a.Text())
		if !strings.Contains(href, marker) || strings.Contains(href, "/download/") || strings.EqualFold(text, "pdf") {
			return
		}
		for p := a.Parent(); p.Length() > 0 && !p.Is("body"); p = p.Parent() {
			if !containerTags[goquery.NodeName(p)] {
				continue
			}
			if len(strings.TrimSpace(p.Text())) > minContainerText {
				add(p)
			}
			break
		}
	})
	return out
}

func (o *OJS) isEntry(li *goquery.Selection) bool {
	if sel := o.venue.Selectors.Title; sel != "" {
		return len(extract.CleanText(li.Find(sel).First().Text())) >= 5
	}
	if o.venue.ItemMarker == "" {
		return false
	}
	return extract.TitleLink(li, o.venue.ItemMarker) != nil
}
