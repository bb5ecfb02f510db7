// Package search looks up paper titles on a web search engine and returns the
// result links, either through a headless browser or plain HTTP.
package search

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultEndpoint is the search results page queried by both channels.
	DefaultEndpoint = "https://www.bing.com/search"

	// ResultSelector matches the title link of each organic result.
	ResultSelector = "li.b_algo h2 a"

	// EmptySelector matches the notice shown when a query has no results.
	EmptySelector = "li.b_no"

	// MaxResults is how many result links a lookup returns.
	MaxResults = 5
)

// readySelector matches once the page shows either results or the
// no-results notice.
const readySelector = ResultSelector + ", " + EmptySelector

// ErrNoResults indicates a page that lists no results and does not say the
// query had none, such as a bot challenge or a page that failed to render.
var ErrNoResults = errors.New("results page has no results")

// QueryURL builds the results page URL for a query.
func QueryURL(endpoint, query string) string {
	v := url.Values{}
	v.Set("q", query)
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + v.Encode()
}

// ParseResults returns up to limit absolute http(s) result links in page
// order, without duplicates. A page carrying the no-results notice yields no
// links; a page with neither results nor the notice yields ErrNoResults.
func ParseResults(doc *goquery.Document, limit int) ([]string, error) {
	if limit <= 0 {
		limit = MaxResults
	}
	if doc.Find(ResultSelector).Length() == 0 {
		if doc.Find(EmptySelector).Length() > 0 {
			return nil, nil
		}
		return nil, ErrNoResults
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find(ResultSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		href = strings.TrimSpace(href)
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		links = append(links, href)
		return len(links) < limit
	})
	return links, nil
}
