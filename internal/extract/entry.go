// Package extract recovers title, authors and PDF link from loosely
// structured listing markup, trying decreasingly confident strategies.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy records which heuristic produced the author list.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyStructural
	StrategyPositional
	StrategyScan
)

func (s Strategy) String() string {
	switch s {
	case StrategyStructural:
		return "structural"
	case StrategyPositional:
		return "positional"
	case StrategyScan:
		return "scan"
	default:
		return "none"
	}
}

// Rules configures extraction for one listing format. Every field is optional.
type Rules struct {
	// TitleSelector selects the dedicated title element.
	TitleSelector string
	// AuthorSelector selects the dedicated author container.
	AuthorSelector string
	// ItemLinkMarker is the href fragment of an item's own page, e.g.
	// "article/view". When set, title and PDF links must contain it.
	ItemLinkMarker string
	// BaseURL resolves relative links.
	BaseURL string
	// AuthorSeparator splits the author container text. Defaults to ",".
	AuthorSeparator string
}

// Result is what could be recovered from one entry. Missing pieces are empty.
type Result struct {
	Title          string
	Authors        []string
	PDFLink        string
	ArticleURL     string
	AuthorStrategy Strategy
}

// minTitleLinkLen filters navigation links ("View", "Abstract") that share
// the item-link marker with real titles.
const minTitleLinkLen = 10

// Entry extracts one entry fragment. It never fails; an empty Title means the
// caller should drop the entry.
func Entry(sel *goquery.Selection, rules Rules) Result {
	var res Result

	res.Title, res.ArticleURL = findTitle(sel, rules)

	if rules.AuthorSelector != "" {
		if authorSel := sel.Find(rules.AuthorSelector).First(); authorSel.Length() > 0 {
			if authors := SplitAuthors(authorSel.Text(), rules.AuthorSeparator); len(authors) > 0 {
				res.Authors = authors
				res.AuthorStrategy = StrategyStructural
			}
		}
	}

	if res.AuthorStrategy == StrategyNone {
		lines := Lines(sel)
		if authors := positionalAuthors(lines, res.Title); len(authors) > 0 {
			res.Authors = authors
			res.AuthorStrategy = StrategyPositional
		} else if authors := scanAuthors(lines, res.Title); len(authors) > 0 {
			res.Authors = authors
			res.AuthorStrategy = StrategyScan
		}
	}

	res.PDFLink = PDFLink(sel, rules)
	return res
}

func findTitle(sel *goquery.Selection, rules Rules) (title, articleURL string) {
	if rules.TitleSelector != "" {
		titleSel := sel.Find(rules.TitleSelector).First()
		if titleSel.Length() > 0 {
			title = CleanText(titleSel.Text())
			link := titleSel
			if !titleSel.Is("a") {
				link = titleSel.Find("a[href]").First()
			}
			if href, ok := link.Attr("href"); ok {
				articleURL = Resolve(rules.BaseURL, href)
			}
			if title != "" {
				return title, articleURL
			}
		}
	}

	if rules.ItemLinkMarker == "" {
		return "", ""
	}

	if a := TitleLink(sel, rules.ItemLinkMarker); a != nil {
		href, _ := a.Attr("href")
		return CleanText(a.Text()), Resolve(rules.BaseURL, href)
	}
	return "", ""
}

// TitleLink returns the first anchor that points at an item page, is not a
// download link and has title-like text, or nil.
func TitleLink(sel *goquery.Selection, marker string) *goquery.Selection {
	var found *goquery.Selection
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, marker) || isDownloadHref(href) {
			return true
		}
		text := CleanText(a.Text())
		if text == "" || isPDFLabel(text) || len(text) <= minTitleLinkLen {
			return true
		}
		found = a
		return false
	})
	return found
}

func positionalAuthors(lines []string, title string) []string {
	if title == "" {
		return nil
	}

	afterTitle := false
	for _, line := range lines {
		if isTitleLine(line, title) {
			afterTitle = true
			continue
		}
		if !afterTitle {
			continue
		}
		if IsPageRange(line) {
			return nil
		}
		if LooksLikeAuthors(line) {
			return SplitAuthors(line, ",")
		}
	}
	return nil
}

func scanAuthors(lines []string, title string) []string {
	for _, line := range lines {
		if title != "" && isTitleLine(line, title) {
			continue
		}
		if IsPageRange(line) || strings.Contains(strings.ToUpper(line), "PDF") {
			continue
		}
		if !LooksLikeAuthors(line) {
			continue
		}
		tokens := SplitAuthors(line, ",")
		if allNumeric(tokens) {
			continue
		}
		return tokens
	}
	return nil
}

func isTitleLine(line, title string) bool {
	return line == title || strings.Contains(line, title)
}

// PDFLink returns the first anchor in sel (or among its descendants) that is
// labelled PDF or points at a download, resolved against rules.BaseURL.
func PDFLink(sel *goquery.Selection, rules Rules) string {
	var link string
	sel.Filter("a[href]").AddSelection(sel.Find("a[href]")).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := strings.ToUpper(CleanText(a.Text()))
		if !strings.Contains(text, "PDF") && !isDownloadHref(href) {
			return true
		}
		if rules.ItemLinkMarker != "" && !strings.Contains(href, rules.ItemLinkMarker) {
			return true
		}
		link = Resolve(rules.BaseURL, href)
		return false
	})
	return link
}

func isDownloadHref(href string) bool {
	lower := strings.ToLower(href)
	return strings.Contains(lower, ".pdf") || strings.Contains(lower, "/download/")
}

// Resolve makes href absolute against base. Unparseable input is returned
// trimmed but otherwise unchanged.
func Resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() || base == "" {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
