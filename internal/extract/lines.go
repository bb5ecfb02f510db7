package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	pageRangeRe = regexp.MustCompile(`^\d+\s*-\s*\d+$`)
	bracketRe   = regexp.MustCompile(`\[[^\]]*\]`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Lines flattens a fragment into its non-empty text nodes in document order,
// each trimmed and with inner whitespace collapsed. Script and style content
// is ignored.
func Lines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if line := CleanText(n.Data); line != "" {
				lines = append(lines, line)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return lines
}

// CleanText trims s and collapses runs of whitespace to one space.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// IsPageRange reports whether line is a bare page range such as "45-53".
func IsPageRange(line string) bool {
	return pageRangeRe.MatchString(strings.TrimSpace(line))
}

// SplitAuthors splits an author line on sep (default ","), dropping bracketed
// fragments such as "[pdf]" and empty names.
func SplitAuthors(line, sep string) []string {
	if sep == "" {
		sep = ","
	}
	line = bracketRe.ReplaceAllString(line, "")

	var authors []string
	for _, part := range strings.Split(line, sep) {
		if name := CleanText(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// LooksLikeAuthors applies the author-line heuristic: a comma, more than ten
// characters, at least two names of two or more characters each, and neither
// a page range nor a PDF label.
func LooksLikeAuthors(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, ",") || len(line) <= 10 {
		return false
	}
	if IsPageRange(line) || isPDFLabel(line) {
		return false
	}

	tokens := SplitAuthors(line, ",")
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			return false
		}
	}
	return true
}

func allNumeric(tokens []string) bool {
	for _, tok := range tokens {
		for _, r := range tok {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func isPDFLabel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "pdf")
}
