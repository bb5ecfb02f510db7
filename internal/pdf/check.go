package pdf

import (
	"bytes"
	"context"
	"strings"
	"unicode"

	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/record"
	"golang.org/x/text/unicode/norm"
)

// Check outcomes.
const (
	StatusOK          = "ok"
	StatusNoLink      = "no-link"
	StatusNotFound    = "not-found"
	StatusFetchFailed = "fetch-failed"
	StatusNotPDF      = "not-pdf"
	StatusUnreadable  = "unreadable"
	StatusNoTitle     = "title-missing"
)

// DefaultMaxPages is how many pages are read when looking for the title.
const DefaultMaxPages = 2

// Result is the outcome of checking one record's PDF link.
type Result struct {
	Title  string `json:"title"`
	Link   string `json:"pdf_link"`
	Status string `json:"status"`
	Pages  int    `json:"pages,omitempty"`
	DOI    string `json:"doi,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the link served a readable PDF mentioning the title.
func (r Result) OK() bool { return r.Status == StatusOK }

// Checker downloads PDF links and verifies them.
type Checker struct {
	fetcher  *fetch.Client
	maxPages int
}

// NewChecker creates a checker reading up to maxPages pages of each file.
func NewChecker(f *fetch.Client, maxPages int) *Checker {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Checker{fetcher: f, maxPages: maxPages}
}

// Check downloads rec's PDF link and verifies that it parses as a PDF whose
// first pages mention the record's title.
func (c *Checker) Check(ctx context.Context, rec record.Record) Result {
	res := Result{Title: rec.Title, Link: rec.PDFLink}
	if strings.TrimSpace(rec.PDFLink) == "" {
		res.Status = StatusNoLink
		return res
	}

	data, err := c.fetcher.Get(ctx, rec.PDFLink)
	if err != nil {
		res.Status = StatusFetchFailed
		if fetch.IsNotFound(err) {
			res.Status = StatusNotFound
		}
		res.Error = err.Error()
		return res
	}
	if !IsPDF(data) {
		res.Status = StatusNotPDF
		return res
	}

	doc, err := ExtractText(bytes.NewReader(data), int64(len(data)), c.maxPages)
	if err != nil {
		res.Status = StatusUnreadable
		res.Error = err.Error()
		return res
	}
	res.Pages = doc.Pages
	res.DOI = FindDOI(doc.Text)

	if !MentionsTitle(doc.Text, rec.Title) {
		res.Status = StatusNoTitle
		return res
	}
	res.Status = StatusOK
	return res
}

// MentionsTitle reports whether text contains title. Extracted PDF text often
// loses or invents spaces and hyphenation, so both sides are reduced to their
// lower-case letters and digits before comparing.
func MentionsTitle(text, title string) bool {
	t := squash(title)
	if t == "" {
		return false
	}
	return strings.Contains(squash(text), t)
}

func squash(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
