// Package pdf extracts text from downloaded papers and checks that a PDF link
// really serves the paper it is attached to.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// magic is the header every PDF file starts with.
var magic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header, ignoring leading
// whitespace some servers emit.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), magic)
}

// Document is the text of the first pages of a PDF.
type Document struct {
	Pages int    // total pages in the file
	Text  string // text of the pages read
}

// ExtractText reads the text of the first maxPages pages (all when maxPages
// is not positive). Pages that fail to decode are skipped.
func ExtractText(r io.ReaderAt, size int64, maxPages int) (doc *Document, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("parsing pdf: %v", p)
		}
	}()

	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("parsing pdf: %w", err)
	}

	total := pdfReader.NumPage()
	if maxPages <= 0 || maxPages > total {
		maxPages = total
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return &Document{Pages: total, Text: builder.String()}, nil
}

// FindDOI finds a DOI in text.
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		// Remove trailing punctuation
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

// isValidDOI performs basic validation on a DOI.
func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}
