// Package export renders stored records in citation formats.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/renyezhang/toppaper/internal/record"
	"golang.org/x/text/unicode/norm"
)

// VenueNames maps venue codes to the booktitle written for them.
type VenueNames map[string]string

// ToBibTeX converts a record to a BibTeX inproceedings entry under key.
func ToBibTeX(rec record.Record, key string, venues VenueNames) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@inproceedings{%s,\n", key))

	if len(rec.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", escapeLatex(strings.Join(rec.Authors, " and "))))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(rec.Title)))

	if rec.Source != "" {
		booktitle := rec.Source
		if name, ok := venues[strings.ToUpper(rec.Source)]; ok && name != "" {
			booktitle = name
		}
		b.WriteString(fmt.Sprintf("  booktitle = {%s},\n", escapeLatex(booktitle)))
	}

	if rec.Year.Known() {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", rec.Year))
	}

	if rec.PDFLink != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", rec.PDFLink))
	}

	if code := rec.CodeURL(); code != "" {
		b.WriteString(fmt.Sprintf("  note = {Code: \\url{%s}},\n", code))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts records to BibTeX, giving each a unique key.
func ToBibTeXList(recs []record.Record, venues VenueNames) string {
	used := make(map[string]int)
	var entries []string
	for _, rec := range recs {
		key := CiteKey(rec)
		used[key]++
		if n := used[key]; n > 1 {
			key = fmt.Sprintf("%s%c", key, 'a'+rune(n-2))
		}
		entries = append(entries, ToBibTeX(rec, key, venues))
	}
	return strings.Join(entries, "\n")
}

// CiteKey builds a key from the first author's last name, the year and the
// first significant title word, e.g. "he2022masked".
func CiteKey(rec record.Record) string {
	var key strings.Builder

	if len(rec.Authors) > 0 {
		fields := strings.Fields(rec.Authors[0])
		if len(fields) > 0 {
			key.WriteString(asciiWord(fields[len(fields)-1]))
		}
	}
	if key.Len() == 0 {
		key.WriteString("anon")
	}

	if rec.Year.Known() {
		key.WriteString(fmt.Sprint(int(rec.Year)))
	}

	for _, w := range strings.Fields(rec.Title) {
		w = asciiWord(w)
		if len(w) > 3 && !stopWords[w] {
			key.WriteString(w)
			break
		}
	}
	return key.String()
}

var stopWords = map[string]bool{
	"about": true, "from": true, "into": true, "over": true,
	"that": true, "their": true, "this": true, "towards": true,
	"what": true, "when": true, "where": true, "which": true, "with": true,
}

// asciiWord lower-cases w and keeps only ASCII letters and digits, dropping
// accents ("Müller" becomes "muller").
func asciiWord(w string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(w) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
