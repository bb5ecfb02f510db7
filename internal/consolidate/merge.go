// Package consolidate folds partial collections into the canonical store and
// implements the confirmed bulk purge.
package consolidate

import (
	"sort"

	"github.com/renyezhang/toppaper/internal/record"
)

// Result is the outcome of a merge.
type Result struct {
	Records    []record.Record
	Inputs     int // records read across all inputs
	Duplicates int // records folded into an earlier record with the same title
	Filled     int // duplicates that contributed at least one missing field
	Untitled   int // records dropped for lacking a title
}

// Merge concatenates canonical and partials (canonical first), collapses
// records with equal normalized titles and sorts by year descending.
//
// Duplicates are resolved keep-first: the earliest record keeps its position
// and its values; a later duplicate may only fill fields that are empty on
// it. A code marker is copied only when the survivor has none, so enrichment
// state is never overwritten.
func Merge(canonical []record.Record, partials ...[]record.Record) Result {
	var res Result
	index := make(map[string]int)

	add := func(recs []record.Record) {
		for _, rec := range recs {
			res.Inputs++
			key := rec.Key()
			if key == "" {
				res.Untitled++
				continue
			}
			if i, ok := index[key]; ok {
				res.Duplicates++
				if fillGaps(&res.Records[i], rec) {
					res.Filled++
				}
				continue
			}
			index[key] = len(res.Records)
			res.Records = append(res.Records, rec.Clone())
		}
	}

	add(canonical)
	for _, p := range partials {
		add(p)
	}

	SortByYear(res.Records)
	return res
}

// fillGaps copies fields from dup into rec where rec has none.
func fillGaps(rec *record.Record, dup record.Record) bool {
	changed := false
	if len(rec.Authors) == 0 && len(dup.Authors) > 0 {
		rec.Authors = append([]string(nil), dup.Authors...)
		changed = true
	}
	if rec.PDFLink == "" && dup.PDFLink != "" {
		rec.PDFLink = dup.PDFLink
		changed = true
	}
	if rec.Source == "" && dup.Source != "" {
		rec.Source = dup.Source
		changed = true
	}
	if !rec.Year.Known() && dup.Year.Known() {
		rec.Year = dup.Year
		changed = true
	}
	if !rec.HasCode() && dup.HasCode() {
		rec.SetCode(dup.CodeURL())
		changed = true
	}
	return changed
}

// SortByYear orders records by year, newest first. Unknown years sort last
// and ties keep their input order.
func SortByYear(recs []record.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Year > recs[j].Year
	})
}
