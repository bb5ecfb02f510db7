// Package record defines the canonical bibliographic record.
package record

import (
	"encoding/json"
)

// Record represents one paper as it is persisted in partial collections and
// in the canonical store.
type Record struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	PDFLink string   `json:"pdf_link"`
	Source  string   `json:"source"` // Venue code, e.g. CVPR
	Year    Year     `json:"year"`

	// Code is the enrichment marker. A nil pointer means enrichment was never
	// attempted; a pointer to "" means it was attempted and nothing was found.
	Code *string `json:"code,omitempty"`
}

// HasCode reports whether the enrichment marker is present, even if empty.
func (r Record) HasCode() bool {
	return r.Code != nil
}

// CodeURL returns the attached code URL, or "" when absent or empty.
func (r Record) CodeURL() string {
	if r.Code == nil {
		return ""
	}
	return *r.Code
}

// SetCode records an enrichment attempt. An empty url marks the record as
// searched without a result.
func (r *Record) SetCode(url string) {
	r.Code = &url
}

// Key returns the de-duplication key of the record.
func (r Record) Key() string {
	return NormalizeTitle(r.Title)
}

// MarshalJSON keeps authors encoded as an array even when none were found.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if p.Authors == nil {
		p.Authors = []string{}
	}
	return json.Marshal(p)
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r Record) Clone() Record {
	out := r
	if r.Authors != nil {
		out.Authors = append([]string(nil), r.Authors...)
	}
	if r.Code != nil {
		code := *r.Code
		out.Code = &code
	}
	return out
}
