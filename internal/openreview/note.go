package openreview

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PDFBaseURL prefixes a note id to form its PDF link.
const PDFBaseURL = "https://openreview.net/pdf?id="

// Note is one submission as returned by either API version.
type Note struct {
	ID      string                     `json:"id"`
	Content map[string]json.RawMessage `json:"content"`
}

// Paper is the bibliographic subset of a note.
type Paper struct {
	ID      string
	Title   string
	Authors []string
	PDFLink string
}

type wrapped struct {
	Value json.RawMessage `json:"value"`
}

// Decode extracts the paper fields. Content values may be flat ("title": "x")
// or wrapped ("title": {"value": "x"}); both are accepted regardless of the
// API version queried. A note with no decodable title returns ErrSchema.
func (n Note) Decode() (Paper, error) {
	p := Paper{ID: n.ID}

	if err := decodeField(n.Content["title"], &p.Title); err != nil {
		return p, fmt.Errorf("%w: note %s title: %v", ErrSchema, n.ID, err)
	}
	p.Title = strings.Join(strings.Fields(p.Title), " ")
	if p.Title == "" {
		return p, fmt.Errorf("%w: note %s has no title", ErrSchema, n.ID)
	}

	if raw, ok := n.Content["authors"]; ok {
		if err := decodeField(raw, &p.Authors); err != nil {
			return p, fmt.Errorf("%w: note %s authors: %v", ErrSchema, n.ID, err)
		}
	}

	if raw, ok := n.Content["pdf"]; ok && n.ID != "" {
		var pdf string
		if err := decodeField(raw, &pdf); err == nil && pdf != "" {
			p.PDFLink = PDFBaseURL + n.ID
		}
	}

	return p, nil
}

// decodeField unmarshals raw into v, unwrapping a {"value": ...} envelope
// when the flat form does not fit.
func decodeField(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}

	var w wrapped
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	if len(w.Value) == 0 {
		return fmt.Errorf("object without value")
	}
	return json.Unmarshal(w.Value, v)
}
