package openreview

import "errors"

// ErrSchema indicates a note whose content matches neither the flat (v1)
// nor the value-wrapped (v2) shape.
var ErrSchema = errors.New("unexpected note schema")
