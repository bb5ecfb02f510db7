package record

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Year is a publication year. Zero means unknown.
//
// Partial collections come from many scrapers, so decoding is lenient: null,
// numeric strings and floats are accepted, anything else decodes to 0 rather
// than failing the whole file.
type Year int

// Known reports whether the year carries a value.
func (y Year) Known() bool {
	return y > 0
}

// UnmarshalJSON implements lenient decoding.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*y = 0
			return nil
		}
		*y = ParseYear(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil || f < 0 {
		*y = 0
		return nil
	}
	*y = Year(int(f))
	return nil
}

// ParseYear converts user or scraped text to a Year, returning 0 on failure.
func ParseYear(s string) Year {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return Year(n)
}
