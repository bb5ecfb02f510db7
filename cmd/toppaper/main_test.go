package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/renyezhang/toppaper/internal/consolidate"
	"github.com/renyezhang/toppaper/internal/fetch"
	"github.com/renyezhang/toppaper/internal/record"
)

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		spec     string
		wantFrom int
		wantTo   int
		wantErr  bool
	}{
		// Exact year
		{"2024", 2024, 2024, false},

		// Full range
		{"2020:2024", 2020, 2024, false},

		// Open-ended ranges
		{"2020:", 2020, 0, false},
		{":2024", 0, 2024, false},

		// Edge cases
		{"", 0, 0, false},
		{"  2024  ", 2024, 2024, false},
		{":", 0, 0, false},

		// Errors
		{"abc", 0, 0, true},
		{"abc:2024", 0, 0, true},
		{"2020:abc", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			from, to, err := parseYearRange(tt.spec)

			if (err != nil) != tt.wantErr {
				t.Errorf("parseYearRange(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
				return
			}

			if !tt.wantErr && (from != tt.wantFrom || to != tt.wantTo) {
				t.Errorf("parseYearRange(%q) = %d, %d, want %d, %d", tt.spec, from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), ExitAborted},
		{"declined", consolidate.ErrDeclined, ExitAborted},
		{"network", fmt.Errorf("%w: GET x: boom", fetch.ErrNetwork), ExitNetworkError},
		{"status", fmt.Errorf("listing: %w", &fetch.StatusError{Code: 503, URL: "x"}), ExitNetworkError},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectForCheck(t *testing.T) {
	recs := []record.Record{
		{Title: "a", Source: "CVPR", Year: 2020},
		{Title: "b", Source: "cvpr", Year: 2021},
		{Title: "c", Source: "AAAI", Year: 2020},
		{Title: "d", Source: "CVPR", Year: 2020},
	}
	year := 2020

	if got := selectForCheck(recs, "CVPR", nil, 0); len(got) != 3 {
		t.Errorf("selectForCheck(all) = %d records, want 3", len(got))
	}
	if got := selectForCheck(recs, "CVPR", &year, 0); len(got) != 2 || got[1].Title != "d" {
		t.Errorf("selectForCheck(2020) = %+v", got)
	}
	if got := selectForCheck(recs, "CVPR", nil, 1); len(got) != 1 || got[0].Title != "a" {
		t.Errorf("selectForCheck(limit 1) = %+v", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := formatAuthorsShort([]string{"A", "B", "C", "D"}, 3); got != "A, B, C, et al." {
		t.Errorf("formatAuthorsShort() = %q", got)
	}
	if got := formatAuthorsShort([]string{"A", "B"}, 3); got != "A, B" {
		t.Errorf("formatAuthorsShort() = %q", got)
	}
	if got := truncateString("Café au lait for everyone", 10); got != "Café au..." {
		t.Errorf("truncateString() = %q", got)
	}
	if got := formatDuration(90 * time.Second); got != "1m 30s" {
		t.Errorf("formatDuration() = %q", got)
	}
}
