package consolidate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/renyezhang/toppaper/internal/record"
	"github.com/renyezhang/toppaper/internal/storage"
)

var (
	// ErrInvalidYear is returned for a year argument that is not a plausible year.
	ErrInvalidYear = errors.New("invalid year")

	// ErrDeclined is returned when the operator does not confirm a deletion.
	ErrDeclined = errors.New("deletion declined")
)

// DeletePlan describes what a bulk delete would remove.
type DeletePlan struct {
	Source  string
	Year    *int
	Total   int
	Matches int
	Keep    []record.Record
}

// Describe renders the selector, e.g. "source=CVPR year=2020".
func (p DeletePlan) Describe() string {
	if p.Year == nil {
		return "source=" + p.Source
	}
	return fmt.Sprintf("source=%s year=%d", p.Source, *p.Year)
}

// PlanDelete selects records whose source matches (case-insensitively) and,
// when year is given, whose year matches too.
func PlanDelete(recs []record.Record, source string, year *int) DeletePlan {
	plan := DeletePlan{Source: strings.TrimSpace(source), Year: year, Total: len(recs)}
	for _, rec := range recs {
		if matches(rec, plan.Source, year) {
			plan.Matches++
			continue
		}
		plan.Keep = append(plan.Keep, rec)
	}
	return plan
}

func matches(rec record.Record, source string, year *int) bool {
	if !strings.EqualFold(rec.Source, source) {
		return false
	}
	return year == nil || int(rec.Year) == *year
}

// Confirmer asks the operator to approve a plan.
type Confirmer interface {
	Confirm(plan DeletePlan) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(plan DeletePlan) (bool, error)

func (f ConfirmFunc) Confirm(plan DeletePlan) (bool, error) { return f(plan) }

// AlwaysConfirm approves every plan (the --yes flag).
var AlwaysConfirm = ConfirmFunc(func(DeletePlan) (bool, error) { return true, nil })

// Prompt asks on out and reads the answer from in. Only "y" or "yes"
// (any case) approve.
func Prompt(in io.Reader, out io.Writer) Confirmer {
	r := bufio.NewReader(in)
	return ConfirmFunc(func(plan DeletePlan) (bool, error) {
		fmt.Fprintf(out, "Delete %d of %d records (%s)? [y/N]: ", plan.Matches, plan.Total, plan.Describe())
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

// DeleteReport summarises a bulk delete.
type DeleteReport struct {
	Source    string `json:"source"`
	Year      *int   `json:"year,omitempty"`
	Matched   int    `json:"matched"`
	Removed   int    `json:"removed"`
	Remaining int    `json:"remaining"`
}

// Delete removes matching records from the store at path after confirmation.
// Zero matches is a no-op without asking. A declined confirmation returns
// ErrDeclined and leaves the store untouched.
func Delete(path, source string, year *int, confirm Confirmer) (*DeleteReport, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source is required")
	}

	recs, err := storage.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	plan := PlanDelete(recs, source, year)
	report := &DeleteReport{Source: plan.Source, Year: year, Matched: plan.Matches, Remaining: plan.Total}
	if plan.Matches == 0 {
		return report, nil
	}

	ok, err := confirm.Confirm(plan)
	if err != nil {
		return report, err
	}
	if !ok {
		return report, ErrDeclined
	}

	if err := storage.WriteAll(path, plan.Keep); err != nil {
		return report, fmt.Errorf("writing store: %w", err)
	}
	report.Removed = plan.Matches
	report.Remaining = len(plan.Keep)
	return report, nil
}

// ParseYearArg parses an optional year argument. Empty input means no year.
func ParseYearArg(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 || y > 2100 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return &y, nil
}
