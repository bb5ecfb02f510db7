package source

import (
	"context"
	"errors"
	"testing"

	"github.com/renyezhang/toppaper/internal/extract"
	"github.com/renyezhang/toppaper/internal/record"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter serves canned candidates per grouping index.
type fakeAdapter struct {
	groupings []Grouping
	results   map[int][]Candidate
	failures  map[int]error
	onExtract func(g Grouping)
}

func (f *fakeAdapter) Source() string { return "TEST" }

func (f *fakeAdapter) Groupings(ctx context.Context) ([]Grouping, error) {
	return f.groupings, nil
}

func (f *fakeAdapter) Extract(ctx context.Context, g Grouping) ([]Candidate, error) {
	if f.onExtract != nil {
		f.onExtract(g)
	}
	if err := f.failures[g.Index]; err != nil {
		return nil, err
	}
	return f.results[g.Index], nil
}

func quietRunner() *Runner {
	r := NewRunner(zerolog.Nop())
	r.EntryDelay = 0
	r.GroupingDelay = 0
	return r
}

func TestRunner_SkipsFailedGroupingsAndBadEntries(t *testing.T) {
	a := &fakeAdapter{
		groupings: []Grouping{{Index: 1}, {Index: 2}, {Index: 3}},
		results: map[int][]Candidate{
			1: {
				{Title: "First Paper", Authors: []string{"A"}, PDFLink: "https://x/1.pdf", Year: 2023, Track: "Track 1", AuthorStrategy: extract.StrategyPositional},
				{Title: "", ArticleURL: "https://x/view/2"},
			},
			3: {
				{Title: "Third Paper", Year: 2023},
				{Err: errors.New("bad note")},
			},
		},
		failures: map[int]error{2: errors.New("HTTP 503")},
	}

	h, err := quietRunner().Run(context.Background(), a)
	require.NoError(t, err)

	require.Len(t, h.Records, 2)
	assert.Equal(t, "First Paper", h.Records[0].Title)
	assert.Equal(t, "TEST", h.Records[0].Source)
	assert.Equal(t, "Third Paper", h.Records[1].Title)
	assert.Equal(t, []string{}, h.Records[1].Authors)

	s := h.Stats
	assert.Equal(t, 3, s.Groupings)
	assert.Equal(t, 1, s.GroupingsFailed)
	assert.Equal(t, 4, s.Found)
	assert.Equal(t, 2, s.Kept)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 1, s.WithoutAuthors)
	assert.Equal(t, 1, s.WithoutPDF)
	assert.Equal(t, 1, s.Strategies["positional"])
	assert.Equal(t, 1, s.Strategies["none"])
}

func TestRunner_SinkSeesAccumulatedRecords(t *testing.T) {
	a := &fakeAdapter{
		groupings: []Grouping{{Index: 1}, {Index: 2}},
		results: map[int][]Candidate{
			1: {{Title: "One"}},
			2: {{Title: "Two"}, {Title: "Three"}},
		},
	}

	var sizes []int
	r := quietRunner()
	r.Sink = func(recs []record.Record) error {
		sizes = append(sizes, len(recs))
		return nil
	}

	_, err := r.Run(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, sizes)
}

func TestRunner_CancelKeepsHarvest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeAdapter{
		groupings: []Grouping{{Index: 1}, {Index: 2}},
		results: map[int][]Candidate{
			1: {{Title: "Kept before cancel"}},
			2: {{Title: "Never reached"}},
		},
	}
	r := quietRunner()
	r.Sink = func(recs []record.Record) error {
		cancel()
		return nil
	}

	h, err := r.Run(ctx, a)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, h.Records, 1)
	assert.Equal(t, "Kept before cancel", h.Records[0].Title)
}

func TestCandidate_RecordStripsTransientFields(t *testing.T) {
	c := Candidate{
		Title:      "T",
		Authors:    []string{"A"},
		Source:     "AAAI",
		Year:       2023,
		Track:      "Main Track",
		ArticleURL: "https://ojs.aaai.org/index.php/AAAI/article/view/1",
	}
	rec := c.Record()
	assert.Equal(t, record.Record{Title: "T", Authors: []string{"A"}, Source: "AAAI", Year: 2023}, rec)

	rec.Authors[0] = "changed"
	assert.Equal(t, "A", c.Authors[0])
}
