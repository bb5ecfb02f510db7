package consolidate

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/renyezhang/toppaper/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(title string, year int) record.Record {
	return record.Record{Title: title, Source: "CVPR", Year: record.Year(year)}
}

func TestMerge_KeepFirstFillsGaps(t *testing.T) {
	first := record.Record{Title: "Deep Residual Learning", Source: "CVPR", Year: 2016}
	second := record.Record{
		Title:   "deep  residual learning",
		Authors: []string{"Kaiming He"},
		PDFLink: "https://example.org/resnet.pdf",
		Source:  "ICCV",
		Year:    2017,
	}
	second.SetCode("https://github.com/KaimingHe/deep-residual-networks")

	res := Merge([]record.Record{first}, []record.Record{second})
	require.Len(t, res.Records, 1)

	got := res.Records[0]
	assert.Equal(t, "Deep Residual Learning", got.Title)
	assert.Equal(t, "CVPR", got.Source)
	assert.Equal(t, record.Year(2016), got.Year)
	assert.Equal(t, []string{"Kaiming He"}, got.Authors)
	assert.Equal(t, "https://example.org/resnet.pdf", got.PDFLink)
	assert.Equal(t, "https://github.com/KaimingHe/deep-residual-networks", got.CodeURL())
	assert.Equal(t, 2, res.Inputs)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Filled)
}

func TestMerge_EmptyMarkerSurvives(t *testing.T) {
	searched := rec("Vision Transformers", 2021)
	searched.SetCode("")
	found := rec("Vision Transformers", 2021)
	found.SetCode("https://github.com/x/vit")

	res := Merge([]record.Record{searched}, []record.Record{found})
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].HasCode())
	assert.Equal(t, "", res.Records[0].CodeURL())
}

func TestMerge_DropsUntitled(t *testing.T) {
	res := Merge(nil, []record.Record{rec("  ", 2020), rec("Real Paper", 2020)})
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Untitled)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	in := []record.Record{{Title: "A Paper", Authors: []string{"A"}}}
	res := Merge(in)
	res.Records[0].Authors[0] = "B"
	assert.Equal(t, "A", in[0].Authors[0])
}

func TestMerge_UniqueTitles(t *testing.T) {
	a := []record.Record{rec("One", 2020), rec("Two", 2021), rec("one", 2019)}
	b := []record.Record{rec("TWO", 2018), rec("Three", 2022), rec("Three", 2022)}

	res := Merge(a, b)
	seen := map[string]bool{}
	for _, r := range res.Records {
		assert.False(t, seen[r.Key()], "duplicate %q", r.Title)
		seen[r.Key()] = true
	}
	assert.Len(t, res.Records, 3)
	assert.Equal(t, 6, res.Inputs)
	assert.Equal(t, 3, res.Duplicates)
}

func TestSortByYear_StableDescending(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		recs := make([]record.Record, 40)
		for i := range recs {
			// The title carries the input position.
			recs[i] = record.Record{Title: strconv.Itoa(i), Year: record.Year(2018 + r.Intn(4))}
		}

		SortByYear(recs)

		for i := 1; i < len(recs); i++ {
			prev, cur := recs[i-1], recs[i]
			require.GreaterOrEqual(t, int(prev.Year), int(cur.Year))
			if prev.Year == cur.Year {
				p, _ := strconv.Atoi(prev.Title)
				c, _ := strconv.Atoi(cur.Title)
				assert.Less(t, p, c, "ties must keep input order")
			}
		}
	}
}

func TestSortByYear_UnknownLast(t *testing.T) {
	recs := []record.Record{rec("a", 0), rec("b", 2020), rec("c", 2024)}
	SortByYear(recs)
	assert.Equal(t, []string{"c", "b", "a"}, []string{recs[0].Title, recs[1].Title, recs[2].Title})
}
