package storage

import (
	"path/filepath"
	"testing"

	"github.com/renyezhang/toppaper/internal/record"
)

// setupTestDB writes a small canonical store and indexes it.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dir := t.TempDir()
	storePath := filepath.Join(dir, "papers.jsonl")

	enriched := record.Record{
		Title:   "Masked Autoencoders Are Scalable Vision Learners",
		Authors: []string{"Kaiming He", "Xinlei Chen"},
		PDFLink: "https://openaccess.thecvf.com/a.pdf",
		Source:  "CVPR",
		Year:    2022,
	}
	enriched.SetCode("https://github.com/facebookresearch/mae")

	searched := record.Record{
		Title:   "Robust Estimation of X, Y",
		Authors: []string{"A. Smith", "B. Lee"},
		Source:  "AAAI",
		Year:    2022,
	}
	searched.SetCode("")

	recs := []record.Record{
		enriched,
		searched,
		{Title: "Deep Residual Learning", Authors: []string{"Kaiming He"}, Source: "CVPR", Year: 2016},
		{Title: "Unknown Year Paper", Source: "ICLR"},
	}
	if err := WriteAll(storePath, recs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	db, err := OpenDB(filepath.Join(dir, ".toppaper", "index.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.RebuildFromJSONL(storePath)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("RebuildFromJSONL() indexed %d records, want 4", n)
	}

	return db
}

func TestDB_Count(t *testing.T) {
	db := setupTestDB(t)

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}

func TestDB_SearchKeywordKeepsStoreOrder(t *testing.T) {
	db := setupTestDB(t)

	recs, err := db.Search(SearchFilters{Author: "Kaiming"}, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Search() returned %d records, want 2", len(recs))
	}
	if recs[0].Title != "Masked Autoencoders Are Scalable Vision Learners" || recs[1].Title != "Deep Residual Learning" {
		t.Errorf("Search() order = %q, %q", recs[0].Title, recs[1].Title)
	}
}

func TestDB_SearchFilters(t *testing.T) {
	db := setupTestDB(t)

	recs, err := db.Search(SearchFilters{Source: "CVPR", YearFrom: 2020}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 1 || recs[0].CodeURL() != "https://github.com/facebookresearch/mae" {
		t.Errorf("Search(CVPR, 2020-) = %+v, want the MAE record", recs)
	}

	recs, err = db.Search(SearchFilters{HasCode: true}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("Search(HasCode) returned %d records, want 1", len(recs))
	}

	recs, err = db.Search(SearchFilters{Keyword: "estimation"}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Search(estimation) returned %d records, want 1", len(recs))
	}
	if !recs[0].HasCode() || recs[0].CodeURL() != "" {
		t.Errorf("searched record = %+v, want an empty code marker", recs[0])
	}
}

func TestDB_FindByTitle(t *testing.T) {
	db := setupTestDB(t)

	rec, err := db.FindByTitle("deep residual LEARNING")
	if err != nil {
		t.Fatalf("FindByTitle() error = %v", err)
	}
	if rec == nil {
		t.Fatal("FindByTitle() returned nil, want Deep Residual Learning")
	}
	if rec.Year != 2016 {
		t.Errorf("Year = %d, want 2016", rec.Year)
	}
	if rec.HasCode() {
		t.Error("unsearched record reports a code marker")
	}

	rec, err = db.FindByTitle("not there")
	if err != nil {
		t.Fatalf("FindByTitle() error = %v", err)
	}
	if rec != nil {
		t.Errorf("FindByTitle(not there) = %+v, want nil", rec)
	}
}

func TestDB_CountBySourceYear(t *testing.T) {
	db := setupTestDB(t)

	counts, err := db.CountBySourceYear()
	if err != nil {
		t.Fatalf("CountBySourceYear() error = %v", err)
	}
	if len(counts) != 4 {
		t.Fatalf("CountBySourceYear() returned %d rows, want 4", len(counts))
	}

	want := []SourceYearCount{
		{Source: "AAAI", Year: 2022, Papers: 1, WithAuthors: 1, WithPDF: 0, Searched: 1, WithCodeLink: 0},
		{Source: "CVPR", Year: 2022, Papers: 1, WithAuthors: 1, WithPDF: 1, Searched: 1, WithCodeLink: 1},
	}
	for i, w := range want {
		if counts[i] != w {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], w)
		}
	}
	if counts[3].Source != "ICLR" || counts[3].Year != 0 {
		t.Errorf("last row = %+v, want ICLR with unknown year", counts[3])
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" vision ", "vision"},
		{"x-ray", `"x-ray"`},
		{`say "hi"`, `"say ""hi"""`},
	}
	for _, tt := range tests {
		if got := prepareFTSQuery(tt.input); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPrepareAuthorQuery(t *testing.T) {
	if got := prepareAuthorQuery("Tim Lee"); got != `("Tim"* OR "Lee"*)` {
		t.Errorf("prepareAuthorQuery(Tim Lee) = %q", got)
	}
	if got := prepareAuthorQuery("  "); got != "" {
		t.Errorf("prepareAuthorQuery(blank) = %q, want empty", got)
	}
}
