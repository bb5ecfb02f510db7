package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/renyezhang/toppaper/internal/record"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite query index built from the canonical store.
// The index is ephemeral: the JSONL store is the source of truth and the
// index can be rebuilt from it at any time.
type DB struct {
	db *sql.DB
}

const selectPaperFields = `pos, title, source, year, pdf_link, authors_json, has_code, code`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			pos INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			title_key TEXT NOT NULL,
			source TEXT NOT NULL,
			year INTEGER NOT NULL,
			pdf_link TEXT,
			authors_json TEXT NOT NULL,
			has_code INTEGER NOT NULL,
			code TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_papers_source_year ON papers(source, year);
		CREATE INDEX IF NOT EXISTS idx_papers_title_key ON papers(title_key);

		-- rowid mirrors papers.pos
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			title,
			authors_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJSONL clears the index and rebuilds it from a collection file.
// The store position is kept so query results come back in canonical order.
func (d *DB) RebuildFromJSONL(path string) (int, error) {
	recs, err := ReadAll(path)
	if err != nil {
		return 0, fmt.Errorf("reading store: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM papers_fts"); err != nil {
		return 0, fmt.Errorf("clearing papers_fts table: %w", err)
	}

	papersStmt, err := tx.Prepare(`
		INSERT INTO papers (pos, title, title_key, source, year, pdf_link, authors_json, has_code, code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer papersStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO papers_fts (rowid, title, authors_text) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, rec := range recs {
		authors := rec.Authors
		if authors == nil {
			authors = []string{}
		}
		authorsJSON, err := json.Marshal(authors)
		if err != nil {
			return 0, fmt.Errorf("marshaling authors for %q: %w", rec.Title, err)
		}

		hasCode := 0
		if rec.HasCode() {
			hasCode = 1
		}

		_, err = papersStmt.Exec(i, rec.Title, rec.Key(), rec.Source, int(rec.Year),
			nullableStringValue(rec.PDFLink), string(authorsJSON), hasCode, nullableStringValue(rec.CodeURL()))
		if err != nil {
			return 0, fmt.Errorf("inserting %q: %w", rec.Title, err)
		}

		if _, err := ftsStmt.Exec(i, rec.Title, strings.Join(rec.Authors, ", ")); err != nil {
			return 0, fmt.Errorf("inserting fts for %q: %w", rec.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index: %w", err)
	}

	return len(recs), nil
}

// SearchFilters contains optional filters for Search.
type SearchFilters struct {
	Keyword  string // Full-text search over title and authors
	Author   string // Author-only search with prefix matching
	Source   string // Exact venue code
	YearFrom int    // Minimum year (0 = no minimum)
	YearTo   int    // Maximum year (0 = no maximum)
	HasCode  bool   // Only records with a non-empty code link
}

// Search returns records matching ALL specified criteria in store order.
func (d *DB) Search(filters SearchFilters, limit int) ([]record.Record, error) {
	var ftsTerms []string
	var args []interface{}

	if filters.Keyword != "" {
		ftsTerms = append(ftsTerms, prepareFTSQuery(filters.Keyword))
	}
	if filters.Author != "" {
		ftsTerms = append(ftsTerms, "authors_text:"+prepareAuthorQuery(filters.Author))
	}

	var query string
	if len(ftsTerms) > 0 {
		query = `SELECT ` + selectPaperFields + `
			FROM papers
			WHERE pos IN (SELECT rowid FROM papers_fts WHERE papers_fts MATCH ?)`
		args = append(args, strings.Join(ftsTerms, " AND "))
	} else {
		query = `SELECT ` + selectPaperFields + ` FROM papers WHERE 1=1`
	}

	if filters.Source != "" {
		query += " AND source = ?"
		args = append(args, filters.Source)
	}
	if filters.YearFrom > 0 {
		query += " AND year >= ?"
		args = append(args, filters.YearFrom)
	}
	if filters.YearTo > 0 {
		query += " AND year <= ?"
		args = append(args, filters.YearTo)
	}
	if filters.HasCode {
		query += " AND code IS NOT NULL AND code != ''"
	}

	query += " ORDER BY pos"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByTitle returns the record whose normalized title matches, or nil.
func (d *DB) FindByTitle(title string) (*record.Record, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE title_key = ? ORDER BY pos LIMIT 1`,
		record.NormalizeTitle(title))
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Count returns the total number of indexed records.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// SourceYearCount is one row of the per-venue breakdown.
type SourceYearCount struct {
	Source       string `json:"source"`
	Year         int    `json:"year"`
	Papers       int    `json:"papers"`
	WithAuthors  int    `json:"with_authors"`
	WithPDF      int    `json:"with_pdf"`
	Searched     int    `json:"searched"`
	WithCodeLink int    `json:"with_code"`
}

// CountBySourceYear groups the index by venue and year, newest first.
func (d *DB) CountBySourceYear() ([]SourceYearCount, error) {
	rows, err := d.db.Query(`
		SELECT source, year, COUNT(*),
			SUM(CASE WHEN authors_json != '[]' THEN 1 ELSE 0 END),
			SUM(CASE WHEN pdf_link IS NOT NULL AND pdf_link != '' THEN 1 ELSE 0 END),
			SUM(has_code),
			SUM(CASE WHEN code IS NOT NULL AND code != '' THEN 1 ELSE 0 END)
		FROM papers
		GROUP BY source, year
		ORDER BY year DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("counting by source: %w", err)
	}
	defer rows.Close()

	var counts []SourceYearCount
	for rows.Next() {
		var c SourceYearCount
		if err := rows.Scan(&c.Source, &c.Year, &c.Papers, &c.WithAuthors, &c.WithPDF, &c.Searched, &c.WithCodeLink); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*record.Record, error) {
	var rec record.Record
	var pos, year, hasCode int
	var pdfLink, code sql.NullString
	var authorsJSON string

	if err := s.Scan(&pos, &rec.Title, &rec.Source, &year, &pdfLink, &authorsJSON, &hasCode, &code); err != nil {
		return nil, err
	}

	rec.Year = record.Year(year)
	rec.PDFLink = pdfLink.String
	if hasCode == 1 {
		rec.SetCode(code.String)
	}
	if err := json.Unmarshal([]byte(authorsJSON), &rec.Authors); err != nil {
		return nil, fmt.Errorf("parsing authors JSON for %q: %w", rec.Title, err)
	}

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]record.Record, error) {
	var recs []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~,.") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

// prepareAuthorQuery prepares an author name for FTS5 search with prefix matching.
// It adds a wildcard (*) to enable fuzzy matching (e.g., "Tim" matches "Timothy").
func prepareAuthorQuery(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return author
	}

	parts := strings.Fields(author)
	var terms []string
	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"*")
	}

	// Use OR for multi-word author queries (match any part)
	return "(" + strings.Join(terms, " OR ") + ")"
}
