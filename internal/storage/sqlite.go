// Package storage maintains an ephemeral SQLite full-text index over the
// bibliography. The .bib file stays the source of truth; the database is
// a disposable cache rebuilt whenever the file changes.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/westendlab/pubbib/internal/bibtex"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// EntrySummary is the row shape returned by queries: enough to find and
// cite an entry without reparsing the .bib file.
type EntrySummary struct {
	Key     string `json:"key"`
	PMID    string `json:"pmid,omitempty"`
	DOI     string `json:"doi,omitempty"`
	Title   string `json:"title"`
	Authors string `json:"authors,omitempty"`
	Journal string `json:"journal,omitempty"`
	Year    int    `json:"year,omitempty"`
}

// OpenDB opens or creates the index database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

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
		CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			pmid TEXT,
			doi TEXT,
			title TEXT,
			journal TEXT,
			authors TEXT,
			year INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_entries_pmid ON entries(pmid) WHERE pmid IS NOT NULL AND pmid != '';

		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			key,
			title,
			abstract,
			authors,
			journal
		);

		CREATE TABLE IF NOT EXISTS _meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the index and refills it from a parsed library.
// Returns the number of indexed entries.
func (d *DB) Rebuild(lib *bibtex.Library) (int, error) {
	if _, err := d.db.Exec("DELETE FROM entries"); err != nil {
		return 0, fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM entries_fts"); err != nil {
		return 0, fmt.Errorf("clearing fts table: %w", err)
	}

	entryStmt, err := d.db.Prepare(`
		INSERT INTO entries (key, pmid, doi, title, journal, authors, year)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer entryStmt.Close()

	ftsStmt, err := d.db.Prepare(`
		INSERT INTO entries_fts (key, title, abstract, authors, journal)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	count := 0
	for _, e := range lib.Entries() {
		year, _ := strconv.Atoi(e.Field("year"))
		if _, err := entryStmt.Exec(
			e.Key, e.Field("pmid"), e.Field("doi"), e.Field("title"),
			e.Field("journal"), e.Field("author"), year,
		); err != nil {
			return count, fmt.Errorf("indexing %s: %w", e.Key, err)
		}
		if _, err := ftsStmt.Exec(
			e.Key, e.Field("title"), e.Field("abstract"),
			e.Field("author"), e.Field("journal"),
		); err != nil {
			return count, fmt.Errorf("indexing %s for search: %w", e.Key, err)
		}
		count++
	}

	return count, nil
}

const selectEntryFields = `key, pmid, doi, title, journal, authors, year`

// Search performs a full-text search over titles, abstracts, authors and
// journals.
func (d *DB) Search(query string, limit int) ([]EntrySummary, error) {
	ftsQuery := prepareFTSQuery(query)

	rows, err := d.db.Query(`
		SELECT `+selectEntryFields+`
		FROM entries
		WHERE key IN (SELECT key FROM entries_fts WHERE entries_fts MATCH ?)
		ORDER BY year DESC, key
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// ListAll returns entries ordered by year (newest first) then key.
// A limit of 0 means no limit.
func (d *DB) ListAll(limit int) ([]EntrySummary, error) {
	query := `SELECT ` + selectEntryFields + ` FROM entries ORDER BY year DESC, key`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = []interface{}{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Count returns the number of indexed entries.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

func scanSummaries(rows *sql.Rows) ([]EntrySummary, error) {
	var out []EntrySummary
	for rows.Next() {
		var s EntrySummary
		var pmid, doi, title, journal, authors sql.NullString
		var year sql.NullInt64
		if err := rows.Scan(&s.Key, &pmid, &doi, &title, &journal, &authors, &year); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		s.PMID = pmid.String
		s.DOI = doi.String
		s.Title = title.String
		s.Journal = journal.String
		s.Authors = authors.String
		s.Year = int(year.Int64)
		out = append(out, s)
	}
	return out, rows.Err()
}

// prepareFTSQuery quotes queries containing FTS5 operators so user input
// is matched literally.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}
	return query
}

// StoredHash retrieves the bibliography hash recorded at the last rebuild.
func (d *DB) StoredHash() (string, error) {
	var hash sql.NullString
	err := d.db.QueryRow("SELECT value FROM _meta WHERE key = 'bib_hash'").Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

// SetStoredHash records the bibliography hash after a rebuild.
func (d *DB) SetStoredHash(hash string) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES ('bib_hash', ?)`, hash)
	return err
}

// ComputeFileHash computes the SHA-256 of a file, used for staleness
// detection. A missing file hashes as empty content.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256([]byte{})
			return hex.EncodeToString(h[:]), nil
		}
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
