package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/westendlab/pubbib/internal/bibtex"
)

func testLibrary(t *testing.T) *bibtex.Library {
	t.Helper()
	lib := bibtex.NewLibrary()
	entries := []*bibtex.Entry{
		{Type: "article", Key: "Harmon24a", Fields: map[string]string{
			"title":    "A phylogenetic method",
			"author":   "Harmon, Alice J",
			"journal":  "Syst Biol",
			"year":     "2024",
			"pmid":     "39000001",
			"abstract": "We describe a method for trees.",
		}},
		{Type: "article", Key: "Chen23a", Fields: map[string]string{
			"title":   "Antibody repertoires",
			"author":  "Chen, Jane",
			"journal": "Immunity",
			"year":    "2023",
			"pmid":    "38000002",
		}},
	}
	for _, e := range entries {
		if err := lib.Add(e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return lib
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRebuildAndSearch(t *testing.T) {
	db := openTestDB(t)

	count, err := db.Rebuild(testLibrary(t))
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if count != 2 {
		t.Errorf("Rebuild count = %d, want 2", count)
	}

	results, err := db.Search("phylogenetic", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Key != "Harmon24a" {
		t.Fatalf("Search = %v, want Harmon24a", results)
	}
	if results[0].Year != 2024 || results[0].PMID != "39000001" {
		t.Errorf("result = %+v", results[0])
	}

	// Abstract text is searchable too.
	results, err = db.Search("trees", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("abstract search found %d, want 1", len(results))
	}

	// Rebuild replaces, never accumulates.
	if _, err := db.Rebuild(testLibrary(t)); err != nil {
		t.Fatalf("second Rebuild: %v", err)
	}
	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count after second rebuild = %d, want 2", n)
	}
}

func TestSearchQuotesOperators(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Rebuild(testLibrary(t)); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// FTS operator characters in user input must not be a syntax error.
	if _, err := db.Search(`method (trees)`, 10); err != nil {
		t.Errorf("Search with parens: %v", err)
	}
	if _, err := db.Search(`"quoted"`, 10); err != nil {
		t.Errorf("Search with quotes: %v", err)
	}
}

func TestListAll(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Rebuild(testLibrary(t)); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	all, err := db.ListAll(0)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll = %d entries, want 2", len(all))
	}
	// Newest first.
	if all[0].Key != "Harmon24a" || all[1].Key != "Chen23a" {
		t.Errorf("order = [%s, %s], want newest first", all[0].Key, all[1].Key)
	}

	one, err := db.ListAll(1)
	if err != nil {
		t.Fatalf("ListAll(1): %v", err)
	}
	if len(one) != 1 {
		t.Errorf("ListAll(1) = %d entries, want 1", len(one))
	}
}

func TestStoredHash(t *testing.T) {
	db := openTestDB(t)

	hash, err := db.StoredHash()
	if err != nil {
		t.Fatalf("StoredHash: %v", err)
	}
	if hash != "" {
		t.Errorf("fresh database hash = %q, want empty", hash)
	}

	if err := db.SetStoredHash("abc123"); err != nil {
		t.Fatalf("SetStoredHash: %v", err)
	}
	hash, err = db.StoredHash()
	if err != nil {
		t.Fatalf("StoredHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("hash = %q, want abc123", hash)
	}
}

func TestComputeFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")

	missing, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash missing: %v", err)
	}

	if err := os.WriteFile(path, []byte("@article{k,}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	written, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash: %v", err)
	}
	if written == missing {
		t.Error("hash should change once the file has content")
	}

	again, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash: %v", err)
	}
	if again != written {
		t.Error("hash must be stable for unchanged content")
	}
}
