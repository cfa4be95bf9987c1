package main

import (
	"os"
	"path/filepath"

	"github.com/westendlab/pubbib/internal/bibtex"
	"github.com/westendlab/pubbib/internal/config"
	"github.com/westendlab/pubbib/internal/storage"
)

// mustLoadConfig loads the global config or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// resolveBib returns the bibliography path from the --bib flag, the
// PUBBIB_BIB environment variable, or config, in that order.
func resolveBib(cfg *config.Config) string {
	if bibFlag != "" {
		return config.ExpandTilde(bibFlag)
	}
	if env := os.Getenv("PUBBIB_BIB"); env != "" {
		return config.ExpandTilde(env)
	}
	return cfg.BibFile
}

// mustResolveBib is resolveBib with a helpful exit when nothing is set.
func mustResolveBib(cfg *config.Config) string {
	path := resolveBib(cfg)
	if path == "" {
		exitWithError(ExitConfigError,
			"no bibliography configured: pass --bib, set PUBBIB_BIB, or add bib_file to %s", config.Path())
	}
	return path
}

// mustLoadLibrary parses the bibliography or exits. Duplicate PMIDs or
// keys in the file are data errors: the store is the deduplication
// index, so importing on top of a broken one would compound the damage
// (run verify to locate the duplicates).
func mustLoadLibrary(path string) *bibtex.Library {
	lib, err := bibtex.Load(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return lib
}

// indexDBPath returns the path of the ephemeral index database kept
// alongside the bibliography.
func indexDBPath(bibPath string) string {
	return filepath.Join(filepath.Dir(bibPath), ".pubbib", "index.db")
}

// excludeFilePath returns the path of the PMID exclusion list.
func excludeFilePath(bibPath string) string {
	return bibPath + ".exclude"
}

// openFreshIndex opens the index database, rebuilding it when the
// bibliography has changed since the last rebuild.
func openFreshIndex(bibPath string) (*storage.DB, error) {
	dbPath := indexDBPath(bibPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return nil, err
	}

	hash, err := storage.ComputeFileHash(bibPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	stored, err := db.StoredHash()
	if err != nil {
		db.Close()
		return nil, err
	}
	if stored == hash {
		return db, nil
	}

	lib, err := bibtex.Load(bibPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Rebuild(lib); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.SetStoredHash(hash); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
