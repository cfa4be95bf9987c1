package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/storage"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the search index from the bibliography",
	Long: `Rebuild the SQLite search index from the .bib file.

The index lives next to the bibliography and is rebuilt automatically
when the file changes; this forces a rebuild after corruption or a
schema change.`,
	RunE: runIndex,
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
	Path    string `json:"path"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bibPath := mustResolveBib(cfg)
	lib := mustLoadLibrary(bibPath)

	dbPath := indexDBPath(bibPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		exitWithError(ExitError, "creating index directory: %v", err)
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer db.Close()

	count, err := db.Rebuild(lib)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}

	hash, err := storage.ComputeFileHash(bibPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := db.SetStoredHash(hash); err != nil {
		exitWithError(ExitError, "recording bibliography hash: %v", err)
	}

	if humanOutput {
		outputHuman("Indexed %d entries from %s\n", count, bibPath)
	} else {
		outputJSON(IndexResult{Status: "rebuilt", Entries: count, Path: dbPath})
	}
	return nil
}
