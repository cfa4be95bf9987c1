package main

import (
	"regexp"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/importer"
)

var excludeNote string

// pmidFormat: PMIDs are plain digit strings.
var pmidFormat = regexp.MustCompile(`^\d+$`)

func init() {
	excludeCmd.Flags().StringVar(&excludeNote, "note", "", "Why this PMID is excluded")
	rootCmd.AddCommand(excludeCmd)
}

var excludeCmd = &cobra.Command{
	Use:   "exclude <pmid>",
	Short: "Exclude a PMID from future imports",
	Long: `Record a PMID in the exclusion list kept next to the bibliography
(<bibfile>.exclude). Excluded PMIDs are skipped by every later import,
for works that match a member's search but do not belong in the group
bibliography.`,
	Args: cobra.ExactArgs(1),
	RunE: runExclude,
}

// ExcludeResult is the response for the exclude command.
type ExcludeResult struct {
	Status string `json:"status"`
	PMID   string `json:"pmid"`
	Path   string `json:"path"`
}

func runExclude(cmd *cobra.Command, args []string) error {
	pmid := args[0]
	if !pmidFormat.MatchString(pmid) {
		exitWithError(ExitError, "not a valid PMID: %q", pmid)
	}

	cfg := mustLoadConfig()
	path := excludeFilePath(mustResolveBib(cfg))

	excluded, err := importer.LoadExcludeFile(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	status := "added"
	if excluded[pmid] {
		status = "already_excluded"
	} else if err := importer.AppendExclude(path, pmid, excludeNote); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		if status == "added" {
			outputHuman("PMID %s added to %s\n", pmid, path)
		} else {
			outputHuman("PMID %s is already excluded\n", pmid)
		}
	} else {
		outputJSON(ExcludeResult{Status: status, PMID: pmid, Path: path})
	}
	return nil
}
