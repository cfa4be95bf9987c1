package main

import (
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/bibtex"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the bibliography for duplicate keys and identifiers",
	Long: `Check the bibliography for integrity problems: duplicate citation
keys, duplicate PMIDs and duplicate DOIs. These break deduplication on
the next import, so they should be cleaned up when found.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

// VerifyResult is the response for the verify command.
type VerifyResult struct {
	Status  string        `json:"status"`
	Entries int           `json:"entries"`
	Issues  []VerifyIssue `json:"issues"`
}

// VerifyIssue represents a single issue found during verification.
type VerifyIssue struct {
	Type  string   `json:"type"` // duplicate_key, duplicate_pmid, duplicate_doi
	Value string   `json:"value"`
	Keys  []string `json:"keys"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bibPath := mustResolveBib(cfg)

	// Parse raw entries rather than loading a Library: the Library
	// enforces the very invariants this command exists to diagnose.
	data, err := os.ReadFile(bibPath)
	if err != nil {
		exitWithError(ExitDataError, "reading bibliography: %v", err)
	}
	entries, err := bibtex.Parse(data)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	issues := collectIssues(entries)

	status := "ok"
	if len(issues) > 0 {
		status = "issues"
	}

	if humanOutput {
		if len(issues) == 0 {
			outputHuman("Bibliography check: OK\n\n%d entries checked\n", len(entries))
		} else {
			outputHuman("Bibliography check: %d issues found\n\n", len(issues))
			for _, issue := range issues {
				outputHuman("  [WARN] %s %s\n", issue.Type, issue.Value)
				for _, key := range issue.Keys {
					outputHuman("         entry: %s\n", key)
				}
			}
			outputHuman("\n%d entries checked\n", len(entries))
		}
	} else {
		outputJSON(VerifyResult{
			Status:  status,
			Entries: len(entries),
			Issues:  issues,
		})
	}

	if len(issues) > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}

// collectIssues finds duplicate keys, PMIDs and DOIs across entries.
func collectIssues(entries []*bibtex.Entry) []VerifyIssue {
	keyMap := make(map[string][]string)
	pmidMap := make(map[string][]string)
	doiMap := make(map[string][]string)

	for _, e := range entries {
		keyMap[e.Key] = append(keyMap[e.Key], e.Key)
		if pmid := e.PMID(); pmid != "" {
			pmidMap[pmid] = append(pmidMap[pmid], e.Key)
		}
		if doi := e.Field("doi"); doi != "" {
			doiMap[doi] = append(doiMap[doi], e.Key)
		}
	}

	issues := []VerifyIssue{}
	for key, keys := range keyMap {
		if len(keys) > 1 {
			issues = append(issues, VerifyIssue{Type: "duplicate_key", Value: key, Keys: keys})
		}
	}
	for pmid, keys := range pmidMap {
		if len(keys) > 1 {
			issues = append(issues, VerifyIssue{Type: "duplicate_pmid", Value: pmid, Keys: keys})
		}
	}
	for doi, keys := range doiMap {
		if len(keys) > 1 {
			issues = append(issues, VerifyIssue{Type: "duplicate_doi", Value: doi, Keys: keys})
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Type != issues[j].Type {
			return issues[i].Type < issues[j].Type
		}
		return issues[i].Value < issues[j].Value
	})
	return issues
}
