package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/storage"
)

// DefaultSearchLimit caps search results unless --limit says otherwise.
const DefaultSearchLimit = 20

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the bibliography by keyword",
	Long: `Search bibliography entries by keyword.

The query matches titles, abstracts, authors and journal names. The
search index is rebuilt automatically when the .bib file has changed.

Examples:
  pubbib search "influenza"
  pubbib search "antibody repertoire" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bibPath := mustResolveBib(cfg)

	db, err := openFreshIndex(bibPath)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer db.Close()

	entries, err := db.Search(args[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	// Empty result is not an error
	if entries == nil {
		entries = []storage.EntrySummary{}
	}

	if humanOutput {
		if len(entries) == 0 {
			fmt.Println("No entries found")
		} else {
			fmt.Printf("Found %d entries:\n\n", len(entries))
			for i, e := range entries {
				printEntrySummary(i+1, e)
			}
		}
	} else {
		outputJSON(entries)
	}

	return nil
}

func printEntrySummary(num int, e storage.EntrySummary) {
	fmt.Printf("[%d] %s\n", num, e.Key)
	fmt.Printf("    %s\n", truncateString(e.Title, SearchTitleMaxLen))
	if e.Authors != "" {
		fmt.Printf("    %s\n", truncateString(formatAuthorLine(e.Authors), SearchTitleMaxLen))
	}
	if e.Journal != "" {
		fmt.Printf("    %s (%d)\n", e.Journal, e.Year)
	} else if e.Year > 0 {
		fmt.Printf("    (%d)\n", e.Year)
	}
	fmt.Println()
}

// formatAuthorLine condenses a BibTeX author field for display: the
// first three surnames, then "et al."
func formatAuthorLine(authors string) string {
	parts := strings.Split(authors, " and ")
	var names []string
	for i, p := range parts {
		if i >= 3 {
			names = append(names, "et al.")
			break
		}
		if last, _, ok := strings.Cut(p, ","); ok {
			names = append(names, strings.TrimSpace(last))
		} else {
			names = append(names, strings.TrimSpace(p))
		}
	}
	return strings.Join(names, ", ")
}
