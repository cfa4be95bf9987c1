package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/storage"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum entries to show (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bibliography entries",
	Long:  `List bibliography entries, newest first.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bibPath := mustResolveBib(cfg)

	db, err := openFreshIndex(bibPath)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer db.Close()

	entries, err := db.ListAll(listLimit)
	if err != nil {
		exitWithError(ExitError, "listing entries: %v", err)
	}
	if entries == nil {
		entries = []storage.EntrySummary{}
	}

	if humanOutput {
		if len(entries) == 0 {
			fmt.Println("No entries")
			return nil
		}
		for _, e := range entries {
			year := "----"
			if e.Year > 0 {
				year = fmt.Sprintf("%d", e.Year)
			}
			fmt.Printf("%-20s %s  %s\n", e.Key, year, truncateString(e.Title, ListTitleMaxLen))
		}
		fmt.Printf("\n%d entries\n", len(entries))
	} else {
		outputJSON(entries)
	}

	return nil
}
