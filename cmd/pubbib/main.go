// Package main provides the pubbib CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// bibFlag overrides the bibliography path from config
var bibFlag string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubbib",
	Short: "PubMed bibliography importer for a research group",
	Long: `pubbib keeps a group bibliography (.bib file) in sync with PubMed.

It reads member pages for names and ORCIDs, queries the NCBI E-utilities
API one member at a time, and merges the results into the bibliography:
new publications get a fresh citation key, changed ones are refreshed in
place, and existing keys are never rewritten. All commands output JSON
by default for easy scripting; pass --human for readable text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&bibFlag, "bib", "", "Path to the bibliography .bib file (overrides config)")
	rootCmd.Version = Version
}
