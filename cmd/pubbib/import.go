package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/config"
	"github.com/westendlab/pubbib/internal/eutils"
	"github.com/westendlab/pubbib/internal/importer"
	"github.com/westendlab/pubbib/internal/member"
)

var (
	importDryRun     bool
	importActiveOnly bool
	importMember     string
	importSince      int
	importMaxResults int
	importEmail      string
	importAPIKey     string
	importDelay      time.Duration
	importMembersDir string
	importTag        string
)

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Report intended changes without writing the bibliography")
	importCmd.Flags().BoolVar(&importActiveOnly, "active-only", false, "Only process active members")
	importCmd.Flags().StringVar(&importMember, "member", "", "Only import for the member matching this name")
	importCmd.Flags().IntVar(&importSince, "since", 0, "Only import publications from this year onwards")
	importCmd.Flags().IntVar(&importMaxResults, "max-results", eutils.DefaultMaxResults, "Maximum results per member")
	importCmd.Flags().StringVar(&importEmail, "email", "", "Contact address for the NCBI API (required)")
	importCmd.Flags().StringVar(&importAPIKey, "api-key", "", "NCBI API key for the elevated rate tier")
	importCmd.Flags().DurationVar(&importDelay, "delay", 0, "Minimum delay between requests (default per credential tier)")
	importCmd.Flags().StringVar(&importMembersDir, "members", "", "Directory of member pages (overrides config)")
	importCmd.Flags().StringVar(&importTag, "tag", "", "optnote value stamped on new entries (overrides config)")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import publications from PubMed for all members",
	Long: `Import publications from PubMed and merge them into the bibliography.

Each member is looked up by ORCID when one is on file, by publication
name otherwise. Records already in the bibliography are matched by PMID:
changed records are refreshed in place (keeping their citation key),
identical ones are left alone, and new ones are appended under a fresh
key. The bibliography is written once, at the end of the run; with
--dry-run nothing is written.

Examples:
  pubbib import --email you@example.org --active-only
  pubbib import --email you@example.org --member "van Ginneken" --since 2020
  pubbib import --email you@example.org --dry-run`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

// ImportResult is the response for the import command.
type ImportResult struct {
	DryRun  bool              `json:"dry_run"`
	BibFile string            `json:"bib_file"`
	Written bool              `json:"written"`
	Summary *importer.Summary `json:"summary"`
}

func runImport(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := mustLoadConfig()

	bibPath := mustResolveBib(cfg)
	membersDir := resolveMembersDir(cfg)
	if membersDir == "" {
		exitWithError(ExitConfigError,
			"no members directory configured: pass --members or add members_dir to %s", config.Path())
	}

	email := resolveEmail(cfg, importEmail)
	if email == "" {
		exitWithError(ExitConfigError,
			"a contact email is required by the NCBI usage policy: pass --email or set PUBBIB_EMAIL")
	}

	members := mustSelectMembers(membersDir)
	lib := mustLoadLibrary(bibPath)

	excluded, err := importer.LoadExcludeFile(excludeFilePath(bibPath))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	client := newClient(cfg, email)

	var progress io.Writer
	if humanOutput {
		progress = os.Stderr
	}

	summary, err := importer.Run(context.Background(), client, lib, members, importer.Options{
		SinceYear:  importSince,
		MaxResults: importMaxResults,
		Tag:        resolveTag(cfg),
		Exclude:    excluded,
		Log:        progress,
	})
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	written, err := importer.Persist(lib, bibPath, summary, importDryRun)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		printImportSummary(summary, written)
	} else {
		outputJSON(ImportResult{
			DryRun:  importDryRun,
			BibFile: bibPath,
			Written: written,
			Summary: summary,
		})
	}

	if len(summary.Errors) > 0 {
		os.Exit(ExitNetworkError)
	}
	return nil
}

// mustSelectMembers loads and filters the member set for this run.
func mustSelectMembers(dir string) []member.Member {
	members, loadErrs, err := member.LoadDir(dir)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	for _, le := range loadErrs {
		fmt.Fprintf(os.Stderr, "warning: skipping member file %v\n", le)
	}

	if importActiveOnly {
		members = member.FilterActive(members)
	}
	if importMember != "" {
		members = member.FilterByName(members, importMember)
		if len(members) == 0 {
			exitWithError(ExitError, "no member found matching %q", importMember)
		}
	}
	return members
}

// newClient builds the E-utilities client from config and flags.
func newClient(cfg *config.Config, email string) *eutils.Client {
	opts := []eutils.ClientOption{eutils.WithEmail(email)}

	if key := resolveAPIKey(cfg, importAPIKey); key != "" {
		opts = append(opts, eutils.WithAPIKey(key))
	}
	if delay := resolveDelay(cfg); delay > 0 {
		opts = append(opts, eutils.WithInterval(delay))
	}
	return eutils.NewClient(opts...)
}

func resolveMembersDir(cfg *config.Config) string {
	if importMembersDir != "" {
		return config.ExpandTilde(importMembersDir)
	}
	if env := os.Getenv("PUBBIB_MEMBERS"); env != "" {
		return config.ExpandTilde(env)
	}
	return cfg.MembersDir
}

func resolveEmail(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("PUBBIB_EMAIL"); env != "" {
		return env
	}
	return cfg.Email
}

func resolveAPIKey(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("NCBI_API_KEY"); env != "" {
		return env
	}
	return cfg.APIKey
}

func resolveDelay(cfg *config.Config) time.Duration {
	if importDelay > 0 {
		return importDelay
	}
	delay, err := cfg.DelayDuration()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return delay
}

func resolveTag(cfg *config.Config) string {
	if importTag != "" {
		return importTag
	}
	return cfg.Tag
}

// printImportSummary renders the run outcome for human output.
func printImportSummary(summary *importer.Summary, written bool) {
	if importDryRun && len(summary.Details) > 0 {
		outputHuman("Dry run: would make the following changes:\n\n")
		for _, d := range summary.Details {
			outputHuman("  %-8s %-16s pmid:%s  %s\n",
				d.Action, d.Key, d.PMID, truncateString(d.Title, DetailTitleMaxLen))
		}
		outputHuman("\n")
	}

	outputHuman("Members processed: %d\n", summary.Members)
	outputHuman("  inserted:  %d\n", summary.Inserted)
	outputHuman("  updated:   %d\n", summary.Updated)
	outputHuman("  unchanged: %d\n", summary.Unchanged)
	if summary.Excluded > 0 {
		outputHuman("  excluded:  %d\n", summary.Excluded)
	}
	if len(summary.Errors) > 0 {
		outputHuman("  errors:    %d\n", len(summary.Errors))
		for _, e := range summary.Errors {
			outputHuman("    %s: %s\n", e.Member, e.Err)
		}
	}

	switch {
	case importDryRun:
		outputHuman("\nDry run: bibliography not modified\n")
	case written:
		outputHuman("\nBibliography updated\n")
	default:
		outputHuman("\nNo changes; bibliography left untouched\n")
	}
}
