package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/config"
	"github.com/westendlab/pubbib/internal/member"
)

var (
	membersDirFlag   string
	membersActive    bool
	membersNameMatch string
)

func init() {
	membersCmd.Flags().StringVar(&membersDirFlag, "members", "", "Directory of member pages (overrides config)")
	membersCmd.Flags().BoolVar(&membersActive, "active-only", false, "Only list active members")
	membersCmd.Flags().StringVar(&membersNameMatch, "member", "", "Only list members matching this name")
	rootCmd.AddCommand(membersCmd)
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List parsed member records",
	Long: `List the member records the importer would process, with their
ORCID, publication alias and active state. Useful for checking that
member pages parse before running an import.`,
	Args: cobra.NoArgs,
	RunE: runMembers,
}

// MembersResult is the response for the members command.
type MembersResult struct {
	Members []member.Member `json:"members"`
	Skipped []string        `json:"skipped,omitempty"`
}

func runMembers(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	dir := membersDirFlag
	if dir == "" {
		dir = os.Getenv("PUBBIB_MEMBERS")
	}
	if dir == "" {
		dir = cfg.MembersDir
	}
	if dir == "" {
		exitWithError(ExitConfigError,
			"no members directory configured: pass --members or add members_dir to %s", config.Path())
	}
	dir = config.ExpandTilde(dir)

	members, loadErrs, err := member.LoadDir(dir)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if membersActive {
		members = member.FilterActive(members)
	}
	if membersNameMatch != "" {
		members = member.FilterByName(members, membersNameMatch)
	}

	if humanOutput {
		for _, m := range members {
			active := " "
			if m.Active {
				active = "*"
			}
			orcid := m.ORCIDID()
			if orcid == "" {
				orcid = "-"
			}
			line := fmt.Sprintf("%s %-30s %s", active, m.Name, orcid)
			if m.PubName != "" {
				line += fmt.Sprintf("  (publishes as %s)", m.PubName)
			}
			outputHuman("%s\n", line)
		}
		outputHuman("\n%d members (* = active)\n", len(members))
		for _, le := range loadErrs {
			fmt.Fprintf(os.Stderr, "warning: skipped %v\n", le)
		}
	} else {
		result := MembersResult{Members: members}
		if result.Members == nil {
			result.Members = []member.Member{}
		}
		for _, le := range loadErrs {
			result.Skipped = append(result.Skipped, le.Error())
		}
		outputJSON(result)
	}

	return nil
}
