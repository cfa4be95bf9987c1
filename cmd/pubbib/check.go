package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/eutils"
)

var (
	checkEmail  string
	checkAPIKey string
)

func init() {
	checkCmd.Flags().StringVar(&checkEmail, "email", "", "Contact address for the NCBI API")
	checkCmd.Flags().StringVar(&checkAPIKey, "api-key", "", "NCBI API key to verify")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify PubMed connectivity",
	Long: `Verify that the NCBI E-utilities API is reachable with the configured
credentials. Issues one minimal search request; no member is processed
and nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status   string `json:"status"`
	Tier     string `json:"tier"`     // "keyed" or "anonymous"
	Interval string `json:"interval"` // Effective minimum request interval
}

func runCheck(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := mustLoadConfig()

	email := resolveEmail(cfg, checkEmail)

	tier := "anonymous"
	opts := []eutils.ClientOption{eutils.WithEmail(email)}
	if key := resolveAPIKey(cfg, checkAPIKey); key != "" {
		opts = append(opts, eutils.WithAPIKey(key))
		tier = "keyed"
	}
	client := eutils.NewClient(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		exitWithError(ExitNetworkError, "PubMed not reachable: %v", err)
	}

	result := CheckResult{
		Status:   "ok",
		Tier:     tier,
		Interval: client.Interval().String(),
	}
	if humanOutput {
		outputHuman("PubMed reachable (%s tier, %s between requests)\n", result.Tier, result.Interval)
	} else {
		outputJSON(result)
	}
	return nil
}
