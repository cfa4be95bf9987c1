package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/westendlab/pubbib/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  pubbib config                                # Show all config
  pubbib config email                          # Get specific value
  pubbib config email alice@westendlab.org     # Set value

Keys:
  email        Contact address sent with NCBI requests
  api-key      NCBI API key (raises the request rate tier)
  bib-file     Path to the bibliography .bib file
  members-dir  Directory of member pages
  tag          optnote value stamped on imported entries
  delay        Request interval override, e.g. "2s"`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("email:       %s\n", cfg.Email)
			fmt.Printf("api-key:     %s\n", maskKey(cfg.APIKey))
			fmt.Printf("bib-file:    %s\n", cfg.BibFile)
			fmt.Printf("members-dir: %s\n", cfg.MembersDir)
			fmt.Printf("tag:         %s\n", cfg.Tag)
			fmt.Printf("delay:       %s\n", cfg.Delay)
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := configValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	switch key {
	case "email":
		cfg.Email = value
	case "api-key":
		cfg.APIKey = value
	case "bib-file":
		cfg.BibFile = config.ExpandTilde(value)
	case "members-dir":
		cfg.MembersDir = config.ExpandTilde(value)
	case "tag":
		cfg.Tag = value
	case "delay":
		if _, err := time.ParseDuration(value); err != nil {
			exitWithError(ExitError, "invalid delay %q: expected a duration like 2s", value)
		}
		cfg.Delay = value
	default:
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	if err := cfg.Save(); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}

	return nil
}

// UpdateResponse reports a config change.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func configValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "email":
		return cfg.Email, true
	case "api-key":
		return cfg.APIKey, true
	case "bib-file":
		return cfg.BibFile, true
	case "members-dir":
		return cfg.MembersDir, true
	case "tag":
		return cfg.Tag, true
	case "delay":
		return cfg.Delay, true
	}
	return "", false
}

// maskKey hides all but the tail of an API key in human output.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// normalizeKey converts key formats (api_key, API-KEY) to a consistent format.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
