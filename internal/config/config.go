// Package config handles the global pubbib configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/pubbib/config.yml.
// Flags and environment variables override anything set here.
type Config struct {
	Email      string `yaml:"email,omitempty" json:"email,omitempty"`             // Contact address for NCBI requests
	APIKey     string `yaml:"api_key,omitempty" json:"api_key,omitempty"`         // NCBI API key (elevated rate tier)
	BibFile    string `yaml:"bib_file,omitempty" json:"bib_file,omitempty"`       // Path to the bibliography .bib file
	MembersDir string `yaml:"members_dir,omitempty" json:"members_dir,omitempty"` // Directory of member pages
	Tag        string `yaml:"tag,omitempty" json:"tag,omitempty"`                 // optnote value stamped on inserts
	Delay      string `yaml:"delay,omitempty" json:"delay,omitempty"`             // Request interval override, e.g. "2s"
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "pubbib"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// cache holds the loaded config for the process lifetime.
var cache *Config

// Path returns the path to the global config file. Respects
// XDG_CONFIG_HOME, defaults to ~/.config/pubbib/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the configuration file. A missing file yields an empty
// config, not an error.
func Load() (*Config, error) {
	if cache != nil {
		return cache, nil
	}

	path := Path()
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.BibFile = ExpandTilde(cfg.BibFile)
	cfg.MembersDir = ExpandTilde(cfg.MembersDir)

	cache = &cfg
	return &cfg, nil
}

// Save writes the configuration back to the global config file,
// creating the directory if needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	cache = c
	return nil
}

// ResetCache clears the cached config. Useful for testing.
func ResetCache() {
	cache = nil
}

// DelayDuration parses the configured request interval, or 0 when unset.
func (c *Config) DelayDuration() (time.Duration, error) {
	if c.Delay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", c.Delay, err)
	}
	return d, nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
