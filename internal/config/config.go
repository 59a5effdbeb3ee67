// Package config loads tmux-vault configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (TMUX_VAULT_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .tmux-vault.yaml in current directory
//  2. ~/.config/tmux-vault/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all tmux-vault configuration.
type Config struct {
	// Dirpath is the backup directory.
	Dirpath string `yaml:"dirpath"`

	// Retention settings
	Strategy string `yaml:"strategy"` // "classic" or "most-recent"
	Keep     int    `yaml:"keep"`     // backups kept by the most-recent strategy

	// Save settings
	Parallel        int `yaml:"parallel"`          // concurrent pane captures
	IgnoreLastLines int `yaml:"ignore_last_lines"` // trailing prompt lines dropped from shell panes

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Dirpath:  DefaultDirpath(),
		Strategy: "classic",
		Keep:     10,
		Parallel: 4,
	}
}

// DefaultDirpath returns the default backup directory:
// $XDG_STATE_HOME/tmux-vault, or ~/.local/state/tmux-vault.
func DefaultDirpath() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "tmux-vault")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "tmux-vault"
	}
	return filepath.Join(home, ".local", "state", "tmux-vault")
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	if err := mergeEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".tmux-vault.yaml"); err == nil {
		return ".tmux-vault.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "tmux-vault", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Dirpath != "" {
		cfg.Dirpath = file.Dirpath
	}
	if file.Strategy != "" {
		cfg.Strategy = file.Strategy
	}
	if file.Keep > 0 {
		cfg.Keep = file.Keep
	}
	if file.Parallel > 0 {
		cfg.Parallel = file.Parallel
	}
	if file.IgnoreLastLines > 0 {
		cfg.IgnoreLastLines = file.IgnoreLastLines
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) error {
	if v := os.Getenv("TMUX_VAULT_DIRPATH"); v != "" {
		cfg.Dirpath = v
	}
	if v := os.Getenv("TMUX_VAULT_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("TMUX_VAULT_KEEP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TMUX_VAULT_KEEP %q: %w", v, err)
		}
		cfg.Keep = n
	}
	if v := os.Getenv("TMUX_VAULT_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TMUX_VAULT_PARALLEL %q: %w", v, err)
		}
		cfg.Parallel = n
	}
	if v := os.Getenv("TMUX_VAULT_IGNORE_LAST_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TMUX_VAULT_IGNORE_LAST_LINES %q: %w", v, err)
		}
		cfg.IgnoreLastLines = n
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	return nil
}
