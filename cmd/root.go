package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmux-vault/tmux-vault/internal/catalog"
	"github.com/tmux-vault/tmux-vault/internal/config"
	"github.com/tmux-vault/tmux-vault/internal/mux"
	telem "github.com/tmux-vault/tmux-vault/internal/otel"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags. Flags beat environment beats config file.
	flagMux      string
	flagDirpath  string
	flagStrategy string
	flagKeep     int
)

var rootCmd = &cobra.Command{
	Use:   "tmux-vault",
	Short: "Back up and restore tmux sessions",
	Long: `tmux-vault saves the full state of a running tmux server — sessions,
windows, pane layouts and pane contents — into compressed archives, and
restores any archive back into a live tmux.

Backups are plain tar.zst files named by their creation timestamp; the
backup directory is the whole catalog. Retention strategies decide which
backups compaction keeps.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMux, "mux", "", "terminal multiplexer: tmux (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&flagDirpath, "dirpath", "", "backup directory (default: $XDG_STATE_HOME/tmux-vault)")
	rootCmd.PersistentFlags().StringVar(&flagStrategy, "strategy", "", "retention strategy: classic, most-recent")
	rootCmd.PersistentFlags().IntVar(&flagKeep, "keep", 0, "backups kept by the most-recent strategy")
}

// loadConfig resolves the effective configuration: defaults, config
// file, environment, then command-line flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagDirpath != "" {
		cfg.Dirpath = flagDirpath
	}
	if flagStrategy != "" {
		cfg.Strategy = flagStrategy
	}
	if cmd.Flags().Changed("keep") {
		cfg.Keep = flagKeep
	}
	return cfg, nil
}

// getStrategy maps the configured strategy name to an implementation.
func getStrategy(cfg *config.Config) (catalog.Strategy, error) {
	switch cfg.Strategy {
	case "classic":
		return catalog.Classic{}, nil
	case "most-recent":
		return catalog.KeepMostRecent{K: cfg.Keep}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: classic, most-recent)", cfg.Strategy)
	}
}

// getMultiplexer returns the configured or auto-detected multiplexer.
func getMultiplexer() (mux.Multiplexer, error) {
	if flagMux != "" {
		return mux.FromName(flagMux)
	}
	return mux.Detect()
}

// initTelemetry initializes OTEL (no-op if no endpoint configured).
// A failed init is a warning, never fatal.
func initTelemetry(ctx context.Context, cfg *config.Config) *telem.Telemetry {
	telem.Version = Version
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
		return nil
	}
	return tel
}
