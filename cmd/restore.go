package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmux-vault/tmux-vault/internal/archive"
	"github.com/tmux-vault/tmux-vault/internal/backup"
	"github.com/tmux-vault/tmux-vault/internal/catalog"
	"github.com/tmux-vault/tmux-vault/internal/mux"
	"github.com/tmux-vault/tmux-vault/internal/report"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [backup-file]",
	Short: "Restore sessions from a backup",
	Long: `Restore recreates the sessions, windows, pane layouts and pane
contents of a backup in the running tmux server. Without an argument
the most recent backup in the backup directory is used.

Run from inside tmux, a session that already exists is killed and
recreated from the backup. Run from outside, existing sessions are
left alone and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		tel := initTelemetry(ctx, cfg)
		if tel != nil {
			defer tel.Shutdown(ctx)
		}

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			latest, ok, err := catalog.Latest(cfg.Dirpath)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no backups in %s", cfg.Dirpath)
			}
			path = latest.Filepath
		}

		snap, err := archive.Read(path)
		if err != nil {
			return err
		}

		m, err := getMultiplexer()
		if err != nil {
			return err
		}

		restorer := &backup.Restorer{
			Mux:     m,
			Replace: mux.InsideMux(),
		}
		if tel != nil {
			restorer.Metrics = tel.Metrics
		}

		res, err := restorer.Restore(ctx, snap)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		fmt.Print(report.Restore(res, path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
