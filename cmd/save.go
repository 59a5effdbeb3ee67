package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmux-vault/tmux-vault/internal/backup"
	"github.com/tmux-vault/tmux-vault/internal/catalog"
	"github.com/tmux-vault/tmux-vault/internal/report"
)

var (
	flagSaveCompact     bool
	flagIgnoreLastLines int
	flagSaveParallel    int
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current tmux state into a new backup",
	Long: `Save captures every session, window and pane of the running tmux
server, including each pane's full scrollback, and writes one archive
into the backup directory.

A pane whose content cannot be captured is saved without content and
reported as a warning; a tmux that cannot be enumerated at all fails
the save.`,
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

		m, err := getMultiplexer()
		if err != nil {
			return err
		}

		ignoreLastLines := cfg.IgnoreLastLines
		if cmd.Flags().Changed("ignore-last-lines") {
			ignoreLastLines = flagIgnoreLastLines
		}
		parallel := cfg.Parallel
		if cmd.Flags().Changed("parallel") {
			parallel = flagSaveParallel
		}

		saver := &backup.Saver{
			Mux:             m,
			Dir:             cfg.Dirpath,
			Parallel:        parallel,
			IgnoreLastLines: ignoreLastLines,
		}
		if tel != nil {
			saver.Metrics = tel.Metrics
		}

		res, err := saver.Save(ctx)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		fmt.Print(report.Save(res))

		if !flagSaveCompact {
			return nil
		}
		strategy, err := getStrategy(cfg)
		if err != nil {
			return err
		}
		cres, err := catalog.Compact(ctx, cfg.Dirpath, strategy)
		if err != nil {
			return err
		}
		if tel != nil {
			tel.Metrics.RecordCompaction(ctx, cres.Deleted, len(cres.Errs))
		}
		for _, e := range cres.Errs {
			fmt.Fprintf(os.Stderr, "warning: %v\n", e)
		}
		fmt.Print(report.Compact(cres))
		return nil
	},
}

func init() {
	saveCmd.Flags().BoolVar(&flagSaveCompact, "compact", false, "compact the catalog after saving")
	saveCmd.Flags().IntVar(&flagIgnoreLastLines, "ignore-last-lines", 0, "trailing lines to drop from panes running a shell")
	saveCmd.Flags().IntVar(&flagSaveParallel, "parallel", 0, "concurrent pane captures")
	rootCmd.AddCommand(saveCmd)
}
