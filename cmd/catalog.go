package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmux-vault/tmux-vault/internal/catalog"
	"github.com/tmux-vault/tmux-vault/internal/report"
)

var (
	flagListDetails   bool
	flagListFilepaths bool
	flagListOnly      string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and compact the backup catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, oldest first",
	Long: `List the backups in the backup directory, numbered oldest first,
each classified as retainable or purgeable under the active retention
strategy. --details opens each archive to show its size, format
version and content counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		strategy, err := getStrategy(cfg)
		if err != nil {
			return err
		}

		plan, err := catalog.List(ctx, cfg.Dirpath, strategy, catalog.Options{
			Details:  flagListDetails,
			Parallel: cfg.Parallel,
		})
		if err != nil {
			return err
		}

		entries := plan.Entries
		switch flagListOnly {
		case "":
		case "retainable":
			entries = plan.Retain
		case "purgeable":
			entries = plan.Purge
		default:
			return fmt.Errorf("unknown status %q (supported: retainable, purgeable)", flagListOnly)
		}

		if flagListFilepaths {
			fmt.Print(report.Filepaths(entries))
			return nil
		}
		fmt.Print(report.Table(entries, time.Now(), flagListDetails))
		return nil
	},
}

var catalogCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Delete the backups the retention strategy marks purgeable",
	Long: `Compact deletes every purgeable backup. The directory is rescanned
immediately before deleting, so backups created since the last listing
are classified too. A backup that cannot be deleted is reported and
does not stop the rest.`,
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
		strategy, err := getStrategy(cfg)
		if err != nil {
			return err
		}

		res, err := catalog.Compact(ctx, cfg.Dirpath, strategy)
		if err != nil {
			return err
		}
		if tel != nil {
			tel.Metrics.RecordCompaction(ctx, res.Deleted, len(res.Errs))
		}
		for _, e := range res.Errs {
			fmt.Fprintf(os.Stderr, "warning: %v\n", e)
		}
		fmt.Print(report.Compact(res))
		return nil
	},
}

func init() {
	catalogListCmd.Flags().BoolVar(&flagListDetails, "details", false, "read size and content counts from each archive")
	catalogListCmd.Flags().BoolVar(&flagListFilepaths, "filepaths", false, "print one filepath per line instead of the table")
	catalogListCmd.Flags().StringVar(&flagListOnly, "only", "", "show only entries with this status: retainable, purgeable")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogCompactCmd)
	rootCmd.AddCommand(catalogCmd)
}
