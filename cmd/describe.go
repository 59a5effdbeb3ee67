package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmux-vault/tmux-vault/internal/catalog"
	"github.com/tmux-vault/tmux-vault/internal/report"
)

var describeCmd = &cobra.Command{
	Use:   "describe <backup-file>",
	Short: "Show one backup's size and content counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := catalog.Describe(args[0])
		if err != nil {
			return err
		}
		fmt.Print(report.Describe(e, time.Now()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
