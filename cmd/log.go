package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent sync log entries (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		return withEngine(cmd, false, func(ctx context.Context, _ *pipeline.Engine, db *storage.DB) error {
			records, err := db.ListRecentLog(ctx, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, r := range records {
				if status != "" && r.Status != status {
					continue
				}
				ts := r.OccurredAt.Local().Format("2006-01-02 15:04:05")
				fmt.Fprintf(w, "%s\t%s\t%-7s\t%s\t%s\n", ts, humanize.Time(r.OccurredAt), r.Status, r.Subject, r.Detail)
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().Int("limit", 50, "Number of recent entries to show")
	logCmd.Flags().String("status", "", "Only show entries with this status (Success, Skip, Error, Cleanup, Info)")
}
