package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
	"github.com/songrank/songrank/pkg/synclog"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Distribute every inbox list to the group ledgers, then run the analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		skip, _ := cmd.Flags().GetBool("skip-analysis")
		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			res, err := eng.SyncAll(ctx, pipeline.SyncOptions{SkipAnalysis: skip})
			if errors.Is(err, pipeline.ErrInboxInitialized) {
				fmt.Printf("%q was set up. Put user names in row 1 (from column B) and paste their lists below, then sync again.\n", eng.Tables().Inbox)
				return nil
			}
			if err != nil {
				return err
			}

			if errs := countStatus(res.Entries, synclog.StatusError); errs > 0 {
				utils.Log.Warnf("%d error(s), see %q or \"songrank log\"", errs, eng.Tables().Log)
			}
			if res.AnalysisError != "" {
				utils.Log.Warn(res.AnalysisError)
			}
			fmt.Printf("Sync Complete! Updates: %d, Cleared: %d\n", res.Updates, res.Cleared)
			return nil
		})
	},
}

func countStatus(entries []synclog.Entry, status synclog.Status) int {
	n := 0
	for _, e := range entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("skip-analysis", false, "Only update the group ledgers")
}
