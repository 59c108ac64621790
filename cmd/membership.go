package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
)

var membershipCmd = &cobra.Command{
	Use:   "membership",
	Short: "Rebuild the song list of every group from the catalog, keeping existing ranks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			sink := eng.NewSink()
			res, err := eng.SyncMembership(ctx, sink)
			if ferr := eng.FlushLog(ctx, sink); ferr != nil {
				fmt.Fprintln(os.Stderr, ferr)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "GROUP\tSONGS\tUSERS\t")
			for _, g := range res.Groups {
				fmt.Fprintf(w, "%s\t%d\t%d\t\n", g.Group, g.Items, g.Users)
			}
			w.Flush()
			if res.Failed > 0 {
				return fmt.Errorf("%d group(s) failed, see %q", res.Failed, eng.Tables().Log)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(membershipCmd)
}
