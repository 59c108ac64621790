package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/render"
	"github.com/songrank/songrank/pkg/storage"
)

var analyzeCmd = &cobra.Command{
	Use:       "analyze [opps|takes|more|spice|all]...",
	Short:     "Compute the comparison reports, store them and print them",
	ValidArgs: []string{"opps", "takes", "more", "spice", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		noColor, _ := cmd.Flags().GetBool("no-color")
		maxCell, _ := cmd.Flags().GetInt("max-cell")

		format, err := render.ParseFormat(output)
		if err != nil {
			return err
		}
		kinds, err := pipeline.ParseKinds(args)
		if err != nil {
			return err
		}

		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			sink := eng.NewSink()
			a, err := eng.Analyze(ctx, kinds, sink)
			if ferr := eng.FlushLog(ctx, sink); ferr != nil {
				utils.Log.Warnf("could not write %s: %v", eng.Tables().Log, ferr)
			}
			if a == nil {
				return err
			}
			if err != nil {
				utils.Log.Errorf("analysis: %v", err)
			}
			r := render.New(os.Stdout, !noColor && format == render.FormatText)
			r.SetMaxCell(maxCell)
			return r.Reports(format, a.All())
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringP("output", "o", "text", "Output format: text, json, yaml")
	analyzeCmd.Flags().Bool("no-color", false, "Disable highlight colours")
	analyzeCmd.Flags().Int("max-cell", render.DefaultMaxCell, "Truncate text cells wider than this (0 = no limit)")
}
