package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/render"
	"github.com/songrank/songrank/pkg/storage"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Check the catalog, group definitions and ledgers and explain what would fail",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			t, err := eng.Diagnose(ctx)
			if err != nil {
				return err
			}
			r := render.New(os.Stdout, false)
			r.SetMaxCell(0)
			return r.Table(t)
		})
	},
}

var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "Rebuild the Artist Reference table (songs grouped by attribution)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			t, err := eng.ArtistReference(ctx)
			if err != nil {
				return err
			}
			maxCell, _ := cmd.Flags().GetInt("max-cell")
			r := render.New(os.Stdout, false)
			r.SetMaxCell(maxCell)
			return r.Table(t)
		})
	},
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
	rootCmd.AddCommand(artistsCmd)
	artistsCmd.Flags().Int("max-cell", 80, "Truncate cells wider than this (0 = no limit)")
}
