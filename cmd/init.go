package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Sheet Manager and the submission inbox if they are missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			created, err := eng.Init(ctx)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Println("Nothing to do, all tables already exist.")
				return nil
			}
			for _, name := range created {
				fmt.Printf("Created %q\n", name)
			}
			fmt.Printf("Next: import the song catalog into %q and define groups in %q.\n", eng.Tables().Catalog, eng.Tables().Groups)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
