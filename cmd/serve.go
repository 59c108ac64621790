package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/songrank/songrank/internal/server"
	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tables, reports, submissions and sync over a JSON API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return withEngine(cmd, false, func(_ context.Context, eng *pipeline.Engine, db *storage.DB) error {
			path, err := resolveDBPath()
			if err != nil {
				return err
			}
			lock, err := utils.NewDBLock(path)
			if err != nil {
				return err
			}
			s := server.New(db, eng, viper.GetString("server.username"), viper.GetString("server.password"))
			s.Lock = lock
			if s.Username == "" {
				utils.Log.Warn("server.username is not set, the API is open to anyone who can reach it")
			}
			return s.Start(addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address to listen on")
}
