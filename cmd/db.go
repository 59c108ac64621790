package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/render"
	"github.com/songrank/songrank/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the songrank database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// dbStatsCmd represents the stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the size of every table in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, false, func(ctx context.Context, _ *pipeline.Engine, db *storage.DB) error {
			tables, err := db.ListTables(ctx)
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				fmt.Println("No tables in the database yet. Try \"songrank init\".")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS\tCOLUMNS\tCELLS\tUPDATED\t")
			var totalCells int
			for _, s := range tables {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t\n", s.Name, s.Rows, s.Columns, s.Cells, humanize.Time(s.UpdatedAt))
				totalCells += s.Cells
			}
			fmt.Fprintln(w, " \t \t \t \t \t")
			fmt.Fprintf(w, "TOTAL\t%d tables\t\t%d\t\t\n", len(tables), totalCells)
			return w.Flush()
		})
	},
}

var dbShowCmd = &cobra.Command{
	Use:   "show <table>",
	Short: "Print a stored table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxCell, _ := cmd.Flags().GetInt("max-cell")
		return withEngine(cmd, false, func(ctx context.Context, _ *pipeline.Engine, db *storage.DB) error {
			t, err := db.ReadTable(ctx, args[0])
			if err != nil {
				return err
			}
			r := render.New(os.Stdout, false)
			r.SetMaxCell(maxCell)
			return r.Table(t)
		})
	},
}

var dbDropCmd = &cobra.Command{
	Use:   "drop <table>",
	Short: "Delete a stored table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, true, func(ctx context.Context, _ *pipeline.Engine, db *storage.DB) error {
			if _, err := db.ReadTable(ctx, args[0]); err != nil {
				return err
			}
			if err := db.DeleteTable(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %q\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbShowCmd)
	dbCmd.AddCommand(dbDropCmd)
	dbShowCmd.Flags().Int("max-cell", render.DefaultMaxCell, "Truncate cells wider than this (0 = no limit)")
}
