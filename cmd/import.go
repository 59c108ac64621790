package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/sheetimport"
	"github.com/songrank/songrank/pkg/storage"
	"github.com/songrank/songrank/pkg/whttp"
)

var importCmd = &cobra.Command{
	Use:   "import <table>",
	Short: "Load a table (catalog, Sheet Manager, inbox, ...) from CSV, JSON, HTML or a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		csvFile, _ := cmd.Flags().GetString("csv")
		jsonFile, _ := cmd.Flags().GetString("json")
		htmlFile, _ := cmd.Flags().GetString("html")
		url, _ := cmd.Flags().GetString("url")
		opts := sheetimport.Options{}
		opts.JSONPath, _ = cmd.Flags().GetString("path")
		opts.Selector, _ = cmd.Flags().GetString("selector")
		if tsv, _ := cmd.Flags().GetBool("tsv"); tsv {
			opts.Comma = '\t'
		}

		sources := 0
		for _, s := range []string{csvFile, jsonFile, htmlFile, url} {
			if s != "" {
				sources++
			}
		}
		if sources != 1 {
			return fmt.Errorf("exactly one of --csv, --json, --html or --url is required")
		}

		var (
			table *storage.Table
			err   error
		)
		switch {
		case csvFile != "":
			table, err = importFile(name, csvFile, sheetimport.FormatCSV, opts)
		case jsonFile != "":
			table, err = importFile(name, jsonFile, sheetimport.FormatJSON, opts)
		case htmlFile != "":
			table, err = importFile(name, htmlFile, sheetimport.FormatHTML, opts)
		default:
			table, err = importURL(name, url, opts)
		}
		if err != nil {
			return err
		}
		if len(table.Rows) == 0 {
			return fmt.Errorf("nothing to import: the source has no rows")
		}

		return withEngine(cmd, true, func(ctx context.Context, _ *pipeline.Engine, db *storage.DB) error {
			if err := db.WriteTable(ctx, table); err != nil {
				return err
			}
			fmt.Printf("Imported %d rows x %d columns into %q\n", len(table.Rows), table.Width(), table.Name)
			return nil
		})
	},
}

func importFile(name, path string, format sheetimport.Format, opts sheetimport.Options) (*storage.Table, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return sheetimport.Parse(name, format, r, opts)
}

func importURL(name, url string, opts sheetimport.Options) (*storage.Table, error) {
	client, err := whttp.NewClient(viper.GetString("http.proxy"), 3)
	if err != nil {
		return nil, err
	}
	res, err := whttp.Send(&whttp.Request{URL: url}, client)
	if err != nil {
		return nil, err
	}
	format, ok := sheetimport.DetectFormat(res.ContentType, url)
	if !ok {
		format = sheetimport.FormatCSV
	}
	if res.Title != "" {
		utils.Log.Infof("Fetched %q (%s)", res.Title, format)
	} else {
		utils.Log.Debugf("Fetched %s as %s", url, format)
	}
	return sheetimport.Parse(name, format, strings.NewReader(res.Body), opts)
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("csv", "", "CSV file to import (- for stdin)")
	importCmd.Flags().Bool("tsv", false, "The CSV input is tab separated")
	importCmd.Flags().String("json", "", "JSON file to import (- for stdin)")
	importCmd.Flags().String("path", sheetimport.DefaultJSONPath, "gjson path to the rows of a JSON document")
	importCmd.Flags().String("html", "", "HTML file with a published spreadsheet table (- for stdin)")
	importCmd.Flags().String("selector", "", "CSS selector of the HTML table (default: first table)")
	importCmd.Flags().String("url", "", "URL of a CSV export, JSON document or published HTML sheet")
}
