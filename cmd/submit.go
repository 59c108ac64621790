package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/rankparse"
	"github.com/songrank/songrank/pkg/storage"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Save a finished ranking into the inbox, or paste it straight into one group",
	Long: `Reads a ranking, one song per line, from --file or stdin. Lines may be plain
song names in order or "N. Song" lines.

Without --group the list is written to the user's inbox column and picked up by
the next sync. With --group the original ranks are written to a new column of
that group only.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")
		file, _ := cmd.Flags().GetString("file")
		group, _ := cmd.Flags().GetString("group")
		if strings.TrimSpace(user) == "" {
			return fmt.Errorf("--user is required")
		}

		text, err := readInput(file)
		if err != nil {
			return err
		}

		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			if group != "" {
				res, err := eng.PasteIntoGroup(ctx, group, user, text)
				if err != nil {
					return err
				}
				fmt.Printf("Wrote %d/%d songs to %q column %s\n", res.Matched, res.Parsed, group, res.Column)
				return nil
			}
			names := orderedNames(text)
			col, err := eng.Submit(ctx, user, names)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %d songs for %s in %q column %s. Run \"songrank sync\" to distribute them.\n",
				len(names), pipeline.SubmitterName(user), eng.Tables().Inbox, col)
			return nil
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Clear a user's list from the inbox; the next sync removes them from every group",
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")
		if strings.TrimSpace(user) == "" {
			return fmt.Errorf("--user is required")
		}
		return withEngine(cmd, true, func(ctx context.Context, eng *pipeline.Engine, _ *storage.DB) error {
			if err := eng.Withdraw(ctx, user); err != nil {
				return err
			}
			fmt.Printf("Cleared the list of %s\n", pipeline.SubmitterName(user))
			return nil
		})
	},
}

func readInput(file string) (string, error) {
	var r io.Reader = os.Stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// orderedNames turns the input lines into song names in order. Numbered
// lines lose their "N. " prefix and any " - Artist" suffix.
func orderedNames(text string) []string {
	var names []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if e, ok := rankparse.ParseLine(line); ok {
			line = e.Name
		}
		names = append(names, line)
	}
	return names
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringP("user", "u", "", "User name (an email address is cut at the @)")
	submitCmd.Flags().StringP("file", "f", "", "File holding the ranking (default: stdin)")
	submitCmd.Flags().StringP("group", "g", "", "Paste straight into this group instead of the inbox")

	rootCmd.AddCommand(withdrawCmd)
	withdrawCmd.Flags().StringP("user", "u", "", "User name")
}
