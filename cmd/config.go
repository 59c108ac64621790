package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/songrank/songrank/internal/utils"
	"github.com/songrank/songrank/pkg/catalog"
	"github.com/songrank/songrank/pkg/pipeline"
	"github.com/songrank/songrank/pkg/stats"
	"github.com/songrank/songrank/pkg/storage"
)

// resolveDBPath expands the configured database path to an absolute one.
func resolveDBPath() (string, error) {
	p, err := homedir.Expand(viper.GetString("db.path"))
	if err != nil {
		return "", err
	}
	return utils.GetAbsDBPath(p)
}

// ensureDBDir creates the directory holding the database and its lock file.
func ensureDBDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	return nil
}

func tablesFromConfig() pipeline.Tables {
	return pipeline.Tables{
		Catalog: viper.GetString("tables.catalog"),
		Groups:  viper.GetString("tables.groups"),
		Inbox:   viper.GetString("tables.inbox"),
		Log:     viper.GetString("tables.log"),
		Debug:   viper.GetString("tables.debug"),
		Opps:    viper.GetString("tables.opps"),
		Takes:   viper.GetString("tables.takes"),
		More:    viper.GetString("tables.more"),
		Spice:   viper.GetString("tables.spice"),
		Artists: viper.GetString("tables.artists"),
	}
}

func statsOptionsFromConfig() stats.Options {
	opts := stats.Options{
		TopN:             viper.GetInt("analysis.top_n"),
		ExtremesN:        viper.GetInt("analysis.extremes_n"),
		HotTakeThreshold: viper.GetFloat64("analysis.hot_take_threshold"),
		SleeperBestBelow: viper.GetFloat64("analysis.sleeper_best_below"),
		SleeperMeanAbove: viper.GetFloat64("analysis.sleeper_mean_above"),
	}
	subunits := viper.GetStringMapString("analysis.subunits")
	tokens := make([]string, 0, len(subunits))
	for token := range subunits {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		opts.Subunits = append(opts.Subunits, stats.Subunit{Token: token, Name: subunits[token]})
	}
	return opts
}

func engineConfig(store storage.TableStore) pipeline.Config {
	return pipeline.Config{
		Store:  store,
		Tables: tablesFromConfig(),
		Columns: catalog.Columns{
			Name:        viper.GetInt("catalog.name_column"),
			AltName:     viper.GetInt("catalog.alt_name_column"),
			Attribution: viper.GetInt("catalog.attribution_column"),
		},
		Stats: statsOptionsFromConfig(),
		Log:   utils.Log,
	}
}

// withEngine opens the database and runs fn with an engine on top of it.
// Mutating commands hold the database lock for the whole call.
func withEngine(cmd *cobra.Command, mutate bool, fn func(ctx context.Context, eng *pipeline.Engine, db *storage.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := ensureDBDir(path); err != nil {
		return err
	}
	if mutate {
		lock, err := utils.NewDBLock(path)
		if err != nil {
			return err
		}
		if err := lock.LockContext(cmd.Context()); err != nil {
			return err
		}
		defer lock.Unlock()
	}

	db, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	eng, err := pipeline.New(engineConfig(db))
	if err != nil {
		return err
	}
	utils.Log.Debugf("using database %s", path)
	return fn(cmd.Context(), eng, db)
}
