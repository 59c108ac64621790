package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songrank/songrank/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `
	 ___  ___  _ __   __ _ _ __ __ _ _ __ | | __
	/ __|/ _ \| '_ \ / _' | '__/ _' | '_ \| |/ /
	\__ \ (_) | | | | (_| | | | (_| | | | |   < 
	|___/\___/|_| |_|\__, |_|  \__,_|_| |_|_|\_\
	                 |___/                      
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "songrank",
	Short: "Merge song rankings into group ledgers and compare everyone's taste.",
	Long: LOGO + `songrank collects pasted song rankings, distributes them over the groups
defined in the Sheet Manager table and computes who agrees, who disagrees and
which takes are the hottest.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.songrank.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for remote imports (Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/songrank/songrank.sqlite)")

	_ = viper.BindPFlag("http.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	_ = viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
}

func setDefaults() {
	viper.SetDefault("db.path", filepath.Join("~", ".config", "songrank", "songrank.sqlite"))
	viper.SetDefault("http.proxy", "")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	viper.SetDefault("tables.catalog", "Base")
	viper.SetDefault("tables.groups", "Sheet Manager")
	viper.SetDefault("tables.inbox", "Paste Rankings Here")
	viper.SetDefault("tables.log", "Sync Log")
	viper.SetDefault("tables.debug", "Debug Log")
	viper.SetDefault("tables.opps", "Opps")
	viper.SetDefault("tables.takes", "Takes")
	viper.SetDefault("tables.more", "More Analysis")
	viper.SetDefault("tables.spice", "Spice Index")
	viper.SetDefault("tables.artists", "Artist Reference")

	viper.SetDefault("catalog.name_column", 1)
	viper.SetDefault("catalog.alt_name_column", 0)
	viper.SetDefault("catalog.attribution_column", 7)

	viper.SetDefault("analysis.top_n", 20)
	viper.SetDefault("analysis.extremes_n", 10)
	viper.SetDefault("analysis.hot_take_threshold", 25)
	viper.SetDefault("analysis.sleeper_best_below", 30)
	viper.SetDefault("analysis.sleeper_mean_above", 60)
	viper.SetDefault("analysis.subunits", map[string]string{})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".songrank")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("songrank")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".songrank.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
