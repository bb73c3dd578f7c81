// Command eidnews is a terminal reader for East Idaho News.
//
// Usage:
//
//	eidnews                 Browse articles (TUI)
//	eidnews query           Print one page of a query
//	eidnews watch           Print realtime updates as they are detected
//	eidnews images <id>     Show image candidates for a post
//	eidnews events          JSONL event log viewer
//	eidnews analytics       Summarize the analytics archive
//	eidnews version         Print version information
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AlexLem84/east-idaho-news-app/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "eidnews",
	Short:         "Terminal reader for East Idaho News",
	Long:          "eidnews browses eastidahonews.com from the terminal, caching queries and announcing new articles as they are published.",
	RunE:          runBrowse,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default $XDG_CONFIG_HOME/eidnews/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(analyticsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("eidnews %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// loadConfig reads the config file named by --config and applies flag
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
