// Package cmd provides the command-line interface for spark.
package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/logging"
)

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "spark",
	Short: "Spark turns Jira fix versions into release notes",
	Long: `Spark is a CLI tool that collects the Jira tickets of a fix version,
has each one summarized by a CopyAI workflow and groups the results by team
into a release report. Reports can be written as JSON or as an email draft.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		if level != "" || format != "" {
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			logging.SetupLogger(os.Stderr, logging.ParseLevel(level), logging.Format(strings.ToLower(format)))
		}

		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command. Cancelling ctx aborts in-flight requests
// and summary polling.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json); overrides LOG_FORMAT")
}
