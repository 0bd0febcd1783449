package cmd

import (
	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/config"
)

var reportCmd = &cobra.Command{
	Use:   "report <fixVersion>",
	Short: "Build the release report for a fix version",
	Long: `Build the release report for a fix version and print it as JSON.

Tickets are fetched from Jira once and cached; every ticket and in-release
epic is summarized by the CopyAI workflow, again with cached results reused.
Running the command twice for the same fix version produces the same report
without calling Jira or CopyAI again.

Example:
  spark report "Web 1.2.0" -o report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateCopyAIConfig(cfg); err != nil {
			return err
		}

		agg, cache, err := newAggregator(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cache.Close()

		report, err := agg.BuildReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		return writeJSON(cmd.OutOrStdout(), output, report)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
}
