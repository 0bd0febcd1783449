package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/email"
)

var emailCmd = &cobra.Command{
	Use:   "email <fixVersion>",
	Short: "Write the release notes of a fix version as an .eml draft",
	Long: `Build the release report for a fix version, render it as an HTML email
and save it to SPARK_EMAIL_DIR as <kebab-cased fix version>.eml.`,
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

		body, err := email.RenderHTML(report)
		if err != nil {
			return err
		}

		msg, err := email.BuildEML(report.Title, body, cfg.Email.From, cfg.Email.To)
		if err != nil {
			return err
		}

		path, err := email.Save(cfg.Email.Dir, args[0], msg)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)
}
