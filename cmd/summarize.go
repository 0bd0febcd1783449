package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/jira"
	"github.com/danielolaszy/spark/internal/store"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <fixVersion> <ticketNumber>",
	Short: "Summarize a single ticket with the CopyAI workflow",
	Long: `Fetch one Jira ticket, submit it to the CopyAI workflow and print the
summary. The result is cached under the fix version like any report run.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateCopyAIConfig(cfg); err != nil {
			return err
		}
		fixVersion, key := args[0], args[1]

		client, err := jira.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %w", err)
		}

		cache, err := store.New(cmd.Context(), cfg.Cache)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer cache.Close()

		summarizer, err := newSummarizer(cfg, cache)
		if err != nil {
			return err
		}

		issue, err := client.GetIssue(cmd.Context(), key)
		if err != nil {
			return err
		}
		ticket, err := jira.EnrichWithEpic(cmd.Context(), jira.Normalize(*issue, fieldMapping(cfg)), client)
		if err != nil {
			return err
		}

		content, err := json.MarshalIndent(ticket, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode ticket: %w", err)
		}

		result, err := summarizer.GetSummary(cmd.Context(), fixVersion, ticket.TicketNumber, string(content))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), "", result)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
