package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/jira"
)

var ticketCmd = &cobra.Command{
	Use:   "ticket <ticketNumber>",
	Short: "Print a ticket as it is sent for summarization",
	Long: `Fetch one Jira ticket, attach its parent epic and print the normalized
ticket as JSON. This is the exact content the summarize command submits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := jira.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %w", err)
		}

		issue, err := client.GetIssue(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		ticket, err := jira.EnrichWithEpic(cmd.Context(), jira.Normalize(*issue, fieldMapping(cfg)), client)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), "", ticket)
	},
}

func init() {
	rootCmd.AddCommand(ticketCmd)
}
