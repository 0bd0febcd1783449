package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/github"
	"github.com/danielolaszy/spark/internal/jira"
	"github.com/danielolaszy/spark/internal/logging"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the Jira and GitHub credentials",
	Long: `Authenticate against Jira and, when GITHUB_TOKEN is set, GitHub, and print
the account each credential belongs to.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		jiraClient, err := jira.NewClient(cfg)
		if err != nil {
			return err
		}
		name, err := jiraClient.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Jira credentials are valid. Authenticated as: %s\n", name)

		if cfg.GitHub.Token == "" {
			logging.Debug("skipping github validation, no token configured")
			return nil
		}

		githubClient, err := github.NewClient(cfg)
		if err != nil {
			return err
		}
		login, err := githubClient.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "GitHub token is valid. Authenticated as: %s\n", login)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
