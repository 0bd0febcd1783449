package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/github"
)

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List pull requests merged between two release tags",
	Long: `List the pull requests of GITHUB_OWNER/GITHUB_REPO merged between the
commits of two tags.

Example:
  spark prs --previous v1.1.0 --current v1.2.0`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateGitHubConfig(cfg); err != nil {
			return err
		}

		current, _ := cmd.Flags().GetString("current")
		previous, _ := cmd.Flags().GetString("previous")

		client, err := github.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize github client: %w", err)
		}

		prs, err := client.MergedPullRequestsBetween(cmd.Context(), cfg.GitHub.Owner, cfg.GitHub.Repo, previous, current)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), "", prs)
		}

		out := cmd.OutOrStdout()
		if len(prs) == 0 {
			fmt.Fprintf(out, "No PRs found between %s and %s.\n", previous, current)
			return nil
		}
		fmt.Fprintf(out, "PRs merged between %s and %s:\n", previous, current)
		for _, pr := range prs {
			fmt.Fprintf(out, "- %s (#%d)\n", pr.Title, pr.Number)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prsCmd)
	prsCmd.Flags().StringP("current", "c", "", "tag of the current release")
	prsCmd.Flags().StringP("previous", "p", "", "tag of the previous release")
	prsCmd.Flags().Bool("json", false, "print pull requests as JSON")
	_ = prsCmd.MarkFlagRequired("current")
	_ = prsCmd.MarkFlagRequired("previous")
}
