package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/spark/internal/config"
	"github.com/danielolaszy/spark/internal/jira"
	"github.com/danielolaszy/spark/pkg/models"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the most recent fix versions",
	Long: `List up to ten fix versions of JIRA_PROJECT_KEY whose names start with
JIRA_VERSION_FILTER_PREFIX and that have a release date, newest first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ValidateVersionConfig(cfg); err != nil {
			return err
		}

		client, err := jira.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize jira client: %w", err)
		}

		versions, err := client.ListVersions(cmd.Context(), cfg.Jira.ProjectKey, cfg.Jira.VersionFilterPrefix)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), "", versions)
		}
		return printVersions(cmd.OutOrStdout(), versions)
	},
}

func printVersions(w io.Writer, versions []models.Version) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRELEASE DATE\tRELEASED")
	for _, v := range versions {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", v.Name, v.ReleaseDate, v.Released)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().Bool("json", false, "print versions as JSON")
}
