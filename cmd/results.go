package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results [domain]",
	Short: "Show stored audit results",
	Long: `Results lists audits persisted by earlier runs, newest first.
Without a domain it lists across all domains.

Examples:
  siteaudit results
  siteaudit results example.com --limit 5
  siteaudit results example.com --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().Int("limit", 20, "maximum results to show")
	resultsCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	var domain string
	if len(args) == 1 {
		domain = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")
	output, _ := cmd.Flags().GetString("output")

	results, err := store.ListAudits(cmd.Context(), domain, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		color.Yellow("No stored audits%s\n", forDomain(domain))
		return nil
	}
	return renderResults(cmd.OutOrStdout(), results, output)
}

func forDomain(domain string) string {
	if domain == "" {
		return ""
	}
	return " for " + domain
}
