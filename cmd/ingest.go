package cmd

import (
	"github.com/huangsam/codepulse/internal/outwriter"
	"github.com/spf13/cobra"
)

// ingestCmd runs one ingestion from the command line.
var ingestCmd = &cobra.Command{
	Use:   "ingest <owner> <repo>",
	Short: "Fetch commits and analyze a repository, then store the results.",
	Long: `Run one ingestion for a GitHub repository.

Steps:
- Fetch the first page of recent commits from the GitHub API
- Shallow-clone the repository and collect change volume per commit
- Run the configured analyzer on the checkout
- Store commits, findings and the run record in one transaction

Findings from earlier runs of the same repository are replaced.

Examples:
  # Ingest a public repository with the default ESLint analyzer
  codepulse ingest octo demo

  # Use a token to raise the API rate limit
  CODEPULSE_GITHUB_TOKEN=... codepulse ingest octo demo

  # Print the outcome as JSON
  codepulse ingest octo demo --output json`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		ing, err := newIngestor()
		if err != nil {
			return err
		}
		outcome, err := ing.Ingest(rootCtx, args[0], args[1])
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteOutcome(outcome, cfg)
	},
}
