package cmd

import (
	"github.com/huangsam/codepulse/core"
	"github.com/huangsam/codepulse/internal/outwriter"
	"github.com/spf13/cobra"
)

// commitsCmd lists stored commits.
var commitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "List stored commits, newest first.",
	Long: `List commits from every ingested repository, newest authored date first.

Examples:
  # Show the latest 20 commits
  codepulse commits --limit 20

  # Export commits to Parquet
  codepulse commits --output parquet --output-file commits.parquet`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := currentStore()
		if err != nil {
			return err
		}
		commits, err := core.GetCommits(rootCtx, s, cfg.ResultLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteCommits(commits, cfg)
	},
}

// findingsCmd lists stored findings.
var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "List stored static-analysis findings by file and line.",
	Long: `List every stored finding ordered by file, then line.

Examples:
  # Show all findings
  codepulse findings

  # Save findings as CSV
  codepulse findings --output csv --output-file findings.csv`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := currentStore()
		if err != nil {
			return err
		}
		findings, err := core.GetFindings(rootCtx, s)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteFindings(findings, cfg)
	},
}

// dashboardCmd aggregates the stored data.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show trend, severity, file and author views.",
	Long: `Aggregate stored commits and findings.

Views:
- Trend: issues per commit split by severity
- Severity: totals across all findings
- Files: issues per file
- Authors: commits per author

Examples:
  # Dashboard over the latest 50 commits
  codepulse dashboard --limit 50

  # Machine-readable dashboard
  codepulse dashboard --output yaml`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := currentStore()
		if err != nil {
			return err
		}
		dash, err := core.GetDashboard(rootCtx, s, cfg.ResultLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteDashboard(dash, cfg)
	},
}

// runsCmd lists ingestion runs.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingestion runs and their outcome.",
	Long: `List ingestion runs newest first, including failed runs and their error kind.

Examples:
  # Show the last 10 runs
  codepulse runs --limit 10`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := currentStore()
		if err != nil {
			return err
		}
		runs, err := core.GetRuns(rootCtx, s, cfg.ResultLimit)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteRuns(runs, cfg)
	},
}
