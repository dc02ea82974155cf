// Package cmd defines the command-line interface for codepulse.
package cmd

import (
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(commitsCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or yaml or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for sqlite path or mysql/postgresql DSN")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of ingestCmd to Viper
	ingestCmd.Flags().String("source-url", contract.DefaultSourceURL, "Base URL of the GitHub REST API")
	ingestCmd.Flags().Int("source-per-page", 0, "Commits to request per page (0 = host default)")
	ingestCmd.Flags().String("source-timeout", contract.DefaultSourceTimeout, "Timeout for the commit source request")
	ingestCmd.Flags().String("clone-url", contract.DefaultCloneURL, "Clone URL template with {owner} and {repo}")
	ingestCmd.Flags().String("clone-timeout", contract.DefaultCloneTimeout, "Timeout for the shallow clone")
	ingestCmd.Flags().String("work-dir", "", "Directory for temporary checkouts (default: system temp)")
	ingestCmd.Flags().String("analyzer-command", contract.DefaultAnalyzerCommand, "Analyzer command; {owner}, {repo} and {dir} are substituted")
	ingestCmd.Flags().String("analyzer-format", string(schema.ESLintFormat), "Analyzer output format: eslint or native")
	ingestCmd.Flags().String("analyzer-timeout", contract.DefaultAnalyzerTimeout, "Wall-clock limit for the analyzer")
	ingestCmd.Flags().String("analyzer-max-output", contract.DefaultAnalyzerMaxBytes, "Ceiling on analyzer stdout (e.g., 100MiB)")
	ingestCmd.Flags().String("analyzer-exit-codes", contract.DefaultAnalyzerExit, "Comma-separated analyzer exit codes treated as success")
	ingestCmd.Flags().String("archive-endpoint", "", "Object storage endpoint for raw reports (empty disables archiving)")
	ingestCmd.Flags().String("archive-bucket", "", "Bucket for raw reports")
	if err := viper.BindPFlags(ingestCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ingest flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Address the HTTP API listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
