package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/codepulse/core"
	"github.com/huangsam/codepulse/internal/archive"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/runner"
	"github.com/huangsam/codepulse/internal/source"
	"github.com/huangsam/codepulse/internal/store"
	"github.com/huangsam/codepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// storeManager is the global persistence manager instance.
var storeManager contract.StoreManager = store.Manager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "codepulse",
	Short:              "Ingest GitHub commits and static-analysis findings, then explore them.",
	Long:               `Codepulse fetches recent commits for a repository, runs a static analyzer on a checkout and keeps both in one store for trend and quality views.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix
	viper.SetEnvPrefix("CODEPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-db-connect", "")
	viper.SetDefault("addr", contract.DefaultAddr)
	viper.SetDefault("source-url", contract.DefaultSourceURL)
	viper.SetDefault("source-timeout", contract.DefaultSourceTimeout)
	viper.SetDefault("clone-url", contract.DefaultCloneURL)
	viper.SetDefault("clone-timeout", contract.DefaultCloneTimeout)
	viper.SetDefault("analyzer-command", contract.DefaultAnalyzerCommand)
	viper.SetDefault("analyzer-format", schema.ESLintFormat)
	viper.SetDefault("analyzer-timeout", contract.DefaultAnalyzerTimeout)
	viper.SetDefault("analyzer-max-output", contract.DefaultAnalyzerMaxBytes)
	viper.SetDefault("analyzer-exit-codes", contract.DefaultAnalyzerExit)
	viper.SetDefault("archive-use-ssl", "yes")
	viper.SetDefault("github-token", "")
	viper.SetDefault("archive-access-key", "")
	viper.SetDefault("archive-secret-key", "")
	viper.SetDefault("color", "yes")
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	// Handle config file
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".codepulse") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// sharedSetup loads every config source, validates it and opens the store.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// This function populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = color.NoColor || !cfg.UseColors

	// Initialize persistence layer with validated config
	if err := store.InitStores(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// newIngestor wires the ingestion pipeline from the validated config.
func newIngestor() (*core.Ingestor, error) {
	arch, err := archive.NewArchiver(cfg)
	if err != nil {
		return nil, err
	}
	var archiver contract.ReportArchiver
	if arch != nil {
		archiver = arch
	}
	return core.NewIngestor(
		cfg,
		source.NewGitHubSource(cfg),
		contract.NewLocalGitClient(),
		runner.NewRunner(cfg),
		archiver,
		storeManager,
	), nil
}

// currentStore returns the opened store or ErrStoreUnavailable.
func currentStore() (contract.Store, error) {
	s := storeManager.GetStore()
	if s == nil {
		return nil, fmt.Errorf("%w: store not initialized", contract.ErrStoreUnavailable)
	}
	return s, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
