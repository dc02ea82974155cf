package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeConfigSetup validates only the persistence settings.
// This is used by maintenance commands that must not open the store themselves.
func storeConfigSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := contract.ValidateStoreConfig(cfg, input); err != nil {
		return err
	}
	cfg.OutputFile = input.OutputFile
	return nil
}

// storeSetup validates the persistence settings and opens the store.
func storeSetup(_ *cobra.Command, _ []string) error {
	if err := storeConfigSetup(); err != nil {
		return err
	}
	if err := store.InitStores(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// storeConfigSetupWrapper wraps storeConfigSetup to provide PreRunE for store commands.
func storeConfigSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeConfigSetup()
}

// storeCmd focused on store management.
//
// Note: store subcommands use minimal initialization instead of the full
// sharedSetup. This avoids validating analyzer and source settings for
// simple maintenance operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the commit and findings store",
	Long: `Manage the database holding commits, findings and ingestion runs.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show connection info, run totals and table sizes
  clear   - Remove all stored data
  migrate - Apply or roll back schema migrations
  export  - Write every table to Parquet files

Examples:
  # Check store status
  codepulse store status

  # Export everything for offline analysis
  codepulse store export --output-file backup`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show information about the store.

Displays:
- Backend type and connection status
- Total number of ingestion runs and the latest one
- Row counts per table`,
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := currentStore()
		if err != nil {
			return err
		}
		status, err := s.GetStatus(rootCtx)
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		store.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored commits, findings and runs",
	Long: `Delete all stored data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the tables, including the migration table

Examples:
  # Clear SQLite store (default)
  codepulse store clear

  # Clear MySQL store (set connection string via env variable)
  CODEPULSE_STORE_BACKEND=mysql CODEPULSE_STORE_DB_CONNECT="..." codepulse store clear`,
	PreRunE: storeConfigSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := store.ClearStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.StoreDBConnect); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
		fmt.Println("Store cleared successfully.")
		return nil
	},
}

// storeMigrateCmd runs schema migrations.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
	Long: `Run the embedded schema migrations against the configured backend.

Examples:
  # Migrate to the latest version
  codepulse store migrate

  # Roll back everything
  codepulse store migrate --target-version 0`,
	PreRunE: storeConfigSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return store.MigrateStore(os.Stdout, cfg.StoreBackend, cfg.StoreDBConnect, viper.GetInt("target-version"))
	},
}

// storeExportCmd exports all tables.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stored data to Parquet files",
	Long: `Write commits, findings and runs to Parquet files named after the --output-file prefix.

Examples:
  # Writes backup.commits.parquet, backup.findings.parquet and backup.runs.parquet
  codepulse store export --output-file backup`,
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		s, err := currentStore()
		if err != nil {
			return err
		}
		return store.ExportStore(rootCtx, s, cfg.OutputFile, os.Stdout)
	},
}
