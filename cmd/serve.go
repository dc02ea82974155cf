package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/codepulse/internal/api"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API.",
	Long: `Start the HTTP API.

Routes:
  POST /api/fetch-repo   run one ingestion for {"owner", "repo"}
  GET  /api/commits      newest commits (?limit=, max 100)
  GET  /api/quality      findings by file and line
  GET  /api/dashboard    trend, severity, file and author views
  GET  /api/runs         recent ingestion runs
  GET  /healthz          liveness

Examples:
  # Listen on the default :3001
  codepulse serve

  # Use PostgreSQL and a different port
  CODEPULSE_STORE_BACKEND=postgresql CODEPULSE_STORE_DB_CONNECT="host=... dbname=..." codepulse serve --addr :8080`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ing, err := newIngestor()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.NewServer(cfg, ing, storeManager).Listen(ctx)
	},
}
