package cmd

import (
	"github.com/huangsam/codepulse/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Start the codepulse MCP server",
	Long:    `Launch an MCP server on stdio that lets AI agents ingest repositories and query commits, findings and the dashboard.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ing, err := newIngestor()
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, cfg, ing, storeManager)
	},
}
