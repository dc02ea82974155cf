// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Ingestor runs one ingestion for a repository.
type Ingestor interface {
	Ingest(ctx context.Context, owner, repo string) (schema.IngestOutcome, error)
}

// NewMCPServer initializes and configures the codepulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, ing Ingestor, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"codepulse",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		ingestor: ing,
		mgr:      mgr,
	}

	// --- 1. Tool: ingest_repository ---
	s.AddTool(mcp.NewTool("ingest_repository",
		mcp.WithDescription("Fetch commits for a GitHub repository, run static analysis on a checkout and store the results."),
		mcp.WithString("owner", mcp.Description("Repository owner or organization."), mcp.Required()),
		mcp.WithString("repo", mcp.Description("Repository name."), mcp.Required()),
	), h.handleIngestRepository)

	// --- 2. Tool: list_commits ---
	s.AddTool(mcp.NewTool("list_commits",
		mcp.WithDescription("List stored commits, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of commits (defaults to 100).")),
	), h.handleListCommits)

	// --- 3. Tool: list_findings ---
	s.AddTool(mcp.NewTool("list_findings",
		mcp.WithDescription("List stored static-analysis findings ordered by file and line."),
	), h.handleListFindings)

	// --- 4. Tool: get_dashboard ---
	s.AddTool(mcp.NewTool("get_dashboard",
		mcp.WithDescription("Aggregate stored commits and findings into trend, severity, file and author views."),
		mcp.WithNumber("limit", mcp.Description("Number of newest commits in the trend (defaults to 100).")),
	), h.handleGetDashboard)

	return s
}

// StartMCPServer serves the codepulse tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, ing Ingestor, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, ing, mgr)
	return server.ServeStdio(s)
}
