package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/codepulse/core"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg  *contract.Config
	ingestor Ingestor
	mgr      contract.StoreManager
}

func (h *toolHandler) handleIngestRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := strings.TrimSpace(request.GetString("owner", ""))
	repo := strings.TrimSpace(request.GetString("repo", ""))
	if owner == "" || repo == "" {
		return mcp.NewToolResultError("owner and repo are required"), nil
	}

	// Ingestion runs to completion even if the client goes away
	outcome, err := h.ingestor.Ingest(context.WithoutCancel(ctx), owner, repo)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion failed (%s): %v", contract.ErrorKind(err), err)), nil
	}
	return jsonResult(outcome)
}

func (h *toolHandler) handleListCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := h.store()
	if errResult != nil {
		return errResult, nil
	}
	commits, err := core.GetCommits(ctx, s, h.limit(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing commits failed: %v", err)), nil
	}
	return jsonResult(commits)
}

func (h *toolHandler) handleListFindings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := h.store()
	if errResult != nil {
		return errResult, nil
	}
	findings, err := core.GetFindings(ctx, s)
	if errors.Is(err, contract.ErrNoData) {
		return mcp.NewToolResultText("No code quality data found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing findings failed: %v", err)), nil
	}
	return jsonResult(findings)
}

func (h *toolHandler) handleGetDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := h.store()
	if errResult != nil {
		return errResult, nil
	}
	dash, err := core.GetDashboard(ctx, s, h.limit(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("dashboard failed: %v", err)), nil
	}
	return jsonResult(dash)
}

// limit prefers the request argument, then the configured limit, then the default.
func (h *toolHandler) limit(request mcp.CallToolRequest) int {
	if l := request.GetInt("limit", 0); l > 0 {
		return min(l, contract.MaxResultLimit)
	}
	if h.baseCfg != nil && h.baseCfg.ResultLimit > 0 {
		return h.baseCfg.ResultLimit
	}
	return contract.DefaultResultLimit
}

func (h *toolHandler) store() (contract.Store, *mcp.CallToolResult) {
	var s contract.Store
	if h.mgr != nil {
		s = h.mgr.GetStore()
	}
	if s == nil {
		return nil, mcp.NewToolResultError("store not initialized")
	}
	return s, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
