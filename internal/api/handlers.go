package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/huangsam/codepulse/core"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

type Handler struct {
	ingestor Ingestor
	mgr      contract.StoreManager
}

// FetchRepoInput is the body of POST /api/fetch-repo.
type FetchRepoInput struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func NewHandler(ing Ingestor, mgr contract.StoreManager) *Handler {
	return &Handler{ingestor: ing, mgr: mgr}
}

// FetchRepo runs one ingestion for the requested repository.
func (h *Handler) FetchRepo(c fiber.Ctx) error {
	var input FetchRepoInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	input.Owner = strings.TrimSpace(input.Owner)
	input.Repo = strings.TrimSpace(input.Repo)
	if input.Owner == "" || input.Repo == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "owner and repo are required"})
	}

	// A client disconnect must not abort an ingestion that already started
	ctx := context.WithoutCancel(c.Context())
	outcome, err := h.ingestor.Ingest(ctx, input.Owner, input.Repo)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  outcome.Message,
		"run_id":   outcome.RunID,
		"commits":  outcome.Commits,
		"findings": outcome.Findings,
	})
}

// ListCommits returns the newest commits.
func (h *Handler) ListCommits(c fiber.Ctx) error {
	s, err := h.store()
	if err != nil {
		return writeError(c, err)
	}
	commits, err := core.GetCommits(c.Context(), s, queryLimit(c))
	if err != nil {
		return writeError(c, err)
	}
	if commits == nil {
		commits = []schema.Commit{}
	}
	return c.JSON(commits)
}

// ListQuality returns every finding ordered by file and line.
func (h *Handler) ListQuality(c fiber.Ctx) error {
	s, err := h.store()
	if err != nil {
		return writeError(c, err)
	}
	findings, err := core.GetFindings(c.Context(), s)
	if errors.Is(err, contract.ErrNoData) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No code quality data found"})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(findings)
}

// GetDashboard returns the trend, severity, file and author views.
func (h *Handler) GetDashboard(c fiber.Ctx) error {
	s, err := h.store()
	if err != nil {
		return writeError(c, err)
	}
	dash, err := core.GetDashboard(c.Context(), s, queryLimit(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dash)
}

// ListRuns returns the newest ingestion runs.
func (h *Handler) ListRuns(c fiber.Ctx) error {
	s, err := h.store()
	if err != nil {
		return writeError(c, err)
	}
	runs, err := core.GetRuns(c.Context(), s, queryLimit(c))
	if err != nil {
		return writeError(c, err)
	}
	if runs == nil {
		runs = []schema.IngestRun{}
	}
	return c.JSON(runs)
}

func (h *Handler) store() (contract.Store, error) {
	if h.mgr == nil {
		return nil, fmt.Errorf("%w: store not initialized", contract.ErrStoreUnavailable)
	}
	s := h.mgr.GetStore()
	if s == nil {
		return nil, fmt.Errorf("%w: store not initialized", contract.ErrStoreUnavailable)
	}
	return s, nil
}

// queryLimit reads ?limit= and clamps it to 1..DefaultResultLimit.
func queryLimit(c fiber.Ctx) int {
	limit := fiber.Query[int](c, "limit", contract.DefaultResultLimit)
	if limit <= 0 || limit > contract.DefaultResultLimit {
		return contract.DefaultResultLimit
	}
	return limit
}
