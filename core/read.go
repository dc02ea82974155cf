package core

import (
	"context"
	"fmt"

	"github.com/huangsam/codepulse/core/agg"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

// GetDashboard loads the newest limit commits and all findings, then aggregates them.
func GetDashboard(ctx context.Context, s contract.Store, limit int) (schema.Dashboard, error) {
	commits, err := s.ListCommits(ctx, limit)
	if err != nil {
		return schema.Dashboard{}, err
	}
	findings, err := s.ListFindings(ctx)
	if err != nil {
		return schema.Dashboard{}, err
	}
	return agg.BuildDashboard(commits, findings), nil
}

// GetCommits returns the newest limit commits.
func GetCommits(ctx context.Context, s contract.Store, limit int) ([]schema.Commit, error) {
	return s.ListCommits(ctx, limit)
}

// GetFindings returns every finding, or ErrNoData when there are none.
func GetFindings(ctx context.Context, s contract.Store) ([]schema.Finding, error) {
	findings, err := s.ListFindings(ctx)
	if err != nil {
		return nil, err
	}
	if len(findings) == 0 {
		return nil, fmt.Errorf("%w: no code quality data found", contract.ErrNoData)
	}
	return findings, nil
}

// GetRuns returns the newest limit ingestion runs.
func GetRuns(ctx context.Context, s contract.Store, limit int) ([]schema.IngestRun, error) {
	return s.ListRuns(ctx, limit)
}
