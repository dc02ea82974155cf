package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/parquet"
)

// ExportStore writes every commit, finding and run to Parquet files named
// after prefix and reports progress to w.
func ExportStore(ctx context.Context, s contract.Store, prefix string, w io.Writer) error {
	if prefix == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := s.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TableSizes[commitsTable] == 0 && status.TableSizes[findingsTable] == 0 && status.TotalRuns == 0 {
		return fmt.Errorf("%w: nothing to export", contract.ErrNoData)
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	// Table sizes bound the list calls so that nothing is truncated
	commits, err := s.ListCommits(ctx, int(status.TableSizes[commitsTable]))
	if err != nil {
		return fmt.Errorf("failed to retrieve commits: %w", err)
	}
	findings, err := s.ListFindings(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve findings: %w", err)
	}
	runs, err := s.ListRuns(ctx, status.TotalRuns)
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	commitsFile := prefix + ".commits.parquet"
	if err := parquet.WriteFile(parquet.ConvertCommits(commits), commitsFile); err != nil {
		return fmt.Errorf("failed to write commits: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d commits to: %s\n", len(commits), commitsFile)

	findingsFile := prefix + ".findings.parquet"
	if err := parquet.WriteFile(parquet.ConvertFindings(findings), findingsFile); err != nil {
		return fmt.Errorf("failed to write findings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d findings to: %s\n", len(findings), findingsFile)

	runsFile := prefix + ".runs.parquet"
	if err := parquet.WriteFile(parquet.ConvertRuns(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with DuckDB, pandas (via pyarrow) or Spark.")
	return nil
}
