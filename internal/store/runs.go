package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/jmoiron/sqlx"
)

// rowSavepoint isolates a single row write inside an ingestion transaction.
const rowSavepoint = "codepulse_row"

var runColumns = []string{
	"run_id", "repo_owner", "repo_name", "started_at", "finished_at", "status",
	"error_kind", "error_message", "commit_count", "finding_count", "head_hash", "report_key",
}

// runRow is the table representation of schema.IngestRun.
type runRow struct {
	RunID        string  `db:"run_id"`
	Owner        string  `db:"repo_owner"`
	Repo         string  `db:"repo_name"`
	StartedAt    dbTime  `db:"started_at"`
	FinishedAt   *dbTime `db:"finished_at"`
	Status       string  `db:"status"`
	ErrorKind    string  `db:"error_kind"`
	Error        string  `db:"error_message"`
	CommitCount  int     `db:"commit_count"`
	FindingCount int     `db:"finding_count"`
	HeadHash     string  `db:"head_hash"`
	ReportKey    string  `db:"report_key"`
}

func (r runRow) toRun() schema.IngestRun {
	run := schema.IngestRun{
		RunID:        r.RunID,
		Owner:        r.Owner,
		Repo:         r.Repo,
		StartedAt:    r.StartedAt.Time,
		Status:       schema.RunStatus(r.Status),
		ErrorKind:    r.ErrorKind,
		Error:        r.Error,
		CommitCount:  r.CommitCount,
		FindingCount: r.FindingCount,
		HeadHash:     r.HeadHash,
		ReportKey:    r.ReportKey,
	}
	if r.FinishedAt != nil && !r.FinishedAt.IsZero() {
		finished := r.FinishedAt.Time
		run.FinishedAt = &finished
	}
	return run
}

// insertRun writes a run row through db.
func (s *SQLStore) insertRun(ctx context.Context, db sqlx.ExtContext, run schema.IngestRun) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	var finishedAt any
	if run.FinishedAt != nil {
		finishedAt = formatTime(*run.FinishedAt, s.backend)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(runColumns)), ", ")
	query := db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(runsTable, s.backend), strings.Join(runColumns, ", "), placeholders))
	_, err := db.ExecContext(ctx, query,
		run.RunID, run.Owner, run.Repo, formatTime(run.StartedAt, s.backend), finishedAt, string(run.Status),
		run.ErrorKind, run.Error, run.CommitCount, run.FindingCount, run.HeadHash, run.ReportKey,
	)
	return err
}

// withSavepoint runs fn between a savepoint and its release. A failing fn is rolled
// back to the savepoint and returned as rowErr; err is set only when the savepoint
// statements themselves fail, which leaves the transaction unusable.
func withSavepoint(ctx context.Context, tx *sqlx.Tx, fn func() error) (rowErr, err error) {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+rowSavepoint); err != nil {
		return nil, err
	}
	if rowErr := fn(); rowErr != nil {
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+rowSavepoint); err != nil {
			return rowErr, err
		}
		return rowErr, nil
	}
	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+rowSavepoint); err != nil {
		return nil, err
	}
	return nil, nil
}

// SaveIngestion writes an ingestion batch in one transaction. Commits are upserted
// and findings inserted row by row under savepoints; the repository's previous
// findings are removed first so only the latest analysis stays visible.
func (s *SQLStore) SaveIngestion(ctx context.Context, batch schema.IngestBatch) (schema.WriteSummary, error) {
	var summary schema.WriteSummary
	run := batch.Run

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, storeErr("begin ingestion", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, c := range batch.Commits {
		rowErr, err := withSavepoint(ctx, tx, func() error { return s.upsertCommit(ctx, tx, c) })
		if err != nil {
			return schema.WriteSummary{}, storeErr("write commits", err)
		}
		if rowErr != nil {
			contract.LogWarn(fmt.Sprintf("Skipping commit %s", c.Hash), rowErr)
			summary.CommitsSkipped++
			continue
		}
		summary.CommitsWritten++
	}

	if summary.FindingsSuperseded, err = s.supersedeFindings(ctx, tx, run.Owner, run.Repo); err != nil {
		return schema.WriteSummary{}, storeErr("supersede findings", err)
	}

	for _, f := range batch.Findings {
		rowErr, err := withSavepoint(ctx, tx, func() error { return s.insertFinding(ctx, tx, f) })
		if err != nil {
			return schema.WriteSummary{}, storeErr("write findings", err)
		}
		if rowErr != nil {
			contract.LogWarn(fmt.Sprintf("Skipping finding %s:%d", f.File, f.Line), rowErr)
			summary.FindingsSkipped++
			continue
		}
		summary.FindingsWritten++
	}

	run.CommitCount = summary.CommitsWritten
	run.FindingCount = summary.FindingsWritten
	if err := s.insertRun(ctx, tx, run); err != nil {
		return schema.WriteSummary{}, storeErr("record run", err)
	}

	if err := tx.Commit(); err != nil {
		return schema.WriteSummary{}, storeErr("commit ingestion", err)
	}
	committed = true
	return summary, nil
}

// RecordRun stores a single run row outside of any ingestion batch.
func (s *SQLStore) RecordRun(ctx context.Context, run schema.IngestRun) error {
	if err := s.insertRun(ctx, s.db, run); err != nil {
		return storeErr("record run", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]schema.IngestRun, error) {
	if limit <= 0 {
		limit = contract.DefaultResultLimit
	}
	query := s.db.Rebind(fmt.Sprintf("SELECT %s FROM %s ORDER BY started_at DESC, run_id ASC LIMIT ?",
		strings.Join(runColumns, ", "), quoteTableName(runsTable, s.backend)))

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, storeErr("list runs", err)
	}

	runs := make([]schema.IngestRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, r.toRun())
	}
	return runs, nil
}
