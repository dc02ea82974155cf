package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/codepulse/schema"
	"github.com/jmoiron/sqlx"
)

var findingColumns = []string{
	"commit_hash", "tool", "issue_type", "severity", "file_path", "line_no",
	"repo_owner", "repo_name", "run_id",
}

// findingRow is the table representation of schema.Finding.
type findingRow struct {
	ID         int64  `db:"id"`
	CommitHash string `db:"commit_hash"`
	Tool       string `db:"tool"`
	IssueType  string `db:"issue_type"`
	Severity   string `db:"severity"`
	File       string `db:"file_path"`
	Line       int    `db:"line_no"`
	Owner      string `db:"repo_owner"`
	Repo       string `db:"repo_name"`
	RunID      string `db:"run_id"`
}

func (r findingRow) toFinding() schema.Finding {
	return schema.Finding{
		ID:         r.ID,
		CommitHash: r.CommitHash,
		Tool:       r.Tool,
		IssueType:  r.IssueType,
		Severity:   schema.Severity(r.Severity),
		File:       r.File,
		Line:       r.Line,
		Owner:      r.Owner,
		Repo:       r.Repo,
		RunID:      r.RunID,
	}
}

// insertFinding appends one finding. Findings are never updated in place.
func (s *SQLStore) insertFinding(ctx context.Context, db sqlx.ExtContext, f schema.Finding) error {
	if f.CommitHash == "" {
		return fmt.Errorf("finding for %s:%d has no commit hash", f.File, f.Line)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(findingColumns)), ", ")
	query := db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(findingsTable, s.backend), strings.Join(findingColumns, ", "), placeholders))
	_, err := db.ExecContext(ctx, query,
		f.CommitHash, f.Tool, f.IssueType, string(f.Severity), f.File, f.Line,
		f.Owner, f.Repo, f.RunID,
	)
	return err
}

// supersedeFindings deletes all findings of owner/repo and returns how many were removed.
func (s *SQLStore) supersedeFindings(ctx context.Context, db sqlx.ExtContext, owner, repo string) (int, error) {
	query := db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE repo_owner = ? AND repo_name = ?",
		quoteTableName(findingsTable, s.backend)))
	result, err := db.ExecContext(ctx, query, owner, repo)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListFindings returns all findings ordered by file, line, then insertion order.
func (s *SQLStore) ListFindings(ctx context.Context) ([]schema.Finding, error) {
	query := fmt.Sprintf("SELECT id, %s FROM %s ORDER BY file_path ASC, line_no ASC, id ASC",
		strings.Join(findingColumns, ", "), quoteTableName(findingsTable, s.backend))

	var rows []findingRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, storeErr("list findings", err)
	}

	findings := make([]schema.Finding, 0, len(rows))
	for _, r := range rows {
		findings = append(findings, r.toFinding())
	}
	return findings, nil
}
