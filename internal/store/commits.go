package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/jmoiron/sqlx"
)

var commitColumns = []string{
	"hash", "author", "authored_at", "message", "repo_owner", "repo_name",
	"files_changed", "insertions", "deletions",
}

// commitRow is the table representation of schema.Commit.
type commitRow struct {
	Hash         string `db:"hash"`
	Author       string `db:"author"`
	AuthoredAt   dbTime `db:"authored_at"`
	Message      string `db:"message"`
	Owner        string `db:"repo_owner"`
	Repo         string `db:"repo_name"`
	FilesChanged int    `db:"files_changed"`
	Insertions   int    `db:"insertions"`
	Deletions    int    `db:"deletions"`
}

func (r commitRow) toCommit() schema.Commit {
	return schema.Commit{
		Hash:         r.Hash,
		Author:       r.Author,
		Date:         r.AuthoredAt.Time,
		Message:      r.Message,
		Owner:        r.Owner,
		Repo:         r.Repo,
		FilesChanged: r.FilesChanged,
		Insertions:   r.Insertions,
		Deletions:    r.Deletions,
	}
}

// upsertCommitQuery returns the backend-specific statement that replaces a row sharing a hash.
func upsertCommitQuery(backend schema.DatabaseBackend) string {
	table := quoteTableName(commitsTable, backend)
	cols := strings.Join(commitColumns, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(commitColumns)), ", ")

	var updates []string
	switch backend {
	case schema.MySQLBackend:
		for _, col := range commitColumns[1:] {
			updates = append(updates, fmt.Sprintf("%s = new.%s", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) AS new ON DUPLICATE KEY UPDATE %s",
			table, cols, placeholders, strings.Join(updates, ", "))

	case schema.PostgreSQLBackend:
		for _, col := range commitColumns[1:] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (hash) DO UPDATE SET %s",
			table, cols, placeholders, strings.Join(updates, ", "))

	default: // SQLite
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", table, cols, placeholders)
	}
}

// upsertCommit writes a single commit through db, which may be a pool or a transaction.
func (s *SQLStore) upsertCommit(ctx context.Context, db sqlx.ExtContext, c schema.Commit) error {
	if c.Hash == "" {
		return fmt.Errorf("commit hash is required")
	}
	query := db.Rebind(upsertCommitQuery(s.backend))
	_, err := db.ExecContext(ctx, query,
		c.Hash, c.Author, formatTime(c.Date, s.backend), c.Message, c.Owner, c.Repo,
		c.FilesChanged, c.Insertions, c.Deletions,
	)
	return err
}

// UpsertCommits writes each commit independently. Failed rows are logged and skipped.
func (s *SQLStore) UpsertCommits(ctx context.Context, commits []schema.Commit) (schema.WriteSummary, error) {
	var summary schema.WriteSummary
	if err := s.db.PingContext(ctx); err != nil {
		return summary, storeErr("ping", err)
	}

	for _, c := range commits {
		if err := s.upsertCommit(ctx, s.db, c); err != nil {
			contract.LogWarn(fmt.Sprintf("Skipping commit %s", c.Hash), err)
			summary.CommitsSkipped++
			continue
		}
		summary.CommitsWritten++
	}
	return summary, nil
}

// ListCommits returns up to limit commits, newest authored date first.
func (s *SQLStore) ListCommits(ctx context.Context, limit int) ([]schema.Commit, error) {
	if limit <= 0 {
		limit = contract.DefaultResultLimit
	}
	query := s.db.Rebind(fmt.Sprintf("SELECT %s FROM %s ORDER BY authored_at DESC, hash ASC LIMIT ?",
		strings.Join(commitColumns, ", "), quoteTableName(commitsTable, s.backend)))

	var rows []commitRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, storeErr("list commits", err)
	}

	commits := make([]schema.Commit, 0, len(rows))
	for _, r := range rows {
		commits = append(commits, r.toCommit())
	}
	return commits, nil
}
