// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/codepulse/schema"
)

// CommitSource fetches commit metadata from a remote repository host.
type CommitSource interface {
	// FetchCommits returns the first page of commits for owner/repo, most recent first.
	FetchCommits(ctx context.Context, owner, repo string) ([]schema.Commit, error)
}

// AnalysisRunner runs an external static-analysis process against a checkout.
type AnalysisRunner interface {
	// Run executes the analyzer within its time and output bounds and returns parsed findings.
	Run(ctx context.Context, target schema.AnalysisTarget) (schema.AnalysisResult, error)
}

// GitClient defines the git operations needed to prepare a checkout for analysis.
// This allows the ingestion logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command in repoPath and returns its stdout.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// Clone performs a shallow clone of url into dir. A depth <= 0 clones full history.
	Clone(ctx context.Context, url, dir string, depth int) error

	// GetRepoHash returns the current HEAD commit hash of the repository.
	GetRepoHash(ctx context.Context, repoPath string) (string, error)

	// GetActivityLog returns the raw numstat log for the most recent maxCommits commits.
	GetActivityLog(ctx context.Context, repoPath string, maxCommits int) ([]byte, error)
}

// ReportArchiver stores raw analyzer reports outside the database.
type ReportArchiver interface {
	// Archive uploads data under key and returns the stored object location.
	Archive(ctx context.Context, key string, data []byte) (string, error)
}

// StoreManager defines the interface for accessing the configured store.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetStore() Store
}

// Store persists commits, findings and ingestion runs.
type Store interface {
	// UpsertCommits writes each commit independently, replacing rows that share a hash.
	// Rows that fail are logged and skipped.
	UpsertCommits(ctx context.Context, commits []schema.Commit) (schema.WriteSummary, error)

	// ListCommits returns up to limit commits, newest authored date first.
	ListCommits(ctx context.Context, limit int) ([]schema.Commit, error)

	// ListFindings returns all findings ordered by file, line, then insertion order.
	ListFindings(ctx context.Context) ([]schema.Finding, error)

	// SaveIngestion writes the commits, supersedes the repository's previous findings,
	// inserts the new findings and records the run inside one transaction.
	SaveIngestion(ctx context.Context, batch schema.IngestBatch) (schema.WriteSummary, error)

	// RecordRun stores a single run row, typically for a failed ingestion.
	RecordRun(ctx context.Context, run schema.IngestRun) error

	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]schema.IngestRun, error)

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
