// Package parquet provides data structures and functions for exporting codepulse
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/codepulse/schema"
	"github.com/parquet-go/parquet-go"
)

// Commit maps to the commits database table.
type Commit struct {
	Hash         string    `parquet:"hash,snappy"`
	Author       string    `parquet:"author,snappy,dict"`
	AuthoredAt   time.Time `parquet:"authored_at,snappy"`
	Message      string    `parquet:"message,snappy"`
	Owner        string    `parquet:"repo_owner,snappy,dict"`
	Repo         string    `parquet:"repo_name,snappy,dict"`
	FilesChanged int32     `parquet:"files_changed,snappy"`
	Insertions   int32     `parquet:"insertions,snappy"`
	Deletions    int32     `parquet:"deletions,snappy"`
}

// Finding maps to the code_quality database table.
type Finding struct {
	// ID follows insertion order
	ID         int64  `parquet:"id,snappy"`
	CommitHash string `parquet:"commit_hash,snappy,dict"`
	Tool       string `parquet:"tool,snappy,dict"`
	IssueType  string `parquet:"issue_type,snappy,dict"`
	Severity   string `parquet:"severity,snappy,dict"`
	FilePath   string `parquet:"file_path,snappy,dict"`
	Line       int32  `parquet:"line_no,snappy"`
	Owner      string `parquet:"repo_owner,snappy,dict"`
	Repo       string `parquet:"repo_name,snappy,dict"`
	RunID      string `parquet:"run_id,snappy,dict"`
}

// IngestRun maps to the ingest_runs database table.
type IngestRun struct {
	RunID     string    `parquet:"run_id,snappy"`
	Owner     string    `parquet:"repo_owner,snappy,dict"`
	Repo      string    `parquet:"repo_name,snappy,dict"`
	StartedAt time.Time `parquet:"started_at,snappy"`

	// FinishedAt is nullable for runs recorded before completion
	FinishedAt *time.Time `parquet:"finished_at,optional,snappy"`

	Status       string  `parquet:"status,snappy,dict"`
	ErrorKind    *string `parquet:"error_kind,optional,snappy"`
	Error        *string `parquet:"error_message,optional,snappy"`
	CommitCount  int32   `parquet:"commit_count,snappy"`
	FindingCount int32   `parquet:"finding_count,snappy"`
	HeadHash     string  `parquet:"head_hash,snappy"`
	ReportKey    *string `parquet:"report_key,optional,snappy"`
}

// WriteRows writes rows to w as a single Parquet file.
// The schema is derived from the struct tags of T.
func WriteRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile creates outputPath and writes rows to it.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ConvertCommits converts schema commits for Parquet export.
func ConvertCommits(commits []schema.Commit) []Commit {
	result := make([]Commit, len(commits))
	for i, c := range commits {
		result[i] = Commit{
			Hash:         c.Hash,
			Author:       c.Author,
			AuthoredAt:   c.Date,
			Message:      c.Message,
			Owner:        c.Owner,
			Repo:         c.Repo,
			FilesChanged: int32(c.FilesChanged),
			Insertions:   int32(c.Insertions),
			Deletions:    int32(c.Deletions),
		}
	}
	return result
}

// ConvertFindings converts schema findings for Parquet export.
func ConvertFindings(findings []schema.Finding) []Finding {
	result := make([]Finding, len(findings))
	for i, f := range findings {
		result[i] = Finding{
			ID:         f.ID,
			CommitHash: f.CommitHash,
			Tool:       f.Tool,
			IssueType:  f.IssueType,
			Severity:   string(f.Severity),
			FilePath:   f.File,
			Line:       int32(f.Line),
			Owner:      f.Owner,
			Repo:       f.Repo,
			RunID:      f.RunID,
		}
	}
	return result
}

// ConvertRuns converts schema runs for Parquet export. Empty text fields become nulls.
func ConvertRuns(runs []schema.IngestRun) []IngestRun {
	result := make([]IngestRun, len(runs))
	for i, r := range runs {
		result[i] = IngestRun{
			RunID:        r.RunID,
			Owner:        r.Owner,
			Repo:         r.Repo,
			StartedAt:    r.StartedAt,
			FinishedAt:   r.FinishedAt,
			Status:       string(r.Status),
			ErrorKind:    optional(r.ErrorKind),
			Error:        optional(r.Error),
			CommitCount:  int32(r.CommitCount),
			FindingCount: int32(r.FindingCount),
			HeadHash:     r.HeadHash,
			ReportKey:    optional(r.ReportKey),
		}
	}
	return result
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
