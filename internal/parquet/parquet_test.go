package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/codepulse/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll reads every row of the Parquet file at path.
func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		schema  *parquet.Schema
		columns []string
	}{
		{"commit", parquet.SchemaOf(new(Commit)), []string{"hash", "author", "authored_at", "message", "repo_owner", "repo_name", "files_changed", "insertions", "deletions"}},
		{"finding", parquet.SchemaOf(new(Finding)), []string{"id", "commit_hash", "tool", "issue_type", "severity", "file_path", "line_no", "repo_owner", "repo_name", "run_id"}},
		{"run", parquet.SchemaOf(new(IngestRun)), []string{"run_id", "started_at", "finished_at", "status", "error_kind", "error_message", "commit_count", "finding_count", "head_hash", "report_key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, colName := range tt.columns {
				_, ok := tt.schema.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestWriteFile_Commits(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "commits.parquet")
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	data := ConvertCommits([]schema.Commit{
		{Hash: "h2", Author: "B", Date: date, Message: "second", Owner: "octo", Repo: "demo", FilesChanged: 3},
		{Hash: "h1", Author: "A", Date: date.AddDate(0, 0, -1), Message: "first", Owner: "octo", Repo: "demo"},
	})

	require.NoError(t, WriteFile(data, outputPath))

	readData := readAll[Commit](t, outputPath)
	require.Len(t, readData, 2)
	assert.Equal(t, "h2", readData[0].Hash)
	assert.Equal(t, int32(3), readData[0].FilesChanged)
	assert.WithinDuration(t, date, readData[0].AuthoredAt, time.Nanosecond)
	assert.Equal(t, "first", readData[1].Message)
}

func TestWriteFile_FindingsAndRuns(t *testing.T) {
	dir := t.TempDir()

	findings := ConvertFindings([]schema.Finding{
		{ID: 7, CommitHash: "h1", Tool: "eslint", IssueType: "no-eval", Severity: schema.SeverityHigh, File: "src/a.js", Line: 10, Owner: "octo", Repo: "demo", RunID: "r1"},
	})
	findingsPath := filepath.Join(dir, "findings.parquet")
	require.NoError(t, WriteFile(findings, findingsPath))

	readFindings := readAll[Finding](t, findingsPath)
	require.Len(t, readFindings, 1)
	assert.Equal(t, findings[0], readFindings[0])

	finished := time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC)
	runs := ConvertRuns([]schema.IngestRun{
		{RunID: "r1", Owner: "octo", Repo: "demo", StartedAt: finished.Add(-time.Minute), FinishedAt: &finished, Status: schema.RunSucceeded, CommitCount: 2, FindingCount: 1, HeadHash: "h2"},
		{RunID: "r2", Owner: "octo", Repo: "demo", StartedAt: finished, Status: schema.RunFailed, ErrorKind: "AnalysisTimeout", Error: "analysis timed out"},
	})
	runsPath := filepath.Join(dir, "runs.parquet")
	require.NoError(t, WriteFile(runs, runsPath))

	readRuns := readAll[IngestRun](t, runsPath)
	require.Len(t, readRuns, 2)
	require.NotNil(t, readRuns[0].FinishedAt)
	assert.WithinDuration(t, finished, *readRuns[0].FinishedAt, time.Nanosecond)
	assert.Nil(t, readRuns[0].ErrorKind, "empty error kind is stored as null")
	assert.Nil(t, readRuns[1].FinishedAt)
	require.NotNil(t, readRuns[1].ErrorKind)
	assert.Equal(t, "AnalysisTimeout", *readRuns[1].ErrorKind)
}

func TestWriteFile_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteFile([]Finding{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Parquet footer is always written")
	assert.Empty(t, readAll[Finding](t, outputPath))
}

func TestWriteFile_InvalidPath(t *testing.T) {
	err := WriteFile([]Commit{}, filepath.Join(t.TempDir(), "missing", "dir", "x.parquet"))
	assert.Error(t, err)
}
