// Package schema has configs, models and constants for all parts of codepulse.
package schema

import "time"

// Commit is one version-control commit fetched from the remote host.
// The hash is unique within the store; re-ingestion replaces the row.
type Commit struct {
	Hash         string    `json:"hash" yaml:"hash"`
	Author       string    `json:"author" yaml:"author"`
	Date         time.Time `json:"date" yaml:"date"`
	Message      string    `json:"message" yaml:"message"`
	Owner        string    `json:"owner" yaml:"owner"`
	Repo         string    `json:"repo" yaml:"repo"`
	FilesChanged int       `json:"files_changed" yaml:"files_changed"` // Change volume from git numstat
	Insertions   int       `json:"insertions" yaml:"insertions"`
	Deletions    int       `json:"deletions" yaml:"deletions"`
}

// Finding is one static-analysis issue tied to a file and line.
// CommitHash refers to a Commit but the relationship is not enforced.
type Finding struct {
	ID         int64    `json:"id" yaml:"id"` // Store-assigned, follows insertion order
	CommitHash string   `json:"commit_hash" yaml:"commit_hash"`
	Tool       string   `json:"tool" yaml:"tool"`
	IssueType  string   `json:"issue_type" yaml:"issue_type"`
	Severity   Severity `json:"severity" yaml:"severity"`
	File       string   `json:"file" yaml:"file"`
	Line       int      `json:"line" yaml:"line"`
	Owner      string   `json:"owner" yaml:"owner"`
	Repo       string   `json:"repo" yaml:"repo"`
	RunID      string   `json:"run_id" yaml:"run_id"`
}

// IngestRun records one ingestion attempt for a repository.
type IngestRun struct {
	RunID        string     `json:"run_id" yaml:"run_id"`
	Owner        string     `json:"owner" yaml:"owner"`
	Repo         string     `json:"repo" yaml:"repo"`
	StartedAt    time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status       RunStatus  `json:"status" yaml:"status"`
	ErrorKind    string     `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error        string     `json:"error,omitempty" yaml:"error,omitempty"`
	CommitCount  int        `json:"commit_count" yaml:"commit_count"`
	FindingCount int        `json:"finding_count" yaml:"finding_count"`
	HeadHash     string     `json:"head_hash,omitempty" yaml:"head_hash,omitempty"`
	ReportKey    string     `json:"report_key,omitempty" yaml:"report_key,omitempty"`
}

// IngestBatch is the unit of work written atomically at the end of an ingestion.
type IngestBatch struct {
	Run      IngestRun
	Commits  []Commit
	Findings []Finding
}

// WriteSummary reports how many rows a store write touched.
type WriteSummary struct {
	CommitsWritten     int `json:"commits_written"`
	CommitsSkipped     int `json:"commits_skipped"`
	FindingsWritten    int `json:"findings_written"`
	FindingsSkipped    int `json:"findings_skipped"`
	FindingsSuperseded int `json:"findings_superseded"`
}

// IngestOutcome is the result of a successful ingestion.
type IngestOutcome struct {
	RunID     string       `json:"run_id" yaml:"run_id"`
	Owner     string       `json:"owner" yaml:"owner"`
	Repo      string       `json:"repo" yaml:"repo"`
	HeadHash  string       `json:"head_hash" yaml:"head_hash"`
	ReportKey string       `json:"report_key,omitempty" yaml:"report_key,omitempty"`
	Commits   int          `json:"commits" yaml:"commits"`
	Findings  int          `json:"findings" yaml:"findings"`
	Summary   WriteSummary `json:"summary" yaml:"summary"`
	Message   string       `json:"message" yaml:"message"`
}

// AnalysisTarget identifies the checkout the analyzer runs against.
type AnalysisTarget struct {
	Owner string
	Repo  string
	Dir   string // Absolute path to the checkout
}

// AnalysisResult is the structured output of one analyzer run.
// Findings are not yet tagged with a commit hash or run id.
type AnalysisResult struct {
	Findings []Finding
	Report   []byte // Raw analyzer stdout
	Duration time.Duration
}

// CommitStats is the change volume of a single commit.
type CommitStats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
}
