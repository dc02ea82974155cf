// Package core has the ingestion pipeline and the read helpers behind every surface.
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/codepulse/core/agg"
	"github.com/huangsam/codepulse/internal/archive"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

// recordTimeout bounds the write of a failed run row.
const recordTimeout = 10 * time.Second

// Ingestor coordinates one ingestion per repository at a time.
type Ingestor struct {
	cfg      *contract.Config
	source   contract.CommitSource
	git      contract.GitClient
	runner   contract.AnalysisRunner
	archiver contract.ReportArchiver // nil disables archiving
	mgr      contract.StoreManager
	locks    *repoLocks
	now      func() time.Time
}

// NewIngestor wires the pipeline. archiver may be nil. The ingestor keeps its
// own copy of cfg, so later changes by the caller do not affect running ingests.
func NewIngestor(
	cfg *contract.Config,
	source contract.CommitSource,
	git contract.GitClient,
	runner contract.AnalysisRunner,
	archiver contract.ReportArchiver,
	mgr contract.StoreManager,
) *Ingestor {
	return &Ingestor{
		cfg:      cfg.Clone(),
		source:   source,
		git:      git,
		runner:   runner,
		archiver: archiver,
		mgr:      mgr,
		locks:    newRepoLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ingest fetches recent commits of owner/repo, analyzes a checkout and writes
// commits, findings and the run record in one store transaction. Concurrent
// calls for the same repository fail fast with ErrIngestInProgress.
func (ing *Ingestor) Ingest(ctx context.Context, owner, repo string) (schema.IngestOutcome, error) {
	if err := contract.ValidateRepoName(owner, repo); err != nil {
		return schema.IngestOutcome{}, err
	}

	key := contract.RepoKey(owner, repo)
	if !ing.locks.TryLock(key) {
		return schema.IngestOutcome{}, fmt.Errorf("%w: %s", contract.ErrIngestInProgress, key)
	}
	defer ing.locks.Unlock(key)

	run := schema.IngestRun{
		RunID:     uuid.NewString(),
		Owner:     owner,
		Repo:      repo,
		StartedAt: ing.now(),
	}
	ctx = withRunID(ctx, run.RunID)
	contract.LogInfo("[%s] Ingesting %s", run.RunID, key)

	outcome, err := ing.ingest(ctx, &run)
	if err != nil {
		ing.recordFailure(ctx, run, err)
		return schema.IngestOutcome{}, err
	}
	return outcome, nil
}

// ingest runs every step after the run id is allocated. It fills run as it goes.
func (ing *Ingestor) ingest(ctx context.Context, run *schema.IngestRun) (schema.IngestOutcome, error) {
	s := ing.mgr.GetStore()
	if s == nil {
		return schema.IngestOutcome{}, fmt.Errorf("%w: store is not initialized", contract.ErrStoreUnavailable)
	}

	commits, err := ing.source.FetchCommits(ctx, run.Owner, run.Repo)
	if err != nil {
		return schema.IngestOutcome{}, err
	}

	scratch, err := os.MkdirTemp(ing.cfg.WorkDir, "codepulse-*")
	if err != nil {
		return schema.IngestOutcome{}, fmt.Errorf("%w: create scratch dir: %v", contract.ErrAnalysisFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			contract.LogWarn("Failed to remove scratch dir "+scratch, err)
		}
	}()

	// Analyzers report real paths, so findings are made relative to the resolved checkout
	if resolved, err := filepath.EvalSymlinks(scratch); err == nil {
		scratch = resolved
	}

	dir := filepath.Join(scratch, run.Repo)
	if err := ing.checkout(ctx, run.Owner, run.Repo, dir, len(commits)); err != nil {
		return schema.IngestOutcome{}, err
	}

	head, err := ing.git.GetRepoHash(ctx, dir)
	if err != nil {
		return schema.IngestOutcome{}, fmt.Errorf("%w: read HEAD: %v", contract.ErrAnalysisFailed, err)
	}
	run.HeadHash = head

	ing.mergeChangeVolume(ctx, dir, commits)

	result, err := ing.runner.Run(ctx, schema.AnalysisTarget{Owner: run.Owner, Repo: run.Repo, Dir: dir})
	if err != nil {
		return schema.IngestOutcome{}, err
	}

	findings := make([]schema.Finding, len(result.Findings))
	for i, f := range result.Findings {
		f.CommitHash = head
		f.Owner = run.Owner
		f.Repo = run.Repo
		f.RunID = run.RunID
		findings[i] = f
	}

	run.ReportKey = ing.archiveReport(ctx, *run, result.Report)

	finished := ing.now()
	run.FinishedAt = &finished
	run.Status = schema.RunSucceeded
	summary, err := s.SaveIngestion(ctx, schema.IngestBatch{Run: *run, Commits: commits, Findings: findings})
	if err != nil {
		return schema.IngestOutcome{}, err
	}

	contract.LogInfo("[%s] Stored %d commits and %d findings in %s", run.RunID,
		summary.CommitsWritten, summary.FindingsWritten, finished.Sub(run.StartedAt).Round(time.Millisecond))

	return schema.IngestOutcome{
		RunID:     run.RunID,
		Owner:     run.Owner,
		Repo:      run.Repo,
		HeadHash:  head,
		ReportKey: run.ReportKey,
		Commits:   summary.CommitsWritten,
		Findings:  summary.FindingsWritten,
		Summary:   summary,
		Message: fmt.Sprintf("Data fetched, stored, and analyzed successfully: %d commits, %d findings for %s",
			summary.CommitsWritten, summary.FindingsWritten, contract.RepoKey(run.Owner, run.Repo)),
	}, nil
}

// checkout shallow-clones owner/repo into dir, deep enough to cover depth commits.
func (ing *Ingestor) checkout(ctx context.Context, owner, repo, dir string, depth int) error {
	if depth < 1 {
		depth = 1
	}
	url := contract.ExpandRepoTemplate(ing.cfg.CloneURL, owner, repo, dir)

	cloneCtx := ctx
	if ing.cfg.CloneTimeout > 0 {
		var cancel context.CancelFunc
		cloneCtx, cancel = context.WithTimeout(ctx, ing.cfg.CloneTimeout)
		defer cancel()
	}
	if err := ing.git.Clone(cloneCtx, url, dir, depth); err != nil {
		return fmt.Errorf("%w: clone %s: %v", contract.ErrAnalysisFailed, url, err)
	}
	return nil
}

// mergeChangeVolume fills files changed, insertions and deletions from git numstat.
func (ing *Ingestor) mergeChangeVolume(ctx context.Context, dir string, commits []schema.Commit) {
	out, err := ing.git.GetActivityLog(ctx, dir, len(commits))
	if err != nil {
		contract.LogWarn(fmt.Sprintf("[%s] Change volume unavailable", runIDFromContext(ctx)), err)
		return
	}
	merged := agg.MergeCommitStats(commits, agg.ParseCommitStats(out))
	if merged < len(commits) {
		contract.LogInfo("[%s] Change volume found for %d of %d commits", runIDFromContext(ctx), merged, len(commits))
	}
}

// archiveReport uploads the raw report and returns its location, or "" when skipped or failed.
func (ing *Ingestor) archiveReport(ctx context.Context, run schema.IngestRun, report []byte) string {
	if ing.archiver == nil || len(report) == 0 {
		return ""
	}
	location, err := ing.archiver.Archive(ctx, archive.ReportKey(run.Owner, run.Repo, run.RunID), report)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("[%s] Report archive failed", run.RunID), err)
		return ""
	}
	return location
}

// recordFailure writes a failed run row. A store failure here only warns.
func (ing *Ingestor) recordFailure(ctx context.Context, run schema.IngestRun, cause error) {
	contract.LogWarn(fmt.Sprintf("[%s] Ingestion of %s failed", run.RunID, contract.RepoKey(run.Owner, run.Repo)), cause)

	s := ing.mgr.GetStore()
	if s == nil {
		return
	}
	finished := ing.now()
	run.FinishedAt = &finished
	run.Status = schema.RunFailed
	run.ErrorKind = contract.ErrorKind(cause)
	run.Error = cause.Error()
	run.CommitCount = 0
	run.FindingCount = 0
	run.ReportKey = ""

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.RecordRun(recordCtx, run); err != nil {
		contract.LogWarn(fmt.Sprintf("[%s] Failed to record run", run.RunID), err)
	}
}
