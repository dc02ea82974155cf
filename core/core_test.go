package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/store"
	"github.com/huangsam/codepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ingestFixture bundles an Ingestor with its mocked collaborators and a real in-memory store.
type ingestFixture struct {
	ingestor *Ingestor
	source   *contract.MockCommitSource
	git      *contract.MockGitClient
	runner   *contract.MockAnalysisRunner
	archiver *contract.MockReportArchiver
	store    *store.SQLStore
}

func newIngestFixture(t *testing.T, withArchiver bool) *ingestFixture {
	t.Helper()
	s, err := store.NewSQLStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := &ingestFixture{
		source:   &contract.MockCommitSource{},
		git:      &contract.MockGitClient{},
		runner:   &contract.MockAnalysisRunner{},
		archiver: &contract.MockReportArchiver{},
		store:    s,
	}
	cfg := &contract.Config{
		CloneURL:     "https://github.com/{owner}/{repo}.git",
		CloneTimeout: time.Minute,
		WorkDir:      t.TempDir(),
	}
	var archiver contract.ReportArchiver
	if withArchiver {
		archiver = f.archiver
	}
	f.ingestor = NewIngestor(cfg, f.source, f.git, f.runner, archiver, store.NewStoreManager(s))
	return f
}

func demoCommits() []schema.Commit {
	return []schema.Commit{
		{Hash: "h2", Author: "B", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Message: "second", Owner: "octo", Repo: "demo"},
		{Hash: "h1", Author: "A", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Message: "first", Owner: "octo", Repo: "demo"},
	}
}

var demoNumstat = []byte("--h2|B|2024-01-02T00:00:00Z\n3\t1\tsrc/a.js\n1\t0\tsrc/b.js\n\n--h1|A|2024-01-01T00:00:00Z\n10\t0\tsrc/a.js\n")

func isDemoTarget(target schema.AnalysisTarget) bool {
	return target.Owner == "octo" && target.Repo == "demo" && filepath.Base(target.Dir) == "demo"
}

// expectCheckout sets up a successful clone of octo/demo at head.
func (f *ingestFixture) expectCheckout(head string) {
	f.git.On("Clone", mock.Anything, "https://github.com/octo/demo.git", mock.Anything, 2).Return(nil)
	f.git.On("GetRepoHash", mock.Anything, mock.Anything).Return(head, nil)
	f.git.On("GetActivityLog", mock.Anything, mock.Anything, 2).Return(demoNumstat, nil)
}

func TestIngest_Success(t *testing.T) {
	f := newIngestFixture(t, false)
	ctx := context.Background()

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.expectCheckout("h2")
	f.runner.On("Run", mock.Anything, mock.MatchedBy(isDemoTarget)).Return(schema.AnalysisResult{
		Findings: []schema.Finding{
			{Tool: "eslint", IssueType: "no-eval", Severity: schema.SeverityHigh, File: "src/a.js", Line: 10},
			{Tool: "eslint", IssueType: "semi", Severity: schema.SeverityLow, File: "src/b.js", Line: 1},
		},
		Report: []byte(`[]`),
	}, nil)

	outcome, err := f.ingestor.Ingest(ctx, "octo", "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Commits)
	assert.Equal(t, 2, outcome.Findings)
	assert.Equal(t, "h2", outcome.HeadHash)
	assert.NotEmpty(t, outcome.RunID)
	assert.Equal(t, "Data fetched, stored, and analyzed successfully: 2 commits, 2 findings for octo/demo", outcome.Message)

	commits, err := GetCommits(ctx, f.store, 10)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "h2", commits[0].Hash)
	assert.Equal(t, "octo", commits[0].Owner)
	assert.Equal(t, 2, commits[0].FilesChanged, "numstat is merged into commits")
	assert.Equal(t, 4, commits[0].Insertions)
	assert.Equal(t, 10, commits[1].Insertions)

	findings, err := GetFindings(ctx, f.store)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	for _, finding := range findings {
		assert.Equal(t, "h2", finding.CommitHash)
		assert.Equal(t, outcome.RunID, finding.RunID)
		assert.Equal(t, "octo", finding.Owner)
		assert.Equal(t, "demo", finding.Repo)
	}

	runs, err := GetRuns(ctx, f.store, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, schema.RunSucceeded, runs[0].Status)
	assert.Equal(t, 2, runs[0].FindingCount)
	assert.Empty(t, runs[0].ReportKey)

	f.source.AssertExpectations(t)
	f.git.AssertExpectations(t)
	f.runner.AssertExpectations(t)
}

func TestIngest_ResolvesSymlinkedWorkDir(t *testing.T) {
	f := newIngestFixture(t, false)
	realDir := t.TempDir()
	link := filepath.Join(t.TempDir(), "work")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	f.ingestor.cfg.WorkDir = link
	resolved, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.expectCheckout("h2")
	f.runner.On("Run", mock.Anything, mock.MatchedBy(func(target schema.AnalysisTarget) bool {
		return isDemoTarget(target) && strings.HasPrefix(target.Dir, resolved+string(filepath.Separator))
	})).Return(schema.AnalysisResult{Report: []byte(`[]`)}, nil)

	_, err = f.ingestor.Ingest(context.Background(), "octo", "demo")
	require.NoError(t, err)
	f.runner.AssertExpectations(t)
}

func TestNewIngestor_CopiesConfig(t *testing.T) {
	cfg := &contract.Config{CloneURL: "https://github.com/{owner}/{repo}.git", AnalyzerCommand: []string{"eslint"}}
	ing := NewIngestor(cfg, nil, nil, nil, nil, nil)

	cfg.CloneURL = "file:///elsewhere/{repo}"
	cfg.AnalyzerCommand[0] = "rm"
	assert.Equal(t, "https://github.com/{owner}/{repo}.git", ing.cfg.CloneURL)
	assert.Equal(t, []string{"eslint"}, ing.cfg.AnalyzerCommand)
}

func TestIngest_ArchivesReport(t *testing.T) {
	f := newIngestFixture(t, true)

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.expectCheckout("h2")
	f.runner.On("Run", mock.Anything, mock.Anything).Return(schema.AnalysisResult{Report: []byte(`[]`)}, nil)
	f.archiver.On("Archive", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "reports/octo/demo/") && strings.HasSuffix(key, ".json")
	}), []byte(`[]`)).Return("bucket/reports/octo/demo/x.json", nil)

	outcome, err := f.ingestor.Ingest(context.Background(), "octo", "demo")
	require.NoError(t, err)
	assert.Equal(t, "bucket/reports/octo/demo/x.json", outcome.ReportKey)
	f.archiver.AssertExpectations(t)
}

func TestIngest_ArchiveFailureOnlyWarns(t *testing.T) {
	f := newIngestFixture(t, true)

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.expectCheckout("h2")
	f.runner.On("Run", mock.Anything, mock.Anything).Return(schema.AnalysisResult{Report: []byte(`[]`)}, nil)
	f.archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

	outcome, err := f.ingestor.Ingest(context.Background(), "octo", "demo")
	require.NoError(t, err)
	assert.Empty(t, outcome.ReportKey)
}

func TestIngest_ActivityLogFailureOnlyWarns(t *testing.T) {
	f := newIngestFixture(t, false)

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.git.On("Clone", mock.Anything, mock.Anything, mock.Anything, 2).Return(nil)
	f.git.On("GetRepoHash", mock.Anything, mock.Anything).Return("h2", nil)
	f.git.On("GetActivityLog", mock.Anything, mock.Anything, 2).Return(nil, errors.New("shallow"))
	f.runner.On("Run", mock.Anything, mock.Anything).Return(schema.AnalysisResult{}, nil)

	outcome, err := f.ingestor.Ingest(context.Background(), "octo", "demo")
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Commits)
}

func TestIngest_InvalidInput(t *testing.T) {
	f := newIngestFixture(t, false)

	for _, tc := range [][2]string{{"", "demo"}, {"octo", ""}, {"octo", "../etc"}, {"..", "demo"}, {"oc to", "demo"}} {
		_, err := f.ingestor.Ingest(context.Background(), tc[0], tc[1])
		assert.ErrorIs(t, err, contract.ErrInvalidInput, "owner=%q repo=%q", tc[0], tc[1])
	}

	runs, err := f.store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "invalid input is rejected before a run exists")
	f.source.AssertNotCalled(t, "FetchCommits", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_SourceRejected(t *testing.T) {
	f := newIngestFixture(t, false)
	ctx := context.Background()

	f.source.On("FetchCommits", mock.Anything, "octo", "missing").
		Return(nil, fmt.Errorf("%w: GET /repos/octo/missing/commits returned status 404", contract.ErrSourceRejected))

	_, err := f.ingestor.Ingest(ctx, "octo", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrSourceRejected)
	assert.Contains(t, err.Error(), "404")

	commits, err := GetCommits(ctx, f.store, 10)
	require.NoError(t, err)
	assert.Empty(t, commits)

	runs, err := GetRuns(ctx, f.store, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, schema.RunFailed, runs[0].Status)
	assert.Equal(t, "SourceRejected", runs[0].ErrorKind)
	assert.NotNil(t, runs[0].FinishedAt)
	f.git.AssertNotCalled(t, "Clone", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngest_AnalysisTimeoutWritesNothing(t *testing.T) {
	f := newIngestFixture(t, false)
	ctx := context.Background()

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.expectCheckout("h2")
	f.runner.On("Run", mock.Anything, mock.Anything).
		Return(schema.AnalysisResult{}, fmt.Errorf("%w: killed after 300s", contract.ErrAnalysisTimeout))

	_, err := f.ingestor.Ingest(ctx, "octo", "demo")
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrAnalysisTimeout)

	_, err = GetFindings(ctx, f.store)
	assert.ErrorIs(t, err, contract.ErrNoData)
	commits, err := GetCommits(ctx, f.store, 10)
	require.NoError(t, err)
	assert.Empty(t, commits, "commits and findings become visible together or not at all")

	runs, err := GetRuns(ctx, f.store, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "AnalysisTimeout", runs[0].ErrorKind)
	assert.Equal(t, "h2", runs[0].HeadHash)
}

func TestIngest_CloneFailure(t *testing.T) {
	f := newIngestFixture(t, false)

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.git.On("Clone", mock.Anything, mock.Anything, mock.Anything, 2).Return(errors.New("repository not found"))

	_, err := f.ingestor.Ingest(context.Background(), "octo", "demo")
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "https://github.com/octo/demo.git")
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestIngest_SupersedesFindings(t *testing.T) {
	f := newIngestFixture(t, false)
	ctx := context.Background()

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.expectCheckout("h2")
	f.runner.On("Run", mock.Anything, mock.Anything).Return(schema.AnalysisResult{
		Findings: []schema.Finding{
			{Tool: "eslint", IssueType: "a", Severity: schema.SeverityHigh, File: "old.js", Line: 1},
			{Tool: "eslint", IssueType: "b", Severity: schema.SeverityHigh, File: "old.js", Line: 2},
		},
	}, nil).Once()
	f.runner.On("Run", mock.Anything, mock.Anything).Return(schema.AnalysisResult{
		Findings: []schema.Finding{{Tool: "eslint", IssueType: "c", Severity: schema.SeverityLow, File: "new.js", Line: 3}},
	}, nil).Once()

	first, err := f.ingestor.Ingest(ctx, "octo", "demo")
	require.NoError(t, err)
	second, err := f.ingestor.Ingest(ctx, "octo", "demo")
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 2, second.Summary.FindingsSuperseded)

	findings, err := GetFindings(ctx, f.store)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "new.js", findings[0].File)
	assert.Equal(t, second.RunID, findings[0].RunID)

	commits, err := GetCommits(ctx, f.store, 10)
	require.NoError(t, err)
	assert.Len(t, commits, 2, "commits are upserted, not duplicated")
}

func TestIngest_ConcurrentSameRepo(t *testing.T) {
	f := newIngestFixture(t, false)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})

	f.source.On("FetchCommits", mock.Anything, "octo", "demo").Return(demoCommits(), nil)
	f.source.On("FetchCommits", mock.Anything, "octo", "other").Return([]schema.Commit{}, nil)
	f.git.On("Clone", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.git.On("GetRepoHash", mock.Anything, mock.Anything).Return("h2", nil)
	f.git.On("GetActivityLog", mock.Anything, mock.Anything, mock.Anything).Return(demoNumstat, nil)
	f.runner.On("Run", mock.Anything, mock.MatchedBy(isDemoTarget)).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(schema.AnalysisResult{}, nil)
	f.runner.On("Run", mock.Anything, mock.Anything).Return(schema.AnalysisResult{}, nil)

	var wg sync.WaitGroup
	var firstErr error
	wg.Go(func() {
		_, firstErr = f.ingestor.Ingest(ctx, "octo", "demo")
	})
	<-started

	_, err := f.ingestor.Ingest(ctx, "octo", "demo")
	assert.ErrorIs(t, err, contract.ErrIngestInProgress)

	// A different repository is not blocked
	_, err = f.ingestor.Ingest(ctx, "octo", "other")
	assert.NoError(t, err)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)

	// The lock is released afterwards
	assert.True(t, f.ingestor.locks.TryLock("octo/demo"))
}

func TestIngest_StoreNotInitialized(t *testing.T) {
	mgr := &contract.MockStoreManager{}
	mgr.On("GetStore").Return(nil)
	ing := NewIngestor(&contract.Config{}, &contract.MockCommitSource{}, &contract.MockGitClient{},
		&contract.MockAnalysisRunner{}, nil, mgr)

	_, err := ing.Ingest(context.Background(), "octo", "demo")
	assert.ErrorIs(t, err, contract.ErrStoreUnavailable)
}

func TestRepoLocks(t *testing.T) {
	locks := newRepoLocks()
	assert.True(t, locks.TryLock("a/b"))
	assert.False(t, locks.TryLock("a/b"))
	assert.True(t, locks.TryLock("a/c"))
	locks.Unlock("a/b")
	assert.True(t, locks.TryLock("a/b"))
}

func TestRunIDFromContext(t *testing.T) {
	assert.Equal(t, "-", runIDFromContext(context.Background()))
	assert.Equal(t, "r1", runIDFromContext(withRunID(context.Background(), "r1")))
	assert.Equal(t, "-", runIDFromContext(withRunID(context.Background(), "")))
}
