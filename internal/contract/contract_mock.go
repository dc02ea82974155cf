package contract

import (
	"context"

	"github.com/huangsam/codepulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	mockArgs := []any{ctx, repoPath}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// Clone implements the GitClient interface.
func (m *MockGitClient) Clone(ctx context.Context, url, dir string, depth int) error {
	ret := m.Called(ctx, url, dir, depth)
	return ret.Error(0)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// GetActivityLog implements the GitClient interface.
func (m *MockGitClient) GetActivityLog(ctx context.Context, repoPath string, maxCommits int) ([]byte, error) {
	ret := m.Called(ctx, repoPath, maxCommits)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// MockCommitSource is a mock implementation of CommitSource for testing.
type MockCommitSource struct {
	mock.Mock
}

var _ CommitSource = &MockCommitSource{} // Compile-time check

// FetchCommits implements the CommitSource interface.
func (m *MockCommitSource) FetchCommits(ctx context.Context, owner, repo string) ([]schema.Commit, error) {
	ret := m.Called(ctx, owner, repo)
	commits, _ := ret.Get(0).([]schema.Commit)
	return commits, ret.Error(1)
}

// MockAnalysisRunner is a mock implementation of AnalysisRunner for testing.
type MockAnalysisRunner struct {
	mock.Mock
}

var _ AnalysisRunner = &MockAnalysisRunner{} // Compile-time check

// Run implements the AnalysisRunner interface.
func (m *MockAnalysisRunner) Run(ctx context.Context, target schema.AnalysisTarget) (schema.AnalysisResult, error) {
	ret := m.Called(ctx, target)
	result, _ := ret.Get(0).(schema.AnalysisResult)
	return result, ret.Error(1)
}

// MockReportArchiver is a mock implementation of ReportArchiver for testing.
type MockReportArchiver struct {
	mock.Mock
}

var _ ReportArchiver = &MockReportArchiver{} // Compile-time check

// Archive implements the ReportArchiver interface.
func (m *MockReportArchiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	ret := m.Called(ctx, key, data)
	return ret.String(0), ret.Error(1)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{} // Compile-time check

// GetStore implements the StoreManager interface.
func (m *MockStoreManager) GetStore() Store {
	ret := m.Called()
	store, _ := ret.Get(0).(Store)
	return store
}
