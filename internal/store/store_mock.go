package store

import (
	"context"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of contract.Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// UpsertCommits implements the Store interface.
func (m *MockStore) UpsertCommits(ctx context.Context, commits []schema.Commit) (schema.WriteSummary, error) {
	args := m.Called(ctx, commits)
	summary, _ := args.Get(0).(schema.WriteSummary)
	return summary, args.Error(1)
}

// ListCommits implements the Store interface.
func (m *MockStore) ListCommits(ctx context.Context, limit int) ([]schema.Commit, error) {
	args := m.Called(ctx, limit)
	commits, _ := args.Get(0).([]schema.Commit)
	return commits, args.Error(1)
}

// ListFindings implements the Store interface.
func (m *MockStore) ListFindings(ctx context.Context) ([]schema.Finding, error) {
	args := m.Called(ctx)
	findings, _ := args.Get(0).([]schema.Finding)
	return findings, args.Error(1)
}

// SaveIngestion implements the Store interface.
func (m *MockStore) SaveIngestion(ctx context.Context, batch schema.IngestBatch) (schema.WriteSummary, error) {
	args := m.Called(ctx, batch)
	summary, _ := args.Get(0).(schema.WriteSummary)
	return summary, args.Error(1)
}

// RecordRun implements the Store interface.
func (m *MockStore) RecordRun(ctx context.Context, run schema.IngestRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// ListRuns implements the Store interface.
func (m *MockStore) ListRuns(ctx context.Context, limit int) ([]schema.IngestRun, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]schema.IngestRun)
	return runs, args.Error(1)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(schema.StoreStatus)
	return status, args.Error(1)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
