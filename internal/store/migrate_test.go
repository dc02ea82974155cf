package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	// Migrate to latest
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 2")

	version, dirty, err := MigrationVersion(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Running again is a no-op
	out.Reset()
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	// Step down to a specific version
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 1))
	version, _, err = MigrationVersion(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// Roll back everything
	require.NoError(t, MigrateStore(&out, schema.SQLiteBackend, dbPath, 0))
	version, _, err = MigrationVersion(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	// The store still opens on a rolled back database
	s, err := NewSQLStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestMigrationVersion_FreshDatabase(t *testing.T) {
	version, dirty, err := MigrationVersion(schema.SQLiteBackend, filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)
}

func TestMigrateStore_InvalidMySQLDSN(t *testing.T) {
	err := MigrateStore(&bytes.Buffer{}, schema.MySQLBackend, "not a dsn", -1)
	assert.Error(t, err)
}

func TestExportStore(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	_, err := s.SaveIngestion(ctx, schema.IngestBatch{
		Run:      testRun("run-1", baseTime),
		Commits:  []schema.Commit{testCommit("h1", 0), testCommit("h2", 1)},
		Findings: []schema.Finding{testFinding("h2", "a.js", 1, schema.SeverityHigh)},
	})
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "export")
	var out bytes.Buffer
	require.NoError(t, ExportStore(ctx, s, prefix, &out))

	for _, suffix := range []string{".commits.parquet", ".findings.parquet", ".runs.parquet"} {
		_, err := os.Stat(prefix + suffix)
		assert.NoError(t, err, "expected %s", suffix)
	}
	assert.Contains(t, out.String(), "Exported 2 commits")
	assert.Contains(t, out.String(), "Exported 1 findings")
	assert.Contains(t, out.String(), "Exported 1 runs")
}

func TestExportStore_Errors(t *testing.T) {
	ctx := context.Background()

	err := ExportStore(ctx, &MockStore{}, "", &bytes.Buffer{})
	assert.Error(t, err)

	empty := newMemoryStore(t)
	err = ExportStore(ctx, empty, filepath.Join(t.TempDir(), "x"), &bytes.Buffer{})
	assert.ErrorIs(t, err, contract.ErrNoData)

	broken := &MockStore{}
	broken.On("GetStatus", mock.Anything).Return(schema.StoreStatus{}, errors.New("boom"))
	err = ExportStore(ctx, broken, filepath.Join(t.TempDir(), "x"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "boom")
	broken.AssertExpectations(t)
}
