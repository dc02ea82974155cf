//go:build database

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/codepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestCodepulseWithMySQL runs migrations and an ingestion against a MySQL backend.
func TestCodepulseWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "codepulse",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/codepulse?parseTime=true", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestCodepulseWithPostgres runs migrations and an ingestion against a PostgreSQL backend.
func TestCodepulseWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}

// exerciseBackend runs the same CLI flow against any SQL backend.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Helper()
	env := ingestEnv(t, backend, connStr)

	_, err := runCodepulse(t, env, "store", "clear")
	require.NoError(t, err)

	out, err := runCodepulse(t, env, "store", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "to version 2")

	_, err = runCodepulse(t, env, "ingest", "octo", "demo")
	require.NoError(t, err)

	// Ingest twice so that upserts and finding supersession run on this backend
	_, err = runCodepulse(t, env, "ingest", "octo", "demo")
	require.NoError(t, err)

	out, err = runCodepulse(t, env, "commits", "--output", "json")
	require.NoError(t, err)
	var commits []schema.Commit
	require.NoError(t, json.Unmarshal([]byte(out), &commits))
	require.Len(t, commits, 2)
	assert.Equal(t, "h2", commits[0].Hash)
	assert.True(t, commits[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	out, err = runCodepulse(t, env, "findings", "--output", "json")
	require.NoError(t, err)
	var findings []schema.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	assert.Len(t, findings, 1)

	out, err = runCodepulse(t, env, "runs", "--output", "json")
	require.NoError(t, err)
	var runs []schema.IngestRun
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, schema.RunSucceeded, runs[0].Status)

	out, err = runCodepulse(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")
	assert.Contains(t, out, "Total Runs: 2")

	_, err = runCodepulse(t, env, "store", "clear")
	require.NoError(t, err)
}
