package contract

import (
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/codepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns the raw input the CLI produces with all defaults applied.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		StoreBackend: string(schema.SQLiteBackend),
		Limit:        DefaultResultLimit,
		Output:       string(schema.TextOut),
		Color:        "yes",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{
			name:        "invalid backend",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "none" },
			expectError: "invalid store backend",
		},
		{
			name:        "mysql without connection",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "mysql" },
			expectError: "store-db-connect is required",
		},
		{
			name:        "limit too large",
			mutate:      func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 },
			expectError: "limit must be greater than 0",
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: "invalid output format",
		},
		{
			name:        "parquet without file",
			mutate:      func(in *ConfigRawInput) { in.Output = "parquet" },
			expectError: "--output-file is required",
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: "invalid --color value",
		},
		{
			name:        "relative source url",
			mutate:      func(in *ConfigRawInput) { in.SourceURL = "api.github.com" },
			expectError: "invalid source-url",
		},
		{
			name:        "per page out of range",
			mutate:      func(in *ConfigRawInput) { in.SourcePerPage = 101 },
			expectError: "source-per-page",
		},
		{
			name:        "negative timeout",
			mutate:      func(in *ConfigRawInput) { in.AnalyzerTimeout = "-5s" },
			expectError: "analyzer-timeout must be greater than 0",
		},
		{
			name:        "bad max output",
			mutate:      func(in *ConfigRawInput) { in.AnalyzerMaxOutput = "lots" },
			expectError: "invalid analyzer-max-output",
		},
		{
			name:        "bad format",
			mutate:      func(in *ConfigRawInput) { in.AnalyzerFormat = "sarif" },
			expectError: "invalid analyzer format",
		},
		{
			name:        "bad exit codes",
			mutate:      func(in *ConfigRawInput) { in.AnalyzerExitCodes = "0,x" },
			expectError: "invalid analyzer-exit-codes",
		},
		{
			name:        "archive without bucket",
			mutate:      func(in *ConfigRawInput) { in.ArchiveEndpoint = "localhost:9000" },
			expectError: "archive-bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
	assert.Equal(t, DefaultSourceURL, cfg.SourceURL)
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout)
	assert.Equal(t, DefaultCloneURL, cfg.CloneURL)
	assert.Equal(t, 120*time.Second, cfg.CloneTimeout)
	assert.Equal(t, []string{"npx", "eslint", ".", "--ext", ".js,.jsx,.ts,.tsx", "-f", "json"}, cfg.AnalyzerCommand)
	assert.Equal(t, schema.ESLintFormat, cfg.AnalyzerFormat)
	assert.Equal(t, 300*time.Second, cfg.AnalyzerTimeout)
	assert.Equal(t, int64(100*1024*1024), cfg.AnalyzerMaxOutput)
	assert.Equal(t, []int{0, 1}, cfg.AnalyzerExitCodes)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.True(t, cfg.UseColors)
	assert.True(t, cfg.ArchiveUseSSL)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestProcessAndValidate_Overrides(t *testing.T) {
	input := validInput()
	input.SourceURL = "http://localhost:8080/"
	input.AnalyzerCommand = "node scripts/analyze.js {owner} {repo} {dir}"
	input.AnalyzerFormat = "NATIVE"
	input.AnalyzerTimeout = "2m"
	input.AnalyzerMaxOutput = "1 MB"
	input.AnalyzerExitCodes = "0"
	input.ArchiveEndpoint = "minio:9000"
	input.ArchiveBucket = "reports"
	input.ArchiveUseSSL = "no"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "http://localhost:8080", cfg.SourceURL)
	assert.Equal(t, []string{"node", "scripts/analyze.js", "{owner}", "{repo}", "{dir}"}, cfg.AnalyzerCommand)
	assert.Equal(t, schema.NativeFormat, cfg.AnalyzerFormat)
	assert.Equal(t, 2*time.Minute, cfg.AnalyzerTimeout)
	assert.Equal(t, int64(1000*1000), cfg.AnalyzerMaxOutput)
	assert.Equal(t, []int{0}, cfg.AnalyzerExitCodes)
	assert.True(t, cfg.ArchiveEnabled())
	assert.False(t, cfg.ArchiveUseSSL)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.MySQLBackend, "root:pw@tcp(localhost:3306)/codepulse", false},
		{schema.MySQLBackend, "root:pw@localhost", true},
		{schema.MySQLBackend, "root:pw@tcp(localhost:3306)", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=codepulse", false},
		{schema.PostgreSQLBackend, "dbname=codepulse", true},
		{schema.PostgreSQLBackend, "host=localhost", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %q", tt.backend, tt.conn), func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{AnalyzerCommand: []string{"a", "b"}, AnalyzerExitCodes: []int{0}}
	clone := cfg.Clone()
	clone.AnalyzerCommand[0] = "z"
	clone.AnalyzerExitCodes[0] = 9
	assert.Equal(t, "a", cfg.AnalyzerCommand[0])
	assert.Equal(t, 0, cfg.AnalyzerExitCodes[0])
}
