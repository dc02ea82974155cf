package contract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/codepulse/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit      = 100
	MaxResultLimit          = 1000
	DefaultAddr             = ":3001"
	DefaultSourceURL        = "https://api.github.com"
	DefaultSourceTimeout    = "30s"
	DefaultCloneURL         = "https://github.com/{owner}/{repo}.git"
	DefaultCloneTimeout     = "120s"
	DefaultAnalyzerCommand  = "npx eslint . --ext .js,.jsx,.ts,.tsx -f json"
	DefaultAnalyzerTimeout  = "300s"
	DefaultAnalyzerMaxBytes = "100MiB"
	DefaultAnalyzerExit     = "0,1"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	SourceURL     string
	SourcePerPage int
	SourceTimeout time.Duration
	GitHubToken   string // Please use env var as this is plaintext

	CloneURL     string
	CloneTimeout time.Duration
	WorkDir      string

	AnalyzerCommand   []string
	AnalyzerFormat    schema.AnalyzerFormat
	AnalyzerTimeout   time.Duration
	AnalyzerMaxOutput int64
	AnalyzerExitCodes []int

	ArchiveEndpoint  string
	ArchiveBucket    string
	ArchiveAccessKey string
	ArchiveSecretKey string
	ArchiveUseSSL    bool

	Addr        string
	ResultLimit int
	Output      schema.OutputMode
	OutputFile  string
	UseColors   bool
	Width       int // Terminal width override (0 = auto-detect)
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Persistence ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- Commit source ---
	SourceURL     string `mapstructure:"source-url"`
	SourcePerPage int    `mapstructure:"source-per-page"`
	SourceTimeout string `mapstructure:"source-timeout"`
	GitHubToken   string `mapstructure:"github-token"`

	// --- Checkout ---
	CloneURL     string `mapstructure:"clone-url"`
	CloneTimeout string `mapstructure:"clone-timeout"`
	WorkDir      string `mapstructure:"work-dir"`

	// --- Analyzer ---
	AnalyzerCommand   string `mapstructure:"analyzer-command"`
	AnalyzerFormat    string `mapstructure:"analyzer-format"`
	AnalyzerTimeout   string `mapstructure:"analyzer-timeout"`
	AnalyzerMaxOutput string `mapstructure:"analyzer-max-output"`
	AnalyzerExitCodes string `mapstructure:"analyzer-exit-codes"`

	// --- Report archive ---
	ArchiveEndpoint  string `mapstructure:"archive-endpoint"`
	ArchiveBucket    string `mapstructure:"archive-bucket"`
	ArchiveAccessKey string `mapstructure:"archive-access-key"`
	ArchiveSecretKey string `mapstructure:"archive-secret-key"`
	ArchiveUseSSL    string `mapstructure:"archive-use-ssl"`

	// --- Surfaces ---
	Addr       string `mapstructure:"addr"`
	Limit      int    `mapstructure:"limit"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.AnalyzerCommand != nil {
		clone.AnalyzerCommand = append([]string(nil), c.AnalyzerCommand...)
	}
	if c.AnalyzerExitCodes != nil {
		clone.AnalyzerExitCodes = append([]int(nil), c.AnalyzerExitCodes...)
	}
	return &clone
}

// ArchiveEnabled reports whether raw analyzer reports should be uploaded.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveEndpoint != ""
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := ValidateStoreConfig(cfg, input); err != nil {
		return err
	}
	if err := processSourceConfig(cfg, input); err != nil {
		return err
	}
	if err := processAnalyzerConfig(cfg, input); err != nil {
		return err
	}
	if err := processArchiveConfig(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateStoreConfig validates only the persistence settings.
// Store maintenance commands use it without running full validation.
func ValidateStoreConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates the output and server fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	return nil
}

// processSourceConfig handles the commit source and checkout settings.
func processSourceConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.SourceURL = strings.TrimRight(strings.TrimSpace(input.SourceURL), "/")
	if cfg.SourceURL == "" {
		cfg.SourceURL = DefaultSourceURL
	}
	u, err := url.Parse(cfg.SourceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid source-url '%s'. must be an absolute http(s) URL", input.SourceURL)
	}

	if input.SourcePerPage < 0 || input.SourcePerPage > 100 {
		return fmt.Errorf("source-per-page must be between 0 and 100 (received %d)", input.SourcePerPage)
	}
	cfg.SourcePerPage = input.SourcePerPage
	cfg.GitHubToken = input.GitHubToken

	if cfg.SourceTimeout, err = parsePositiveDuration("source-timeout", input.SourceTimeout, DefaultSourceTimeout); err != nil {
		return err
	}

	cfg.CloneURL = strings.TrimSpace(input.CloneURL)
	if cfg.CloneURL == "" {
		cfg.CloneURL = DefaultCloneURL
	}
	if cfg.CloneTimeout, err = parsePositiveDuration("clone-timeout", input.CloneTimeout, DefaultCloneTimeout); err != nil {
		return err
	}
	cfg.WorkDir = input.WorkDir

	return nil
}

// processAnalyzerConfig handles the analyzer command and its bounds.
func processAnalyzerConfig(cfg *Config, input *ConfigRawInput) error {
	command := input.AnalyzerCommand
	if strings.TrimSpace(command) == "" {
		command = DefaultAnalyzerCommand
	}
	cfg.AnalyzerCommand = strings.Fields(command)

	format := input.AnalyzerFormat
	if format == "" {
		format = string(schema.ESLintFormat)
	}
	cfg.AnalyzerFormat = schema.AnalyzerFormat(strings.ToLower(format))
	if _, ok := schema.ValidAnalyzerFormats[cfg.AnalyzerFormat]; !ok {
		return fmt.Errorf("invalid analyzer format '%s'. must be eslint, native", input.AnalyzerFormat)
	}

	var err error
	if cfg.AnalyzerTimeout, err = parsePositiveDuration("analyzer-timeout", input.AnalyzerTimeout, DefaultAnalyzerTimeout); err != nil {
		return err
	}

	maxOutput := input.AnalyzerMaxOutput
	if maxOutput == "" {
		maxOutput = DefaultAnalyzerMaxBytes
	}
	size, err := humanize.ParseBytes(maxOutput)
	if err != nil || size == 0 {
		return fmt.Errorf("invalid analyzer-max-output '%s'. expected a size like 100MiB", maxOutput)
	}
	cfg.AnalyzerMaxOutput = int64(size)

	exitCodes := input.AnalyzerExitCodes
	if exitCodes == "" {
		exitCodes = DefaultAnalyzerExit
	}
	if cfg.AnalyzerExitCodes, err = ParseExitCodes(exitCodes); err != nil {
		return fmt.Errorf("invalid analyzer-exit-codes: %w", err)
	}

	return nil
}

// processArchiveConfig handles the optional object storage settings.
func processArchiveConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.ArchiveEndpoint = strings.TrimSpace(input.ArchiveEndpoint)
	cfg.ArchiveBucket = input.ArchiveBucket
	cfg.ArchiveAccessKey = input.ArchiveAccessKey
	cfg.ArchiveSecretKey = input.ArchiveSecretKey

	useSSL := input.ArchiveUseSSL
	if useSSL == "" {
		useSSL = "yes"
	}
	ssl, err := ParseBoolString(useSSL)
	if err != nil {
		return fmt.Errorf("invalid archive-use-ssl value: %w", err)
	}
	cfg.ArchiveUseSSL = ssl

	if cfg.ArchiveEndpoint != "" && cfg.ArchiveBucket == "" {
		return fmt.Errorf("archive-bucket is required when archive-endpoint is set")
	}
	return nil
}

// parsePositiveDuration parses s (or fallback when empty) as a Go duration greater than zero.
func parsePositiveDuration(name, s, fallback string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		s = fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0 (received %s)", name, s)
	}
	return d, nil
}
