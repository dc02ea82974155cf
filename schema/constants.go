package schema

// Custom string types for type safety.
type (
	// Severity represents the ordered importance of a finding.
	Severity string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// AnalyzerFormat represents the output format produced by the analyzer process.
	AnalyzerFormat string

	// RunStatus represents the terminal state of an ingestion run.
	RunStatus string
)

// All severities supported, from most to least important.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	YAMLOut    OutputMode = "yaml"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// All analyzer formats supported.
const (
	ESLintFormat AnalyzerFormat = "eslint" // default
	NativeFormat AnalyzerFormat = "native"
)

// All run statuses.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// AllSeverities lists severities in display order.
var AllSeverities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// ValidSeverities lists all valid severities.
var ValidSeverities = map[Severity]struct{}{
	SeverityHigh:   {},
	SeverityMedium: {},
	SeverityLow:    {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	YAMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidAnalyzerFormats lists all valid analyzer formats.
var ValidAnalyzerFormats = map[AnalyzerFormat]struct{}{
	ESLintFormat: {},
	NativeFormat: {},
}

// SeverityFromESLint maps an ESLint numeric severity to a Severity.
// ESLint uses 2 for errors and 1 for warnings; anything else is treated as low.
func SeverityFromESLint(level int) Severity {
	switch level {
	case 2:
		return SeverityHigh
	case 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Rank returns a sort key where high < medium < low < unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}
