package store

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// memoryDSN opens a private in-memory SQLite database.
	memoryDSN = ":memory:"

	// sqliteTimeLayout is fixed-width so that text ordering matches time ordering.
	sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

	pingTimeout = 10 * time.Second
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLStore implements contract.Store on SQLite, MySQL or PostgreSQL.
type SQLStore struct {
	db      *sqlx.DB
	backend schema.DatabaseBackend
}

var _ contract.Store = &SQLStore{} // Compile-time check

// NewSQLStore opens the backend, verifies the connection and creates missing tables.
func NewSQLStore(backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to create tables: %v", contract.ErrStoreUnavailable, err)
	}

	return &SQLStore{db: db, backend: backend}, nil
}

// driverName returns the database/sql driver registered for backend.
func driverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql or postgresql", backend)
	}
}

// sqliteDSN turns a file path into a DSN with WAL, a busy timeout and immediate write transactions.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		path = contract.GetDBFilePath()
	}
	if path == memoryDSN {
		return memoryDSN, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sqlite path: %w", err)
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", abs), nil
}

// openDB opens and pings a connection pool for backend.
func openDB(backend schema.DatabaseBackend, connStr string) (*sqlx.DB, error) {
	driver, err := driverName(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	if backend == schema.SQLiteBackend {
		if dsn, err = sqliteDSN(connStr); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s database: %v", contract.ErrStoreUnavailable, backend, err)
	}

	if backend == schema.SQLiteBackend && dsn == memoryDSN {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct: user:password@tcp(host:port)/dbname"
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct: host=localhost port=5432 user=postgres dbname=mydb"
		default:
			connDetail = "Check that the directory is writable."
		}
		return nil, fmt.Errorf("%w: failed to connect to %s database: %v. %s", contract.ErrStoreUnavailable, backend, err, connDetail)
	}

	return db, nil
}

// createTables creates every table and index that does not exist yet.
func createTables(db *sqlx.DB, backend schema.DatabaseBackend) error {
	for _, query := range createTableQueries(backend) {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// createTableQueries returns the DDL for backend, one statement per entry.
func createTableQueries(backend schema.DatabaseBackend) []string {
	commits := quoteTableName(commitsTable, backend)
	findings := quoteTableName(findingsTable, backend)
	runs := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					hash VARCHAR(64) PRIMARY KEY,
					author VARCHAR(255) NOT NULL,
					authored_at DATETIME(6) NOT NULL,
					message TEXT NOT NULL,
					repo_owner VARCHAR(100) NOT NULL,
					repo_name VARCHAR(100) NOT NULL,
					files_changed INT NOT NULL DEFAULT 0,
					insertions INT NOT NULL DEFAULT 0,
					deletions INT NOT NULL DEFAULT 0,
					INDEX idx_commits_authored_at (authored_at)
				);
			`, commits),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id BIGINT AUTO_INCREMENT PRIMARY KEY,
					commit_hash VARCHAR(64) NOT NULL,
					tool VARCHAR(100) NOT NULL,
					issue_type VARCHAR(255) NOT NULL,
					severity VARCHAR(10) NOT NULL,
					file_path VARCHAR(1024) NOT NULL,
					line_no INT NOT NULL,
					repo_owner VARCHAR(100) NOT NULL,
					repo_name VARCHAR(100) NOT NULL,
					run_id VARCHAR(36) NOT NULL,
					INDEX idx_code_quality_repo (repo_owner, repo_name)
				);
			`, findings),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id VARCHAR(36) PRIMARY KEY,
					repo_owner VARCHAR(100) NOT NULL,
					repo_name VARCHAR(100) NOT NULL,
					started_at DATETIME(6) NOT NULL,
					finished_at DATETIME(6),
					status VARCHAR(20) NOT NULL,
					error_kind VARCHAR(50) NOT NULL,
					error_message TEXT NOT NULL,
					commit_count INT NOT NULL,
					finding_count INT NOT NULL,
					head_hash VARCHAR(64) NOT NULL,
					report_key VARCHAR(1024) NOT NULL
				);
			`, runs),
		}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					hash TEXT PRIMARY KEY,
					author TEXT NOT NULL,
					authored_at TIMESTAMPTZ NOT NULL,
					message TEXT NOT NULL,
					repo_owner TEXT NOT NULL,
					repo_name TEXT NOT NULL,
					files_changed INT NOT NULL DEFAULT 0,
					insertions INT NOT NULL DEFAULT 0,
					deletions INT NOT NULL DEFAULT 0
				);
			`, commits),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id BIGSERIAL PRIMARY KEY,
					commit_hash TEXT NOT NULL,
					tool TEXT NOT NULL,
					issue_type TEXT NOT NULL,
					severity TEXT NOT NULL,
					file_path TEXT NOT NULL,
					line_no INT NOT NULL,
					repo_owner TEXT NOT NULL,
					repo_name TEXT NOT NULL,
					run_id TEXT NOT NULL
				);
			`, findings),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id TEXT PRIMARY KEY,
					repo_owner TEXT NOT NULL,
					repo_name TEXT NOT NULL,
					started_at TIMESTAMPTZ NOT NULL,
					finished_at TIMESTAMPTZ,
					status TEXT NOT NULL,
					error_kind TEXT NOT NULL,
					error_message TEXT NOT NULL,
					commit_count INT NOT NULL,
					finding_count INT NOT NULL,
					head_hash TEXT NOT NULL,
					report_key TEXT NOT NULL
				);
			`, runs),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_commits_authored_at ON %s (authored_at);`, commits),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_code_quality_repo ON %s (repo_owner, repo_name);`, findings),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					hash TEXT PRIMARY KEY,
					author TEXT NOT NULL,
					authored_at TEXT NOT NULL,
					message TEXT NOT NULL,
					repo_owner TEXT NOT NULL,
					repo_name TEXT NOT NULL,
					files_changed INTEGER NOT NULL DEFAULT 0,
					insertions INTEGER NOT NULL DEFAULT 0,
					deletions INTEGER NOT NULL DEFAULT 0
				);
			`, commits),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					commit_hash TEXT NOT NULL,
					tool TEXT NOT NULL,
					issue_type TEXT NOT NULL,
					severity TEXT NOT NULL,
					file_path TEXT NOT NULL,
					line_no INTEGER NOT NULL,
					repo_owner TEXT NOT NULL,
					repo_name TEXT NOT NULL,
					run_id TEXT NOT NULL
				);
			`, findings),
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id TEXT PRIMARY KEY,
					repo_owner TEXT NOT NULL,
					repo_name TEXT NOT NULL,
					started_at TEXT NOT NULL,
					finished_at TEXT,
					status TEXT NOT NULL,
					error_kind TEXT NOT NULL,
					error_message TEXT NOT NULL,
					commit_count INTEGER NOT NULL,
					finding_count INTEGER NOT NULL,
					head_hash TEXT NOT NULL,
					report_key TEXT NOT NULL
				);
			`, runs),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_commits_authored_at ON %s (authored_at);`, commits),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_code_quality_repo ON %s (repo_owner, repo_name);`, findings),
		}
	}
}

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %q (must match pattern %s)", name, tableNamePattern)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// dbTime scans timestamps stored natively (MySQL, PostgreSQL) or as text (SQLite).
type dbTime struct {
	time.Time
}

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into a timestamp", value)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// Close closes the underlying connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// storeErr wraps a query failure as ErrStoreUnavailable.
func storeErr(action string, err error) error {
	return fmt.Errorf("%w: %s: %v", contract.ErrStoreUnavailable, action, err)
}
