package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/huangsam/codepulse/schema"
)

// GetStatus returns status information about the store.
func (s *SQLStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		TableSizes: make(map[string]int64),
	}

	if err := s.db.PingContext(ctx); err != nil {
		return status, storeErr("ping", err)
	}
	status.Connected = true

	for _, table := range allTables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend))
		if err := s.db.GetContext(ctx, &count, query); err != nil {
			return status, storeErr(fmt.Sprintf("count %s", table), err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])

	if status.TotalRuns > 0 {
		var last struct {
			RunID     string `db:"run_id"`
			StartedAt dbTime `db:"started_at"`
		}
		query := fmt.Sprintf("SELECT run_id, started_at FROM %s ORDER BY started_at DESC, run_id ASC LIMIT 1",
			quoteTableName(runsTable, s.backend))
		if err := s.db.GetContext(ctx, &last, query); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return status, storeErr("last run", err)
		}
		status.LastRunID = last.RunID
		status.LastRunAt = last.StartedAt.Time
	}

	return status, nil
}

// PrintStoreStatus prints store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunAt.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
