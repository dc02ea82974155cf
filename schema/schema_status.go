package schema

import "time"

// StoreStatus represents the status of the persistence store.
type StoreStatus struct {
	Backend    string           `json:"backend" yaml:"backend"`
	Connected  bool             `json:"connected" yaml:"connected"`
	TotalRuns  int              `json:"total_runs" yaml:"total_runs"`
	LastRunID  string           `json:"last_run_id" yaml:"last_run_id"`
	LastRunAt  time.Time        `json:"last_run_at" yaml:"last_run_at"`
	TableSizes map[string]int64 `json:"table_sizes" yaml:"table_sizes"`
}
