// Package store persists commits, findings and ingestion runs on SQL backends.
package store

import (
	"fmt"
	"sync"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

// Table names. code_quality keeps the name analysis tools have always written to.
const (
	commitsTable  = "commits"
	findingsTable = "code_quality"
	runsTable     = "ingest_runs"
)

// allTables lists every table in creation order.
var allTables = []string{commitsTable, findingsTable, runsTable}

// StoreManager holds the store used by the CLI, HTTP and MCP surfaces.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.Store
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps an already opened store.
func NewStoreManager(s contract.Store) *StoreManager {
	return &StoreManager{store: s}
}

// GetStore returns the managed store.
func (mgr *StoreManager) GetStore() contract.Store {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores opens the configured backend and assigns it to the global manager.
func InitStores(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		s, err := NewSQLStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize store: %w", err)
			return
		}
		Manager.Lock()
		Manager.store = s
		Manager.Unlock()
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.store != nil {
			_ = Manager.store.Close()
		}
	})
}
