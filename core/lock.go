package core

import "sync"

// repoLocks is a keyed try-lock. A held key is never waited on.
type repoLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newRepoLocks() *repoLocks {
	return &repoLocks{held: make(map[string]struct{})}
}

// TryLock acquires key and reports whether it was free.
func (l *repoLocks) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Unlock releases key.
func (l *repoLocks) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
