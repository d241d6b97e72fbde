package controllers

import (
	"fmt"
	"sync"
)

// runLocks are advisory per-target try-locks. A second trigger for a target
// with a run in flight is rejected, not queued: the cache's unique index
// keeps concurrent writes correct regardless, but overlapping runs would
// double-count audit metrics.
type runLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newRunLocks() *runLocks {
	return &runLocks{held: make(map[string]struct{})}
}

func (l *runLocks) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *runLocks) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

func listLockKey(listID uint64) string {
	return fmt.Sprintf("list:%d", listID)
}

const batchLockKey = "batch"
