// Package monitor reports on the health of the backing store file.
package monitor

import (
	"os"
	"sync"
	"time"
)

// StoreStatus is the store health snapshot exposed via the health endpoint.
type StoreStatus struct {
	Path          string `json:"path"`
	SizeBytes     int64  `json:"size_bytes"`
	Exists        bool   `json:"exists"`
	BackupPresent bool   `json:"backup_present"`
}

// StoreMonitor tracks the backing store file with caching to avoid a stat
// call on every health probe. A leftover backup file signals that a previous
// write failed and was rolled back.
type StoreMonitor struct {
	path          string
	backupPath    string
	cached        StoreStatus
	lastCheck     time.Time
	cacheDuration time.Duration
	mu            sync.Mutex
}

// NewStoreMonitor creates a monitor for the given store path.
func NewStoreMonitor(path, backupPath string) *StoreMonitor {
	return &StoreMonitor{
		path:          path,
		backupPath:    backupPath,
		cacheDuration: 10 * time.Second,
	}
}

// Status returns the current store status (cached).
func (sm *StoreMonitor) Status() StoreStatus {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if time.Since(sm.lastCheck) < sm.cacheDuration {
		return sm.cached
	}

	status := StoreStatus{Path: sm.path}
	if info, err := os.Stat(sm.path); err == nil {
		status.Exists = true
		status.SizeBytes = info.Size()
	}
	if _, err := os.Stat(sm.backupPath); err == nil {
		status.BackupPresent = true
	}

	sm.cached = status
	sm.lastCheck = time.Now()
	return status
}

// IsHealthy reports whether the store looks sound. A lingering backup file
// means the last write failed before cleanup.
func (sm *StoreMonitor) IsHealthy() bool {
	return !sm.Status().BackupPresent
}
