package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fentz26/sift/internal/models"
)

const maxStatusHistory = 50

// StatusEntry is one sync outcome in the history ring.
type StatusEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Count     int       `json:"count"`
	SyncType  string    `json:"sync_type"`
	Error     string    `json:"error,omitempty"`
}

// Status is the snapshot consumed by status readers (HTTP, shell widgets).
type Status struct {
	LastSync       *time.Time    `json:"last_sync,omitempty"`
	LastSyncStatus string        `json:"last_sync_status,omitempty"`
	LastSyncCount  int           `json:"last_sync_count"`
	Sources        []string      `json:"sources,omitempty"`
	History        []StatusEntry `json:"history,omitempty"`
}

// StatusTracker keeps the latest sync outcomes in memory and mirrors them to
// a JSON file so external tooling can read them without hitting the API.
// The file path may be empty, in which case nothing is persisted.
type StatusTracker struct {
	mu     sync.Mutex
	path   string
	status Status
}

// NewStatusTracker creates a tracker, seeding history from an existing
// status file when one is present.
func NewStatusTracker(path string) *StatusTracker {
	t := &StatusTracker{path: path}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			// A corrupt file just means starting fresh.
			_ = json.Unmarshal(data, &t.status)
		}
	}
	return t
}

// Record folds one sync result into the tracker and persists it.
func (t *StatusTracker) Record(syncType string, stats *models.SyncStats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	status := "success"
	var firstErr string
	if len(stats.Errors) > 0 {
		status = "error"
		firstErr = stats.Errors[0]
	}

	t.status.LastSync = &now
	t.status.LastSyncStatus = status
	t.status.LastSyncCount = stats.ItemsExtracted

	t.status.Sources = t.status.Sources[:0]
	for name, src := range stats.PerSource {
		if src.Processed > 0 {
			t.status.Sources = append(t.status.Sources, name)
		}
	}

	entry := StatusEntry{
		Timestamp: now,
		Status:    status,
		Count:     stats.ItemsExtracted,
		SyncType:  syncType,
		Error:     firstErr,
	}
	t.status.History = append([]StatusEntry{entry}, t.status.History...)
	if len(t.status.History) > maxStatusHistory {
		t.status.History = t.status.History[:maxStatusHistory]
	}

	t.persist()
}

// Snapshot returns a copy of the current status.
func (t *StatusTracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.status
	out.Sources = append([]string(nil), t.status.Sources...)
	out.History = append([]StatusEntry(nil), t.status.History...)
	return out
}

func (t *StatusTracker) persist() {
	if t.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return
	}
	data, err := json.MarshalIndent(t.status, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(t.path, data, 0644)
}
