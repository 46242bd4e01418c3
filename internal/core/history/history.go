// Package history defines the export log: a record of every dataset export
// written to disk.
package history

import (
	"context"
	"time"
)

// Entry represents one completed export.
type Entry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists export entries.
type Store interface {
	Record(ctx context.Context, e Entry) (int64, error)
	// List returns the run's exports, newest first. An empty runID lists all.
	List(ctx context.Context, runID string, limit int) ([]Entry, error)
}
