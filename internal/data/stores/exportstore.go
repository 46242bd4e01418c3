package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/harvest/internal/core/history"
	"github.com/colonyops/harvest/internal/data/db"
)

// ExportStore implements history.Store using SQLite.
type ExportStore struct {
	db *db.DB
}

var _ history.Store = (*ExportStore)(nil)

// NewExportStore creates a new SQLite-backed export log.
func NewExportStore(db *db.DB) *ExportStore {
	return &ExportStore{db: db}
}

// Record appends an export entry and returns its ID.
func (s *ExportStore) Record(ctx context.Context, e history.Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var id int64
	err := withBusyRetry(ctx, func() error {
		res, err := s.db.Conn().ExecContext(ctx,
			"INSERT INTO exports (run_id, format, path, bytes, created_at) VALUES (?, ?, ?, ?, ?)",
			e.RunID, e.Format, e.Path, e.Bytes, e.CreatedAt.UnixNano(),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	return id, nil
}

// List returns exports for runID (all runs when empty), newest first. A
// non-positive limit returns every entry.
func (s *ExportStore) List(ctx context.Context, runID string, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, run_id, format, path, bytes, created_at
		FROM exports
		WHERE ? = '' OR run_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		runID, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		var (
			e         history.Entry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Format, &e.Path, &e.Bytes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return entries, nil
}
