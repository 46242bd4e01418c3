package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/data/db"
)

// DefaultNotificationRetention is how many notifications survive across
// sessions.
const DefaultNotificationRetention = 500

// NotifyStore implements notify.Store using SQLite. Only the newest retain
// notifications are kept; older rows are pruned as new ones arrive.
type NotifyStore struct {
	db     *db.DB
	retain int
}

var _ notify.Store = (*NotifyStore)(nil)

// NewNotifyStore creates a notification store keeping at most retain rows.
// A non-positive retain keeps everything.
func NewNotifyStore(db *db.DB, retain int) *NotifyStore {
	return &NotifyStore{db: db, retain: retain}
}

// Save persists a notification, prunes past the retention limit and returns
// the new row's ID.
func (s *NotifyStore) Save(ctx context.Context, n notify.Notification) (int64, error) {
	var id int64
	err := withBusyRetry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO notifications (level, message, hint, created_at) VALUES (?, ?, ?, ?)",
				string(n.Level), n.Message, n.Hint, n.CreatedAt.UnixNano(),
			)
			if err != nil {
				return err
			}
			if id, err = res.LastInsertId(); err != nil {
				return err
			}
			if s.retain <= 0 {
				return nil
			}
			_, err = tx.ExecContext(ctx,
				"DELETE FROM notifications WHERE id <= ?",
				id-int64(s.retain),
			)
			return err
		})
	})
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}

	return id, nil
}

// List returns all notifications ordered by newest first.
func (s *NotifyStore) List(ctx context.Context) ([]notify.Notification, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT id, level, message, hint, created_at FROM notifications ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]notify.Notification, 0)
	for rows.Next() {
		var (
			n         notify.Notification
			level     string
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &level, &n.Message, &n.Hint, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Level = notify.Level(level)
		n.CreatedAt = time.Unix(0, createdAt)
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return result, nil
}

// Clear deletes all notifications.
func (s *NotifyStore) Clear(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// Count returns the total number of notifications.
func (s *NotifyStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications").Scan(&count); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}

// withBusyRetry retries fn while sqlite reports the database as busy.
func withBusyRetry(ctx context.Context, fn func() error) error {
	const attempts = 3
	wait := 50 * time.Millisecond

	var err error
	for i := range attempts {
		err = fn()
		if err == nil || !IsBusyError(err) || i == attempts-1 {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			wait *= 2
		}
	}
	return err
}
