// Package notify defines the notification domain types shared by the viewer,
// the notification bus and its sqlite store.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/colonyops/harvest/internal/core/dataset"
)

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ReauthHint accompanies notifications caused by a rejected credential.
const ReauthHint = "re-authenticate: update api.token or HARVEST_API_TOKEN"

// Notification represents a single notification event.
type Notification struct {
	ID        int64
	Level     Level
	Message   string
	Hint      string
	CreatedAt time.Time
}

// Store persists notifications to durable storage.
type Store interface {
	Save(ctx context.Context, n Notification) (int64, error)
	List(ctx context.Context) ([]Notification, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// FromError builds the error notification for a failed operation. Absorbed
// errors (validation, stale results) yield ok == false and must not be shown.
func FromError(action string, err error) (n Notification, ok bool) {
	if err == nil || dataset.Absorbed(err) {
		return Notification{}, false
	}

	n = Notification{
		Level:   LevelError,
		Message: action + ": " + err.Error(),
	}
	if errors.Is(err, dataset.ErrAuth) {
		n.Hint = ReauthHint
	}
	return n, true
}
