// Package notify delivers user-facing notifications from the viewer and the
// commands to the toast stack and the notification history.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/harvest/internal/core/notify"
)

// Subscriber receives every published notification.
type Subscriber func(notify.Notification)

// Bus fans notifications out to its subscribers after recording them in a
// store. Publishers (the viewer, export, copy) and renderers (toasts, the
// history modal) share one Bus by reference. Publish may be called from any
// goroutine; subscribers run on the publishing goroutine.
type Bus struct {
	store notify.Store

	mu          sync.Mutex
	subscribers []Subscriber
}

// NewBus creates a bus recording into store. A nil store keeps the session's
// notifications in memory so the history modal still has something to show.
func NewBus(store notify.Store) *Bus {
	if store == nil {
		store = notify.NewMemoryStore(0)
	}
	return &Bus{store: store}
}

func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish records n and hands it to every subscriber. A store failure is
// logged and does not stop delivery.
func (b *Bus) Publish(n notify.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	if id, err := b.store.Save(context.Background(), n); err != nil {
		log.Error().Err(err).Str("level", string(n.Level)).Str("message", n.Message).Msg("record notification")
	} else {
		n.ID = id
	}

	b.mu.Lock()
	subs := append([]Subscriber(nil), b.subscribers...)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

func (b *Bus) publishf(level notify.Level, format string, args ...any) {
	b.Publish(notify.Notification{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (b *Bus) Infof(format string, args ...any)  { b.publishf(notify.LevelInfo, format, args...) }
func (b *Bus) Warnf(format string, args ...any)  { b.publishf(notify.LevelWarning, format, args...) }
func (b *Bus) Errorf(format string, args ...any) { b.publishf(notify.LevelError, format, args...) }

// Error publishes the notification for a failed action and reports whether it
// did. Validation and stale-result errors are absorbed.
func (b *Bus) Error(action string, err error) bool {
	n, ok := notify.FromError(action, err)
	if !ok {
		log.Debug().Err(err).Str("action", action).Msg("absorbed error")
		return false
	}
	b.Publish(n)
	return true
}

// History returns the recorded notifications, newest first.
func (b *Bus) History() ([]notify.Notification, error) {
	return b.store.List(context.Background())
}

// Clear deletes the recorded notifications.
func (b *Bus) Clear() error {
	return b.store.Clear(context.Background())
}
