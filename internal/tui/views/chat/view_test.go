package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	corechat "github.com/colonyops/harvest/internal/core/chat"
	"github.com/colonyops/harvest/pkg/tuitest"
)

type stubConversation struct {
	msgs []corechat.Message
	busy bool
}

func (s stubConversation) Messages() []corechat.Message { return s.msgs }
func (s stubConversation) Busy() bool                   { return s.busy }

func newPanel(now time.Time) *Panel {
	p := New()
	p.now = func() time.Time { return now }
	p.SetSize(60, 24)
	return p
}

func TestPanel_View_empty(t *testing.T) {
	p := newPanel(time.Now())
	p.SetTitle("Acme Corp")

	conv := stubConversation{}
	p.Refresh(conv)
	out := tuitest.StripANSI(p.View(conv, ""))

	assert.Contains(t, out, "Chat")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "No messages yet")
	for _, ch := range corechat.Channels {
		assert.Contains(t, out, ch)
	}
}

func TestPanel_View_messages(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newPanel(now)

	conv := stubConversation{
		msgs: []corechat.Message{
			{ID: "1", Role: corechat.RoleUser, Content: "who runs sales?", CreatedAt: now.Add(-2 * time.Minute), Status: corechat.StatusConfirmed},
			{ID: "2", Role: corechat.RoleAssistant, Content: "Dana runs **sales**.", CreatedAt: now.Add(-time.Minute), Status: corechat.StatusConfirmed},
			{ID: "3", Role: corechat.RoleUser, Content: "and marketing?", CreatedAt: now, Status: corechat.StatusFailed},
		},
	}
	p.Refresh(conv)
	out := tuitest.StripANSI(p.View(conv, ""))

	assert.Contains(t, out, "who runs sales?")
	assert.Contains(t, out, "2 minutes ago")
	assert.Contains(t, out, "Dana runs sales.")
	assert.NotContains(t, out, "**sales**", "assistant replies are rendered as markdown")
	assert.Contains(t, out, "failed")
}

func TestPanel_View_busy(t *testing.T) {
	p := newPanel(time.Now())
	conv := stubConversation{
		msgs: []corechat.Message{{ID: "1", Role: corechat.RoleUser, Content: "hi", CreatedAt: time.Now(), Status: corechat.StatusPending}},
		busy: true,
	}
	p.Refresh(conv)
	out := tuitest.StripANSI(p.View(conv, "*"))

	assert.Contains(t, out, "waiting for reply")
	assert.Contains(t, out, "sending")
}

func TestPanel_NextChannel_wraps(t *testing.T) {
	p := New()
	assert.Equal(t, corechat.Channels[0], p.Channel())

	for range corechat.Channels {
		p.NextChannel()
	}
	assert.Equal(t, corechat.Channels[0], p.Channel())
}
