package tui

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/notify"
	tuinotify "github.com/colonyops/harvest/internal/tui/notify"
)

func newToastModel() (Model, *ToastController) {
	ctrl := NewToastController(0)
	bus := tuinotify.NewBus(nil)
	bus.Subscribe(ctrl.Push)
	return Model{toastController: ctrl, notifyBus: bus}, ctrl
}

// tickUntilIdle feeds toastTickMsg through Update until the chain stops and
// returns the number of ticks.
func tickUntilIdle(t *testing.T, m Model, cmd tea.Cmd) (Model, int) {
	t.Helper()
	ticks := 0
	for cmd != nil {
		result, next := m.Update(toastTickMsg(time.Time{}))
		m, cmd = result.(Model), next
		ticks++
		if ticks > 200 {
			t.Fatal("tick chain ran for >200 ticks without expiring")
		}
	}
	return m, ticks
}

// TestToastUpdateLoop_tick_chain_expires_at_TTL simulates the Bubbletea update
// loop by sending toastTickMsg messages and verifying the toast is removed after
// the expected number of ticks.
func TestToastUpdateLoop_tick_chain_expires_at_TTL(t *testing.T) {
	m, ctrl := newToastModel()
	ctrl.Push(notify.Notification{Level: notify.LevelInfo, Message: "test"})

	_, ticks := tickUntilIdle(t, m, scheduleToastTick())

	expectedTicks := int(defaultToastTTL / toastTickInterval) // 5s / 100ms = 50
	assert.Equal(t, expectedTicks, ticks)
	assert.False(t, ctrl.HasToasts())
	assert.False(t, ctrl.Ticking())
}

// TestToastUpdateLoop_notificationMsg_starts_tick starts from a notificationMsg
// and verifies the full chain through Update.
func TestToastUpdateLoop_notificationMsg_starts_tick(t *testing.T) {
	m, ctrl := newToastModel()

	result, cmd := m.Update(notificationMsg{
		notification: notify.Notification{
			Level:   notify.LevelError,
			Message: "something broke",
		},
	})
	m = result.(Model)

	require.True(t, ctrl.HasToasts(), "toast should be pushed")
	assert.Equal(t, "something broke", ctrl.Toasts()[0].notification.Message)
	require.NotNil(t, cmd, "should return scheduleToastTick cmd")
	assert.True(t, ctrl.Ticking())

	_, ticks := tickUntilIdle(t, m, cmd)
	assert.Equal(t, int(errorTTLFactor*defaultToastTTL/toastTickInterval), ticks, "errors stay up twice as long")
}

// TestToastUpdateLoop_second_notification_joins_chain verifies that a
// notification pushed while the chain runs does not start a second chain and
// that the running chain lasts until the newer toast expires.
func TestToastUpdateLoop_second_notification_joins_chain(t *testing.T) {
	m, ctrl := newToastModel()

	result, cmd := m.Update(notificationMsg{
		notification: notify.Notification{Level: notify.LevelInfo, Message: "first"},
	})
	m = result.(Model)
	require.NotNil(t, cmd)

	// 2.5s into the first toast's 5s TTL.
	for range 25 {
		result, cmd = m.Update(toastTickMsg(time.Time{}))
		m = result.(Model)
	}
	require.NotNil(t, cmd)

	result, second := m.Update(notificationMsg{
		notification: notify.Notification{Level: notify.LevelInfo, Message: "second"},
	})
	m = result.(Model)
	require.Len(t, ctrl.Toasts(), 2)
	assert.Nil(t, second, "the running chain keeps ticking")

	_, ticks := tickUntilIdle(t, m, cmd)
	// The second toast was pushed at 2.5s and expires at 7.5s.
	assert.Equal(t, 50, ticks)
	assert.False(t, ctrl.HasToasts())
}

// TestToastUpdateLoop_new_toast_after_chain_stops verifies that ensureToastTick
// restarts the chain after all toasts have expired.
func TestToastUpdateLoop_new_toast_after_chain_stops(t *testing.T) {
	m, ctrl := newToastModel()

	result, cmd := m.Update(notificationMsg{
		notification: notify.Notification{Level: notify.LevelInfo, Message: "first"},
	})
	m, _ = tickUntilIdle(t, result.(Model), cmd)
	require.False(t, ctrl.HasToasts())

	result, cmd = m.Update(notificationMsg{
		notification: notify.Notification{Level: notify.LevelWarning, Message: "again"},
	})
	require.NotNil(t, cmd, "a fresh toast restarts the chain")
	assert.True(t, ctrl.HasToasts())
	_ = result
}

func TestToastUpdateLoop_absorbed_error_publishes_nothing(t *testing.T) {
	m, ctrl := newToastModel()

	cmd := m.notifyError("page", errValidationForTest)
	assert.Nil(t, cmd)
	assert.False(t, ctrl.HasToasts())
}

var errValidationForTest = dataset.Validationf("page 9 out of range")
