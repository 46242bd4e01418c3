package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/notify"
)

func info(msg string) notify.Notification {
	return notify.Notification{Level: notify.LevelInfo, Message: msg}
}

func TestToastController_Push(t *testing.T) {
	c := NewToastController(0)
	c.Push(info("exported csv"))

	require.True(t, c.HasToasts())
	got := c.Toasts()
	require.Len(t, got, 1)
	assert.Equal(t, "exported csv", got[0].notification.Message)
	assert.Equal(t, defaultToastTTL, got[0].remaining)
	assert.Zero(t, got[0].repeats)
}

func TestToastController_Push_errorsLiveLonger(t *testing.T) {
	c := NewToastController(time.Second)
	c.Push(notify.Notification{Level: notify.LevelError, Message: "load page: unauthorized"})

	c.Tick(time.Second)
	assert.True(t, c.HasToasts())
	c.Tick(time.Second)
	assert.False(t, c.HasToasts())
}

func TestToastController_Push_foldsRepeats(t *testing.T) {
	c := NewToastController(time.Second)
	c.Push(info("load page: timeout"))
	c.Tick(900 * time.Millisecond)

	c.Push(info("load page: timeout"))
	c.Push(info("load page: timeout"))

	got := c.Toasts()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].repeats)
	assert.Equal(t, time.Second, got[0].remaining, "a repeat restarts the lifetime")

	c.Push(notify.Notification{Level: notify.LevelWarning, Message: "load page: timeout"})
	assert.Len(t, c.Toasts(), 2, "a different level is a new toast")
}

func TestToastController_Push_onlyFoldsNewest(t *testing.T) {
	c := NewToastController(0)
	c.Push(info("a"))
	c.Push(info("b"))
	c.Push(info("a"))

	assert.Len(t, c.Toasts(), 3)
}

func TestToastController_Push_dropsOldest(t *testing.T) {
	c := NewToastController(0)
	for i := range defaultMaxToasts + 2 {
		c.Push(info(fmt.Sprintf("export %d", i)))
	}

	got := c.Toasts()
	require.Len(t, got, defaultMaxToasts)
	assert.Equal(t, "export 2", got[0].notification.Message)
}

func TestToastController_Tick(t *testing.T) {
	c := NewToastController(0)
	c.Push(info("expires"))
	c.Push(info("survives"))
	c.stack[0].remaining = 50 * time.Millisecond

	c.Tick(100 * time.Millisecond)

	got := c.Toasts()
	require.Len(t, got, 1)
	assert.Equal(t, "survives", got[0].notification.Message)
	assert.Equal(t, defaultToastTTL-100*time.Millisecond, got[0].remaining)
}

func TestToastController_Dismiss(t *testing.T) {
	c := NewToastController(0)
	assert.False(t, c.Dismiss())

	c.Push(info("first"))
	c.Push(info("second"))

	assert.True(t, c.Dismiss())
	got := c.Toasts()
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].notification.Message)

	c.DismissAll()
	assert.False(t, c.HasToasts())
}

func TestToastController_Toasts_copy(t *testing.T) {
	c := NewToastController(0)
	c.Push(info("original"))

	got := c.Toasts()
	got[0].notification.Message = "mutated"

	assert.Equal(t, "original", c.Toasts()[0].notification.Message)
}
