package tui

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/core/styles"
	"github.com/colonyops/harvest/pkg/tuitest"
)

func TestToastView_View(t *testing.T) {
	c := NewToastController(0)
	v := NewToastView(c)
	assert.Empty(t, v.View())

	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "exported csv"})
	c.Push(notify.Notification{Level: notify.LevelWarning, Message: "r2 has no images or videos"})
	c.Push(notify.Notification{Level: notify.LevelError, Message: "export: unauthorized", Hint: notify.ReauthHint})

	out := tuitest.StripANSI(v.View())
	for _, icon := range []string{styles.IconInfo, styles.IconWarning, styles.IconError} {
		assert.Contains(t, out, icon)
	}
	assert.Contains(t, out, notify.ReauthHint)
	assert.Less(t, strings.Index(out, "exported csv"), strings.Index(out, "export: unauthorized"), "newest at the bottom")
}

func TestToastView_View_repeatCount(t *testing.T) {
	c := NewToastController(0)
	v := NewToastView(c)

	for range 3 {
		c.Push(notify.Notification{Level: notify.LevelError, Message: "load page: timeout"})
	}

	out := tuitest.StripANSI(v.View())
	assert.Equal(t, 1, strings.Count(out, "load page: timeout"))
	assert.Contains(t, out, "×3")
}

func TestToastView_Overlay(t *testing.T) {
	c := NewToastController(0)
	v := NewToastView(c)

	assert.Equal(t, "grid", v.Overlay("grid", 80, 24), "no toasts leaves the screen untouched")

	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "copied record r1"})

	const width, height = 120, 40
	out := tuitest.StripANSI(v.Overlay(blankScreen(width, height), width, height))

	lines := strings.Split(out, "\n")
	row := slices.IndexFunc(lines, func(l string) bool { return strings.Contains(l, "copied record r1") })
	require.NotEqual(t, -1, row)
	assert.Greater(t, row, height/2, "toasts sit at the bottom")
	assert.Greater(t, strings.Index(lines[row], "copied"), width/2, "and on the right")
}
