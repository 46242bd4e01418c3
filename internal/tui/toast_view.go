package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView draws the toast stack in the lower-right corner of the screen.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View stacks the toasts vertically, newest at the bottom.
func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}

	return strings.Join(rendered, "\n")
}

func levelIcon(level notify.Level) (string, lipgloss.Style) {
	switch level {
	case notify.LevelError:
		return styles.IconError, styles.ToastErrorStyle
	case notify.LevelWarning:
		return styles.IconWarning, styles.ToastWarningStyle
	default:
		return styles.IconInfo, styles.ToastInfoStyle
	}
}

func renderToast(t toast) string {
	n := t.notification
	icon, style := levelIcon(n.Level)

	content := icon + " " + n.Message
	if t.repeats > 0 {
		content += styles.ToastHintStyle.Render(fmt.Sprintf(" ×%d", t.repeats+1))
	}
	if n.Hint != "" {
		content += "\n" + styles.ToastHintStyle.Render(n.Hint)
	}
	return style.Width(toastWidth).Render(content)
}

// Overlay composites the toast stack over background in the lower-right corner.
func (v *ToastView) Overlay(background string, width, height int) string {
	toastContent := v.View()
	if toastContent == "" {
		return background
	}

	toastW := lipgloss.Width(toastContent)
	toastH := lipgloss.Height(toastContent)

	rightX := max(width-toastW-1, 0)
	bottomY := max(height-toastH, 0)

	return composite(background, toastContent, rightX, bottomY, 3)
}
