package tui

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/viewport"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/core/styles"
)

const (
	notifyModalWidthPct  = 65
	notifyModalMinWidth  = 60
	notifyModalMaxHeight = 30
	notifyModalMargin    = 4
	notifyModalChrome    = 6 // title + divider + help + spacing
)

// NotificationHistory is the persisted notification log.
type NotificationHistory interface {
	History() ([]notify.Notification, error)
	Clear() error
}

// filterOrder is the cycle the level filter steps through; "" shows all.
var filterOrder = []notify.Level{"", notify.LevelError, notify.LevelWarning, notify.LevelInfo}

// NotificationModal lists the notification history newest first, grouped by
// day and optionally narrowed to one level.
type NotificationModal struct {
	history  NotificationHistory
	viewport viewport.Model
	items    []notify.Notification
	loadErr  error
	filter   notify.Level
}

// NewNotificationModal creates a modal showing notification history.
func NewNotificationModal(history NotificationHistory, width, height int) *NotificationModal {
	modalWidth := calcNotificationModalWidth(width)
	contentHeight := max(min(height-notifyModalMargin, notifyModalMaxHeight)-notifyModalChrome, 1)

	vp := viewport.New(
		viewport.WithWidth(modalWidth-4), // account for modal padding
		viewport.WithHeight(contentHeight),
	)

	m := &NotificationModal{
		history:  history,
		viewport: vp,
	}

	m.reload()
	return m
}

func (m *NotificationModal) reload() {
	m.items, m.loadErr = nil, nil
	if m.history != nil {
		m.items, m.loadErr = m.history.History()
		if m.loadErr != nil {
			log.Error().Err(m.loadErr).Msg("failed to load notification history")
		}
	}
	m.render()
}

func (m *NotificationModal) visible() []notify.Notification {
	if m.filter == "" {
		return m.items
	}
	var out []notify.Notification
	for _, n := range m.items {
		if n.Level == m.filter {
			out = append(out, n)
		}
	}
	return out
}

func (m *NotificationModal) render() {
	if m.loadErr != nil {
		m.viewport.SetContent(styles.ChatFailedStyle.Render(fmt.Sprintf("failed to load notifications: %v", m.loadErr)))
		return
	}

	items := m.visible()
	if len(items) == 0 {
		empty := "No notifications"
		if m.filter != "" {
			empty = fmt.Sprintf("No %s notifications", m.filter)
		}
		m.viewport.SetContent(styles.GridEmptyStyle.Render(empty))
		m.viewport.GotoTop()
		return
	}

	var (
		b   strings.Builder
		day string
	)
	for i, n := range items {
		if d := n.CreatedAt.Format("Mon Jan 2"); d != day {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(styles.FieldKeyStyle.Render(d))
			b.WriteByte('\n')
			day = d
		}
		b.WriteString(formatNotification(n))
		b.WriteByte('\n')
	}

	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	m.viewport.GotoTop()
}

// CycleFilter narrows the list to the next level: all, errors, warnings, info.
func (m *NotificationModal) CycleFilter() {
	i := slices.Index(filterOrder, m.filter)
	m.filter = filterOrder[(i+1)%len(filterOrder)]
	m.render()
}

func formatNotification(n notify.Notification) string {
	ts := styles.ChatTimeStyle.Render(n.CreatedAt.Format("15:04:05"))
	icon, _ := levelIcon(n.Level)

	line := fmt.Sprintf("%s %s %s", ts, icon, n.Message)
	if n.Hint != "" {
		line += "\n         " + styles.ToastHintStyle.Render(n.Hint)
	}
	return line
}

// ScrollUp scrolls the viewport up.
func (m *NotificationModal) ScrollUp() {
	m.viewport.ScrollUp(1)
}

// ScrollDown scrolls the viewport down.
func (m *NotificationModal) ScrollDown() {
	m.viewport.ScrollDown(1)
}

// Clear deletes all notifications and refreshes the view.
func (m *NotificationModal) Clear() error {
	if m.history == nil {
		return nil
	}
	if err := m.history.Clear(); err != nil {
		return err
	}
	m.reload()
	return nil
}

// Overlay renders the notification modal centered over the background.
func (m *NotificationModal) Overlay(background string, width, height int) string {
	modalWidth := calcNotificationModalWidth(width)
	modalHeight := max(min(height-notifyModalMargin, notifyModalMaxHeight), notifyModalChrome+1)

	title := styles.IconBell + " Notifications"
	if m.filter != "" {
		title += fmt.Sprintf(" · %s (%d of %d)", m.filter, len(m.visible()), len(m.items))
	}

	scrollInfo := ""
	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		scrollInfo = styles.ChatTimeStyle.Render(
			fmt.Sprintf(" (%.0f%%)", m.viewport.ScrollPercent()*100),
		)
	}

	divider := styles.DividerStyle.Render(strings.Repeat("─", max(modalWidth-6, 1)))
	modalContent := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ModalTitleStyle.Render(title+scrollInfo),
		divider,
		m.viewport.View(),
		styles.ModalHelpStyle.Render("[j/k] scroll  [f] filter  [D] clear all  [esc] close"),
	)

	modal := styles.ModalStyle.
		Width(modalWidth).
		Height(modalHeight).
		Render(modalContent)

	return centered(background, modal, width, height, 2)
}

func calcNotificationModalWidth(termWidth int) int {
	available := max(termWidth-notifyModalMargin, 1)
	target := termWidth * notifyModalWidthPct / 100
	return min(max(target, notifyModalMinWidth), available)
}
