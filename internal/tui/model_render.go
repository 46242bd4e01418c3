package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/harvest/internal/core/config"
	"github.com/colonyops/harvest/internal/core/query"
	"github.com/colonyops/harvest/internal/core/styles"
	"github.com/colonyops/harvest/internal/tui/views/gallery"
	"github.com/colonyops/harvest/internal/tui/views/grid"
)

// View renders the model.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render composes the screen: main layout, the open overlay, modals and toasts.
func (m Model) render() string {
	if m.quitting {
		return ""
	}

	w, h := m.width, m.height
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 24
	}

	content := m.renderMain(w, h)

	if st, ok := m.viewer.Overlay(); ok {
		content = composite(content, m.overlayContent(st.Kind), st.Position.X, st.Position.Y, 1)
	}

	switch {
	case m.focus == focusNotifications && m.notificationModal != nil:
		content = m.notificationModal.Overlay(content, w, h)
	case m.viewer.GalleryOpen():
		label := ""
		if rec, ok := m.viewer.Active(); ok {
			label = recordLabel(rec)
		}
		content = centered(content, gallery.Render(m.viewer.Gallery(), label, w, h), w, h, 2)
	}

	// Apply toast overlay on top of everything
	if m.toastController.HasToasts() {
		content = m.toastView.Overlay(content, w, h)
	}
	return content
}

// renderMain draws the title line, the grid with the optional chat panel
// beside it, and the footer.
func (m Model) renderMain(w, h int) string {
	snap := m.query.State()
	bodyH := max(h-titleLines-footerLines, 2)
	chatW := m.chatWidth()
	gridW := max(w-chatW, 1)

	l := m.layout()
	start, end := m.grid.Window()
	table := grid.Render(l, snap.Items, start, end, m.grid.Cursor(), m.links.Links)
	if snap.Err != nil && !snap.Loaded {
		table = styles.GridEmptyStyle.Render(" Unable to load dataset: " + ansi.Truncate(snap.Err.Error(), gridW-26, "…"))
	}
	body := lipgloss.NewStyle().
		Width(gridW).
		Height(bodyH).
		MaxHeight(bodyH).
		Render(table)

	if chatW > 0 {
		spin := ""
		if m.viewer.Chat().Busy() {
			spin = m.spinner.View()
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.chat.View(m.viewer.Chat(), spin))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(w),
		body,
		m.renderStatus(snap, l.Clipped, w),
		ansi.Truncate(m.help.ShortHelpView(m.keys.ShortHelp()), w, "…"),
	)
}

func (m Model) renderTitle(w int) string {
	title := styles.CommandHeaderStyle.Render("harvest") +
		styles.FooterStyle.Render(" · run "+m.viewer.RunID())

	search := m.search.View()
	if m.focus != focusSearch && m.search.Value() == "" {
		search = styles.FooterStyle.Render(styles.IconSearch + " press " + m.keys.Key(config.ActionSearch) + " to search")
	}

	gap := max(w-lipgloss.Width(title)-lipgloss.Width(search)-1, 1)
	return ansi.Truncate(title+strings.Repeat(" ", gap)+search, w, "")
}

func (m Model) renderStatus(snap query.Snapshot, clipped, w int) string {
	parts := []string{
		fmt.Sprintf("page %d of %d", snap.PageIndex, max(snap.TotalPages, 1)),
		fmt.Sprintf("%d records", snap.Total),
	}
	if n := len(snap.Items); n > 0 {
		first := (snap.PageIndex-1)*snap.PageSize + 1
		parts[1] = fmt.Sprintf("%d-%d of %d records", first, first+n-1, snap.Total)
	}
	if hidden := m.columns.HiddenCount(); hidden > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", hidden))
	}
	if clipped > 0 {
		parts = append(parts, fmt.Sprintf("%d off-screen", clipped))
	}

	status := strings.Join(parts, "  ·  ")
	switch {
	case snap.Loading:
		status = m.spinner.View() + " loading  " + status
	case m.exporting > 0:
		status = m.spinner.View() + " " + styles.IconExport + " exporting  " + status
	case m.query.SearchPending():
		status = m.spinner.View() + " searching  " + status
	}

	return styles.FooterStyle.Render(ansi.Truncate(status, w, "…"))
}
