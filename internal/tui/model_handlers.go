package tui

import (
	"slices"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/harvest/internal/core/config"
	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/overlay"
	"github.com/colonyops/harvest/internal/core/query"
	"github.com/colonyops/harvest/internal/core/viewer"
	"github.com/colonyops/harvest/internal/tui/views/grid"
)

// --- Window ---

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.grid.SetVisible(m.visibleRows())
	m.search.SetWidth(max(msg.Width/3, 10))
	m.resizeChat()
	m.reanchorOverlay()

	return m, nil
}

func (m *Model) resizeChat() {
	if w := m.chatWidth(); w > 0 {
		m.chat.SetSize(w, m.bodyHeight())
		m.chat.Refresh(m.viewer.Chat())
	}
}

// --- Async results ---

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	res := msg.res
	if res.Followup != nil {
		return m, m.fetch(*res.Followup)
	}
	if res.Err != nil {
		if !dataset.Absorbed(res.Err) {
			log.Error().Err(res.Err).Int("page", res.Request.PageIndex).Msg("page load failed")
		}
		return m, m.notifyError("load page", res.Err)
	}
	if !res.Applied {
		return m, nil
	}

	m.links.Reset(res.Page.Items)
	m.columns.Sync(dataset.UnionKeys(res.Page.Items))
	m.grid.SetRows(len(res.Page.Items))
	m.selectCurrent()
	m.reanchorOverlay()
	return m, nil
}

func (m Model) handleChatDone(msg chatDoneMsg) (tea.Model, tea.Cmd) {
	m.chat.Refresh(m.viewer.Chat())
	if msg.err != nil {
		return m, m.notifyError("chat", msg.err)
	}
	return m, nil
}

// --- Notifications ---

func (m Model) handleNotification(msg notificationMsg) (tea.Model, tea.Cmd) {
	m.notifyBus.Publish(msg.notification)
	return m, m.ensureToastTick()
}

func (m Model) handleToastTick(_ toastTickMsg) (tea.Model, tea.Cmd) {
	m.toastController.Tick(toastTickInterval)
	if m.toastController.HasToasts() {
		return m, scheduleToastTick()
	}
	m.toastController.SetTicking(false)
	return m, nil
}

// handleFallthrough forwards unrouted messages (cursor blinks) to the focused input.
func (m Model) handleFallthrough(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusSearch:
		m.search, cmd = m.search.Update(msg)
	case focusChat:
		cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m Model) handleSpinnerTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// --- Input ---

func (m Model) handleKeyMsg(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	if keyStr == keyCtrlC {
		return m.quit()
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg, keyStr)
	case focusChat:
		return m.handleChatKey(msg, keyStr)
	case focusOverlay:
		return m.handleOverlayKey(keyStr)
	case focusGallery:
		return m.handleGalleryKey(keyStr)
	case focusNotifications:
		return m.handleNotificationModalKey(keyStr)
	}
	return m.handleGridKey(keyStr)
}

func (m Model) handleGridKey(keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case "q":
		return m.quit()
	case "up", "k":
		return m.moveCursor(-1)
	case "down", "j":
		return m.moveCursor(1)
	case "pgup":
		return m.moveCursor(-m.visibleRows())
	case "pgdown":
		return m.moveCursor(m.visibleRows())
	case keyTab:
		if m.viewer.ChatOpen() {
			m.focus = focusChat
			return m, m.chat.Focus()
		}
		return m, nil
	case keyEsc:
		// Closes the chat first, then dismisses toasts newest first.
		if m.viewer.ChatOpen() {
			m.viewer.CloseChat()
			return m, nil
		}
		m.toastController.Dismiss()
		return m, nil
	}

	action, ok := m.keys.Resolve(keyStr)
	if !ok {
		return m, nil
	}
	return m.dispatch(action)
}

// dispatch runs a configured grid action.
func (m Model) dispatch(action string) (tea.Model, tea.Cmd) {
	switch action {
	case config.ActionNextPage:
		return m.changePage(m.query.NextPage)
	case config.ActionPrevPage:
		return m.changePage(m.query.PrevPage)
	case config.ActionRefresh:
		return m, m.fetch(m.query.Refresh())
	case config.ActionSearch:
		m.focus = focusSearch
		return m, m.search.Focus()
	case config.ActionRecord:
		return m.openOverlay(viewer.OverlayRecord)
	case config.ActionLinks:
		return m.openOverlay(viewer.OverlayLinks)
	case config.ActionColumns:
		return m.openOverlay(viewer.OverlayColumns)
	case config.ActionGallery:
		return m.openGallery()
	case config.ActionChat:
		return m.openChat()
	case config.ActionExportCSV:
		m.exporting++
		return m, m.export("csv")
	case config.ActionExportJSON:
		m.exporting++
		return m, m.export("json")
	case config.ActionCopyRecord:
		return m.copyRecord()
	case config.ActionNotifications:
		// Everything on the toast stack is listed in the modal.
		m.toastController.DismissAll()
		m.notificationModal = NewNotificationModal(m.notifyBus, m.width, m.height)
		m.focus = focusNotifications
		return m, nil
	}
	return m, nil
}

func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if m.grid.Move(delta) {
		m.selectCurrent()
		m.reanchorOverlay()
		if m.viewer.ChatOpen() {
			m.refreshChatTitle()
		}
	}
	return m, nil
}

func (m Model) changePage(issue func() (query.Request, error)) (tea.Model, tea.Cmd) {
	req, err := issue()
	if err != nil {
		return m, m.notifyError("page", err)
	}
	m.grid.Reset()
	return m, m.fetch(req)
}

func (m Model) copyRecord() (tea.Model, tea.Cmd) {
	rec, ok := m.selected()
	if !ok {
		return m, nil
	}
	b, err := rec.MarshalJSON()
	if err != nil {
		return m, m.notifyError("copy", err)
	}
	if err := m.clipboard(string(b)); err != nil {
		return m, m.notifyError("copy", err)
	}
	m.notifyBus.Infof("copied record %s", rec.ID)
	return m, m.ensureToastTick()
}

// --- Search ---

func (m Model) handleSearchKey(msg tea.KeyPressMsg, keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case keyEnter, keyEsc, keyTab:
		m.search.Blur()
		m.focus = focusGrid
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	relay := m.relay
	if m.query.SetSearch(m.search.Value(), func(req query.Request) {
		relay.Send(searchSettledMsg{req: req})
	}) {
		m.grid.Reset()
	}
	return m, cmd
}

// --- Overlays ---

// openOverlay measures the popup for kind and places it next to its anchor.
func (m Model) openOverlay(kind viewer.OverlayKind) (tea.Model, tea.Cmd) {
	if cur, ok := m.viewer.Overlay(); ok && cur.Kind == kind {
		m.viewer.CloseOverlay()
		m.focus = focusGrid
		return m, nil
	}

	m.overlayCursor = 0
	if err := m.placeOverlay(kind); err != nil {
		return m, m.notifyError("overlay", err)
	}
	m.focus = focusOverlay
	return m, nil
}

func (m *Model) placeOverlay(kind viewer.OverlayKind) error {
	content := m.overlayContent(kind)
	popup := overlay.Size{Width: lipgloss.Width(content), Height: lipgloss.Height(content)}
	screen := overlay.Size{Width: m.width, Height: m.height}
	_, err := m.viewer.OpenOverlay(kind, m.overlayAnchor(kind), popup, screen)
	return err
}

// overlayAnchor is the screen rectangle an overlay of kind attaches to.
func (m Model) overlayAnchor(kind viewer.OverlayKind) overlay.Rect {
	l := m.layout()
	row := m.grid.Cursor() - m.grid.Offset()
	switch kind {
	case viewer.OverlayLinks:
		return l.MeasureAnchor(row, grid.LinksColumn)
	case viewer.OverlayRecord:
		var first string
		if len(l.Columns) > 0 {
			first = l.Columns[0].Key
		}
		return l.MeasureAnchor(row, first)
	}
	return l.HeaderAnchor()
}

// reanchorOverlay re-measures the open overlay after the layout changed.
func (m *Model) reanchorOverlay() {
	st, ok := m.viewer.Overlay()
	if !ok {
		m.syncFocus()
		return
	}
	if err := m.placeOverlay(st.Kind); err != nil {
		log.Debug().Err(err).Str("overlay", string(st.Kind)).Msg("overlay closed on re-anchor")
		m.viewer.CloseOverlay()
		m.syncFocus()
	}
}

func (m Model) handleOverlayKey(keyStr string) (tea.Model, tea.Cmd) {
	st, ok := m.viewer.Overlay()
	if !ok {
		m.focus = focusGrid
		return m, nil
	}

	if keyStr == keyEsc || keyStr == "q" || m.keys.Key(overlayAction(st.Kind)) == keyStr {
		m.viewer.CloseOverlay()
		m.focus = focusGrid
		return m, nil
	}

	n := m.overlayItems(st.Kind)
	switch keyStr {
	case "up", "k":
		m.overlayCursor = max(m.overlayCursor-1, 0)
		return m, nil
	case "down", "j":
		m.overlayCursor = min(m.overlayCursor+1, max(n-1, 0))
		return m, nil
	}

	switch st.Kind {
	case viewer.OverlayLinks:
		if keyStr != keyEnter {
			return m, nil
		}
		rec, _ := m.viewer.Active()
		inline, overflow := m.links.Links(rec)
		all := slices.Concat(inline, overflow)
		if m.overlayCursor < len(all) {
			return m, m.open(all[m.overlayCursor])
		}
	case viewer.OverlayColumns:
		specs := m.columns.Specs()
		switch keyStr {
		case "space", " ", keyEnter:
			if m.overlayCursor < len(specs) {
				m.columns.Toggle(specs[m.overlayCursor].Key)
			}
		case "r":
			m.columns.Reset()
		default:
			return m, nil
		}
		// Column changes move the grid header; keep the picker attached to it.
		m.reanchorOverlay()
	}
	return m, nil
}

func overlayAction(kind viewer.OverlayKind) string {
	switch kind {
	case viewer.OverlayLinks:
		return config.ActionLinks
	case viewer.OverlayRecord:
		return config.ActionRecord
	case viewer.OverlayColumns:
		return config.ActionColumns
	}
	return ""
}

// --- Gallery ---

func (m Model) openGallery() (tea.Model, tea.Cmd) {
	rec, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := m.viewer.OpenGallery(rec); err != nil {
		if dataset.Absorbed(err) {
			m.notifyBus.Warnf("%s has no images or videos", recordLabel(rec))
			return m, m.ensureToastTick()
		}
		return m, m.notifyError("gallery", err)
	}
	m.focus = focusGallery
	return m, nil
}

func (m Model) handleGalleryKey(keyStr string) (tea.Model, tea.Cmd) {
	g := m.viewer.Gallery()
	switch keyStr {
	case "left", "h":
		g.Previous()
	case "right", "l":
		g.Next()
	case keyEnter:
		if a, ok := g.Current(); ok {
			return m, m.open(a.URL)
		}
	case keyEsc, "q", m.keys.Key(config.ActionGallery):
		m.viewer.CloseGallery()
		m.focus = focusGrid
	}
	return m, nil
}

// --- Chat ---

func (m Model) openChat() (tea.Model, tea.Cmd) {
	rec, ok := m.selected()
	if !ok {
		return m, nil
	}

	var cmd tea.Cmd
	if err := m.viewer.OpenChat(m.ctx, rec); err != nil {
		if m.viewer.Chat() == nil {
			return m, m.notifyError("chat", err)
		}
		cmd = m.notifyError("chat history", err)
	}

	m.refreshChatTitle()
	m.resizeChat()
	m.chat.Refresh(m.viewer.Chat())
	m.grid.SetVisible(m.visibleRows())
	m.focus = focusChat
	return m, tea.Batch(cmd, m.chat.Focus())
}

func (m *Model) refreshChatTitle() {
	if rec, ok := m.viewer.Chat().Record(); ok {
		m.chat.SetTitle(recordLabel(rec))
	}
}

func (m Model) handleChatKey(msg tea.KeyPressMsg, keyStr string) (tea.Model, tea.Cmd) {
	c := m.viewer.Chat()
	if !m.viewer.ChatOpen() {
		m.chat.Blur()
		m.focus = focusGrid
		return m, nil
	}

	switch keyStr {
	case keyEsc:
		m.viewer.CloseChat()
		m.chat.Blur()
		m.focus = focusGrid
		return m, nil
	case keyTab:
		m.chat.Blur()
		m.focus = focusGrid
		return m, nil
	case "ctrl+t":
		m.chat.NextChannel()
		return m, nil
	case "pgup", "ctrl+u":
		m.chat.ScrollUp()
		return m, nil
	case "pgdown", "ctrl+d":
		m.chat.ScrollDown()
		return m, nil
	case "ctrl+g":
		turn, err := c.PrepareTemplate(m.chat.Channel())
		if err != nil {
			return m, m.notifyError("template", err)
		}
		m.chat.Refresh(c)
		return m, m.deliver(turn)
	case keyEnter:
		turn, err := c.Prepare(m.chat.Value())
		if err != nil {
			return m, m.notifyError("chat", err)
		}
		m.chat.ResetInput()
		m.chat.Refresh(c)
		return m, m.deliver(turn)
	}

	return m, m.chat.Update(msg)
}

// --- Notification history ---

func (m Model) handleNotificationModalKey(keyStr string) (tea.Model, tea.Cmd) {
	switch keyStr {
	case keyEsc, "q", m.keys.Key(config.ActionNotifications):
		m.notificationModal = nil
		m.focus = focusGrid
	case "j", "down":
		m.notificationModal.ScrollDown()
	case "k", "up":
		m.notificationModal.ScrollUp()
	case "f":
		m.notificationModal.CycleFilter()
	case "D":
		if err := m.notificationModal.Clear(); err != nil {
			log.Error().Err(err).Msg("failed to clear notifications")
			return m, m.notifyError("clear notifications", err)
		}
	}
	return m, nil
}
