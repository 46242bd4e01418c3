// Package tui implements the interactive dataset viewer.
package tui

import (
	"context"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	corechat "github.com/colonyops/harvest/internal/core/chat"
	"github.com/colonyops/harvest/internal/core/columns"
	"github.com/colonyops/harvest/internal/core/config"
	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/core/query"
	"github.com/colonyops/harvest/internal/core/styles"
	"github.com/colonyops/harvest/internal/core/viewer"
	tuinotify "github.com/colonyops/harvest/internal/tui/notify"
	chatview "github.com/colonyops/harvest/internal/tui/views/chat"
	"github.com/colonyops/harvest/internal/tui/views/grid"
	"github.com/colonyops/harvest/pkg/executil"
)

// focus is the component receiving key presses.
type focus int

const (
	focusGrid focus = iota
	focusSearch
	focusChat
	focusOverlay
	focusGallery
	focusNotifications
)

// Key constants for event handling.
const (
	keyEnter = "enter"
	keyEsc   = "esc"
	keyCtrlC = "ctrl+c"
	keyTab   = "tab"
)

// Rows outside the grid body: title line, grid header and a two-line footer.
const (
	titleLines  = 1
	footerLines = 2
)

// Options configures the TUI.
type Options struct {
	Viewer  *viewer.Viewer
	Columns *columns.Store
	Bus     *tuinotify.Bus
	// Opener opens a URL in the user's browser. Defaults to the platform opener.
	Opener func(ctx context.Context, rawURL string) error
	// Clipboard copies text. Defaults to the system clipboard.
	Clipboard func(text string) error
}

// Messages produced by commands.
type (
	pageLoadedMsg    struct{ res query.Result }
	searchSettledMsg struct{ req query.Request }
	chatDoneMsg      struct{ err error }
	exportDoneMsg    struct{}
	// notificationMsg carries a notification from an async tea.Cmd into the Update loop.
	notificationMsg struct {
		notification notify.Notification
	}
)

// Model is the main Bubble Tea model for the dataset viewer.
type Model struct {
	cfg     *config.Config
	viewer  *viewer.Viewer
	query   *query.Controller
	columns *columns.Store
	keys    KeyMap
	relay   *Relay
	links   *linkIndex

	ctx    context.Context
	cancel context.CancelFunc

	focus         focus
	overlayCursor int
	grid          *grid.Controller
	search        textinput.Model
	chat          *chatview.Panel
	spinner       spinner.Model
	help          help.Model
	exporting     int
	width         int
	height        int
	quitting      bool

	notifyBus         *tuinotify.Bus
	toastController   *ToastController
	toastView         *ToastView
	notificationModal *NotificationModal

	opener    func(ctx context.Context, rawURL string) error
	clipboard func(text string) error
}

// New creates the viewer model. The viewer must have a query controller.
func New(cfg *config.Config, opts Options) Model {
	if opts.Columns == nil {
		opts.Columns = columns.NewStore()
	}
	if opts.Bus == nil {
		opts.Bus = tuinotify.NewBus(nil)
	}
	if opts.Opener == nil {
		opts.Opener = func(ctx context.Context, rawURL string) error {
			return executil.OpenURL(ctx, &executil.RealExecutor{}, rawURL)
		}
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	ctx, cancel := context.WithCancel(context.Background())

	search := textinput.New()
	search.Prompt = styles.IconSearch + " "
	search.Placeholder = "search"
	search.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SearchPromptStyle

	toasts := NewToastController(cfg.TUI.ToastDuration)
	opts.Bus.Subscribe(toasts.Push)

	return Model{
		cfg:             cfg,
		viewer:          opts.Viewer,
		query:           opts.Viewer.Query(),
		columns:         opts.Columns,
		keys:            NewKeyMap(cfg.TUI.Keys),
		relay:           NewRelay(),
		links:           newLinkIndex(opts.Viewer.Links),
		ctx:             ctx,
		cancel:          cancel,
		grid:            grid.NewController(),
		search:          search,
		chat:            chatview.New(),
		spinner:         s,
		help:            help.New(),
		notifyBus:       opts.Bus,
		toastController: toasts,
		toastView:       NewToastView(toasts),
		opener:          opts.Opener,
		clipboard:       opts.Clipboard,
	}
}

// Init loads the first page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.relay.Wait(),
		m.fetch(m.query.Refresh()),
		m.spinner.Tick,
	)
}

// Update routes messages to their handlers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case relayedMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, m.relay.Wait())

	// Async results
	case pageLoadedMsg:
		return m.withToastTick(m.handlePageLoaded(msg))
	case searchSettledMsg:
		return m, m.fetch(msg.req)
	case chatDoneMsg:
		return m.withToastTick(m.handleChatDone(msg))
	case exportDoneMsg:
		m.exporting = max(m.exporting-1, 0)
		return m, m.ensureToastTick()

	// Notifications
	case notificationMsg:
		return m.handleNotification(msg)
	case toastTickMsg:
		return m.handleToastTick(msg)

	// Input
	case tea.KeyPressMsg:
		return m.withToastTick(m.handleKeyMsg(msg))
	case spinner.TickMsg:
		return m.handleSpinnerTick(msg)
	}

	return m.handleFallthrough(msg)
}

// withToastTick appends the toast tick to handlers that may have published.
func (m Model) withToastTick(next tea.Model, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	nm, ok := next.(Model)
	if !ok {
		return next, cmd
	}
	return nm, tea.Batch(cmd, nm.ensureToastTick())
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.viewer.Close()
	m.relay.Close()
	m.cancel()
	return m, tea.Quit
}

// fetch executes req off the update loop.
func (m Model) fetch(req query.Request) tea.Cmd {
	q := m.query
	ctx := m.ctx
	return func() tea.Msg {
		return pageLoadedMsg{res: q.Execute(ctx, req)}
	}
}

// deliver runs a prepared chat turn off the update loop.
func (m Model) deliver(turn corechat.Turn) tea.Cmd {
	c := m.viewer.Chat()
	ctx := m.ctx
	return func() tea.Msg {
		return chatDoneMsg{err: c.Deliver(ctx, turn)}
	}
}

// export runs a server-side export; the viewer publishes the outcome.
func (m Model) export(format string) tea.Cmd {
	v := m.viewer
	ctx := m.ctx
	return func() tea.Msg {
		_, _ = v.Export(ctx, format)
		return exportDoneMsg{}
	}
}

// open launches rawURL in the browser.
func (m Model) open(rawURL string) tea.Cmd {
	opener := m.opener
	ctx := m.ctx
	return func() tea.Msg {
		if err := opener(ctx, rawURL); err != nil {
			n, ok := notify.FromError("open", err)
			if !ok {
				return nil
			}
			return notificationMsg{notification: n}
		}
		return nil
	}
}

// selected returns the record under the cursor.
func (m Model) selected() (dataset.Record, bool) {
	items := m.query.State().Items
	c := m.grid.Cursor()
	if c >= len(items) {
		return dataset.Record{}, false
	}
	return items[c], true
}

// selectCurrent makes the record under the cursor the active record.
func (m *Model) selectCurrent() {
	rec, ok := m.selected()
	if !ok {
		return
	}
	m.viewer.SelectRecord(rec)
	m.syncFocus()
}

// syncFocus returns focus to the grid when the focused component was closed
// as a side effect of a record change.
func (m *Model) syncFocus() {
	switch m.focus {
	case focusChat:
		if !m.viewer.ChatOpen() {
			m.chat.Blur()
			m.focus = focusGrid
		}
	case focusGallery:
		if !m.viewer.GalleryOpen() {
			m.focus = focusGrid
		}
	case focusOverlay:
		if _, ok := m.viewer.Overlay(); !ok {
			m.focus = focusGrid
		}
	}
}

// ensureToastTick starts the toast tick chain if toasts are showing and no
// chain is running.
func (m *Model) ensureToastTick() tea.Cmd {
	if m.toastController == nil || !m.toastController.HasToasts() || m.toastController.Ticking() {
		return nil
	}
	m.toastController.SetTicking(true)
	return scheduleToastTick()
}

// notifyError publishes an error notification unless err is absorbed.
func (m *Model) notifyError(action string, err error) tea.Cmd {
	m.notifyBus.Error(action, err)
	return m.ensureToastTick()
}

// chatWidth is the width of the chat side panel, or 0 when it is closed.
func (m Model) chatWidth() int {
	if !m.viewer.ChatOpen() || m.width == 0 {
		return 0
	}
	return m.width * m.cfg.TUI.ChatWidth / 100
}

func (m Model) bodyHeight() int {
	return max(m.height-titleLines-footerLines, 2)
}

// visibleRows is the number of grid rows below the header.
func (m Model) visibleRows() int {
	return max(m.bodyHeight()-1, 1)
}

// layout measures the grid for the current page.
func (m Model) layout() grid.Layout {
	return grid.Measure(
		m.query.State().Items,
		m.columns.Visible(),
		m.links.Links,
		max(m.width-m.chatWidth(), 1),
		titleLines,
	)
}

// recordLabel names a record for panel titles.
func recordLabel(rec dataset.Record) string {
	for _, k := range []string{"name", "company", "title", "full_name", "email"} {
		if s := rec.Text(k); s != "" {
			return s
		}
	}
	return rec.ID
}
