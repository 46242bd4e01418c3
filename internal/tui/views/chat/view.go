// Package chat renders the per-record chat side panel.
package chat

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	corechat "github.com/colonyops/harvest/internal/core/chat"
	"github.com/colonyops/harvest/internal/core/styles"
)

const (
	chromeLines = 5 // title, channels, divider, divider, input
	minWidth    = 20
)

// Conversation is the chat state the panel renders.
type Conversation interface {
	Messages() []corechat.Message
	Busy() bool
}

// Panel is the chat side panel: a scrollable transcript, a channel picker for
// outreach templates and a single-line input.
type Panel struct {
	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	channel  int
	title    string
	width    int
	height   int
	now      func() time.Time
}

// New creates a chat panel.
func New() *Panel {
	ti := textinput.New()
	ti.Placeholder = "Ask about this record..."
	ti.Prompt = "> "
	ti.CharLimit = 2000

	return &Panel{
		input:    ti,
		viewport: viewport.New(),
		now:      time.Now,
	}
}

// SetSize updates the panel dimensions, including its left border.
func (p *Panel) SetSize(width, height int) {
	width = max(width, minWidth)
	if width == p.width && height == p.height {
		return
	}
	p.width = width
	p.height = height

	inner := p.innerWidth()
	p.input.SetWidth(inner - lipgloss.Width(p.input.Prompt) - 1)
	p.viewport.SetWidth(inner)
	p.viewport.SetHeight(max(height-chromeLines, 1))
	p.renderer = nil
}

// SetTitle sets the record label shown in the header.
func (p *Panel) SetTitle(title string) {
	p.title = title
}

// Focus focuses the input.
func (p *Panel) Focus() tea.Cmd {
	return p.input.Focus()
}

// Blur removes focus from the input.
func (p *Panel) Blur() {
	p.input.Blur()
}

// Focused reports whether the input has focus.
func (p *Panel) Focused() bool {
	return p.input.Focused()
}

// Update forwards msg to the input.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// Value returns the typed text.
func (p *Panel) Value() string {
	return p.input.Value()
}

// ResetInput clears the input.
func (p *Panel) ResetInput() {
	p.input.Reset()
}

// Channel returns the selected outreach channel.
func (p *Panel) Channel() string {
	return corechat.Channels[p.channel]
}

// NextChannel selects the next outreach channel.
func (p *Panel) NextChannel() {
	p.channel = (p.channel + 1) % len(corechat.Channels)
}

// ScrollUp scrolls the transcript up.
func (p *Panel) ScrollUp() {
	p.viewport.ScrollUp(1)
}

// ScrollDown scrolls the transcript down.
func (p *Panel) ScrollDown() {
	p.viewport.ScrollDown(1)
}

// Refresh re-renders the transcript and scrolls to the newest message.
func (p *Panel) Refresh(c Conversation) {
	msgs := c.Messages()
	if len(msgs) == 0 {
		p.viewport.SetContent(styles.ChatPendingStyle.Render("No messages yet. Ask a question or generate a template."))
		return
	}

	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		blocks = append(blocks, p.renderMessage(m))
	}
	p.viewport.SetContent(strings.Join(blocks, "\n\n"))
	p.viewport.GotoBottom()
}

// View renders the panel. spinner is shown while a request is in flight.
func (p *Panel) View(c Conversation, spinner string) string {
	inner := p.innerWidth()

	title := styles.ModalTitleStyle.Render(styles.IconChat + " Chat")
	if p.title != "" {
		title += styles.ChatTimeStyle.Render(" · " + p.title)
	}

	busy := c.Busy()
	chips := make([]string, 0, len(corechat.Channels))
	for i, ch := range corechat.Channels {
		style := styles.ChatChannelBusyStyle
		if !busy && i == p.channel {
			style = styles.ChatChannelStyle.Bold(true)
		}
		chips = append(chips, style.Render(ch))
	}
	channels := lipgloss.JoinHorizontal(lipgloss.Top, chips...)

	status := ""
	if busy {
		status = " " + spinner + styles.ChatPendingStyle.Render(" waiting for reply")
	}

	divider := styles.DividerStyle.Render(strings.Repeat("─", inner))
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		channels+status,
		divider,
		p.viewport.View(),
		divider,
		p.input.View(),
	)

	return styles.ChatPanelStyle.
		Width(p.width).
		Height(p.height).
		Render(body)
}

func (p *Panel) renderMessage(m corechat.Message) string {
	ts := styles.ChatTimeStyle.Render(humanize.RelTime(m.CreatedAt, p.now(), "ago", "from now"))

	var header string
	switch m.Role {
	case corechat.RoleAssistant:
		header = styles.ChatAssistantStyle.Render(styles.IconAssistant+" assistant") + " " + ts
	default:
		header = styles.ChatUserStyle.Render(styles.IconUser+" you") + " " + ts
	}

	switch m.Status {
	case corechat.StatusPending:
		header += " " + styles.ChatPendingStyle.Render("sending")
	case corechat.StatusFailed:
		header += " " + styles.ChatFailedStyle.Render(styles.IconError+" failed")
	}

	body := lipgloss.NewStyle().Width(p.innerWidth()).Render(m.Content)
	if m.Role == corechat.RoleAssistant {
		body = p.markdown(m.Content)
	}
	return header + "\n" + body
}

func (p *Panel) markdown(content string) string {
	if p.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStyles(styles.GlamourStyle()),
			glamour.WithWordWrap(p.innerWidth()),
		)
		if err != nil {
			log.Debug().Err(err).Msg("glamour renderer unavailable")
			return content
		}
		p.renderer = r
	}

	out, err := p.renderer.Render(content)
	if err != nil {
		log.Debug().Err(err).Msg("render chat markdown")
		return content
	}
	return strings.Trim(out, "\n")
}

func (p *Panel) innerWidth() int {
	// left border + padding
	return max(p.width-2, 1)
}
