// Package styles provides shared lipgloss v2 styles for CLI and TUI components.
package styles

import (
	"image/color"

	lipgloss "charm.land/lipgloss/v2"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/lucasb-eyer/go-colorful"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Semantic colors of the active palette.
var (
	ColorPrimary    color.Color
	ColorSecondary  color.Color
	ColorForeground color.Color
	ColorMuted      color.Color
	ColorBackground color.Color
	ColorSurface    color.Color
	ColorSuccess    color.Color
	ColorWarning    color.Color
	ColorError      color.Color
)

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style

	// Grid.
	GridHeaderStyle      lipgloss.Style
	GridCellStyle        lipgloss.Style
	GridSelectedRowStyle lipgloss.Style
	GridEmptyStyle       lipgloss.Style
	LinkStyle            lipgloss.Style
	LinkOverflowStyle    lipgloss.Style
	FooterStyle          lipgloss.Style
	SearchPromptStyle    lipgloss.Style

	// Overlays and modals.
	OverlayStyle       lipgloss.Style
	ModalStyle         lipgloss.Style
	ModalTitleStyle    lipgloss.Style
	ModalHelpStyle     lipgloss.Style
	FieldKeyStyle      lipgloss.Style
	CheckedItemStyle   lipgloss.Style
	UncheckedItemStyle lipgloss.Style

	// Chat panel.
	ChatPanelStyle       lipgloss.Style
	ChatUserStyle        lipgloss.Style
	ChatAssistantStyle   lipgloss.Style
	ChatTimeStyle        lipgloss.Style
	ChatFailedStyle      lipgloss.Style
	ChatPendingStyle     lipgloss.Style
	ChatChannelStyle     lipgloss.Style
	ChatChannelBusyStyle lipgloss.Style

	// Notifications.
	ToastInfoStyle    lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style
	ToastHintStyle    lipgloss.Style
)

// ColorPool is used for deterministic coloring of field names.
var ColorPool []color.Color

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorForeground = p.Foreground
	ColorMuted = p.Muted
	ColorBackground = p.Background
	ColorSurface = p.Surface
	ColorSuccess = p.Success
	ColorWarning = p.Warning
	ColorError = p.Error

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	GridHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	GridCellStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	GridSelectedRowStyle = lipgloss.NewStyle().
		Background(ColorSurface).
		Foreground(ColorForeground).
		Bold(true)
	GridEmptyStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	LinkStyle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Underline(true)
	LinkOverflowStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	FooterStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	SearchPromptStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	OverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		Background(ColorBackground).
		Padding(0, 1)
	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorForeground)
	ModalHelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)
	FieldKeyStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Bold(true)
	CheckedItemStyle = lipgloss.NewStyle().
		Foreground(ColorSuccess)
	UncheckedItemStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	ChatPanelStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorSurface).
		PaddingLeft(1)
	ChatUserStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	ChatAssistantStyle = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)
	ChatTimeStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	ChatFailedStyle = lipgloss.NewStyle().
		Foreground(ColorError)
	ChatPendingStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	ChatChannelStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(ColorSurface).
		Foreground(ColorForeground)
	ChatChannelBusyStyle = lipgloss.NewStyle().
		Padding(0, 1).
		Background(ColorSurface).
		Foreground(ColorMuted).
		Faint(true)

	ToastInfoStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)
	ToastWarningStyle = ToastInfoStyle.BorderForeground(ColorWarning)
	ToastErrorStyle = ToastInfoStyle.BorderForeground(ColorError)
	ToastHintStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)

	ColorPool = []color.Color{
		ColorPrimary,
		ColorSecondary,
		ColorSuccess,
		ColorWarning,
		ColorError,
	}
}

// ColorForString returns a deterministic color for a given string.
// The same string always produces the same color.
func ColorForString(s string) color.Color {
	var hash uint32
	for _, c := range s {
		hash = hash*31 + uint32(c)
	}
	return ColorPool[hash%uint32(len(ColorPool))]
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	p, _ := GetPalette(DefaultTheme)
	SetTheme(p)
}

func colorHexPtr(c color.Color) *string {
	if c == nil {
		return nil
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return nil
	}
	hex := cc.Hex()
	return &hex
}

// GlamourStyle returns a Glamour style config for chat replies derived from
// the active theme. Document margins are dropped so replies fit the panel.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := colorHexPtr(ColorForeground)
	primary := colorHexPtr(ColorPrimary)
	secondary := colorHexPtr(ColorSecondary)
	muted := colorHexPtr(ColorMuted)

	var noMargin uint
	cfg.Document.Margin = &noMargin
	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = primary
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	cfg.Table.Color = fg

	return cfg
}
