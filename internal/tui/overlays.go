package tui

import (
	"fmt"
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/harvest/internal/core/columns"
	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/styles"
	"github.com/colonyops/harvest/internal/core/viewer"
)

const (
	overlayMaxWidth  = 72
	overlayMaxValue  = 48
	overlayMaxRows   = 14
	overlayMinHeight = 3
)

// renderLinksOverlay lists every link of a record. The first inline links are
// the ones the row shows; the rest are marked as overflow.
func renderLinksOverlay(inline, overflow []string, cursor int) string {
	title := styles.ModalTitleStyle.Render(fmt.Sprintf("%s Links (%d)", styles.IconLink, len(inline)+len(overflow)))

	all := append(append([]string{}, inline...), overflow...)
	start, end := overlayWindow(len(all), cursor)
	lines := []string{title}
	for i := start; i < end; i++ {
		text := ansi.Truncate(all[i], overlayMaxWidth-4, "…")
		style := styles.LinkStyle
		if i >= len(inline) {
			style = styles.LinkOverflowStyle
		}
		prefix := "  "
		if i == cursor {
			prefix = "> "
			style = style.Bold(true)
		}
		lines = append(lines, prefix+style.Render(text))
	}
	if len(all) == 0 {
		lines = append(lines, styles.GridEmptyStyle.Render("No links"))
	}
	lines = append(lines, styles.ModalHelpStyle.Render("[enter] open  [esc] close"))

	return styles.OverlayStyle.Render(strings.Join(lines, "\n"))
}

// renderRecordOverlay lists every attribute of a record.
func renderRecordOverlay(rec dataset.Record, offset int) string {
	title := styles.ModalTitleStyle.Render("Record " + rec.ID)

	keyWidth := 0
	for _, k := range rec.Keys {
		keyWidth = max(keyWidth, lipgloss.Width(k))
	}
	keyWidth = min(keyWidth, overlayMaxWidth-overlayMaxValue-4)

	start, end := overlayWindow(len(rec.Keys), offset)
	lines := []string{title}
	for _, k := range rec.Keys[start:end] {
		key := ansi.Truncate(k, keyWidth, "…")
		key += strings.Repeat(" ", keyWidth-lipgloss.Width(key))
		val := ansi.Truncate(flattenValue(rec.Text(k)), overlayMaxValue, "…")
		lines = append(lines, styles.FieldKeyStyle.Render(key)+"  "+val)
	}
	if len(rec.Keys) == 0 {
		lines = append(lines, styles.GridEmptyStyle.Render("No attributes"))
	}

	help := "[esc] close"
	if len(rec.Keys) > overlayMaxRows {
		help = fmt.Sprintf("[j/k] scroll %d-%d of %d  %s", start+1, end, len(rec.Keys), help)
	}
	lines = append(lines, styles.ModalHelpStyle.Render(help))

	return styles.OverlayStyle.Render(strings.Join(lines, "\n"))
}

// renderColumnsOverlay is the column picker checklist.
func renderColumnsOverlay(specs []columns.Spec, cursor int) string {
	title := styles.ModalTitleStyle.Render("Columns")

	start, end := overlayWindow(len(specs), cursor)
	lines := []string{title}
	for i := start; i < end; i++ {
		s := specs[i]
		box := styles.UncheckedItemStyle.Render(styles.IconSquare)
		if s.Visible {
			box = styles.CheckedItemStyle.Render(styles.IconCheck)
		}
		prefix := "  "
		if i == cursor {
			prefix = "> "
		}
		lines = append(lines, prefix+box+" "+ansi.Truncate(s.Key, overlayMaxWidth-8, "…"))
	}
	if len(specs) == 0 {
		lines = append(lines, styles.GridEmptyStyle.Render("No columns"))
	}
	lines = append(lines, styles.ModalHelpStyle.Render("[space] toggle  [r] reset  [esc] close"))

	return styles.OverlayStyle.Render(strings.Join(lines, "\n"))
}

// overlayWindow returns the [start, end) range of n rows that keeps cursor
// visible within overlayMaxRows.
func overlayWindow(n, cursor int) (int, int) {
	if n <= overlayMaxRows {
		return 0, n
	}
	start := min(max(cursor-overlayMaxRows+1, 0), n-overlayMaxRows)
	return start, start + overlayMaxRows
}

// overlayItems returns how many selectable rows the overlay of kind has.
func (m Model) overlayItems(kind viewer.OverlayKind) int {
	switch kind {
	case viewer.OverlayLinks:
		rec, ok := m.viewer.Active()
		if !ok {
			return 0
		}
		inline, overflow := m.links.Links(rec)
		return len(inline) + len(overflow)
	case viewer.OverlayRecord:
		rec, ok := m.viewer.Active()
		if !ok {
			return 0
		}
		return len(rec.Keys)
	case viewer.OverlayColumns:
		return len(m.columns.Specs())
	}
	return 0
}

// overlayContent renders the popup for kind.
func (m Model) overlayContent(kind viewer.OverlayKind) string {
	switch kind {
	case viewer.OverlayLinks:
		rec, _ := m.viewer.Active()
		inline, overflow := m.links.Links(rec)
		return renderLinksOverlay(inline, overflow, m.overlayCursor)
	case viewer.OverlayRecord:
		rec, _ := m.viewer.Active()
		return renderRecordOverlay(rec, m.overlayCursor)
	case viewer.OverlayColumns:
		return renderColumnsOverlay(m.columns.Specs(), m.overlayCursor)
	}
	return ""
}

func flattenValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
