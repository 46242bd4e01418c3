// Package gallery renders the media gallery modal.
package gallery

import (
	"fmt"
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/styles"
)

const (
	widthPct = 70
	minWidth = 40
	maxRows  = 10
)

// Source is the gallery state the modal renders.
type Source interface {
	Assets() []dataset.MediaAsset
	Index() int
	Counts() (images, videos int)
}

// Render draws the gallery modal sized for a termWidth x termHeight screen.
// The asset list scrolls to keep the active asset visible.
func Render(src Source, title string, termWidth, termHeight int) string {
	width := min(max(termWidth*widthPct/100, minWidth), max(termWidth-4, 1))
	inner := max(width-6, 1) // border + padding

	assets := src.Assets()
	index := src.Index()
	images, videos := src.Counts()

	header := styles.ModalTitleStyle.Render(fmt.Sprintf("%s Gallery", styles.IconImage))
	if title != "" {
		header += styles.ChatTimeStyle.Render(" · " + title)
	}
	summary := styles.FooterStyle.Render(fmt.Sprintf("%d of %d  ·  %d images, %d videos", index+1, len(assets), images, videos))

	var current string
	if index < len(assets) {
		a := assets[index]
		current = lipgloss.JoinVertical(lipgloss.Left,
			styles.FieldKeyStyle.Render(strings.ToUpper(string(a.Kind))),
			styles.LinkStyle.Render(ansi.Wrap(a.URL, inner, "/?&")),
		)
	}

	rows := min(maxRows, max(termHeight-14, 1))
	start, end := window(len(assets), index, rows)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		a := assets[i]
		icon := styles.IconImage
		if a.Kind == dataset.MediaVideo {
			icon = styles.IconVideo
		}
		line := ansi.Truncate(fmt.Sprintf("%2d %s %s", i+1, icon, a.URL), inner, "…")
		if i == index {
			line = styles.GridSelectedRowStyle.Render(line)
		} else {
			line = styles.GridCellStyle.Render(line)
		}
		lines = append(lines, line)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		summary,
		"",
		current,
		"",
		strings.Join(lines, "\n"),
		styles.ModalHelpStyle.Render("[←/→] browse  [enter] open  [esc] close"),
	)

	return styles.ModalStyle.Width(width).Render(body)
}

// window returns the [start, end) slice of n rows that keeps cursor visible
// within size rows, centering it where possible.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := min(max(cursor-size/2, 0), n-size)
	return start, start + size
}
