package grid

import (
	"net/url"
	"strconv"
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/overlay"
	"github.com/colonyops/harvest/internal/core/styles"
)

// LinksColumn is the virtual column listing a row's inline links. It is not
// part of the column store and always renders last.
const LinksColumn = "\x00links"

const (
	maxColumnWidth = 28
	minColumnWidth = 4
	cellPadding    = 1
)

// LinkFunc splits a record's links into inline and overflow.
type LinkFunc func(rec dataset.Record) (inline, overflow []string)

// Column is one rendered column.
type Column struct {
	Key   string
	X     int // first cell, relative to the grid origin
	Width int // content width, excluding padding
}

// Layout is the measured geometry of a rendered grid.
type Layout struct {
	Top     int // screen row of the header line
	Columns []Column
	Width   int
	Clipped int // columns that did not fit
}

// Measure lays out keys (plus the links column) for items within width.
func Measure(items []dataset.Record, keys []string, links LinkFunc, width, top int) Layout {
	l := Layout{Top: top}

	all := append(append([]string{}, keys...), LinksColumn)
	x := 0
	for i, key := range all {
		w := lipgloss.Width(header(key))
		for _, rec := range items {
			w = max(w, lipgloss.Width(cellText(rec, key, links)))
		}
		w = min(max(w, minColumnWidth), maxColumnWidth)

		span := w + 2*cellPadding
		if x+span > width {
			if len(l.Columns) == 0 && width > 2*cellPadding {
				// Always show something, even on a very narrow terminal.
				l.Columns = append(l.Columns, Column{Key: key, X: 0, Width: width - 2*cellPadding})
				x = width
				l.Clipped = len(all) - i - 1
				break
			}
			l.Clipped = len(all) - i
			break
		}
		l.Columns = append(l.Columns, Column{Key: key, X: x, Width: w})
		x += span
	}
	l.Width = x
	return l
}

// MeasureAnchor returns the screen rectangle of the cell for key in the row at
// screen position row (0 is the first visible row). When key is not rendered,
// the whole row is used.
func (l Layout) MeasureAnchor(row int, key string) overlay.Rect {
	y := l.Top + 1 + row
	for _, c := range l.Columns {
		if c.Key == key {
			return overlay.Rect{X: c.X, Y: y, Width: c.Width + 2*cellPadding, Height: 1}
		}
	}
	return overlay.Rect{X: 0, Y: y, Width: max(l.Width, 1), Height: 1}
}

// HeaderAnchor returns the screen rectangle of the header line.
func (l Layout) HeaderAnchor() overlay.Rect {
	return overlay.Rect{X: 0, Y: l.Top, Width: max(l.Width, 1), Height: 1}
}

// Render draws the header and the rows in [start, end). cursor is the page
// index of the selected row.
func Render(l Layout, items []dataset.Record, start, end, cursor int, links LinkFunc) string {
	lines := make([]string, 0, end-start+1)

	var hdr strings.Builder
	for _, c := range l.Columns {
		hdr.WriteString(pad(header(c.Key), c.Width))
	}
	lines = append(lines, styles.GridHeaderStyle.Render(hdr.String()))

	if len(items) == 0 {
		lines = append(lines, styles.GridEmptyStyle.Render(" No records"))
		return strings.Join(lines, "\n")
	}

	for i := start; i < end && i < len(items); i++ {
		var row strings.Builder
		for _, c := range l.Columns {
			row.WriteString(pad(cellText(items[i], c.Key, links), c.Width))
		}
		if i == cursor {
			lines = append(lines, styles.GridSelectedRowStyle.Render(row.String()))
			continue
		}
		lines = append(lines, styles.GridCellStyle.Render(row.String()))
	}
	return strings.Join(lines, "\n")
}

func header(key string) string {
	if key == LinksColumn {
		return styles.IconLink + " links"
	}
	return key
}

func cellText(rec dataset.Record, key string, links LinkFunc) string {
	if key != LinksColumn {
		return flatten(rec.Text(key))
	}
	if links == nil {
		return ""
	}

	inline, overflow := links(rec)
	hosts := make([]string, 0, len(inline)+1)
	for _, link := range inline {
		hosts = append(hosts, host(link))
	}
	if len(overflow) > 0 {
		hosts = append(hosts, "+"+strconv.Itoa(len(overflow)))
	}
	return strings.Join(hosts, " ")
}

func host(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	gap := max(width-lipgloss.Width(s), 0)
	p := strings.Repeat(" ", cellPadding)
	return p + s + strings.Repeat(" ", gap) + p
}
