package tui

import (
	lipgloss "charm.land/lipgloss/v2"
)

// composite draws fg over background with its top-left corner at (x, y).
func composite(background, fg string, x, y, z int) string {
	bgLayer := lipgloss.NewLayer(background)
	fgLayer := lipgloss.NewLayer(fg).X(max(x, 0)).Y(max(y, 0)).Z(z)
	return lipgloss.NewCompositor(bgLayer, fgLayer).Render()
}

// centered draws fg over background in the middle of a width x height screen.
func centered(background, fg string, width, height, z int) string {
	x := (width - lipgloss.Width(fg)) / 2
	y := (height - lipgloss.Height(fg)) / 2
	return composite(background, fg, x, y, z)
}
