package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePosition(t *testing.T) {
	viewport := Size{Width: 800, Height: 600}
	popup := Size{Width: 320, Height: 400}

	tests := []struct {
		name   string
		anchor Rect
		popup  Size
		want   Position
	}{
		{
			name:   "near bottom flips above anchor",
			anchor: Rect{X: 100, Y: 580, Width: 80, Height: 20},
			popup:  popup,
			want:   Position{X: 100, Y: 176},
		},
		{
			name:   "near right edge right-aligns to anchor",
			anchor: Rect{X: 750, Y: 100, Width: 40, Height: 20},
			popup:  popup,
			want:   Position{X: 470, Y: 124},
		},
		{
			name:   "ample room uses below-left",
			anchor: Rect{X: 200, Y: 150, Width: 80, Height: 20},
			popup:  popup,
			want:   Position{X: 200, Y: 174},
		},
		{
			name:   "flipped placement clamps to top margin",
			anchor: Rect{X: 10, Y: 300, Width: 80, Height: 20},
			popup:  Size{Width: 100, Height: 590},
			want:   Position{X: 10, Y: 8},
		},
		{
			name:   "right-aligned placement clamps to left margin",
			anchor: Rect{X: 20, Y: 10, Width: 10, Height: 10},
			popup:  Size{Width: 790, Height: 50},
			want:   Position{X: 8, Y: 24},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputePosition(tt.anchor, tt.popup, viewport, DefaultOptions)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePosition_isPure(t *testing.T) {
	anchor := Rect{X: 640, Y: 560, Width: 120, Height: 24}
	popup := Size{Width: 320, Height: 400}
	viewport := Size{Width: 800, Height: 600}

	first := ComputePosition(anchor, popup, viewport, DefaultOptions)
	for range 10 {
		assert.Equal(t, first, ComputePosition(anchor, popup, viewport, DefaultOptions))
	}
}

func TestComputePosition_terminalCells(t *testing.T) {
	// Cell units as used by the TUI: no gap, one-cell margin.
	opts := Options{Gap: 0, Margin: 1}

	got := ComputePosition(Rect{X: 4, Y: 20, Width: 30, Height: 1}, Size{Width: 40, Height: 8}, Size{Width: 120, Height: 24}, opts)
	assert.Equal(t, Position{X: 4, Y: 12}, got)
}
