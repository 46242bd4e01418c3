// Package overlay computes on-screen placement for popups anchored to a
// trigger. Placement is a pure function of its inputs; measuring the anchor is
// the caller's job.
package overlay

// Rect is an anchor rectangle in viewport coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Left returns the left edge.
func (r Rect) Left() int { return r.X }

// Top returns the top edge.
func (r Rect) Top() int { return r.Y }

// Right returns the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Size is a width/height pair for popups and viewports.
type Size struct {
	Width, Height int
}

// Position is the top-left corner of a placed popup.
type Position struct {
	X, Y int
}

// Options holds the placement constants.
type Options struct {
	Gap    int // distance between anchor and popup
	Margin int // minimum distance from viewport edges
}

// DefaultOptions are the pixel-unit constants used by the web surface.
var DefaultOptions = Options{Gap: 4, Margin: 8}

// ComputePosition places popup below-left of anchor, flipping above when it
// would overflow the bottom edge and right-aligning when it would overflow the
// right edge. Coordinates that still overflow are clamped to the margin.
func ComputePosition(anchor Rect, popup Size, viewport Size, opts Options) Position {
	y := anchor.Bottom() + opts.Gap
	if y+popup.Height > viewport.Height-opts.Margin {
		y = anchor.Top() - opts.Gap - popup.Height
		if y < opts.Margin {
			y = opts.Margin
		}
	}

	x := anchor.Left()
	if x+popup.Width > viewport.Width-opts.Margin {
		x = anchor.Right() - popup.Width
		if x < opts.Margin {
			x = opts.Margin
		}
	}

	return Position{X: x, Y: y}
}
