// Package grid renders the dataset table and tracks the row cursor.
package grid

// Controller tracks the selected row and the first visible row of the page.
// It contains pure data logic with no Bubble Tea dependencies.
type Controller struct {
	rows    int // rows on the current page
	visible int // rows that fit on screen
	cursor  int
	offset  int
}

// NewController creates a grid controller.
func NewController() *Controller {
	return &Controller{}
}

// SetRows updates the page length, keeping the cursor in range.
func (c *Controller) SetRows(n int) {
	c.rows = max(n, 0)
	c.clamp()
}

// SetVisible updates how many rows fit on screen.
func (c *Controller) SetVisible(n int) {
	c.visible = max(n, 1)
	c.clamp()
}

// Reset moves the cursor back to the first row.
func (c *Controller) Reset() {
	c.cursor = 0
	c.offset = 0
}

// Move shifts the cursor by delta rows and reports whether it changed.
func (c *Controller) Move(delta int) bool {
	prev := c.cursor
	c.cursor += delta
	c.clamp()
	return c.cursor != prev
}

// Cursor returns the selected row index within the page.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Offset returns the first visible row index.
func (c *Controller) Offset() int {
	return c.offset
}

// Window returns the [start, end) range of rows to render.
func (c *Controller) Window() (int, int) {
	return c.offset, min(c.offset+max(c.visible, 1), c.rows)
}

func (c *Controller) clamp() {
	if c.rows == 0 {
		c.cursor, c.offset = 0, 0
		return
	}
	c.cursor = min(max(c.cursor, 0), c.rows-1)

	visible := max(c.visible, 1)
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+visible {
		c.offset = c.cursor - visible + 1
	}
	c.offset = min(max(c.offset, 0), max(c.rows-visible, 0))
}
