package styles

import (
	"image/color"
	"maps"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    color.Color
	Secondary  color.Color
	Foreground color.Color
	Muted      color.Color
	Background color.Color
	Surface    color.Color
	Success    color.Color
	Warning    color.Color
	Error      color.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "harvest"

// seed holds the hand-picked colors of a theme. Surface and Muted are
// derived by blending the foreground into the background so every theme
// gets a consistent contrast ladder for selected rows and secondary text.
type seed struct {
	bg, fg             string
	primary, secondary string
	success, warning   string
	err                string
}

const (
	surfaceBlend = 0.12
	mutedBlend   = 0.45
)

var seeds = map[string]seed{
	"harvest": {
		bg: "#1d1f21", fg: "#e6dcc8",
		primary: "#e0a458", secondary: "#8fb8a8",
		success: "#a3be8c", warning: "#ebcb8b", err: "#d9705f",
	},
	"tokyo-night": {
		bg: "#1a1b26", fg: "#c0caf5",
		primary: "#7aa2f7", secondary: "#7dcfff",
		success: "#9ece6a", warning: "#e0af68", err: "#f7768e",
	},
	"gruvbox": {
		bg: "#282828", fg: "#ebdbb2",
		primary: "#83a598", secondary: "#8ec07c",
		success: "#b8bb26", warning: "#fabd2f", err: "#fb4934",
	},
	"nord": {
		bg: "#2e3440", fg: "#eceff4",
		primary: "#88c0d0", secondary: "#81a1c1",
		success: "#a3be8c", warning: "#ebcb8b", err: "#bf616a",
	},
	"paper": {
		bg: "#fafaf7", fg: "#2b2b2b",
		primary: "#3b6ea5", secondary: "#2f8f83",
		success: "#3f7f3a", warning: "#a86b00", err: "#b3261e",
	},
}

func hex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("styles: bad theme color " + s)
	}
	return c
}

func (s seed) palette() Palette {
	bg, fg := hex(s.bg), hex(s.fg)
	return Palette{
		Primary:    hex(s.primary),
		Secondary:  hex(s.secondary),
		Foreground: fg,
		Muted:      bg.BlendLab(fg, mutedBlend).Clamped(),
		Background: bg,
		Surface:    bg.BlendLab(fg, surfaceBlend).Clamped(),
		Success:    hex(s.success),
		Warning:    hex(s.warning),
		Error:      hex(s.err),
	}
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	return slices.Sorted(maps.Keys(seeds))
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	s, ok := seeds[name]
	if !ok {
		return Palette{}, false
	}
	return s.palette(), true
}
