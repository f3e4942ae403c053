package widgets

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Truncate cuts s to width terminal cells, ending in an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// PadRight truncates or pads s to exactly width cells.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	if pad := width - runewidth.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
