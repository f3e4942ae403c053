package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/charactl/pkg/tui/styles"
)

// Footer renders a separator and a centered keybindings bar.
type Footer struct {
	Keybinds []Keybind
	Status   string
	Width    int
	theme    styles.Theme
}

func NewFooter(keybinds []Keybind) Footer {
	return Footer{
		Keybinds: keybinds,
		theme:    styles.DefaultTheme(),
	}
}

func (f Footer) WithWidth(w int) Footer {
	f.Width = w
	return f
}

// WithStatus sets a one-line status message shown above the keybinds.
func (f Footer) WithStatus(s string) Footer {
	f.Status = s
	return f
}

func (f Footer) Render() string {
	theme := f.theme

	width := f.Width
	if width <= 0 {
		width = 80
	}
	separator := lipgloss.NewStyle().Foreground(theme.Muted).Render(strings.Repeat("━", width))

	keybindsLine := RenderKeybinds(f.Keybinds, theme)
	padding := (width - lipgloss.Width(keybindsLine)) / 2
	if padding < 0 {
		padding = 0
	}
	paddedKeybinds := lipgloss.NewStyle().PaddingLeft(padding).Render(keybindsLine)

	lines := []string{separator}
	if f.Status != "" {
		lines = append(lines, theme.TitleMuted.Render(Truncate(f.Status, width)))
	}
	lines = append(lines, paddedKeybinds)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
