package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/charactl/pkg/tui/styles"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "hello", Truncate("hello", 10))
	require.Equal(t, "hel…", Truncate("hello", 4))
	require.Equal(t, "", Truncate("hello", 0))
	// wide runes count as two cells
	require.LessOrEqual(t, lipgloss.Width(Truncate("插件管理插件管理", 5)), 5)
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "ab   ", PadRight("ab", 5))
	require.Equal(t, 5, lipgloss.Width(PadRight("abcdefgh", 5)))
}

func TestRenderKeybinds(t *testing.T) {
	out := RenderKeybinds([]Keybind{{Key: "q", Help: "quit"}, {Key: "r", Help: "restart"}}, styles.DefaultTheme())
	require.Contains(t, out, "quit")
	require.Contains(t, out, "[r]")
}

func TestFooterAndBox(t *testing.T) {
	f := NewFooter([]Keybind{{Key: "tab", Help: "switch"}}).WithWidth(40).WithStatus("connected")
	out := f.Render()
	require.Contains(t, out, "switch")
	require.Contains(t, out, "connected")

	box := NewBox("Processes").WithTitleRight("[s] start").WithContent("main").WithSize(40, 5).Render()
	require.Contains(t, box, "Processes")
	require.Contains(t, box, "main")
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Echo\n\nRepeats **everything** you say.\n", 60)
	require.Contains(t, out, "Echo")
	require.Contains(t, out, "everything")
	require.False(t, strings.Contains(out, "**"))
}
