package widgets

import (
	"strings"

	"github.com/go-go-golems/charactl/pkg/tui/styles"
)

type Keybind struct {
	Key  string
	Help string
}

func RenderKeybinds(binds []Keybind, theme styles.Theme) string {
	parts := make([]string, 0, len(binds))
	for _, b := range binds {
		parts = append(parts, theme.KeybindKey.Render("["+b.Key+"]")+" "+theme.KeybindDesc.Render(b.Help))
	}
	return strings.Join(parts, "  ")
}
