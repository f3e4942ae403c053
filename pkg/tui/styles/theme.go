package styles

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Primary lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color

	Title         lipgloss.Style
	TitleMuted    lipgloss.Style
	StatusRunning lipgloss.Style
	StatusPending lipgloss.Style
	StatusDead    lipgloss.Style
	KeybindKey    lipgloss.Style
	KeybindDesc   lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	Selected      lipgloss.Style
	Highlight     lipgloss.Style
}

func DefaultTheme() Theme {
	t := Theme{
		Primary: lipgloss.Color("#7D56F4"),
		Success: lipgloss.Color("#04B575"),
		Warning: lipgloss.Color("#FFB000"),
		Error:   lipgloss.Color("#FF4672"),
		Muted:   lipgloss.Color("#626262"),
		Text:    lipgloss.Color("#DDDDDD"),
	}
	t.Title = lipgloss.NewStyle().Bold(true).Foreground(t.Text)
	t.TitleMuted = lipgloss.NewStyle().Foreground(t.Muted)
	t.StatusRunning = lipgloss.NewStyle().Foreground(t.Success).Bold(true)
	t.StatusPending = lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
	t.StatusDead = lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	t.KeybindKey = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.KeybindDesc = lipgloss.NewStyle().Foreground(t.Muted)
	t.TabActive = lipgloss.NewStyle().Bold(true).Foreground(t.Text).Background(t.Primary).Padding(0, 1)
	t.TabInactive = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1)
	t.Selected = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Highlight = lipgloss.NewStyle().Foreground(t.Warning).Underline(true)
	return t
}

// PluginStateStyle colors a plugin state.
func (t Theme) PluginStateStyle(state int) lipgloss.Style {
	switch state {
	case 1:
		return t.StatusRunning
	case 2:
		return t.StatusPending
	case 3:
		return t.StatusDead
	default:
		return t.TitleMuted
	}
}
