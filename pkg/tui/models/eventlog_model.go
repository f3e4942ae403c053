package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/charactl/pkg/tui"
	"github.com/go-go-golems/charactl/pkg/tui/styles"
	"github.com/go-go-golems/charactl/pkg/tui/widgets"
)

const defaultEventCapacity = 500

var levelNames = []string{"info", "warn", "error"}

// kindKeys toggles one event kind each.
var kindKeys = map[string]tui.EventKind{
	"p": tui.EventKindProcess,
	"g": tui.EventKindPlugin,
	"n": tui.EventKindConnection,
	"a": tui.EventKindAction,
	"s": tui.EventKindSystem,
}

func levelRank(level string) int {
	switch strings.ToLower(level) {
	case "error":
		return 2
	case "warn", "warning":
		return 1
	}
	return 0
}

// EventLogModel is the Events tab. It keeps a bounded history of what the
// console observed and narrows it by kind, minimum level and a text query.
// A rule is drawn wherever the monitor epoch changes, so reconnects stand out
// in the scrollback.
type EventLogModel struct {
	capacity int
	entries  []tui.EventLogEntry
	seen     map[tui.EventKind]int
	hidden   map[tui.EventKind]bool
	minLevel int
	query    string

	editing bool
	input   textinput.Model
	vp      viewport.Model

	width  int
	height int
}

func NewEventLogModel() EventLogModel {
	input := textinput.New()
	input.Placeholder = "text in events…"
	input.Prompt = "/ "
	input.CharLimit = 120

	return EventLogModel{
		capacity: defaultEventCapacity,
		seen:     map[tui.EventKind]int{},
		hidden:   map[tui.EventKind]bool{},
		input:    input,
		vp:       viewport.New(0, 0),
	}
}

func (m EventLogModel) WithSize(width, height int) EventLogModel {
	m.width, m.height = width, height
	m.vp.Width = maxInt(0, width)
	m.vp.Height = maxInt(3, height-m.chromeHeight())
	return m.render(false)
}

// Append records e and evicts the oldest entries past capacity. Kind counters
// keep counting evicted entries.
func (m EventLogModel) Append(e tui.EventLogEntry) EventLogModel {
	if e.Kind == "" {
		e.Kind = tui.EventKindSystem
	}
	m.seen[e.Kind]++
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.capacity; m.capacity > 0 && over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return m.render(true)
}

func (m EventLogModel) Len() int { return len(m.entries) }

func (m EventLogModel) Searching() bool { return m.editing }

func (m EventLogModel) KindHidden(k tui.EventKind) bool { return m.hidden[k] }

// Visible returns the retained entries that pass the current filters.
func (m EventLogModel) Visible() []tui.EventLogEntry {
	out := make([]tui.EventLogEntry, 0, len(m.entries))
	q := strings.ToLower(m.query)
	for _, e := range m.entries {
		if m.hidden[e.Kind] || levelRank(e.Level) < m.minLevel {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Text), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (m EventLogModel) Update(msg tea.Msg) (EventLogModel, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.editing {
		return m.updateQuery(k)
	}

	if kind, ok := kindKeys[k.String()]; ok {
		m.hidden[kind] = !m.hidden[kind]
		return m.render(true), nil
	}
	switch k.String() {
	case "l":
		m.minLevel = (m.minLevel + 1) % len(levelNames)
		return m.render(true), nil
	case "/":
		m.editing = true
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		m.input.Focus()
		return m, nil
	case "ctrl+l":
		m.query = ""
		m.minLevel = 0
		m.hidden = map[tui.EventKind]bool{}
		return m.render(true), nil
	case "c":
		m.entries = nil
		m.seen = map[tui.EventKind]int{}
		return m.render(true), nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(k)
	return m, cmd
}

func (m EventLogModel) updateQuery(k tea.KeyMsg) (EventLogModel, tea.Cmd) {
	switch k.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.query = strings.TrimSpace(m.input.Value())
		m.editing = false
		m.input.Blur()
		return m.render(true), nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m EventLogModel) View() string {
	theme := styles.DefaultTheme()

	kinds := make([]string, 0, len(tui.EventKinds))
	for _, kind := range tui.EventKinds {
		label := fmt.Sprintf("%s %d", kind, m.seen[kind])
		if m.hidden[kind] {
			kinds = append(kinds, theme.TitleMuted.Render(label))
		} else {
			kinds = append(kinds, label)
		}
	}
	header := fmt.Sprintf("Events %d/%d  %s  level≥%s", len(m.Visible()), len(m.entries), strings.Join(kinds, "  "), levelNames[m.minLevel])
	if m.query != "" {
		header += fmt.Sprintf("  text=%q", m.query)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(theme.TitleMuted.Render("p/g/n/a/s kinds · l level · / text · ctrl+l reset · c clear"))
	b.WriteString("\n\n")
	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}
	if len(m.entries) == 0 {
		b.WriteString("(no events yet)\n")
		return b.String()
	}
	b.WriteString(m.vp.View())
	return b.String()
}

func (m EventLogModel) chromeHeight() int {
	return 5
}

func (m EventLogModel) render(follow bool) EventLogModel {
	theme := styles.DefaultTheme()
	visible := m.Visible()
	lines := make([]string, 0, len(visible)+4)
	var epoch uint64
	for i, e := range visible {
		if e.Epoch != 0 && (i == 0 || e.Epoch != epoch) {
			lines = append(lines, theme.TitleMuted.Render(fmt.Sprintf("──── epoch %d ────", e.Epoch)))
		}
		epoch = e.Epoch
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			styles.LogLevelIcon(e.Level),
			e.At.Format("15:04:05"),
			theme.TitleMuted.Render(widgets.PadRight(string(e.Kind), 10)),
			e.Text,
		))
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.vp.GotoBottom()
	}
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
