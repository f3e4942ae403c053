package models

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/charactl/pkg/filter"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/go-go-golems/charactl/pkg/tui"
	"github.com/go-go-golems/charactl/pkg/tui/styles"
	"github.com/go-go-golems/charactl/pkg/tui/widgets"
)

type PluginSource interface {
	Initialized() bool
	Groups() []registry.PluginGroupView
}

type pluginRow struct {
	header  string
	plugin  model.PluginSnapshot
	matched []int
}

type PluginModel struct {
	width  int
	height int

	plugins PluginSource
	cursor  int
	loadErr string

	searching bool
	search    textinput.Model
	query     string

	docsOpen bool
	docsReq  tui.DocsRequest
	docs     viewport.Model
}

func NewPluginModel(plugins PluginSource) PluginModel {
	search := textinput.New()
	search.Placeholder = "search plugins…"
	search.Prompt = "/ "
	search.CharLimit = 100

	return PluginModel{plugins: plugins, search: search, docs: viewport.New(0, 0)}
}

func (m PluginModel) WithSize(width, height int) PluginModel {
	m.width, m.height = width, height
	m.docs.Width = maxInt(0, width-4)
	m.docs.Height = maxInt(3, height-4)
	return m
}

func (m PluginModel) WithLoadError(err error) PluginModel {
	m.loadErr = ""
	if err != nil {
		m.loadErr = err.Error()
	}
	return m
}

// WithDocs shows documentation for req, or the error that prevented it.
func (m PluginModel) WithDocs(req tui.DocsRequest, body string, err error) PluginModel {
	m.docsOpen = true
	m.docsReq = req
	if err != nil {
		m.docs.SetContent(styles.DefaultTheme().StatusDead.Render(styles.IconError + " " + err.Error()))
	} else {
		m.docs.SetContent(widgets.RenderMarkdown(body, maxInt(20, m.width-6)))
	}
	m.docs.GotoTop()
	return m
}

func (m PluginModel) Searching() bool { return m.searching }

func (m PluginModel) DocsOpen() bool { return m.docsOpen }

// Selected returns the highlighted plugin.
func (m PluginModel) Selected() (model.PluginSnapshot, bool) {
	rows := m.selectable()
	if len(rows) == 0 {
		return model.PluginSnapshot{}, false
	}
	return rows[clamp(m.cursor, 0, len(rows)-1)].plugin, true
}

func (m PluginModel) Update(msg tea.Msg) (PluginModel, tea.Cmd) {
	v, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.docsOpen {
		switch v.String() {
		case "esc", "q":
			m.docsOpen = false
			return m, nil
		}
		var cmd tea.Cmd
		m.docs, cmd = m.docs.Update(v)
		return m, cmd
	}

	if m.searching {
		switch v.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(v)
		m.query = strings.TrimSpace(m.search.Value())
		m.cursor = 0
		return m, cmd
	}

	n := len(m.selectable())
	switch v.String() {
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, n-1)
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, n-1)
	case "/":
		m.searching = true
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		m.search.Focus()
	case "ctrl+l":
		m.query = ""
		m.search.SetValue("")
		m.cursor = 0
	case "enter":
		p, ok := m.Selected()
		if !ok {
			return m, nil
		}
		req := tui.DocsRequest{UUID: p.UUID, Name: p.Name}
		if p.Docs != nil {
			req.Path = *p.Docs
		}
		return m, func() tea.Msg { return tui.DocsRequestMsg{Request: req} }
	}
	return m, nil
}

func (m PluginModel) rows() []pluginRow {
	groups := m.plugins.Groups()
	if m.query == "" {
		var rows []pluginRow
		for _, g := range groups {
			rows = append(rows, pluginRow{header: g.Name})
			for _, p := range g.Plugins {
				rows = append(rows, pluginRow{plugin: p.PluginSnapshot})
			}
		}
		return rows
	}

	var flat []model.PluginSnapshot
	for _, g := range groups {
		for _, p := range g.Plugins {
			flat = append(flat, p.PluginSnapshot)
		}
	}
	hits := filter.Search(m.query, flat)
	rows := make([]pluginRow, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, pluginRow{plugin: h.Plugin, matched: h.Matched})
	}
	return rows
}

func (m PluginModel) selectable() []pluginRow {
	var out []pluginRow
	for _, r := range m.rows() {
		if r.header == "" {
			out = append(out, r)
		}
	}
	return out
}

func (m PluginModel) View() string {
	theme := styles.DefaultTheme()

	if m.docsOpen {
		title := "Docs: " + m.docsReq.Name
		return widgets.NewBox(title).
			WithTitleRight("[↑/↓] scroll  [esc] back").
			WithContent(m.docs.View()).
			WithSize(m.width, m.docs.Height+3).
			WithFocus(true).
			Render()
	}

	if m.loadErr != "" && !m.plugins.Initialized() {
		return theme.StatusDead.Render(styles.IconError+" plugin list unavailable: ") + theme.TitleMuted.Render(m.loadErr)
	}

	var b strings.Builder
	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	} else if m.query != "" {
		b.WriteString(theme.TitleMuted.Render(fmt.Sprintf("search=%q  (ctrl+l to clear)", m.query)))
		b.WriteString("\n\n")
	}

	rows := m.rows()
	if len(rows) == 0 {
		if !m.plugins.Initialized() {
			b.WriteString(theme.TitleMuted.Render("loading plugins…"))
		} else {
			b.WriteString(theme.TitleMuted.Render("(no plugins)"))
		}
		return b.String()
	}

	nameWidth := 20
	descWidth := m.width - nameWidth - 24
	sel := 0
	cursor := m.cursor
	for _, r := range rows {
		if r.header != "" {
			b.WriteString(theme.Title.Render(r.header))
			b.WriteString("\n")
			continue
		}
		p := r.plugin
		pointer := "  "
		if sel == cursor {
			pointer = theme.Selected.Render(styles.IconRunning + " ")
		}
		sel++

		st := int(p.State)
		stateStyle := theme.PluginStateStyle(st)
		name := highlight(theme, widgets.PadRight(p.Name, nameWidth), r.matched, len(p.Name))
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			pointer,
			stateStyle.Render(styles.PluginStateIcon(st)),
			" ",
			name,
			" ",
			stateStyle.Render(widgets.PadRight(p.State.String(), 18)),
			" ",
			theme.TitleMuted.Render(widgets.Truncate(p.Description, descWidth)),
		)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// highlight marks matched byte offsets that fall inside the first limit bytes.
func highlight(theme styles.Theme, s string, matched []int, limit int) string {
	if len(matched) == 0 {
		return s
	}
	hit := map[int]bool{}
	for _, i := range matched {
		if i < limit {
			hit[i] = true
		}
	}
	var b strings.Builder
	for i, r := range s {
		if hit[i] {
			b.WriteString(theme.Highlight.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
