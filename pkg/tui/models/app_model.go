package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/charactl/pkg/console"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/go-go-golems/charactl/pkg/tui"
	"github.com/go-go-golems/charactl/pkg/tui/styles"
	"github.com/go-go-golems/charactl/pkg/tui/widgets"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type tabID int

const (
	tabProcesses tabID = iota
	tabPlugins
	tabEvents
)

var tabNames = []string{"Processes", "Plugins", "Events"}

// DocsFunc fetches the raw markdown documentation of a plugin.
type DocsFunc func(ctx context.Context, uuid, path string) (string, error)

type AppOptions struct {
	Console       *console.Console
	Server        string
	ActionTimeout time.Duration
	ChartWindow   time.Duration
	// LabelHold is how long an action outcome stays on a card before the
	// gate label goes back to the neutral prompt.
	LabelHold time.Duration
	Docs      DocsFunc
}

// AppModel is the root program model. Every registry mutation happens here,
// on the bubbletea update goroutine.
type AppModel struct {
	opts AppOptions
	c    *console.Console

	width  int
	height int

	tab    tabID
	conn   tui.ConnectionEvent
	status string

	processes ProcessModel
	plugins   PluginModel
	events    EventLogModel
}

func NewAppModel(opts AppOptions) AppModel {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	if opts.ChartWindow <= 0 {
		opts.ChartWindow = time.Minute
	}
	if opts.LabelHold <= 0 {
		opts.LabelHold = 5 * time.Second
	}
	c := opts.Console
	return AppModel{
		opts:      opts,
		c:         c,
		conn:      tui.ConnectionEvent{State: monitor.StateConnecting.String()},
		processes: NewProcessModel(c.Processes, c.Gate, opts.ChartWindow),
		plugins:   NewPluginModel(c.Plugins),
		events:    NewEventLogModel(),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.loadProcesses(), m.loadPlugins(), m.processes.SpinnerTick())
}

func (m AppModel) loadProcesses() tea.Cmd {
	c, timeout := m.c, m.opts.ActionTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		set, err := c.FetchProcesses(ctx)
		return tui.ProcessesLoadedMsg{Set: set, Err: err}
	}
}

func (m AppModel) loadPlugins() tea.Cmd {
	c, timeout := m.c, m.opts.ActionTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		groups, err := c.FetchPluginGroups(ctx)
		return tui.PluginsLoadedMsg{Groups: groups, Err: err}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = v.Width, v.Height
		bodyH := maxInt(3, v.Height-m.chromeHeight())
		m.processes = m.processes.WithSize(v.Width, bodyH)
		m.plugins = m.plugins.WithSize(v.Width, bodyH)
		m.events = m.events.WithSize(v.Width, bodyH)
		return m, nil

	case tea.KeyMsg:
		if m.inputFocused() {
			return m.updateActive(v)
		}
		switch v.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.tab = (m.tab + 1) % tabID(len(tabNames))
			return m, nil
		case "shift+tab":
			m.tab = (m.tab + tabID(len(tabNames)) - 1) % tabID(len(tabNames))
			return m, nil
		case "1", "2", "3":
			m.tab = tabID(v.String()[0] - '1')
			return m, nil
		}
		return m.updateActive(v)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.processes, cmd = m.processes.Update(v)
		return m, cmd

	case tui.MonitorFrameMsg:
		h := m.c.HandleMessage(monitor.Message{Epoch: v.Frame.Epoch, Data: v.Frame.Data, ReceivedAt: v.Frame.ReceivedAt})
		if h.Err != nil {
			m.events = m.events.Append(tui.EventLogEntry{At: v.Frame.ReceivedAt, Kind: tui.EventKindSystem, Level: "warn", Epoch: v.Frame.Epoch, Text: "dropped monitor message: " + h.Err.Error()})
		}
		for _, u := range h.Updates {
			for _, e := range updateEntries(u) {
				e.Epoch = v.Frame.Epoch
				m.events = m.events.Append(e)
			}
		}
		return m, nil

	case tui.ConnectionStateMsg:
		m.conn = v.Event
		entry := tui.EventLogEntry{At: v.Event.At, Kind: tui.EventKindConnection, Level: "info", Epoch: v.Event.Epoch, Text: "monitor " + v.Event.State}
		if v.Event.Error != "" {
			entry.Level = "warn"
			entry.Text += ": " + v.Event.Error
		}
		m.events = m.events.Append(entry)
		return m, nil

	case tui.ProcessesLoadedMsg:
		err := v.Err
		if err == nil {
			err = m.c.InitProcesses(v.Set, time.Now())
		}
		m.processes = m.processes.WithLoadError(err)
		if err != nil {
			m.events = m.events.Append(m.systemEntry("error", err.Error()))
		}
		return m, nil

	case tui.PluginsLoadedMsg:
		err := v.Err
		if err == nil {
			err = m.c.InitPlugins(v.Groups)
		}
		m.plugins = m.plugins.WithLoadError(err)
		if err != nil {
			m.events = m.events.Append(m.systemEntry("error", err.Error()))
		}
		return m, nil

	case tui.ActionRequestMsg:
		return m.beginAction(v.Request)

	case tui.ActionFinishedMsg:
		m.c.FinishAction(v.Ticket, v.Ack, v.Err)
		st := m.c.Gate.Status(v.Ticket.Key)
		entry := tui.EventLogEntry{At: time.Now(), Kind: tui.EventKindAction, Level: "info", Epoch: m.conn.Epoch, Text: fmt.Sprintf("%s: %s", v.Ticket.Key, st.Label)}
		if st.Failed {
			entry.Level = "error"
		}
		m.events = m.events.Append(entry)
		m.status = entry.Text
		t := v.Ticket
		return m, tea.Tick(m.opts.LabelHold, func(time.Time) tea.Msg {
			return tui.ActionLabelExpiredMsg{Ticket: t}
		})

	case tui.ActionLabelExpiredMsg:
		m.c.Gate.Clear(v.Ticket)
		return m, nil

	case tui.DocsRequestMsg:
		return m.fetchDocs(v.Request)

	case tui.DocsLoadedMsg:
		m.plugins = m.plugins.WithDocs(v.Request, v.Body, v.Err)
		return m, nil

	case tui.EventLogAppendMsg:
		e := v.Entry
		if e.Epoch == 0 {
			e.Epoch = m.conn.Epoch
		}
		m.events = m.events.Append(e)
		return m, nil
	}
	return m, nil
}

func (m AppModel) beginAction(req tui.ActionRequest) (tea.Model, tea.Cmd) {
	t, ok := m.c.BeginAction(req.Name, req.Action)
	if !ok {
		m.status = fmt.Sprintf("%s: %s ignored, %s", req.Name, req.Action, m.c.Gate.Status(req.Name).Label)
		log.Debug().Str("component", "tui").Str("key", req.Name).Str("action", string(req.Action)).Msg("action ignored")
		return m, nil
	}
	m.status = fmt.Sprintf("%s: %s", req.Name, req.Action.Progressive())
	c, timeout := m.c, m.opts.ActionTimeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ack, err := c.RunAction(ctx, t)
		return tui.ActionFinishedMsg{Ticket: t, Ack: ack, Err: err}
	}
}

func (m AppModel) fetchDocs(req tui.DocsRequest) (tea.Model, tea.Cmd) {
	if req.Path == "" {
		m.plugins = m.plugins.WithDocs(req, "", errors.Errorf("%s has no documentation", req.Name))
		return m, nil
	}
	if m.opts.Docs == nil {
		m.plugins = m.plugins.WithDocs(req, "", errors.New("documentation is not available"))
		return m, nil
	}
	docs, timeout := m.opts.Docs, m.opts.ActionTimeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		body, err := docs(ctx, req.UUID, req.Path)
		return tui.DocsLoadedMsg{Request: req, Body: body, Err: err}
	}
}

func (m AppModel) inputFocused() bool {
	switch m.tab {
	case tabPlugins:
		return m.plugins.Searching() || m.plugins.DocsOpen()
	case tabEvents:
		return m.events.Searching()
	}
	return false
}

func (m AppModel) updateActive(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.tab {
	case tabProcesses:
		m.processes, cmd = m.processes.Update(k)
	case tabPlugins:
		m.plugins, cmd = m.plugins.Update(k)
	case tabEvents:
		m.events, cmd = m.events.Update(k)
	}
	return m, cmd
}

func updateEntries(u console.Update) []tui.EventLogEntry {
	var out []tui.EventLogEntry
	if u.Process != nil {
		for _, t := range u.Process.Transitions {
			e := tui.EventLogEntry{At: u.At, Kind: tui.EventKindProcess, Level: "info", Text: t.Name + " is alive"}
			if !t.Alive {
				e.Level, e.Text = "warn", t.Name+" stopped"
			}
			out = append(out, e)
		}
	}
	if u.Plugin != nil {
		for _, ch := range u.Plugin.Changed {
			level := "info"
			if ch.To != model.PluginWorking {
				level = "warn"
			}
			out = append(out, tui.EventLogEntry{At: u.At, Kind: tui.EventKindPlugin, Level: level, Text: fmt.Sprintf("plugin %s: %s → %s", ch.UUID, ch.From, ch.To)})
		}
	}
	return out
}

func (m AppModel) systemEntry(level, text string) tui.EventLogEntry {
	return tui.EventLogEntry{At: time.Now(), Kind: tui.EventKindSystem, Level: level, Epoch: m.conn.Epoch, Text: text}
}

func (m AppModel) chromeHeight() int {
	// header, tabs, blank, footer (separator, status, keybinds)
	return 6
}

func (m AppModel) View() string {
	theme := styles.DefaultTheme()

	connStyle := theme.StatusPending
	switch m.conn.State {
	case monitor.StateOpen.String():
		connStyle = theme.StatusRunning
	case monitor.StateClosed.String():
		connStyle = theme.StatusDead
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		theme.Title.Render("charactl"),
		"  ",
		connStyle.Render(styles.ConnectionIcon(m.conn.State)+" "+m.conn.State),
		theme.TitleMuted.Render(fmt.Sprintf(" epoch %d", m.conn.Epoch)),
		"  ",
		theme.TitleMuted.Render(m.opts.Server),
	)

	tabs := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tabID(i) == m.tab {
			tabs = append(tabs, theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, theme.TabInactive.Render(label))
		}
	}

	var body string
	switch m.tab {
	case tabProcesses:
		body = m.processes.View()
	case tabPlugins:
		body = m.plugins.View()
	case tabEvents:
		body = m.events.View()
	}

	footer := widgets.NewFooter(m.keybinds()).WithWidth(m.width).WithStatus(m.status).Render()
	return strings.Join([]string{header, lipgloss.JoinHorizontal(lipgloss.Top, tabs...), "", body, footer}, "\n")
}

func (m AppModel) keybinds() []widgets.Keybind {
	common := []widgets.Keybind{{Key: "tab", Help: "switch"}, {Key: "q", Help: "quit"}}
	switch m.tab {
	case tabProcesses:
		return append([]widgets.Keybind{
			{Key: "↑/↓", Help: "select"},
			{Key: "s", Help: "start"},
			{Key: "x", Help: "stop"},
			{Key: "r", Help: "restart"},
		}, common...)
	case tabPlugins:
		return append([]widgets.Keybind{
			{Key: "/", Help: "search"},
			{Key: "enter", Help: "docs"},
		}, common...)
	default:
		return append([]widgets.Keybind{
			{Key: "p/g/n/a/s", Help: "kinds"},
			{Key: "l", Help: "level"},
			{Key: "/", Help: "text"},
			{Key: "c", Help: "clear"},
		}, common...)
	}
}
