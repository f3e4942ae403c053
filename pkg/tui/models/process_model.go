package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/charactl/pkg/gate"
	"github.com/go-go-golems/charactl/pkg/metrics"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/go-go-golems/charactl/pkg/tui"
	"github.com/go-go-golems/charactl/pkg/tui/styles"
)

type ProcessSource interface {
	Initialized() bool
	Views() []registry.ProcessView
	History(name string, now time.Time, window time.Duration) (cpu, mem []metrics.Point)
}

type StatusSource interface {
	Status(key string) gate.Status
}

// ProcessModel renders one card per process and turns s/x/r into action
// requests for the selected one.
type ProcessModel struct {
	width  int
	height int

	procs  ProcessSource
	status StatusSource
	window time.Duration
	now    func() time.Time

	cursor  int
	loadErr string

	spinner spinner.Model
	cpuBar  progress.Model
	memBar  progress.Model
}

func NewProcessModel(procs ProcessSource, status StatusSource, window time.Duration) ProcessModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return ProcessModel{
		procs:   procs,
		status:  status,
		window:  window,
		now:     time.Now,
		spinner: sp,
		cpuBar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		memBar:  progress.New(progress.WithSolidFill("#04B575"), progress.WithoutPercentage()),
	}
}

func (m ProcessModel) WithSize(width, height int) ProcessModel {
	m.width, m.height = width, height
	bar := width / 4
	if bar < 10 {
		bar = 10
	}
	if bar > 30 {
		bar = 30
	}
	m.cpuBar.Width = bar
	m.memBar.Width = bar
	return m
}

func (m ProcessModel) WithLoadError(err error) ProcessModel {
	m.loadErr = ""
	if err != nil {
		m.loadErr = err.Error()
	}
	return m
}

func (m ProcessModel) WithClock(now func() time.Time) ProcessModel {
	m.now = now
	return m
}

func (m ProcessModel) SpinnerTick() tea.Cmd {
	return m.spinner.Tick
}

// Selected returns the name of the highlighted process, if any.
func (m ProcessModel) Selected() string {
	views := m.procs.Views()
	if len(views) == 0 {
		return ""
	}
	return views[clamp(m.cursor, 0, len(views)-1)].Name
}

func (m ProcessModel) Update(msg tea.Msg) (ProcessModel, tea.Cmd) {
	switch v := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(v)
		return m, cmd
	case tea.KeyMsg:
		n := len(m.procs.Views())
		switch v.String() {
		case "up", "k":
			m.cursor = clamp(m.cursor-1, 0, n-1)
			return m, nil
		case "down", "j":
			m.cursor = clamp(m.cursor+1, 0, n-1)
			return m, nil
		case "s":
			return m, m.request(model.ActionStart)
		case "x":
			return m, m.request(model.ActionStop)
		case "r":
			return m, m.request(model.ActionRestart)
		}
	}
	return m, nil
}

func (m ProcessModel) request(action model.Action) tea.Cmd {
	name := m.Selected()
	if name == "" {
		return nil
	}
	return func() tea.Msg {
		return tui.ActionRequestMsg{Request: tui.ActionRequest{Name: name, Action: action}}
	}
}

func (m ProcessModel) View() string {
	theme := styles.DefaultTheme()

	if m.loadErr != "" && !m.procs.Initialized() {
		return theme.StatusDead.Render(styles.IconError+" process list unavailable: ") + theme.TitleMuted.Render(m.loadErr)
	}
	views := m.procs.Views()
	if len(views) == 0 {
		return theme.TitleMuted.Render(m.spinner.View() + " loading processes…")
	}

	maxMem := 0.0
	for _, v := range views {
		if v.Mem > maxMem {
			maxMem = v.Mem
		}
	}

	now := m.now()
	cursor := clamp(m.cursor, 0, len(views)-1)
	cards := make([]string, 0, len(views))
	for i, v := range views {
		cards = append(cards, m.renderCard(theme, v, i == cursor, maxMem, now))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m ProcessModel) renderCard(theme styles.Theme, v registry.ProcessView, selected bool, maxMem float64, now time.Time) string {
	statusStyle := theme.StatusRunning
	if !v.Alive {
		statusStyle = theme.StatusDead
	}

	pointer := "  "
	name := theme.Title.Render(v.Name)
	if selected {
		pointer = theme.Selected.Render(styles.IconRunning + " ")
		name = theme.Selected.Render(v.Name)
	}

	gateLabel := theme.TitleMuted.Render(gate.IdleLabel)
	if m.status != nil {
		st := m.status.Status(v.Name)
		switch {
		case st.Busy:
			gateLabel = theme.StatusPending.Render(m.spinner.View() + " " + st.Label)
		case st.Failed:
			gateLabel = theme.StatusDead.Render(st.Label)
		case st.Label != "":
			gateLabel = theme.TitleMuted.Render(st.Label)
		}
	}

	head := lipgloss.JoinHorizontal(lipgloss.Center,
		pointer,
		statusStyle.Render(styles.StatusIcon(v.Alive)),
		" ",
		name,
		"  ",
		theme.TitleMuted.Render(fmt.Sprintf("[%s]  pid %s", v.Role, v.PID)),
		"  ",
		gateLabel,
	)

	cpuPts, memPts := m.procs.History(v.Name, now, m.window)
	spark := m.width - m.cpuBar.Width - 24
	if spark < 0 {
		spark = 0
	}
	if spark > 60 {
		spark = 60
	}

	memRatio := 0.0
	if maxMem > 0 {
		memRatio = v.Mem / maxMem
	}
	cpuLine := fmt.Sprintf("    cpu %s %7.1f%%  %s", m.cpuBar.ViewAs(clampF(v.CPU/100, 0, 1)), v.CPU, metrics.Sparkline(cpuPts, spark))
	memLine := fmt.Sprintf("    mem %s %6.1fMB  %s", m.memBar.ViewAs(clampF(memRatio, 0, 1)), v.Mem, metrics.Sparkline(memPts, spark))

	return strings.Join([]string{head, cpuLine, memLine, ""}, "\n")
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
