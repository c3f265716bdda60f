package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

// ErrAborted is returned by Run when the user quits before the analysis ends.
var ErrAborted = errors.New("analysis aborted")

// WorkFunc runs the analysis. ctx is cancelled when the user aborts;
// progressFor hands out one observer per dump.
type WorkFunc func(ctx context.Context, progressFor func(dump string) splist.Progress) ([]*splist.Result, error)

type dumpProgress struct {
	overall    int
	overallMax int
	phase      string
	current    int
	currentMax int
	status     string
}

func (p dumpProgress) fraction() float64 {
	if p.overallMax > 0 && p.overall >= p.overallMax {
		return 1
	}
	if p.currentMax <= 0 {
		return 0
	}
	return min(float64(p.current)/float64(p.currentMax), 1)
}

type progressMsg struct {
	dump  string
	state dumpProgress
}

type doneMsg struct {
	results []*splist.Result
	err     error
}

// programProgress forwards engine progress into the running program.
// Per-thread updates are sent only when the visible percentage moves.
type programProgress struct {
	send       func(tea.Msg)
	dump       string
	state      dumpProgress
	overallMin int
	currentMin int
	lastPct    int
}

func (p *programProgress) SetOverallRange(min, max int) {
	p.overallMin = min
	p.state.overallMax = max - min
}

func (p *programProgress) SetOverall(position int, status string) {
	p.state.overall = position - p.overallMin
	p.state.phase = status
	p.publish()
}

func (p *programProgress) SetCurrentRange(min, max int) {
	p.currentMin = min
	p.state.currentMax = max - min
	p.state.current = 0
	p.lastPct = -1
}

func (p *programProgress) SetCurrent(position int, status string) {
	p.state.current = position - p.currentMin
	p.state.status = status

	pct := int(p.state.fraction() * 100)
	if pct == p.lastPct && p.state.current != p.state.currentMax {
		return
	}
	p.lastPct = pct
	p.publish()
}

func (p *programProgress) publish() {
	p.send(progressMsg{dump: p.dump, state: p.state})
}

type runModel struct {
	dumps   []string
	states  map[string]dumpProgress
	bar     progress.Model
	start   tea.Cmd
	cancel  context.CancelFunc
	aborted bool
	browser *Model
	keys    KeyMap
	width   int
	height  int
	err     error
}

func newRunModel(dumps []string) *runModel {
	return &runModel{
		dumps:  dumps,
		states: make(map[string]dumpProgress, len(dumps)),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: func() {},
		keys:   DefaultKeyMap(),
	}
}

func (m *runModel) Init() tea.Cmd {
	return m.start
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.browser != nil {
		_, cmd := m.browser.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(msg.Width-20, 60))

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.aborted = true
			m.cancel()
			return m, tea.Quit
		}

	case progressMsg:
		m.states[msg.dump] = msg.state

	case doneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.browser = initialModel(msg.results)
		if m.width > 0 {
			m.browser.resize(m.width, m.height)
		}
	}

	return m, nil
}

func (m *runModel) View() string {
	if m.browser != nil {
		return m.browser.View()
	}

	var sb strings.Builder
	sb.WriteString(utils.TitleStyle.Render("🔍 Analyzing dumps") + "\n\n")

	for _, dump := range m.dumps {
		state := m.states[dump]
		phase := state.phase
		if phase == "" {
			phase = "Loading"
		}

		sb.WriteString(sectionStyle.Render(sanitize(dump)) + "\n")
		sb.WriteString(fmt.Sprintf("  [%d/%d] %s\n", state.overall, max(state.overallMax, 2), phase))
		sb.WriteString("  " + m.bar.ViewAs(state.fraction()) + "\n")
		if state.status != "" {
			sb.WriteString("  " + utils.MutedStyle.Render(sanitize(state.status)) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(utils.MutedStyle.Render("q to abort"))
	return sb.String()
}

// Run shows analysis progress while work runs, then opens the report browser
// over its results. An error from work is returned after the program exits.
func Run(ctx context.Context, dumps []string, work WorkFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newRunModel(dumps)
	model.cancel = cancel
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	model.start = func() tea.Msg {
		results, err := work(ctx, func(dump string) splist.Progress {
			return &programProgress{send: program.Send, dump: dump, lastPct: -1}
		})
		return doneMsg{results: results, err: err}
	}

	if _, err := program.Run(); err != nil {
		return err
	}
	if model.aborted {
		return ErrAborted
	}
	return model.err
}
