package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

const headerHeight = 3 // tab line, border, help line

func initialModel(results []*splist.Result) *Model {
	threadList := list.New(threadItems(results), list.NewDefaultDelegate(), 0, 0)
	threadList.Title = "Threads in " + shortSignature
	threadList.SetShowStatusBar(false)
	threadList.SetFilteringEnabled(true)
	threadList.SetShowHelp(false)

	return &Model{
		results:      results,
		currentTab:   SummaryTab,
		threadList:   threadList,
		detail:       viewport.New(0, 0),
		findingsView: viewport.New(0, 0),
		help:         help.New(),
		keys:         DefaultKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// let the list consume keys while its filter is being typed
		if m.currentTab == ThreadsTab && m.threadList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.threadList, cmd = m.threadList.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab1):
			m.switchTab(SummaryTab)
			return m, nil
		case key.Matches(msg, m.keys.Tab2):
			m.switchTab(ThreadsTab)
			return m, nil
		case key.Matches(msg, m.keys.Tab3):
			m.switchTab(FindingsTab)
			return m, nil
		case key.Matches(msg, m.keys.Left):
			m.switchTab(utils.GetPrevEnum(m.currentTab, FindingsTab))
			return m, nil
		case key.Matches(msg, m.keys.Right):
			m.switchTab(utils.GetNextEnum(m.currentTab, FindingsTab))
			return m, nil
		}

		return m.handleTabSpecificKeys(msg)
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	contentHeight := max(1, height-headerHeight)
	m.threadList.SetSize(width, contentHeight)
	m.detail.Width = width
	m.detail.Height = contentHeight
	m.findingsView.Width = width
	m.findingsView.Height = contentHeight
	m.findingsView.SetContent(RenderFindings(m.results, width))
}

func (m *Model) switchTab(tab TabType) {
	m.currentTab = tab
	m.showDetail = false
}

func (m *Model) handleTabSpecificKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentTab {
	case ThreadsTab:
		if m.showDetail {
			if key.Matches(msg, m.keys.Back) {
				m.showDetail = false
				return m, nil
			}
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		if key.Matches(msg, m.keys.Enter) {
			if item, ok := m.threadList.SelectedItem().(threadItem); ok {
				m.detail.SetContent(RenderThreadDetail(item.dump, item.thread, item.result, m.width))
				m.detail.GotoTop()
				m.showDetail = true
			}
			return m, nil
		}
		m.threadList, cmd = m.threadList.Update(msg)

	case FindingsTab:
		m.findingsView, cmd = m.findingsView.Update(msg)
	}

	return m, cmd
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.currentTab {
	case SummaryTab:
		content = RenderSummary(m.results, m.width, m.height-headerHeight)
	case ThreadsTab:
		if m.showDetail {
			content = m.detail.View()
		} else {
			content = m.threadList.View()
		}
	case FindingsTab:
		content = m.findingsView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		content,
		HelpBarStyle.Width(m.width).Render(m.help.View(m.keys)),
	)
}

func (m *Model) renderHeader() string {
	tabs := []string{}

	for i, name := range tabNames {
		style := TabInactiveStyle
		indicator := " "

		if TabType(i) == m.currentTab {
			style = TabActiveStyle
			indicator = "●"
		}

		tabs = append(tabs, style.Render(fmt.Sprintf("%s %s %s [%d]", indicator, tabIcons[i], name, i+1)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(tabs, "  "),
		strings.Repeat("─", m.width),
	)
}

var shortSignature = func() string {
	parts := strings.Split(splist.SignatureFrame, ".")
	return strings.Join(parts[len(parts)-2:], ".")
}()

func sanitize(s string) string {
	return utils.SanitizeTerminal(s)
}
