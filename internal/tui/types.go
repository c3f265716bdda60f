package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/mabhi256/hangdiag/internal/splist"
)

type Model struct {
	// Data
	results []*splist.Result

	// UI State
	currentTab TabType
	width      int
	height     int

	threadList   list.Model
	detail       viewport.Model
	showDetail   bool
	findingsView viewport.Model
	help         help.Model

	// Key bindings
	keys KeyMap
}

type TabType int

const (
	SummaryTab TabType = iota
	ThreadsTab
	FindingsTab
)

var tabNames = []string{"Summary", "Threads", "Findings"}
var tabIcons = []string{"📊", "🧵", "⚠️"}

type KeyMap struct {
	Tab1  key.Binding
	Tab2  key.Binding
	Tab3  key.Binding
	Left  key.Binding
	Right key.Binding
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
}

func k(keys []string, help, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(help, desc),
	)
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:  k([]string{"1"}, "1", "summary"),
		Tab2:  k([]string{"2"}, "2", "threads"),
		Tab3:  k([]string{"3"}, "3", "findings"),
		Left:  k([]string{"left", "h"}, "←/h", "prev tab"),
		Right: k([]string{"right", "l"}, "→/l", "next tab"),
		Up:    k([]string{"up", "k"}, "↑/k", "up"),
		Down:  k([]string{"down", "j"}, "↓/j", "down"),
		Enter: k([]string{"enter"}, "enter", "details"),
		Back:  k([]string{"esc"}, "esc", "back"),
		Quit:  k([]string{"q", "ctrl+c"}, "q", "quit"),
	}
}

func (km KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{km.Left, km.Right, km.Enter, km.Back, km.Quit}
}

func (km KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{km.Tab1, km.Tab2, km.Tab3},
		{km.Left, km.Right, km.Up, km.Down},
		{km.Enter, km.Back, km.Quit},
	}
}
