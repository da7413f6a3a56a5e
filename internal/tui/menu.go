package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuItem struct {
	title string
	desc  string
	view  viewState
	quit  bool
}

var menuItems = []menuItem{
	{title: "Create a timer", desc: "Guided setup: name, schedule, script", view: viewCreate},
	{title: "Browse timers", desc: "List, manage, trigger or delete timers", view: viewTimers},
	{title: "Backup and restore", desc: "Archive the repository or bring one back", view: viewBackup},
	{title: "Quit", quit: true},
}

type menuModel struct {
	width  int
	height int
	cursor int

	userScope bool
	baseDir   string
	unitDir   string
}

func newMenuModel(userScope bool, baseDir, unitDir string) menuModel {
	return menuModel{userScope: userScope, baseDir: baseDir, unitDir: unitDir}
}

func (m *menuModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m menuModel) update(msg tea.Msg) (menuModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.Enter):
		return m, m.choose(m.cursor)
	default:
		// Number keys jump straight to an item.
		if s := keyMsg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if n := int(s[0] - '1'); n < len(menuItems) {
				m.cursor = n
				return m, m.choose(n)
			}
		}
	}
	return m, nil
}

func (m menuModel) choose(i int) tea.Cmd {
	item := menuItems[i]
	if item.quit {
		return tea.Quit
	}
	return func() tea.Msg { return switchViewMsg{view: item.view} }
}

func (m menuModel) view() string {
	w := m.width - 4

	scope := "system"
	if m.userScope {
		scope = "user"
	}

	var rows []string
	rows = append(rows, titleStyle.Render("cronie"))
	rows = append(rows, mutedStyle.Render("Interactive manager for systemd timers"))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  scope  %s", scope)))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  jobs   %s", m.baseDir)))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  units  %s", m.unitDir)))
	rows = append(rows, "")

	for i, item := range menuItems {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%s%d. %s", cursor, i+1, item.title))
		if item.desc != "" {
			line += mutedStyle.Render("  " + item.desc)
		}
		rows = append(rows, line)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  1-4: jump  enter: select  q: quit"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
