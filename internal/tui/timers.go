package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cronie-dev/cronie/internal/repo"
	"github.com/cronie-dev/cronie/internal/timer"
)

type timersModel struct {
	repo   *repo.Repository
	width  int
	height int

	rows    []timer.Timer
	cursor  int
	loaded  bool
	loadErr error

	formActive bool
	form       *huh.Form

	confirmAnswer *string
	deleteTarget  string
}

func newTimersModel(r *repo.Repository) timersModel {
	answer := ""
	return timersModel{repo: r, confirmAnswer: &answer}
}

func (t *timersModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timersModel) refresh() tea.Cmd {
	r := t.repo
	return func() tea.Msg {
		rows, err := r.List(context.Background())
		return timersLoadedMsg{rows: rows, err: err}
	}
}

func (t timersModel) update(msg tea.Msg) (timersModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case timersLoadedMsg:
		t.rows = msg.rows
		t.loadErr = msg.err
		t.loaded = true
		if t.cursor >= len(t.rows) {
			t.cursor = max(0, len(t.rows)-1)
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.rows)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(t.rows) > 0 {
				name := t.rows[t.cursor].Name
				return t, func() tea.Msg { return manageOpenMsg{name: name} }
			}
		case key.Matches(msg, keys.New):
			return t, func() tea.Msg { return switchViewMsg{view: viewCreate} }
		case key.Matches(msg, keys.Delete):
			if len(t.rows) > 0 {
				return t.showDeleteConfirm(t.rows[t.cursor].Name)
			}
		case key.Matches(msg, keys.Refresh):
			return t, t.refresh()
		}
	}
	return t, nil
}

func (t timersModel) showDeleteConfirm(name string) (timersModel, tea.Cmd) {
	*t.confirmAnswer = ""
	t.deleteTarget = name

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Delete %q, its units and all of its logs?", name)).
				Description("Type y or yes to confirm; anything else cancels.").
				Value(t.confirmAnswer),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timersModel) updateConfirm(msg tea.Msg) (timersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		if !confirmsDelete(*t.confirmAnswer) {
			return t, func() tea.Msg {
				return statusMsg{text: "Delete cancelled"}
			}
		}
		return t, t.doDelete(t.deleteTarget)
	}

	return t, cmd
}

func (t timersModel) doDelete(name string) tea.Cmd {
	r := t.repo
	return func() tea.Msg {
		if err := r.Delete(context.Background(), name); err != nil {
			return errorStatus("delete %s: %v", name, err)
		}
		return timerDeletedMsg{name: name}
	}
}

func (t timersModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Delete Timer"),
			"",
			t.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Timers")

	if !t.loaded {
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("Loading..."))
		return panelStyle.Width(w).Render(content)
	}
	if t.loadErr != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			errorStyle.Render(fmt.Sprintf("Could not read the timer repository: %v", t.loadErr)),
		)
		return panelStyle.Width(w).Render(content)
	}
	if len(t.rows) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No timers yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-20s %-18s %-26s %s", "Name", "Status", "Schedule", "Next Run"))
	rows = append(rows, header)

	for i, row := range t.rows {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		statusCell := statusStyle(row.Status).Render(fmt.Sprintf("%-18s", row.Status.String()))
		next := row.NextRun
		if next == "" {
			next = "-"
		}
		line := style.Render(fmt.Sprintf("%s%-20s ", cursor, truncate(row.Name, 20))) +
			statusCell +
			style.Render(fmt.Sprintf(" %-26s %s", truncate(row.Interval, 26), next))
		rows = append(rows, line)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: manage  n: new  d: delete  e: export  r: refresh  esc: menu"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
