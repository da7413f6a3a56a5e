package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/cronie-dev/cronie/internal/catalog"
	"github.com/cronie-dev/cronie/internal/config"
	"github.com/cronie-dev/cronie/internal/export"
	"github.com/cronie-dev/cronie/internal/repo"
)

// App is the root Bubble Tea model.
type App struct {
	repo    *repo.Repository
	catalog *catalog.Catalog
	cfg     *config.Config
	log     *zap.Logger
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	menu   menuModel
	create createModel
	timers timersModel
	manage manageModel
	backup backupModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(ctx *config.Context, cfg *config.Config, r *repo.Repository, cat *catalog.Catalog, log *zap.Logger) App {
	h := help.New()
	h.ShowAll = false

	return App{
		repo:       r,
		catalog:    cat,
		cfg:        cfg,
		log:        log,
		activeView: viewMenu,
		menu:       newMenuModel(ctx.UserScope, ctx.BaseDir, ctx.UnitDir),
		create:     newCreateModel(r),
		timers:     newTimersModel(r),
		manage:     newManageModel(r, cfg),
		backup:     newBackupModel(r, cat, cfg),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	// Warm the list so the first visit paints instantly.
	return a.timers.refresh()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.menu.setSize(a.width, contentHeight)
		a.create.setSize(a.width, contentHeight)
		a.timers.setSize(a.width, contentHeight)
		a.manage.setSize(a.width, contentHeight)
		a.backup.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (form or restore in
		// flight), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.backup.closeSession()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		}
		return a.updateActiveView(msg)

	case switchViewMsg:
		return a.switchTo(msg.view)

	case manageOpenMsg:
		a.activeView = viewManage
		var cmd tea.Cmd
		a.manage, cmd = a.manage.open(msg.name)
		return a, cmd

	case timerCreatedMsg:
		a.status = fmt.Sprintf("Created %s (%s)", msg.t.Name, msg.t.Interval)
		a.statusErr = false
		a.activeView = viewTimers
		return a, a.timers.refresh()

	case timerDeletedMsg:
		a.status = fmt.Sprintf("Deleted %s", msg.name)
		a.statusErr = false
		return a, a.timers.refresh()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	// Results land in their owning model even if the user has moved on.
	case timersLoadedMsg:
		var cmd tea.Cmd
		a.timers, cmd = a.timers.update(msg)
		return a, cmd

	case catalogLoadedMsg, backupDoneMsg, restoreOpenedMsg, restoreStepMsg:
		var cmd tea.Cmd
		a.backup, cmd = a.backup.update(msg)
		return a, cmd

	case manageDataMsg, actionDoneMsg, logFilesMsg, activityMsg, pruneDoneMsg, editorFinishedMsg, pagerFinishedMsg:
		var cmd tea.Cmd
		a.manage, cmd = a.manage.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(view viewState) (tea.Model, tea.Cmd) {
	a.activeView = view
	switch view {
	case viewCreate:
		var cmd tea.Cmd
		a.create, cmd = a.create.begin()
		return a, cmd
	case viewTimers:
		return a, a.timers.refresh()
	case viewBackup:
		return a, a.backup.refresh()
	}
	return a, nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewMenu:
		a.menu, cmd = a.menu.update(msg)
	case viewCreate:
		a.create, cmd = a.create.update(msg)
	case viewTimers:
		a.timers, cmd = a.timers.update(msg)
	case viewManage:
		a.manage, cmd = a.manage.update(msg)
	case viewBackup:
		a.backup, cmd = a.backup.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewCreate:
		return a.create.isActive()
	case viewTimers:
		return a.timers.formActive
	case viewManage:
		return a.manage.isActive()
	case viewBackup:
		return a.backup.isActive()
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewMenu:
		content = a.menu.view()
	case viewCreate:
		content = a.create.view()
	case viewTimers:
		content = a.timers.view()
	case viewManage:
		content = a.manage.view()
	case viewBackup:
		content = a.backup.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("cronie")
	scope := mutedStyle.Render(" system")
	if a.menu.userScope {
		scope = mutedStyle.Render(" user")
	}

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(scope) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, scope, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Inventory")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	r := a.repo
	return func() tea.Msg {
		timers, err := r.List(context.Background())
		if err != nil {
			return errorStatus("export: %v", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return errorStatus("export: %v", err)
		}
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("cronie-timers-%s.csv", dateStr))
			if err := export.ToCSV(timers, path); err != nil {
				return errorStatus("CSV export: %v", err)
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("cronie-timers-%s.json", dateStr))
			if err := export.ToJSON(timers, path); err != nil {
				return errorStatus("JSON export: %v", err)
			}
		}

		return exportDoneMsg{path: path}
	}
}
