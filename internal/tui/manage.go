package tui

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cronie-dev/cronie/internal/config"
	"github.com/cronie-dev/cronie/internal/repo"
	"github.com/cronie-dev/cronie/internal/schedule"
	"github.com/cronie-dev/cronie/internal/timer"
)

type manageMode int

const (
	manageActions manageMode = iota
	manageLogs
	manageActivity
)

const (
	manageFormNone = iota
	manageFormDesc
	manageFormPrune
)

// activityDays is how far back the run chart looks.
const activityDays = 14

var manageActionNames = []string{
	"Edit description",
	"Edit schedule",
	"Edit script in editor",
	"Pause",
	"Resume",
	"Trigger now",
	"Run logs",
	"Back to list",
}

type manageModel struct {
	repo   *repo.Repository
	cfg    *config.Config
	width  int
	height int

	name    string
	t       *timer.Timer
	info    string
	loadErr error

	mode      manageMode
	cursor    int
	logCursor int

	form     *huh.Form
	formKind int

	// Form field pointers (survive value copies)
	descValue  *string
	pruneValue *string

	flow            scheduleFlow
	editingSchedule bool

	files    []repo.LogFile
	activity []repo.DayActivity
	chart    barchart.Model
}

func newManageModel(r *repo.Repository, cfg *config.Config) manageModel {
	desc, prune := "", ""
	return manageModel{
		repo:       r,
		cfg:        cfg,
		flow:       newScheduleFlow(),
		descValue:  &desc,
		pruneValue: &prune,
		chart:      barchart.New(40, 10),
	}
}

func (m *manageModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m manageModel) isActive() bool {
	return m.form != nil || m.flow.active()
}

// open points the view at a timer and loads its current state.
func (m manageModel) open(name string) (manageModel, tea.Cmd) {
	m.name = name
	m.t = nil
	m.info = ""
	m.loadErr = nil
	m.mode = manageActions
	m.cursor = 0
	m.logCursor = 0
	m.editingSchedule = false
	m.form = nil
	return m, m.load()
}

func (m manageModel) load() tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		t, err := r.Get(context.Background(), name)
		if err != nil {
			return manageDataMsg{err: err}
		}
		info, _ := r.InfoText(name)
		return manageDataMsg{t: t, info: info}
	}
}

func (m manageModel) update(msg tea.Msg) (manageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case manageDataMsg:
		m.t = msg.t
		m.info = msg.info
		m.loadErr = msg.err
		return m, nil

	case actionDoneMsg:
		text := msg.text
		return m, tea.Batch(
			func() tea.Msg { return statusMsg{text: text} },
			m.load(),
		)

	case scheduleDoneMsg:
		if m.editingSchedule {
			m.editingSchedule = false
			return m, m.doSetSchedule(msg.spec)
		}
		return m, nil

	case scheduleCancelMsg:
		m.editingSchedule = false
		return m, func() tea.Msg { return statusMsg{text: "Schedule unchanged"} }

	case editorFinishedMsg:
		if msg.err != nil {
			err := msg.err
			return m, func() tea.Msg { return errorStatus("editor: %v", err) }
		}
		return m, func() tea.Msg { return statusMsg{text: "Script saved"} }

	case pagerFinishedMsg:
		if msg.err != nil {
			err := msg.err
			return m, func() tea.Msg { return errorStatus("pager: %v", err) }
		}
		return m, nil

	case logFilesMsg:
		if msg.err != nil {
			err := msg.err
			return m, func() tea.Msg { return errorStatus("read logs: %v", err) }
		}
		m.files = msg.files
		m.mode = manageLogs
		if m.logCursor >= len(m.files) {
			m.logCursor = max(0, len(m.files)-1)
		}
		return m, nil

	case activityMsg:
		m.activity = msg.days
		m.buildChart()
		m.mode = manageActivity
		return m, nil

	case pruneDoneMsg:
		m.files = msg.files
		if m.logCursor >= len(m.files) {
			m.logCursor = max(0, len(m.files)-1)
		}
		removed := msg.removed
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Removed %d old log files", removed)}
		}

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.flow.active() {
			var cmd tea.Cmd
			m.flow, cmd = m.flow.update(msg)
			return m, cmd
		}
		switch m.mode {
		case manageLogs:
			return m.updateLogs(msg)
		case manageActivity:
			if key.Matches(msg, keys.Back) {
				m.mode = manageLogs
			}
			return m, nil
		default:
			return m.updateActions(msg)
		}
	}
	return m, nil
}

func (m manageModel) updateActions(msg tea.KeyMsg) (manageModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(manageActionNames)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Logs):
		return m, m.loadLogs()
	case key.Matches(msg, keys.Refresh):
		return m, m.load()
	case key.Matches(msg, keys.Back):
		return m, func() tea.Msg { return switchViewMsg{view: viewTimers} }
	case key.Matches(msg, keys.Enter):
		return m.dispatch(m.cursor)
	}
	return m, nil
}

func (m manageModel) dispatch(action int) (manageModel, tea.Cmd) {
	switch action {
	case 0:
		return m.showDescForm()
	case 1:
		m.editingSchedule = true
		var cmd tea.Cmd
		m.flow, cmd = m.flow.start()
		return m, cmd
	case 2:
		return m, m.openEditor()
	case 3:
		return m, m.doPause()
	case 4:
		return m, m.doResume()
	case 5:
		return m, m.doTrigger()
	case 6:
		return m, m.loadLogs()
	default:
		return m, func() tea.Msg { return switchViewMsg{view: viewTimers} }
	}
}

func (m manageModel) updateLogs(msg tea.KeyMsg) (manageModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.mode = manageActions
	case key.Matches(msg, keys.Up):
		if m.logCursor > 0 {
			m.logCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.logCursor < len(m.files)-1 {
			m.logCursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.files) > 0 {
			return m, m.openPager(m.files[m.logCursor].Path)
		}
	case msg.String() == "p":
		return m.showPruneForm()
	case msg.String() == "a":
		return m, m.loadActivity()
	}
	return m, nil
}

// --- Forms ---

func (m manageModel) showDescForm() (manageModel, tea.Cmd) {
	*m.descValue = ""
	if m.t != nil {
		*m.descValue = m.t.Description
	}
	m.formKind = manageFormDesc

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Value(m.descValue).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description must not be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return m, m.form.Init()
}

func (m manageModel) showPruneForm() (manageModel, tea.Cmd) {
	*m.pruneValue = ""
	m.formKind = manageFormPrune

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Delete logs older than how many days?").
				Value(m.pruneValue).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("enter a whole number")
					}
					if n < 1 {
						return fmt.Errorf("must be at least 1")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return m, m.form.Init()
}

func (m manageModel) updateForm(msg tea.Msg) (manageModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.form = nil
			m.formKind = manageFormNone
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		kind := m.formKind
		m.form = nil
		m.formKind = manageFormNone
		switch kind {
		case manageFormDesc:
			return m, m.doSetDescription(strings.TrimSpace(*m.descValue))
		case manageFormPrune:
			days, _ := strconv.Atoi(strings.TrimSpace(*m.pruneValue))
			return m, m.doPrune(days)
		}
	}

	return m, cmd
}

// --- Commands ---

func (m manageModel) doSetDescription(desc string) tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		if err := r.SetDescription(context.Background(), name, desc); err != nil {
			return errorStatus("edit description: %v", err)
		}
		return actionDoneMsg{text: "Description updated, units regenerated"}
	}
}

func (m manageModel) doSetSchedule(spec schedule.Spec) tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		if err := r.SetSchedule(context.Background(), name, spec.Label(), spec.Expression()); err != nil {
			return errorStatus("edit schedule: %v", err)
		}
		return actionDoneMsg{text: "Schedule updated, timer restarted"}
	}
}

func (m manageModel) doPause() tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		if err := r.Pause(context.Background(), name); err != nil {
			return errorStatus("pause %s: %v", name, err)
		}
		return actionDoneMsg{text: fmt.Sprintf("%s paused", name)}
	}
}

func (m manageModel) doResume() tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		if err := r.Resume(context.Background(), name); err != nil {
			return errorStatus("resume %s: %v", name, err)
		}
		return actionDoneMsg{text: fmt.Sprintf("%s resumed", name)}
	}
}

func (m manageModel) doTrigger() tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		if err := r.Trigger(context.Background(), name); err != nil {
			return errorStatus("trigger %s: %v", name, err)
		}
		return actionDoneMsg{text: fmt.Sprintf("%s run started", name)}
	}
}

func (m manageModel) doPrune(days int) tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		n, err := r.PruneLogs(name, days)
		if err != nil {
			return errorStatus("prune logs: %v", err)
		}
		files, _ := r.LogFiles(name)
		return pruneDoneMsg{removed: n, files: files}
	}
}

func (m manageModel) loadLogs() tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		files, err := r.LogFiles(name)
		return logFilesMsg{files: files, err: err}
	}
}

func (m manageModel) loadActivity() tea.Cmd {
	r, name := m.repo, m.name
	return func() tea.Msg {
		return activityMsg{days: r.RunActivity(name, activityDays)}
	}
}

func (m manageModel) openEditor() tea.Cmd {
	cmd := exec.Command(m.cfg.Editor, m.repo.ScriptPath(m.name))
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m manageModel) openPager(path string) tea.Cmd {
	cmd := exec.Command(m.cfg.Pager, path)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return pagerFinishedMsg{err: err}
	})
}

// --- Chart ---

func (m *manageModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if m.height > 30 {
		chartHeight = 14
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, day := range m.activity {
		label := day.Date
		if t, err := time.Parse("2006-01-02", day.Date); err == nil {
			label = t.Format("02")
		}
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if day.Lines == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: day.Date, Value: float64(day.Lines), Style: style},
			},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

// --- Views ---

func (m manageModel) view() string {
	w := m.width - 4

	if m.flow.active() {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("Edit Schedule: %s", m.name)),
			"",
			m.flow.view(),
		)
		return panelStyle.Width(w).Render(content)
	}

	if m.form != nil {
		title := "Edit Description"
		if m.formKind == manageFormPrune {
			title = "Prune Logs"
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(fmt.Sprintf("%s: %s", title, m.name)),
			"",
			m.form.View(),
		)
		return panelStyle.Width(w).Render(content)
	}

	switch m.mode {
	case manageLogs:
		return m.renderLogs(w)
	case manageActivity:
		return m.renderActivity(w)
	default:
		return m.renderActions(w)
	}
}

func (m manageModel) renderActions(w int) string {
	if m.loadErr != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.name),
			"",
			errorStyle.Render(fmt.Sprintf("%v", m.loadErr)),
			"",
			mutedStyle.Render("  esc: back"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, titleStyle.Render(m.name))
	rows = append(rows, "")

	if m.t != nil {
		statusLine := mutedStyle.Render("  Status      ") + statusStyle(m.t.Status).Render(m.t.Status.String())
		rows = append(rows, statusLine)
		next := m.t.NextRun
		if next == "" {
			next = "-"
		}
		rows = append(rows, mutedStyle.Render("  Next run    ")+normalItemStyle.Render(next))
	}

	if m.info != "" {
		rows = append(rows, "")
		for _, line := range strings.Split(strings.TrimRight(m.info, "\n"), "\n") {
			rows = append(rows, mutedStyle.Render("  "+line))
		}
	} else if m.loadErr == nil {
		rows = append(rows, "")
		rows = append(rows, errorStyle.Render("  information log missing or unreadable"))
	}

	rows = append(rows, "")
	for i, action := range manageActionNames {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+action))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: run  l: logs  r: reload  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m manageModel) renderLogs(w int) string {
	title := titleStyle.Render(fmt.Sprintf("Run Logs: %s", m.name))

	if len(m.files) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No runs logged yet."),
			"",
			mutedStyle.Render("  a: activity  esc: back"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-16s %10s  %s", "File", "Size", "Modified"))
	rows = append(rows, header)

	for i, f := range m.files {
		cursor := "  "
		style := normalItemStyle
		if i == m.logCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-16s %10s  %s",
			cursor, f.Name, formatBytes(f.Size), f.ModTime.Format("2006-01-02 15:04"))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: view  p: prune  a: activity  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m manageModel) renderActivity(w int) string {
	title := titleStyle.Render(fmt.Sprintf("Runs per day, last %d days: %s", activityDays, m.name))

	total := 0
	for _, d := range m.activity {
		total += d.Lines
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.chart.View(),
		"",
		mutedStyle.Render(fmt.Sprintf("  %d logged lines in range", total)),
		mutedStyle.Render("  esc: back"),
	)
	return panelStyle.Width(w).Render(content)
}
