package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cronie-dev/cronie/internal/backup"
	"github.com/cronie-dev/cronie/internal/catalog"
	"github.com/cronie-dev/cronie/internal/config"
	"github.com/cronie-dev/cronie/internal/repo"
)

type backupMode int

const (
	backupOverview backupMode = iota
	backupReport
)

const (
	backupFormNone = iota
	backupFormCreate
	backupFormRestore
	backupFormCollision
)

// The two fixed rows above the catalog entries.
const backupActionCount = 2

type backupModel struct {
	repo    *repo.Repository
	catalog *catalog.Catalog
	cfg     *config.Config
	width   int
	height  int

	mode    backupMode
	entries []catalog.Entry
	catErr  error
	cursor  int

	form     *huh.Form
	formKind int

	// Form field pointers (survive value copies)
	pathValue   *string
	choiceValue *string

	// Restore session state. The session owns a temp extraction dir
	// that must be removed however the restore ends.
	session   *backup.RestoreSession
	archive   string
	pending   []string
	total     int
	collision string
	installed []string
	skipped   []string
	failed    []string
}

func newBackupModel(r *repo.Repository, c *catalog.Catalog, cfg *config.Config) backupModel {
	path, choice := "", ""
	return backupModel{
		repo:        r,
		catalog:     c,
		cfg:         cfg,
		pathValue:   &path,
		choiceValue: &choice,
	}
}

func (b *backupModel) setSize(w, h int) {
	b.width = w
	b.height = h
}

func (b backupModel) isActive() bool {
	return b.form != nil || b.session != nil
}

// closeSession drops the extraction dir when the app quits mid-restore.
func (b *backupModel) closeSession() {
	if b.session != nil {
		b.session.Close()
		b.session = nil
	}
}

func (b backupModel) refresh() tea.Cmd {
	c := b.catalog
	return func() tea.Msg {
		entries, err := c.List()
		return catalogLoadedMsg{entries: entries, err: err}
	}
}

func (b backupModel) update(msg tea.Msg) (backupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		b.entries = msg.entries
		b.catErr = msg.err
		if b.cursor >= backupActionCount+len(b.entries) {
			b.cursor = max(0, backupActionCount+len(b.entries)-1)
		}
		return b, nil

	case backupDoneMsg:
		sum := msg.sum
		return b, tea.Batch(
			func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Backup of %d timers written to %s (%s)",
					sum.Timers, sum.Path, formatBytes(sum.Size))}
			},
			b.refresh(),
		)

	case restoreOpenedMsg:
		return b.startRestore(msg)

	case restoreStepMsg:
		if len(b.pending) > 0 && b.pending[0] == msg.name {
			b.pending = b.pending[1:]
		}
		if msg.err != nil {
			b.failed = append(b.failed, fmt.Sprintf("%s: %v", msg.name, msg.err))
		} else {
			b.installed = append(b.installed, msg.name)
		}
		return b.nextStep()

	case tea.KeyMsg:
		if b.form != nil {
			return b.updateForm(msg)
		}
		if b.session != nil {
			// Restore in flight; input waits for the next prompt.
			return b, nil
		}
		if b.mode == backupReport {
			if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Enter) {
				b.mode = backupOverview
			}
			return b, nil
		}
		return b.updateOverview(msg)
	}
	return b, nil
}

func (b backupModel) updateOverview(msg tea.KeyMsg) (backupModel, tea.Cmd) {
	last := backupActionCount + len(b.entries) - 1
	switch {
	case key.Matches(msg, keys.Back):
		return b, func() tea.Msg { return switchViewMsg{view: viewMenu} }
	case key.Matches(msg, keys.Up):
		if b.cursor > 0 {
			b.cursor--
		}
	case key.Matches(msg, keys.Down):
		if b.cursor < last {
			b.cursor++
		}
	case key.Matches(msg, keys.Refresh):
		return b, b.refresh()
	case key.Matches(msg, keys.Delete):
		if i := b.cursor - backupActionCount; i >= 0 && i < len(b.entries) {
			return b, b.doForget(b.entries[i].ID)
		}
	case key.Matches(msg, keys.Enter):
		switch {
		case b.cursor == 0:
			return b.showCreateForm()
		case b.cursor == 1:
			return b.showRestoreForm("")
		default:
			if i := b.cursor - backupActionCount; i >= 0 && i < len(b.entries) {
				return b.showRestoreForm(b.entries[i].Path)
			}
		}
	}
	return b, nil
}

// --- Forms ---

func (b backupModel) showCreateForm() (backupModel, tea.Cmd) {
	*b.pathValue = backup.DefaultPath(b.cfg.BackupDir, time.Now())
	b.formKind = backupFormCreate

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Archive path").
				Value(b.pathValue).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path must not be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return b, b.form.Init()
}

func (b backupModel) showRestoreForm(prefill string) (backupModel, tea.Cmd) {
	*b.pathValue = prefill
	b.formKind = backupFormRestore

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Archive to restore from").
				Value(b.pathValue).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path must not be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return b, b.form.Init()
}

func (b backupModel) showCollisionForm(name string) (backupModel, tea.Cmd) {
	*b.choiceValue = "overwrite"
	b.collision = name
	b.formKind = backupFormCollision

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Timer %q already exists", name)).
				Description("Overwrite replaces it, Skip keeps it, Abort stops the restore.").
				Options(
					huh.NewOption("Overwrite", "overwrite"),
					huh.NewOption("Skip", "skip"),
					huh.NewOption("Abort", "abort"),
				).
				Value(b.choiceValue),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return b, b.form.Init()
}

func (b backupModel) updateForm(msg tea.Msg) (backupModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			kind := b.formKind
			b.form = nil
			b.formKind = backupFormNone
			if kind == backupFormCollision {
				// Backing out of the prompt aborts the rest.
				return b.abortRestore()
			}
			return b, nil
		}
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}

	if b.form.State == huh.StateCompleted {
		kind := b.formKind
		b.form = nil
		b.formKind = backupFormNone
		switch kind {
		case backupFormCreate:
			return b, b.doBackup(strings.TrimSpace(*b.pathValue))
		case backupFormRestore:
			return b, b.doOpenRestore(strings.TrimSpace(*b.pathValue))
		case backupFormCollision:
			return b.resolveCollision(*b.choiceValue)
		}
	}

	return b, cmd
}

// --- Backup ---

func (b backupModel) doBackup(path string) tea.Cmd {
	r, c := b.repo, b.catalog
	return func() tea.Msg {
		sum, err := backup.Create(r.Base(), path)
		if err != nil {
			return errorStatus("backup: %v", err)
		}
		if _, err := c.Record(sum.Path, sum.Timers, sum.Size, sum.SHA256); err != nil {
			return errorStatus("backup written to %s, catalog record failed: %v", sum.Path, err)
		}
		return backupDoneMsg{sum: sum}
	}
}

func (b backupModel) doForget(id string) tea.Cmd {
	c := b.catalog
	return func() tea.Msg {
		if err := c.Forget(id); err != nil {
			return errorStatus("forget entry: %v", err)
		}
		entries, lerr := c.List()
		return catalogLoadedMsg{entries: entries, err: lerr}
	}
}

// --- Restore ---

func (b backupModel) doOpenRestore(path string) tea.Cmd {
	return func() tea.Msg {
		session, err := backup.Open(path, "cronie")
		if err != nil {
			return restoreOpenedMsg{err: err}
		}
		names, err := session.Timers()
		if err != nil {
			session.Close()
			return restoreOpenedMsg{err: err}
		}
		return restoreOpenedMsg{session: session, names: names}
	}
}

func (b backupModel) startRestore(msg restoreOpenedMsg) (backupModel, tea.Cmd) {
	if msg.err != nil {
		err := msg.err
		return b, func() tea.Msg { return errorStatus("restore: %v", err) }
	}
	if len(msg.names) == 0 {
		msg.session.Close()
		return b, func() tea.Msg { return errorStatus("restore: archive holds no timers") }
	}

	b.session = msg.session
	b.pending = msg.names
	b.total = len(msg.names)
	b.installed = nil
	b.skipped = nil
	b.failed = nil
	return b.nextStep()
}

func (b backupModel) nextStep() (backupModel, tea.Cmd) {
	if b.session == nil {
		return b, nil
	}
	if len(b.pending) == 0 {
		return b.finishRestore()
	}
	name := b.pending[0]
	if b.repo.Exists(name) {
		return b.showCollisionForm(name)
	}
	return b, b.doInstall(name, false)
}

func (b backupModel) resolveCollision(choice string) (backupModel, tea.Cmd) {
	name := b.collision
	b.collision = ""
	switch choice {
	case "overwrite":
		return b, b.doInstall(name, true)
	case "skip":
		if len(b.pending) > 0 && b.pending[0] == name {
			b.pending = b.pending[1:]
		}
		b.skipped = append(b.skipped, name)
		return b.nextStep()
	default:
		return b.abortRestore()
	}
}

func (b backupModel) abortRestore() (backupModel, tea.Cmd) {
	b.skipped = append(b.skipped, b.pending...)
	b.pending = nil
	return b.finishRestore()
}

func (b backupModel) doInstall(name string, overwrite bool) tea.Cmd {
	r, session := b.repo, b.session
	return func() tea.Msg {
		if overwrite {
			if err := r.Delete(context.Background(), name); err != nil {
				return restoreStepMsg{name: name, err: fmt.Errorf("replace existing: %w", err)}
			}
		}
		if err := session.Stage(name, r.Base()); err != nil {
			return restoreStepMsg{name: name, err: err}
		}
		if err := r.Install(context.Background(), name); err != nil {
			// Directory is in place but the units were not rebuilt;
			// the list will show it as needing attention.
			return restoreStepMsg{name: name, err: err}
		}
		return restoreStepMsg{name: name}
	}
}

func (b backupModel) finishRestore() (backupModel, tea.Cmd) {
	if b.session != nil {
		b.session.Close()
		b.session = nil
	}
	b.mode = backupReport

	installed, skipped, failed := len(b.installed), len(b.skipped), len(b.failed)
	return b, tea.Batch(
		func() tea.Msg {
			return statusMsg{
				text:    fmt.Sprintf("Restore finished: %d installed, %d skipped, %d failed", installed, skipped, failed),
				isError: failed > 0,
			}
		},
		b.refresh(),
	)
}

// --- Views ---

func (b backupModel) view() string {
	w := b.width - 4

	if b.form != nil {
		title := "Create Backup"
		switch b.formKind {
		case backupFormRestore:
			title = "Restore"
		case backupFormCollision:
			title = "Restore Conflict"
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(title),
			"",
			b.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	if b.session != nil {
		return b.renderProgress(w)
	}

	if b.mode == backupReport {
		return b.renderReport(w)
	}

	return b.renderOverview(w)
}

func (b backupModel) renderOverview(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Backup & Restore"))
	rows = append(rows, "")

	actions := []struct{ title, desc string }{
		{"Create backup", "Archive every timer to a tar.gz"},
		{"Restore from archive", "Bring timers back from any archive path"},
	}
	for i, a := range actions {
		cursor := "  "
		style := normalItemStyle
		if i == b.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+a.title)+mutedStyle.Render("  "+a.desc))
	}

	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("Recorded backups"))

	switch {
	case b.catErr != nil:
		rows = append(rows, errorStyle.Render(fmt.Sprintf("  catalog: %v", b.catErr)))
	case len(b.entries) == 0:
		rows = append(rows, mutedStyle.Render("  No backups recorded yet."))
	default:
		header := mutedStyle.Render(fmt.Sprintf("  %-17s %6s %10s  %s", "Created", "Timers", "Size", "Archive"))
		rows = append(rows, header)
		for i, e := range b.entries {
			cursor := "  "
			style := normalItemStyle
			if backupActionCount+i == b.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rows = append(rows, style.Render(fmt.Sprintf("%s%-17s %6d %10s  %s",
				cursor,
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.Timers,
				formatBytes(e.SizeBytes),
				truncate(e.Path, max(10, w-44)))))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  d: forget entry  r: refresh  esc: menu"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (b backupModel) renderProgress(w int) string {
	done := b.total - len(b.pending)
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Restoring"),
		"",
		normalItemStyle.Render(fmt.Sprintf("  %d of %d timers processed", done, b.total)),
		mutedStyle.Render(fmt.Sprintf("  %d installed, %d skipped, %d failed",
			len(b.installed), len(b.skipped), len(b.failed))),
	)
	return activePanelStyle.Width(w).Render(content)
}

func (b backupModel) renderReport(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Restore Report"))
	rows = append(rows, "")

	for _, name := range b.installed {
		rows = append(rows, successStyle.Render("  + "+name+" installed"))
	}
	for _, name := range b.skipped {
		rows = append(rows, mutedStyle.Render("  - "+name+" skipped"))
	}
	for _, line := range b.failed {
		rows = append(rows, errorStyle.Render("  ! "+line))
	}
	if len(b.installed)+len(b.skipped)+len(b.failed) == 0 {
		rows = append(rows, mutedStyle.Render("  Nothing to do."))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter/esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
