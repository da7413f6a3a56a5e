package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cronie-dev/cronie/internal/backup"
	"github.com/cronie-dev/cronie/internal/catalog"
	"github.com/cronie-dev/cronie/internal/repo"
	"github.com/cronie-dev/cronie/internal/schedule"
	"github.com/cronie-dev/cronie/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewMenu viewState = iota
	viewCreate
	viewTimers
	viewManage
	viewBackup
)

var viewNames = []string{"Menu", "New Timer", "Timers", "Manage", "Backup"}

// --- Messages ---

// switchViewMsg moves the app to another view. Emitted by the menu and
// by child views that finished their job.
type switchViewMsg struct {
	view viewState
}

type statusMsg struct {
	text    string
	isError bool
}

type timersLoadedMsg struct {
	rows []timer.Timer
	err  error
}

type timerCreatedMsg struct {
	t *timer.Timer
}

type timerDeletedMsg struct {
	name string
}

// manageOpenMsg selects a timer from the list for the manage view.
type manageOpenMsg struct {
	name string
}

type manageDataMsg struct {
	t    *timer.Timer
	info string
	err  error
}

type actionDoneMsg struct {
	text string
}

type editorFinishedMsg struct {
	err error
}

type pagerFinishedMsg struct {
	err error
}

type logFilesMsg struct {
	files []repo.LogFile
	err   error
}

type activityMsg struct {
	days []repo.DayActivity
}

type pruneDoneMsg struct {
	removed int
	files   []repo.LogFile
}

type scheduleDoneMsg struct {
	spec schedule.Spec
}

type scheduleCancelMsg struct{}

type backupDoneMsg struct {
	sum *backup.Summary
}

type catalogLoadedMsg struct {
	entries []catalog.Entry
	err     error
}

type restoreOpenedMsg struct {
	session *backup.RestoreSession
	names   []string
	err     error
}

type restoreStepMsg struct {
	name string
	err  error
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func errorStatus(format string, args ...any) statusMsg {
	return statusMsg{text: fmt.Sprintf(format, args...), isError: true}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, n int) string {
	if n <= 1 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func statusStyle(s timer.Status) lipgloss.Style {
	switch s {
	case timer.StatusActive:
		return successStyle
	case timer.StatusIdle:
		return highlightStyle
	case timer.StatusPaused:
		return warningStyle
	case timer.StatusInvalid:
		return errorStyle
	}
	return normalItemStyle
}

// confirmsDelete reports whether the typed answer authorizes a delete.
// Only y or yes count, in any letter case.
func confirmsDelete(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
