// Package timer defines the on-disk model of a scheduled job: its
// directory layout, its metadata log, and its naming rules.
package timer

import (
	"path/filepath"
	"time"
)

// Status classifies a timer as the service manager currently sees it.
type Status int

const (
	StatusActive  Status = iota // enabled and waiting or running
	StatusIdle                  // enabled but not active
	StatusPaused                // disabled
	StatusInvalid               // information log missing or unreadable
)

var statusNames = map[Status]string{
	StatusActive:  "active",
	StatusIdle:    "enabled (inactive)",
	StatusPaused:  "paused",
	StatusInvalid: "INVALID",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Timer is one scheduled job: a script, an information log, and a
// service/timer unit pair registered with systemd. Status and NextRun
// are filled by listing, not persisted.
type Timer struct {
	Name        string
	Description string
	Interval    string
	OnCalendar  string
	CreatedAt   time.Time
	Status      Status
	NextRun     string
}

// Dir returns the timer's directory under the repository base.
func Dir(base, name string) string {
	return filepath.Join(base, name)
}

// ScriptPath returns the job script path for name under base.
func ScriptPath(base, name string) string {
	return filepath.Join(base, name, name+"_EXECUTABLE_SCRIPT.sh")
}

// MetadataPath returns the information log path for name under base.
func MetadataPath(base, name string) string {
	return filepath.Join(base, name, name+"_INFORMATION_LOG.log")
}

// LogDir returns the directory of dated run logs for name under base.
func LogDir(base, name string) string {
	return filepath.Join(base, name, "logs")
}

// ServiceUnit returns the service unit file name for a timer.
func ServiceUnit(name string) string {
	return name + ".service"
}

// TimerUnit returns the timer unit file name for a timer.
func TimerUnit(name string) string {
	return name + ".timer"
}
