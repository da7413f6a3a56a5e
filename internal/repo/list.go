package repo

import (
	"context"
	"fmt"
	"os"

	"github.com/cronie-dev/cronie/internal/timer"
)

// List enumerates timers sorted by name, deriving each row's live
// status from the service manager. A missing or unreadable information
// log marks that row invalid instead of failing the listing.
func (r *Repository) List(ctx context.Context) ([]timer.Timer, error) {
	entries, err := os.ReadDir(r.base)
	if err != nil {
		return nil, fmt.Errorf("read repository: %w", err)
	}
	var timers []timer.Timer
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		timers = append(timers, r.row(ctx, e.Name()))
	}
	return timers, nil
}

// Get loads a single timer row.
func (r *Repository) Get(ctx context.Context, name string) (*timer.Timer, error) {
	if !r.Exists(name) {
		return nil, fmt.Errorf("timer %q %w", name, ErrNotFound)
	}
	row := r.row(ctx, name)
	return &row, nil
}

func (r *Repository) row(ctx context.Context, name string) timer.Timer {
	row := timer.Timer{Name: name}
	meta, err := r.readMetadata(name)
	if err != nil {
		row.Status = timer.StatusInvalid
		return row
	}
	row.Description = meta.Description
	row.Interval = meta.Interval
	row.OnCalendar = meta.OnCalendar
	row.CreatedAt = meta.CreatedAt
	row.Status = r.status(ctx, name)
	if next, err := r.ctl.NextElapse(ctx, timer.TimerUnit(name)); err == nil {
		row.NextRun = next
	}
	return row
}

func (r *Repository) status(ctx context.Context, name string) timer.Status {
	unit := timer.TimerUnit(name)
	enabled, _ := r.ctl.IsEnabled(ctx, unit)
	if enabled != "enabled" {
		return timer.StatusPaused
	}
	active, _ := r.ctl.IsActive(ctx, unit)
	if active == "active" {
		return timer.StatusActive
	}
	return timer.StatusIdle
}
