package repo

import (
	"context"

	"go.uber.org/zap"

	"github.com/cronie-dev/cronie/internal/timer"
)

// SetDescription rewrites the information log with the new description
// and regenerates both unit files from it, then reloads.
func (r *Repository) SetDescription(ctx context.Context, name, description string) error {
	meta, err := r.readMetadata(name)
	if err != nil {
		return err
	}
	meta.Description = description
	if err := r.writeMetadata(meta); err != nil {
		return err
	}
	if err := r.writeUnits(meta); err != nil {
		return err
	}
	if err := r.ctl.DaemonReload(ctx); err != nil {
		return err
	}
	r.log.Info("description updated", zap.String("name", name))
	return nil
}

// SetSchedule rewrites the schedule fields, regenerates both unit
// files, reloads, and restarts the timer unit so the new calendar
// takes effect immediately.
func (r *Repository) SetSchedule(ctx context.Context, name, interval, onCalendar string) error {
	meta, err := r.readMetadata(name)
	if err != nil {
		return err
	}
	meta.Interval = interval
	meta.OnCalendar = onCalendar
	if err := r.writeMetadata(meta); err != nil {
		return err
	}
	if err := r.writeUnits(meta); err != nil {
		return err
	}
	if err := r.ctl.DaemonReload(ctx); err != nil {
		return err
	}
	if err := r.ctl.Restart(ctx, timer.TimerUnit(name)); err != nil {
		return err
	}
	r.log.Info("schedule updated",
		zap.String("name", name),
		zap.String("on_calendar", onCalendar))
	return nil
}

// Pause disables and stops the timer unit. The artifacts stay on disk.
func (r *Repository) Pause(ctx context.Context, name string) error {
	if err := r.ctl.DisableNow(ctx, timer.TimerUnit(name)); err != nil {
		return err
	}
	r.log.Info("timer paused", zap.String("name", name))
	return nil
}

// Resume enables and starts the timer unit again.
func (r *Repository) Resume(ctx context.Context, name string) error {
	if err := r.ctl.EnableNow(ctx, timer.TimerUnit(name)); err != nil {
		return err
	}
	r.log.Info("timer resumed", zap.String("name", name))
	return nil
}

// Trigger starts the service unit once, bypassing the schedule.
func (r *Repository) Trigger(ctx context.Context, name string) error {
	if err := r.ctl.Start(ctx, timer.ServiceUnit(name)); err != nil {
		return err
	}
	r.log.Info("timer triggered", zap.String("name", name))
	return nil
}
