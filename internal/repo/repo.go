// Package repo implements timer lifecycle operations against the
// on-disk repository and the service manager. A timer's four artifacts
// (script, information log, service unit, timer unit) are created
// together and removed together.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cronie-dev/cronie/internal/systemd"
	"github.com/cronie-dev/cronie/internal/timer"
	"github.com/cronie-dev/cronie/internal/unitfile"
)

var (
	// ErrExists reports a name collision with an existing timer directory.
	ErrExists = errors.New("already exists")
	// ErrNotFound reports a name with no timer directory behind it.
	ErrNotFound = errors.New("not found")
)

// Repository manages the timer directories under base and their unit
// files under unitDir.
type Repository struct {
	base    string
	unitDir string
	ctl     systemd.Control
	log     *zap.Logger
}

// New returns a Repository over the given directories.
func New(base, unitDir string, ctl systemd.Control, log *zap.Logger) *Repository {
	return &Repository{base: base, unitDir: unitDir, ctl: ctl, log: log}
}

// Base returns the repository base directory.
func (r *Repository) Base() string { return r.base }

// UnitDir returns the systemd unit directory in use.
func (r *Repository) UnitDir() string { return r.unitDir }

// Exists reports whether a timer directory of that name is present.
func (r *Repository) Exists(name string) bool {
	info, err := os.Stat(timer.Dir(r.base, name))
	return err == nil && info.IsDir()
}

// ResolveName sanitizes the proposed name, generating a random one for
// empty input, and rejects names already taken by a directory.
func (r *Repository) ResolveName(input string) (string, error) {
	name := timer.SanitizeName(input)
	if name == "" {
		for i := 0; i < 10; i++ {
			candidate := timer.RandomName()
			if !r.Exists(candidate) {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("could not find a free generated name")
	}
	if r.Exists(name) {
		return "", fmt.Errorf("a timer named %q %w", name, ErrExists)
	}
	return name, nil
}

// CreateRequest carries everything Create needs to materialize a new
// timer.
type CreateRequest struct {
	Name        string
	Description string
	Interval    string
	OnCalendar  string
	Script      string
}

// Create materializes the four artifacts for a new timer, reloads the
// service manager, and enables the timer unit. A colliding directory
// fails before anything is written or reloaded.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*timer.Timer, error) {
	if r.Exists(req.Name) {
		return nil, fmt.Errorf("a timer named %q %w", req.Name, ErrExists)
	}
	meta := timer.Metadata{
		Name:        req.Name,
		Description: req.Description,
		Interval:    req.Interval,
		OnCalendar:  req.OnCalendar,
		CreatedAt:   time.Now(),
	}
	if err := r.writeArtifacts(meta, req.Script); err != nil {
		return nil, err
	}
	if err := r.ctl.DaemonReload(ctx); err != nil {
		return nil, err
	}
	if err := r.ctl.EnableNow(ctx, timer.TimerUnit(req.Name)); err != nil {
		return nil, err
	}
	r.log.Info("timer created",
		zap.String("name", req.Name),
		zap.String("on_calendar", req.OnCalendar))
	return &timer.Timer{
		Name:        meta.Name,
		Description: meta.Description,
		Interval:    meta.Interval,
		OnCalendar:  meta.OnCalendar,
		CreatedAt:   meta.CreatedAt,
		Status:      timer.StatusActive,
	}, nil
}

// Delete tears a timer down: disable and stop, remove both unit files,
// reload, then remove the directory tree. Unit cleanup is best effort
// and never blocks directory removal.
func (r *Repository) Delete(ctx context.Context, name string) error {
	if !r.Exists(name) {
		return fmt.Errorf("no timer named %q", name)
	}
	if err := r.ctl.DisableNow(ctx, timer.TimerUnit(name)); err != nil {
		r.log.Warn("disable during delete failed", zap.String("name", name), zap.Error(err))
	}
	for _, unit := range []string{timer.ServiceUnit(name), timer.TimerUnit(name)} {
		if err := os.Remove(filepath.Join(r.unitDir, unit)); err != nil && !os.IsNotExist(err) {
			r.log.Warn("unit removal failed", zap.String("unit", unit), zap.Error(err))
		}
	}
	if err := r.ctl.DaemonReload(ctx); err != nil {
		r.log.Warn("reload during delete failed", zap.Error(err))
	}
	if err := os.RemoveAll(timer.Dir(r.base, name)); err != nil {
		return fmt.Errorf("remove timer directory: %w", err)
	}
	r.log.Info("timer deleted", zap.String("name", name))
	return nil
}

// RebuildUnits regenerates the unit pair for name from its information
// log alone, the same rendering path used at creation.
func (r *Repository) RebuildUnits(name string) error {
	meta, err := r.readMetadata(name)
	if err != nil {
		return err
	}
	return r.writeUnits(meta)
}

// Install registers an already-present timer directory: units are
// rebuilt from its information log, the manager reloaded, and the
// timer enabled. Restore uses this after copying a directory in.
func (r *Repository) Install(ctx context.Context, name string) error {
	if err := r.RebuildUnits(name); err != nil {
		return err
	}
	if err := r.ctl.DaemonReload(ctx); err != nil {
		return err
	}
	if err := r.ctl.EnableNow(ctx, timer.TimerUnit(name)); err != nil {
		return err
	}
	r.log.Info("timer installed", zap.String("name", name))
	return nil
}

// ScriptPath returns the job script path for name.
func (r *Repository) ScriptPath(name string) string {
	return timer.ScriptPath(r.base, name)
}

// InfoText returns the raw information log contents for display.
func (r *Repository) InfoText(name string) (string, error) {
	data, err := os.ReadFile(timer.MetadataPath(r.base, name))
	if err != nil {
		return "", fmt.Errorf("read information log: %w", err)
	}
	return string(data), nil
}

func (r *Repository) writeArtifacts(meta timer.Metadata, script string) error {
	if err := os.MkdirAll(timer.LogDir(r.base, meta.Name), 0o755); err != nil {
		return fmt.Errorf("create timer directory: %w", err)
	}
	if err := os.WriteFile(timer.ScriptPath(r.base, meta.Name), []byte(script), 0o755); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	if err := r.writeMetadata(meta); err != nil {
		return err
	}
	return r.writeUnits(meta)
}

// writeUnits renders both unit files whole from the metadata record.
// Units are never patched in place.
func (r *Repository) writeUnits(meta timer.Metadata) error {
	service := unitfile.Service(meta.Description, timer.ScriptPath(r.base, meta.Name), timer.LogDir(r.base, meta.Name))
	if err := os.WriteFile(filepath.Join(r.unitDir, timer.ServiceUnit(meta.Name)), []byte(service), 0o644); err != nil {
		return fmt.Errorf("write service unit: %w", err)
	}
	timerUnit := unitfile.Timer(meta.Description, meta.OnCalendar)
	if err := os.WriteFile(filepath.Join(r.unitDir, timer.TimerUnit(meta.Name)), []byte(timerUnit), 0o644); err != nil {
		return fmt.Errorf("write timer unit: %w", err)
	}
	return nil
}

func (r *Repository) readMetadata(name string) (timer.Metadata, error) {
	data, err := os.ReadFile(timer.MetadataPath(r.base, name))
	if err != nil {
		return timer.Metadata{}, fmt.Errorf("read information log: %w", err)
	}
	meta, err := timer.ParseMetadata(string(data))
	if err != nil {
		return timer.Metadata{}, fmt.Errorf("information log for %s: %w", name, err)
	}
	return meta, nil
}

func (r *Repository) writeMetadata(meta timer.Metadata) error {
	if err := os.WriteFile(timer.MetadataPath(r.base, meta.Name), []byte(meta.Marshal()), 0o644); err != nil {
		return fmt.Errorf("write information log: %w", err)
	}
	return nil
}
