// Package systemd drives systemctl for unit lifecycle work. Scheduling
// and execution belong to systemd itself; this package only speaks the
// standard CLI contract (daemon-reload, enable, disable, start,
// restart, is-enabled, is-active, show).
package systemd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Control is the unit lifecycle surface the rest of the program uses.
type Control interface {
	DaemonReload(ctx context.Context) error
	EnableNow(ctx context.Context, unit string) error
	DisableNow(ctx context.Context, unit string) error
	Start(ctx context.Context, unit string) error
	Restart(ctx context.Context, unit string) error
	IsEnabled(ctx context.Context, unit string) (string, error)
	IsActive(ctx context.Context, unit string) (string, error)
	NextElapse(ctx context.Context, unit string) (string, error)
}

// Runner executes one systemctl invocation and returns trimmed stdout.
// Output is returned even when the command exits nonzero: the query
// verbs report state through both the exit code and the printed word.
type Runner func(ctx context.Context, args ...string) (string, error)

// Systemctl implements Control by invoking the systemctl binary,
// prefixing --user in user scope.
type Systemctl struct {
	userScope bool
	run       Runner
	log       *zap.Logger
}

// New returns a Systemctl for the given scope.
func New(userScope bool, log *zap.Logger) *Systemctl {
	return &Systemctl{userScope: userScope, run: runSystemctl, log: log}
}

// Available reports whether the systemctl binary can be found on PATH.
func Available() error {
	if _, err := exec.LookPath("systemctl"); err != nil {
		return fmt.Errorf("systemctl not found on PATH: %w", err)
	}
	return nil
}

const commandTimeout = 30 * time.Second

func runSystemctl(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "systemctl", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return out, fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), msg)
	}
	return out, nil
}

func (s *Systemctl) args(base ...string) []string {
	if s.userScope {
		return append([]string{"--user"}, base...)
	}
	return base
}

// do runs a mutating verb; failures are logged and returned.
func (s *Systemctl) do(ctx context.Context, base ...string) error {
	args := s.args(base...)
	if _, err := s.run(ctx, args...); err != nil {
		s.log.Warn("systemctl failed", zap.Strings("args", args), zap.Error(err))
		return err
	}
	s.log.Debug("systemctl", zap.Strings("args", args))
	return nil
}

// query runs a state verb. is-enabled and is-active exit nonzero for
// disabled or inactive units while still printing the state word, so
// any printed word wins over the exit status.
func (s *Systemctl) query(ctx context.Context, base ...string) (string, error) {
	out, err := s.run(ctx, s.args(base...)...)
	if out != "" {
		return out, nil
	}
	return "", err
}

func (s *Systemctl) DaemonReload(ctx context.Context) error {
	return s.do(ctx, "daemon-reload")
}

func (s *Systemctl) EnableNow(ctx context.Context, unit string) error {
	return s.do(ctx, "enable", "--now", unit)
}

func (s *Systemctl) DisableNow(ctx context.Context, unit string) error {
	return s.do(ctx, "disable", "--now", unit)
}

func (s *Systemctl) Start(ctx context.Context, unit string) error {
	return s.do(ctx, "start", unit)
}

func (s *Systemctl) Restart(ctx context.Context, unit string) error {
	return s.do(ctx, "restart", unit)
}

func (s *Systemctl) IsEnabled(ctx context.Context, unit string) (string, error) {
	return s.query(ctx, "is-enabled", unit)
}

func (s *Systemctl) IsActive(ctx context.Context, unit string) (string, error) {
	return s.query(ctx, "is-active", unit)
}

// NextElapse returns systemd's formatted next trigger time for a timer
// unit, or an empty string when none is scheduled.
func (s *Systemctl) NextElapse(ctx context.Context, unit string) (string, error) {
	out, err := s.query(ctx, "show", "-p", "NextElapseUSecRealtime", "--value", unit)
	if err != nil {
		return "", err
	}
	if out == "n/a" {
		return "", nil
	}
	return out, nil
}
