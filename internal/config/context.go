// Package config resolves the execution context (system or user scope)
// and loads operator preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Context describes where this invocation keeps its timers: the
// repository base for timer directories, the systemd unit directory
// receiving generated units, and whether systemctl calls need the
// --user scope.
type Context struct {
	UserScope bool
	BaseDir   string
	UnitDir   string
}

// Resolve inspects the effective privilege of the process and picks
// system-wide or per-user paths accordingly.
func Resolve() (*Context, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return resolveContext(os.Geteuid(), home, os.Getenv)
}

func resolveContext(euid int, home string, getenv func(string) string) (*Context, error) {
	if euid == 0 {
		return &Context{
			BaseDir: filepath.Join(home, "cronie"),
			UnitDir: "/etc/systemd/system",
		}, nil
	}
	// Without the runtime directory there is no way to reach the user
	// systemd instance. This usually means the environment was lost in
	// a privilege switch (su without a login shell).
	if getenv("XDG_RUNTIME_DIR") == "" {
		return nil, fmt.Errorf("XDG_RUNTIME_DIR is not set: cannot reach the user systemd instance")
	}
	return &Context{
		UserScope: true,
		BaseDir:   filepath.Join(home, "cronie"),
		UnitDir:   filepath.Join(home, ".config", "systemd", "user"),
	}, nil
}

// EnsureDirs creates the repository base and the unit directory if
// they do not exist yet.
func (c *Context) EnsureDirs() error {
	for _, dir := range []string{c.BaseDir, c.UnitDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
