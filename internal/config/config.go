package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds operator preferences. Every field is optional in the
// file; absent values fall back to the environment and then to
// built-in defaults.
type Config struct {
	Editor    string `toml:"editor"`
	Pager     string `toml:"pager"`
	BackupDir string `toml:"backup_dir"`
	LogLevel  string `toml:"log_level"`
}

// Dir returns the preferences directory, ~/.config/cronie on most
// systems.
func Dir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "cronie"), nil
}

// DefaultPath returns the preferences file location inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the session log location under dir.
func LogPath(dir string) string {
	return filepath.Join(dir, "cronie.log")
}

// CatalogPath returns the backup catalog database location under dir.
func CatalogPath(dir string) string {
	return filepath.Join(dir, "cronie.db")
}

// Load reads the preferences file at path. A missing file is not an
// error: defaults apply.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	applyDefaults(&cfg, os.Getenv)
	return &cfg, nil
}

func applyDefaults(c *Config, getenv func(string) string) {
	if c.Editor == "" {
		c.Editor = getenv("EDITOR")
	}
	if c.Editor == "" {
		c.Editor = "vi"
	}
	if c.Pager == "" {
		c.Pager = getenv("PAGER")
	}
	if c.Pager == "" {
		c.Pager = "less"
	}
	if c.BackupDir == "" {
		c.BackupDir = getenv("HOME")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
