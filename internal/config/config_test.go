package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveContextPrivileged(t *testing.T) {
	ctx, err := resolveContext(0, "/root", func(string) string { return "" })
	if err != nil {
		t.Fatalf("resolveContext: %v", err)
	}
	if ctx.UserScope {
		t.Error("privileged context must not use user scope")
	}
	if ctx.BaseDir != "/root/cronie" {
		t.Errorf("BaseDir = %q", ctx.BaseDir)
	}
	if ctx.UnitDir != "/etc/systemd/system" {
		t.Errorf("UnitDir = %q", ctx.UnitDir)
	}
}

func TestResolveContextUser(t *testing.T) {
	env := map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000"}
	ctx, err := resolveContext(1000, "/home/amy", func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("resolveContext: %v", err)
	}
	if !ctx.UserScope {
		t.Error("unprivileged context must use user scope")
	}
	if ctx.BaseDir != "/home/amy/cronie" {
		t.Errorf("BaseDir = %q", ctx.BaseDir)
	}
	if ctx.UnitDir != "/home/amy/.config/systemd/user" {
		t.Errorf("UnitDir = %q", ctx.UnitDir)
	}
}

func TestResolveContextMissingRuntimeDir(t *testing.T) {
	_, err := resolveContext(1000, "/home/amy", func(string) string { return "" })
	if err == nil {
		t.Fatal("expected an error without XDG_RUNTIME_DIR")
	}
}

func TestEnsureDirsIdempotent(t *testing.T) {
	root := t.TempDir()
	ctx := &Context{
		BaseDir: filepath.Join(root, "cronie"),
		UnitDir: filepath.Join(root, "units"),
	}
	for i := 0; i < 2; i++ {
		if err := ctx.EnsureDirs(); err != nil {
			t.Fatalf("EnsureDirs pass %d: %v", i, err)
		}
	}
	for _, dir := range []string{ctx.BaseDir, ctx.UnitDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("missing directory %s: %v", dir, err)
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor == "" || cfg.Pager == "" || cfg.LogLevel != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "editor = \"nano\"\npager = \"more\"\nbackup_dir = \"/srv/backups\"\nlog_level = \"debug\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor != "nano" || cfg.Pager != "more" || cfg.BackupDir != "/srv/backups" || cfg.LogLevel != "debug" {
		t.Fatalf("loaded = %+v", cfg)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("editor = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestApplyDefaultsEnvFallback(t *testing.T) {
	env := map[string]string{"EDITOR": "hx", "PAGER": "bat", "HOME": "/home/amy"}
	var cfg Config
	applyDefaults(&cfg, func(k string) string { return env[k] })
	if cfg.Editor != "hx" || cfg.Pager != "bat" || cfg.BackupDir != "/home/amy" {
		t.Fatalf("env fallback not applied: %+v", cfg)
	}
}

func TestApplyDefaultsBuiltins(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg, func(string) string { return "" })
	if cfg.Editor != "vi" || cfg.Pager != "less" || cfg.LogLevel != "info" {
		t.Fatalf("builtin defaults not applied: %+v", cfg)
	}
}
