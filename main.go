package main

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cronie-dev/cronie/internal/catalog"
	"github.com/cronie-dev/cronie/internal/config"
	"github.com/cronie-dev/cronie/internal/logging"
	"github.com/cronie-dev/cronie/internal/repo"
	"github.com/cronie-dev/cronie/internal/systemd"
	"github.com/cronie-dev/cronie/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	if err := systemd.Available(); err != nil {
		return err
	}

	ctx, err := config.Resolve()
	if err != nil {
		return err
	}
	if err := ctx.EnsureDirs(); err != nil {
		return err
	}

	cfgDir, err := config.Dir()
	if err != nil {
		return err
	}
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// A broken log file should not keep the manager from starting.
	log, closeLog, err := logging.New(config.LogPath(cfgDir), logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		log = zap.NewNop()
		closeLog = func() {}
	}
	defer closeLog()

	cat, err := catalog.Open(config.CatalogPath(cfgDir))
	if err != nil {
		return fmt.Errorf("open backup catalog: %w", err)
	}
	defer cat.Close()

	ctl := systemd.New(ctx.UserScope, log)
	r := repo.New(ctx.BaseDir, ctx.UnitDir, ctl, log)

	log.Info("session started",
		zap.Bool("user_scope", ctx.UserScope),
		zap.String("base", ctx.BaseDir),
		zap.String("units", ctx.UnitDir),
	)

	app := tui.NewApp(ctx, cfg, r, cat, log)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
