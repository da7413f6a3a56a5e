package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cronie-dev/cronie/internal/backup"
	"github.com/cronie-dev/cronie/internal/catalog"
	"github.com/cronie-dev/cronie/internal/config"
	"github.com/cronie-dev/cronie/internal/repo"
	"github.com/cronie-dev/cronie/internal/schedule"
	"github.com/cronie-dev/cronie/internal/script"
	"github.com/cronie-dev/cronie/internal/timer"
)

// stubControl is a no-failure service manager for view tests.
type stubControl struct {
	calls   []string
	enabled map[string]string
	active  map[string]string
}

func newStubControl() *stubControl {
	return &stubControl{
		enabled: make(map[string]string),
		active:  make(map[string]string),
	}
}

func (s *stubControl) DaemonReload(ctx context.Context) error {
	s.calls = append(s.calls, "daemon-reload")
	return nil
}

func (s *stubControl) EnableNow(ctx context.Context, unit string) error {
	s.calls = append(s.calls, "enable "+unit)
	s.enabled[unit] = "enabled"
	s.active[unit] = "active"
	return nil
}

func (s *stubControl) DisableNow(ctx context.Context, unit string) error {
	s.calls = append(s.calls, "disable "+unit)
	s.enabled[unit] = "disabled"
	s.active[unit] = "inactive"
	return nil
}

func (s *stubControl) Start(ctx context.Context, unit string) error {
	s.calls = append(s.calls, "start "+unit)
	return nil
}

func (s *stubControl) Restart(ctx context.Context, unit string) error {
	s.calls = append(s.calls, "restart "+unit)
	return nil
}

func (s *stubControl) IsEnabled(ctx context.Context, unit string) (string, error) {
	if v, ok := s.enabled[unit]; ok {
		return v, nil
	}
	return "enabled", nil
}

func (s *stubControl) IsActive(ctx context.Context, unit string) (string, error) {
	if v, ok := s.active[unit]; ok {
		return v, nil
	}
	return "active", nil
}

func (s *stubControl) NextElapse(ctx context.Context, unit string) (string, error) {
	return "Tue 2026-09-01 09:00:00 UTC", nil
}

func newTestRepo(t *testing.T) (*repo.Repository, *stubControl) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "cronie")
	units := filepath.Join(t.TempDir(), "units")
	for _, dir := range []string{base, units} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	ctl := newStubControl()
	return repo.New(base, units, ctl, zap.NewNop()), ctl
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.OpenMemory()
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func newTestApp(t *testing.T) App {
	t.Helper()
	r, _ := newTestRepo(t)
	ctx := &config.Context{UserScope: true, BaseDir: r.Base(), UnitDir: r.UnitDir()}
	cfg := &config.Config{Editor: "vi", Pager: "less", BackupDir: t.TempDir(), LogLevel: "info"}
	return NewApp(ctx, cfg, r, newTestCatalog(t), zap.NewNop())
}

func createTimer(t *testing.T, r *repo.Repository, name string) {
	t.Helper()
	_, err := r.Create(context.Background(), repo.CreateRequest{
		Name:        name,
		Description: name + " job",
		Interval:    "Every 5 minutes",
		OnCalendar:  "*:0/5:00",
		Script:      "#!/bin/sh\nexit 0\n",
	})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 5 {
		t.Fatalf("expected 5 view names, got %d", len(viewNames))
	}
	expected := []string{"Menu", "New Timer", "Timers", "Manage", "Backup"}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewMenu != 0 || viewCreate != 1 || viewTimers != 2 || viewManage != 3 || viewBackup != 4 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1048576, "1.0 MiB"},
		{3221225472, "3.0 GiB"},
	}
	for _, tt := range tests {
		got := formatBytes(tt.n)
		if got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"much-too-long-name", 10, "much-too-…"},
		{"ab", 1, "ab"},
	}
	for _, tt := range tests {
		got := truncate(tt.s, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestConfirmsDelete(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y", true},
		{"Y", true},
		{"yes", true},
		{"YES", true},
		{" yes ", true},
		{"", false},
		{"n", false},
		{"no", false},
		{"yess", false},
		{"si", false},
	}
	for _, tt := range tests {
		if got := confirmsDelete(tt.in); got != tt.want {
			t.Errorf("confirmsDelete(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	bindings := keys.ShortHelp()
	if len(bindings) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"accent", func() string { return accentStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"header", func() string { return headerStyle.Render("test") }},
		{"footer", func() string { return footerStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}
	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}

func TestStatusStyleCoversAllStatuses(t *testing.T) {
	for _, s := range []timer.Status{timer.StatusActive, timer.StatusIdle, timer.StatusPaused, timer.StatusInvalid} {
		if statusStyle(s).Render(s.String()) == "" {
			t.Fatalf("status %v rendered empty", s)
		}
	}
}

// ============================================================
// Menu
// ============================================================

func TestMenuNavigation(t *testing.T) {
	m := newMenuModel(true, "/home/x/cronie", "/home/x/.config/systemd/user")

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.cursor)
	}

	// Never moves past the ends.
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Fatal("cursor moved above first item")
	}
	for i := 0; i < 10; i++ {
		m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != len(menuItems)-1 {
		t.Fatalf("cursor = %d, want %d", m.cursor, len(menuItems)-1)
	}
}

func TestMenuChooseCreate(t *testing.T) {
	m := newMenuModel(true, "", "")
	_, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should produce a command")
	}
	msg, ok := cmd().(switchViewMsg)
	if !ok {
		t.Fatalf("expected switchViewMsg, got %T", cmd())
	}
	if msg.view != viewCreate {
		t.Fatalf("view = %v, want viewCreate", msg.view)
	}
}

func TestMenuChooseQuit(t *testing.T) {
	m := newMenuModel(true, "", "")
	cmd := m.choose(len(menuItems) - 1)
	if cmd == nil {
		t.Fatal("quit item should produce a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg, got %T", cmd())
	}
}

func TestMenuNumberJump(t *testing.T) {
	m := newMenuModel(true, "", "")
	m, cmd := m.update(keyRune('3'))
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}
	msg, ok := cmd().(switchViewMsg)
	if !ok || msg.view != viewBackup {
		t.Fatalf("expected switch to backup view, got %v", cmd())
	}
}

func TestMenuViewShowsContext(t *testing.T) {
	m := newMenuModel(false, "/root/cronie", "/etc/systemd/system")
	m.setSize(100, 30)
	out := m.view()
	for _, want := range []string{"cronie", "system", "/root/cronie", "/etc/systemd/system"} {
		if !strings.Contains(out, want) {
			t.Fatalf("menu view missing %q", want)
		}
	}
}

// ============================================================
// Schedule flow
// ============================================================

func TestScheduleFlowBuildSpec(t *testing.T) {
	tests := []struct {
		name string
		prep func(f scheduleFlow)
		kind schedule.Kind
		want string // expected expression
	}{
		{
			name: "minutes",
			prep: func(f scheduleFlow) { *f.count = "5" },
			kind: schedule.Minutes,
			want: "*:0/5:00",
		},
		{
			name: "hours",
			prep: func(f scheduleFlow) { *f.count = " 6 " },
			kind: schedule.Hours,
			want: "*-*-* 0/6:00:00",
		},
		{
			name: "daily trims clock",
			prep: func(f scheduleFlow) { *f.clock = " 09:30 " },
			kind: schedule.Daily,
			want: "*-*-* 09:30:00",
		},
		{
			name: "weekly normalizes day",
			prep: func(f scheduleFlow) { *f.weekday = "mon"; *f.clock = "08:00" },
			kind: schedule.Weekly,
			want: "Mon *-*-* 08:00:00",
		},
		{
			name: "monthly",
			prep: func(f scheduleFlow) { *f.monthDay = "5"; *f.clock = "12:00" },
			kind: schedule.Monthly,
			want: "*-*-05 12:00:00",
		},
		{
			name: "yearly defaults to midnight",
			prep: func(f scheduleFlow) { *f.yearDate = "03-01"; *f.yearTime = "" },
			kind: schedule.Yearly,
			want: "*-03-01 00:00:00",
		},
		{
			name: "custom passthrough",
			prep: func(f scheduleFlow) { *f.custom = "Mon..Fri *-*-* 08:00" },
			kind: schedule.Custom,
			want: "Mon..Fri *-*-* 08:00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScheduleFlow()
			*f.kind = tt.kind
			tt.prep(f)
			spec, err := f.buildSpec()
			if err != nil {
				t.Fatalf("buildSpec: %v", err)
			}
			if got := spec.Expression(); got != tt.want {
				t.Fatalf("expression = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScheduleFlowRejectsBadCount(t *testing.T) {
	f := newScheduleFlow()
	*f.kind = schedule.Minutes
	*f.count = "90"
	if _, err := f.buildSpec(); err == nil {
		t.Fatal("expected error for out-of-range minutes")
	}

	*f.kind = schedule.Weekly
	*f.weekday = "Monday-ish"
	*f.clock = "08:00"
	if _, err := f.buildSpec(); err == nil {
		t.Fatal("expected error for bad weekday")
	}
}

func TestScheduleFlowStartActivates(t *testing.T) {
	f := newScheduleFlow()
	if f.active() {
		t.Fatal("flow should start inactive")
	}
	f, cmd := f.start()
	if !f.active() {
		t.Fatal("flow should be active after start")
	}
	if cmd == nil {
		t.Fatal("start should return the form init command")
	}
	if f.stage != 0 {
		t.Fatalf("stage = %d, want 0", f.stage)
	}
}

// ============================================================
// Create wizard
// ============================================================

func TestCreateBegin(t *testing.T) {
	r, _ := newTestRepo(t)
	c := newCreateModel(r)
	if c.isActive() {
		t.Fatal("wizard should start inactive")
	}

	c, cmd := c.begin()
	if !c.isActive() {
		t.Fatal("wizard should be active after begin")
	}
	if cmd == nil {
		t.Fatal("begin should return the form init command")
	}
	if c.stage != createDetails {
		t.Fatalf("stage = %d, want createDetails", c.stage)
	}
}

func TestCreateBuildScript(t *testing.T) {
	r, _ := newTestRepo(t)
	c := newCreateModel(r)
	c.resolvedName = "sync"

	*c.template = script.Empty
	if got := c.buildScript(); !strings.Contains(got, "Job script for sync") {
		t.Fatalf("empty stub missing name: %q", got)
	}

	*c.template = script.RsyncMirror
	*c.src, *c.dst = "/data/src", "/data/dst"
	got := c.buildScript()
	if !strings.Contains(got, "rsync -a --delete") || !strings.Contains(got, "/data/src") {
		t.Fatalf("mirror script wrong: %q", got)
	}

	*c.template = script.HTTPCheck
	*c.url = "https://example.com/health"
	got = c.buildScript()
	if !strings.Contains(got, "curl") || !strings.Contains(got, "https://example.com/health") {
		t.Fatalf("probe script wrong: %q", got)
	}
}

func TestCreateSummary(t *testing.T) {
	r, _ := newTestRepo(t)
	c := newCreateModel(r)
	c.resolvedName = "db-backup"
	*c.desc = "Nightly dump"
	c.spec = schedule.Spec{Kind: schedule.Daily, Clock: "02:30"}
	c.haveSpec = true

	out := c.renderSummary()
	for _, want := range []string{"db-backup", "Nightly dump", "Daily at 02:30", "*-*-* 02:30:00", "Next run"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestCreateSummaryCustomHasNoPreview(t *testing.T) {
	r, _ := newTestRepo(t)
	c := newCreateModel(r)
	c.resolvedName = "odd"
	*c.desc = "odd job"
	c.spec = schedule.Spec{Kind: schedule.Custom, Raw: "Mon..Fri *-*-* 08:00"}

	out := c.renderSummary()
	if !strings.Contains(out, "determined by systemd") {
		t.Fatalf("custom schedule should defer the preview to systemd:\n%s", out)
	}
}

func TestCreateSubmit(t *testing.T) {
	r, ctl := newTestRepo(t)
	c := newCreateModel(r)
	c.resolvedName = "sync"
	*c.desc = "Mirror data"
	*c.template = script.Empty
	c.spec = schedule.Spec{Kind: schedule.Minutes, Every: 10}

	msg := c.submit()()
	created, ok := msg.(timerCreatedMsg)
	if !ok {
		t.Fatalf("expected timerCreatedMsg, got %#v", msg)
	}
	if created.t.Name != "sync" {
		t.Fatalf("name = %q, want sync", created.t.Name)
	}
	if !r.Exists("sync") {
		t.Fatal("timer directory missing after submit")
	}
	found := false
	for _, call := range ctl.calls {
		if call == "enable sync.timer" {
			found = true
		}
	}
	if !found {
		t.Fatalf("timer unit never enabled: %v", ctl.calls)
	}
}

func TestCreateSubmitCollision(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "sync")

	c := newCreateModel(r)
	c.resolvedName = "sync"
	*c.desc = "Duplicate"
	c.spec = schedule.Spec{Kind: schedule.Minutes, Every: 10}

	msg := c.submit()()
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// ============================================================
// Timers view
// ============================================================

func TestTimersRefreshLoads(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "beta")
	createTimer(t, r, "alpha")

	m := newTimersModel(r)
	msg := m.refresh()()
	loaded, ok := msg.(timersLoadedMsg)
	if !ok {
		t.Fatalf("expected timersLoadedMsg, got %#v", msg)
	}
	m, _ = m.update(loaded)

	if !m.loaded {
		t.Fatal("model should be marked loaded")
	}
	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.rows))
	}
	if m.rows[0].Name != "alpha" || m.rows[1].Name != "beta" {
		t.Fatalf("rows out of order: %s, %s", m.rows[0].Name, m.rows[1].Name)
	}
}

func TestTimersEnterOpensManage(t *testing.T) {
	r, _ := newTestRepo(t)
	m := newTimersModel(r)
	m.rows = []timer.Timer{{Name: "sync", Status: timer.StatusActive}}
	m.loaded = true

	_, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should produce a command")
	}
	open, ok := cmd().(manageOpenMsg)
	if !ok || open.name != "sync" {
		t.Fatalf("expected manageOpenMsg for sync, got %#v", cmd())
	}
}

func TestTimersDeleteCommand(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "sync")

	m := newTimersModel(r)
	msg := m.doDelete("sync")()
	deleted, ok := msg.(timerDeletedMsg)
	if !ok || deleted.name != "sync" {
		t.Fatalf("expected timerDeletedMsg, got %#v", msg)
	}
	if r.Exists("sync") {
		t.Fatal("timer directory still present after delete")
	}
}

func TestTimersDeleteConfirmGate(t *testing.T) {
	r, _ := newTestRepo(t)
	m := newTimersModel(r)
	m.rows = []timer.Timer{{Name: "sync"}}
	m.loaded = true

	m, cmd := m.showDeleteConfirm("sync")
	if !m.formActive || m.form == nil {
		t.Fatal("confirm form should be active")
	}
	if cmd == nil {
		t.Fatal("confirm form should return an init command")
	}
	if m.deleteTarget != "sync" {
		t.Fatalf("deleteTarget = %q, want sync", m.deleteTarget)
	}
}

func TestTimersViewEmpty(t *testing.T) {
	r, _ := newTestRepo(t)
	m := newTimersModel(r)
	m.loaded = true
	m.setSize(100, 30)

	out := m.view()
	if !strings.Contains(out, "No timers yet") {
		t.Fatalf("empty view missing hint:\n%s", out)
	}
}

func TestTimersViewShowsRows(t *testing.T) {
	r, _ := newTestRepo(t)
	m := newTimersModel(r)
	m.loaded = true
	m.setSize(120, 30)
	m.rows = []timer.Timer{
		{Name: "db-backup", Status: timer.StatusActive, Interval: "Daily at 02:30", NextRun: "Tue 2026-09-01"},
		{Name: "mirror", Status: timer.StatusPaused, Interval: "Every 5 minutes"},
	}

	out := m.view()
	for _, want := range []string{"db-backup", "mirror", "Daily at 02:30", "paused"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list view missing %q", want)
		}
	}
}

// ============================================================
// Manage view
// ============================================================

func TestManageOpenLoads(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "sync")

	cfg := &config.Config{Editor: "vi", Pager: "less"}
	m := newManageModel(r, cfg)
	m, cmd := m.open("sync")
	if m.name != "sync" || m.mode != manageActions {
		t.Fatal("open should reset the view to the action list")
	}

	msg := cmd()
	data, ok := msg.(manageDataMsg)
	if !ok {
		t.Fatalf("expected manageDataMsg, got %#v", msg)
	}
	if data.err != nil {
		t.Fatalf("load error: %v", data.err)
	}
	if data.t.Name != "sync" {
		t.Fatalf("loaded name = %q", data.t.Name)
	}
	if !strings.Contains(data.info, "Name: sync") {
		t.Fatalf("info text missing metadata: %q", data.info)
	}
}

func TestManageDispatchBack(t *testing.T) {
	r, _ := newTestRepo(t)
	m := newManageModel(r, &config.Config{})

	_, cmd := m.dispatch(len(manageActionNames) - 1)
	msg, ok := cmd().(switchViewMsg)
	if !ok || msg.view != viewTimers {
		t.Fatalf("back should switch to the timers view, got %#v", cmd())
	}
}

func TestManagePauseResumeTrigger(t *testing.T) {
	r, ctl := newTestRepo(t)
	createTimer(t, r, "sync")
	ctl.calls = nil

	m := newManageModel(r, &config.Config{})
	m.name = "sync"

	if msg := m.doPause()(); msg.(actionDoneMsg).text == "" {
		t.Fatal("pause should report an action")
	}
	if msg := m.doResume()(); msg.(actionDoneMsg).text == "" {
		t.Fatal("resume should report an action")
	}
	if msg := m.doTrigger()(); msg.(actionDoneMsg).text == "" {
		t.Fatal("trigger should report an action")
	}

	want := []string{"disable sync.timer", "enable sync.timer", "start sync.service"}
	if len(ctl.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", ctl.calls, want)
	}
	for i := range want {
		if ctl.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, ctl.calls[i], want[i])
		}
	}
}

func TestManageSetScheduleCommand(t *testing.T) {
	r, ctl := newTestRepo(t)
	createTimer(t, r, "sync")
	ctl.calls = nil

	m := newManageModel(r, &config.Config{})
	m.name = "sync"

	spec := schedule.Spec{Kind: schedule.Daily, Clock: "04:00"}
	msg := m.doSetSchedule(spec)()
	if _, ok := msg.(actionDoneMsg); !ok {
		t.Fatalf("expected actionDoneMsg, got %#v", msg)
	}

	row, err := r.Get(context.Background(), "sync")
	if err != nil {
		t.Fatal(err)
	}
	if row.OnCalendar != "*-*-* 04:00:00" {
		t.Fatalf("OnCalendar = %q", row.OnCalendar)
	}

	restarted := false
	for _, call := range ctl.calls {
		if call == "restart sync.timer" {
			restarted = true
		}
	}
	if !restarted {
		t.Fatalf("timer not restarted after schedule edit: %v", ctl.calls)
	}
}

func TestManagePruneUpdatesFileList(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "sync")

	logDir := timer.LogDir(r.Base(), "sync")
	oldPath := filepath.Join(logDir, "2026-08-01.log")
	newPath := filepath.Join(logDir, "2026-08-25.log")
	for _, p := range []string{oldPath, newPath} {
		if err := os.WriteFile(p, []byte("run\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -20)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatal(err)
	}

	m := newManageModel(r, &config.Config{})
	m.name = "sync"

	msg := m.doPrune(7)()
	pruned, ok := msg.(pruneDoneMsg)
	if !ok {
		t.Fatalf("expected pruneDoneMsg, got %#v", msg)
	}
	if pruned.removed != 1 {
		t.Fatalf("removed = %d, want 1", pruned.removed)
	}
	if len(pruned.files) != 1 || pruned.files[0].Name != "2026-08-25.log" {
		t.Fatalf("files = %#v", pruned.files)
	}

	m, _ = m.update(pruned)
	if len(m.files) != 1 {
		t.Fatal("model file list not updated")
	}
}

func TestManageActivityBuildsChart(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "sync")

	logDir := timer.LogDir(r.Base(), "sync")
	today := time.Now().Format("2006-01-02")
	if err := os.WriteFile(filepath.Join(logDir, today+".log"), []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newManageModel(r, &config.Config{})
	m.name = "sync"
	m.setSize(100, 30)

	msg := m.loadActivity()()
	act, ok := msg.(activityMsg)
	if !ok {
		t.Fatalf("expected activityMsg, got %#v", msg)
	}
	if len(act.days) != activityDays {
		t.Fatalf("days = %d, want %d", len(act.days), activityDays)
	}

	m, _ = m.update(act)
	if m.mode != manageActivity {
		t.Fatal("should switch to the activity view")
	}
	if m.activity[activityDays-1].Lines != 3 {
		t.Fatalf("today's count = %d, want 3", m.activity[activityDays-1].Lines)
	}
}

func TestManageEditorCommandBuilt(t *testing.T) {
	r, _ := newTestRepo(t)
	m := newManageModel(r, &config.Config{Editor: "vi"})
	m.name = "sync"
	if m.openEditor() == nil {
		t.Fatal("editor command should not be nil")
	}
}

// ============================================================
// Backup view
// ============================================================

func TestBackupCreatesAndRecords(t *testing.T) {
	r, _ := newTestRepo(t)
	createTimer(t, r, "sync")
	cat := newTestCatalog(t)

	b := newBackupModel(r, cat, &config.Config{BackupDir: t.TempDir()})
	path := filepath.Join(t.TempDir(), "out.tar.gz")

	msg := b.doBackup(path)()
	done, ok := msg.(backupDoneMsg)
	if !ok {
		t.Fatalf("expected backupDoneMsg, got %#v", msg)
	}
	if done.sum.Timers != 1 {
		t.Fatalf("timers = %d, want 1", done.sum.Timers)
	}

	entries, err := cat.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Path != path {
		t.Fatalf("catalog entries = %#v", entries)
	}
}

func TestBackupEmptyRepositoryFails(t *testing.T) {
	r, _ := newTestRepo(t)
	b := newBackupModel(r, newTestCatalog(t), &config.Config{})

	msg := b.doBackup(filepath.Join(t.TempDir(), "out.tar.gz"))()
	status, ok := msg.(statusMsg)
	if !ok || !status.isError {
		t.Fatalf("expected error status, got %#v", msg)
	}
}

// driveRestore runs the message loop until the restore finishes.
func driveRestore(t *testing.T, b backupModel, first tea.Cmd) backupModel {
	t.Helper()
	cmd := first
	for i := 0; i < 20 && cmd != nil; i++ {
		msg := cmd()
		switch msg := msg.(type) {
		case restoreStepMsg:
			b, cmd = b.update(msg)
		case tea.BatchMsg:
			// Completion batch: status plus catalog refresh.
			return b
		default:
			t.Fatalf("unexpected message %#v", msg)
		}
	}
	return b
}

func TestRestoreInstallsAll(t *testing.T) {
	src, _ := newTestRepo(t)
	createTimer(t, src, "alpha")
	createTimer(t, src, "beta")

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	if _, err := backup.Create(src.Base(), archive); err != nil {
		t.Fatal(err)
	}

	dst, _ := newTestRepo(t)
	b := newBackupModel(dst, newTestCatalog(t), &config.Config{})

	opened := b.doOpenRestore(archive)().(restoreOpenedMsg)
	if opened.err != nil {
		t.Fatalf("open restore: %v", opened.err)
	}

	b, cmd := b.update(opened)
	b = driveRestore(t, b, cmd)

	if b.session != nil {
		t.Fatal("session should be closed after restore")
	}
	if b.mode != backupReport {
		t.Fatal("should show the restore report")
	}
	if len(b.installed) != 2 {
		t.Fatalf("installed = %v", b.installed)
	}
	if !dst.Exists("alpha") || !dst.Exists("beta") {
		t.Fatal("restored timers missing from repository")
	}
}

func TestRestoreCollisionSkipKeepsExisting(t *testing.T) {
	src, _ := newTestRepo(t)
	createTimer(t, src, "alpha")
	createTimer(t, src, "beta")

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	if _, err := backup.Create(src.Base(), archive); err != nil {
		t.Fatal(err)
	}

	dst, _ := newTestRepo(t)
	createTimer(t, dst, "alpha")
	marker := timer.ScriptPath(dst.Base(), "alpha")
	original, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}

	b := newBackupModel(dst, newTestCatalog(t), &config.Config{})
	opened := b.doOpenRestore(archive)().(restoreOpenedMsg)
	b, _ = b.update(opened)

	// alpha collides first; the conflict prompt must be up.
	if b.form == nil || b.formKind != backupFormCollision {
		t.Fatal("collision form should be active")
	}
	if b.collision != "alpha" {
		t.Fatalf("collision = %q, want alpha", b.collision)
	}

	b, cmd := b.resolveCollision("skip")
	b = driveRestore(t, b, cmd)

	if len(b.skipped) != 1 || b.skipped[0] != "alpha" {
		t.Fatalf("skipped = %v", b.skipped)
	}
	if len(b.installed) != 1 || b.installed[0] != "beta" {
		t.Fatalf("installed = %v", b.installed)
	}

	after, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(original) {
		t.Fatal("skip must leave the existing timer untouched")
	}
}

func TestRestoreAbortKeepsAlreadyInstalled(t *testing.T) {
	src, _ := newTestRepo(t)
	createTimer(t, src, "alpha")
	createTimer(t, src, "beta")

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	if _, err := backup.Create(src.Base(), archive); err != nil {
		t.Fatal(err)
	}

	// Only beta collides, so alpha installs first.
	dst, _ := newTestRepo(t)
	createTimer(t, dst, "beta")

	b := newBackupModel(dst, newTestCatalog(t), &config.Config{})
	opened := b.doOpenRestore(archive)().(restoreOpenedMsg)
	b, cmd := b.update(opened)

	step, ok := cmd().(restoreStepMsg)
	if !ok || step.name != "alpha" {
		t.Fatalf("expected alpha install step, got %#v", cmd())
	}
	b, _ = b.update(step)

	if b.collision != "beta" {
		t.Fatalf("collision = %q, want beta", b.collision)
	}

	b, _ = b.resolveCollision("abort")
	if b.mode != backupReport {
		t.Fatal("abort should finish the restore")
	}
	if len(b.installed) != 1 || b.installed[0] != "alpha" {
		t.Fatalf("installed = %v", b.installed)
	}
	if len(b.skipped) != 1 || b.skipped[0] != "beta" {
		t.Fatalf("skipped = %v", b.skipped)
	}
	if !dst.Exists("alpha") {
		t.Fatal("already-restored timer must stay")
	}
}

func TestRestoreOverwriteReplaces(t *testing.T) {
	src, _ := newTestRepo(t)
	createTimer(t, src, "alpha")

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	if _, err := backup.Create(src.Base(), archive); err != nil {
		t.Fatal(err)
	}

	dst, _ := newTestRepo(t)
	createTimer(t, dst, "alpha")
	marker := timer.ScriptPath(dst.Base(), "alpha")
	if err := os.WriteFile(marker, []byte("#!/bin/sh\necho local change\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	b := newBackupModel(dst, newTestCatalog(t), &config.Config{})
	opened := b.doOpenRestore(archive)().(restoreOpenedMsg)
	b, _ = b.update(opened)

	b, cmd := b.resolveCollision("overwrite")
	b = driveRestore(t, b, cmd)

	if len(b.installed) != 1 {
		t.Fatalf("installed = %v, failed = %v", b.installed, b.failed)
	}
	after, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(after), "local change") {
		t.Fatal("overwrite should replace the local script")
	}
}

func TestBackupOverviewNavigation(t *testing.T) {
	r, _ := newTestRepo(t)
	b := newBackupModel(r, newTestCatalog(t), &config.Config{})
	b.entries = []catalog.Entry{{ID: "x", Path: "/tmp/a.tar.gz", CreatedAt: time.Now()}}

	b, _ = b.update(tea.KeyMsg{Type: tea.KeyDown})
	b, _ = b.update(tea.KeyMsg{Type: tea.KeyDown})
	if b.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", b.cursor)
	}
	b, _ = b.update(tea.KeyMsg{Type: tea.KeyDown})
	if b.cursor != 2 {
		t.Fatal("cursor moved past the last entry")
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.activeView != viewMenu {
		t.Fatal("default view should be the menu")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	if app.View() != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", app.View())
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	for _, v := range []viewState{viewMenu, viewTimers, viewBackup} {
		app.activeView = v
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppFooterShowsStatus(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40
	app.status = "test status"

	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain the status message")
	}
}

func TestAppSwitchView(t *testing.T) {
	app := newTestApp(t)
	model, cmd := app.Update(switchViewMsg{view: viewTimers})
	app = model.(App)
	if app.activeView != viewTimers {
		t.Fatalf("activeView = %v, want viewTimers", app.activeView)
	}
	if cmd == nil {
		t.Fatal("switching to the timers view should refresh it")
	}
}

func TestAppManageOpen(t *testing.T) {
	app := newTestApp(t)
	createTimer(t, app.repo, "sync")

	model, cmd := app.Update(manageOpenMsg{name: "sync"})
	app = model.(App)
	if app.activeView != viewManage {
		t.Fatal("should switch to the manage view")
	}
	if cmd == nil {
		t.Fatal("opening manage should load the timer")
	}
}

func TestAppStatusFromMessages(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.Update(statusMsg{text: "broken", isError: true})
	app = model.(App)
	if app.status != "broken" || !app.statusErr {
		t.Fatal("error status not recorded")
	}

	model, _ = app.Update(timerDeletedMsg{name: "sync"})
	app = model.(App)
	if !strings.Contains(app.status, "Deleted sync") {
		t.Fatalf("status = %q", app.status)
	}
	if app.statusErr {
		t.Fatal("delete confirmation is not an error")
	}
}

func TestAppTimersLoadedRoutedWhileInMenu(t *testing.T) {
	app := newTestApp(t)
	createTimer(t, app.repo, "sync")

	// Warm load arrives while the menu is still showing.
	msg := app.timers.refresh()()
	model, _ := app.Update(msg)
	app = model.(App)

	if app.activeView != viewMenu {
		t.Fatal("loading must not change the view")
	}
	if len(app.timers.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(app.timers.rows))
	}
}

func TestAppExportPicker(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	model, _ := app.Update(keyRune('e'))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	if !strings.Contains(app.View(), "Export Inventory") {
		t.Fatal("picker overlay not rendered")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(App)
	if app.exportPicking {
		t.Fatal("esc should close the export picker")
	}
}
