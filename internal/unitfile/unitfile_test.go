package unitfile

import (
	"strings"
	"testing"
)

func TestServiceRendering(t *testing.T) {
	got := Service("Nightly sync", "/root/cronie/nightly-sync/nightly-sync_EXECUTABLE_SCRIPT.sh", "/root/cronie/nightly-sync/logs")
	want := `[Unit]
Description=Nightly sync

[Service]
Type=oneshot
ExecStart=/bin/sh -c 'exec "/root/cronie/nightly-sync/nightly-sync_EXECUTABLE_SCRIPT.sh" >> "/root/cronie/nightly-sync/logs/$(date +%%Y-%%m-%%d).log" 2>&1'
`
	if got != want {
		t.Fatalf("service unit mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestTimerRendering(t *testing.T) {
	got := Timer("Nightly sync", "*-*-* 02:30:00")
	want := `[Unit]
Description=Nightly sync

[Timer]
OnCalendar=*-*-* 02:30:00
Persistent=false
AccuracySec=1s

[Install]
WantedBy=timers.target
`
	if got != want {
		t.Fatalf("timer unit mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderingDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if Service("a", "/b", "/c") != Service("a", "/b", "/c") {
			t.Fatal("service rendering must be byte-stable")
		}
		if Timer("a", "*:0/5:00") != Timer("a", "*:0/5:00") {
			t.Fatal("timer rendering must be byte-stable")
		}
	}
}

func TestTimerSingleOnCalendar(t *testing.T) {
	unit := Timer("job", "Mon *-*-* 09:00:00")
	if n := strings.Count(unit, "OnCalendar="); n != 1 {
		t.Fatalf("want exactly one OnCalendar line, got %d", n)
	}
	if !strings.Contains(unit, "WantedBy=timers.target") {
		t.Fatal("timer unit must install into timers.target")
	}
}
