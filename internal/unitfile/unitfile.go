// Package unitfile renders the systemd service and timer units that back
// a scheduled job. Rendering is deterministic: the same inputs always
// produce the same bytes, so a unit rebuilt after an edit or a restore
// matches the original exactly.
package unitfile

import "fmt"

// Service renders a oneshot service unit that runs the job script and
// appends combined output to a date-stamped log file under logDir.
func Service(description, scriptPath, logDir string) string {
	return fmt.Sprintf(`[Unit]
Description=%s

[Service]
Type=oneshot
ExecStart=/bin/sh -c 'exec "%s" >> "%s/$(date +%%%%Y-%%%%m-%%%%d).log" 2>&1'
`, description, scriptPath, logDir)
}

// Timer renders the matching timer unit for the given calendar expression.
// Missed triggers are not replayed at boot and firing accuracy is pinned
// to one second.
func Timer(description, onCalendar string) string {
	return fmt.Sprintf(`[Unit]
Description=%s

[Timer]
OnCalendar=%s
Persistent=false
AccuracySec=1s

[Install]
WantedBy=timers.target
`, description, onCalendar)
}
