package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cronie-dev/cronie/internal/timer"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Timers     []jsonTimer `json:"timers"`
}

type jsonTimer struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Interval    string `json:"interval,omitempty"`
	OnCalendar  string `json:"on_calendar,omitempty"`
	Status      string `json:"status"`
	NextRun     string `json:"next_run,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ToJSON writes the timer inventory to path as indented JSON.
func ToJSON(timers []timer.Timer, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(timers),
	}

	for _, t := range timers {
		created := ""
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Local().Format(time.RFC3339)
		}
		out.Timers = append(out.Timers, jsonTimer{
			Name:        t.Name,
			Description: t.Description,
			Interval:    t.Interval,
			OnCalendar:  t.OnCalendar,
			Status:      t.Status.String(),
			NextRun:     t.NextRun,
			CreatedAt:   created,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
