package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/cronie-dev/cronie/internal/timer"
)

func ToCSV(timers []timer.Timer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Name", "Description", "Interval", "OnCalendar", "Status", "Next Run", "Created"}); err != nil {
		return err
	}

	for _, t := range timers {
		created := ""
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Local().Format(time.RFC3339)
		}
		row := []string{
			t.Name,
			t.Description,
			t.Interval,
			t.OnCalendar,
			t.Status.String(),
			t.NextRun,
			created,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
