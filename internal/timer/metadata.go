package timer

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// Metadata is the persisted record behind a timer's information log.
// It is the source of truth when unit files are rebuilt after an edit
// or a restore.
type Metadata struct {
	Name        string
	Description string
	Interval    string
	OnCalendar  string
	CreatedAt   time.Time
}

// Marshal renders the information log contents.
func (m Metadata) Marshal() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", m.Name)
	fmt.Fprintf(&b, "Description: %s\n", m.Description)
	fmt.Fprintf(&b, "Interval: %s\n", m.Interval)
	fmt.Fprintf(&b, "OnCalendar Value: %s\n", m.OnCalendar)
	fmt.Fprintf(&b, "Creation Timestamp: %s\n", m.CreatedAt.Format(timestampLayout))
	return b.String()
}

// ParseMetadata reads an information log back into a Metadata. Lines
// that match no known key are ignored, so hand-added notes survive.
func ParseMetadata(text string) (Metadata, error) {
	var m Metadata
	for _, line := range strings.Split(text, "\n") {
		if v, ok := strings.CutPrefix(line, "Name: "); ok {
			m.Name = v
		} else if v, ok := strings.CutPrefix(line, "Description: "); ok {
			m.Description = v
		} else if v, ok := strings.CutPrefix(line, "Interval: "); ok {
			m.Interval = v
		} else if v, ok := strings.CutPrefix(line, "OnCalendar Value: "); ok {
			m.OnCalendar = v
		} else if v, ok := strings.CutPrefix(line, "Creation Timestamp: "); ok {
			if ts, err := time.ParseInLocation(timestampLayout, v, time.Local); err == nil {
				m.CreatedAt = ts
			}
		}
	}
	if m.Name == "" || m.OnCalendar == "" {
		return Metadata{}, fmt.Errorf("information log is missing required fields")
	}
	return m, nil
}
