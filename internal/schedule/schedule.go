// Package schedule maps the fixed menu of interval kinds to systemd
// calendar expressions and matching human-readable labels.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Kind is one of the interval choices offered by the schedule menu.
type Kind int

const (
	Minutes Kind = iota
	Hours
	Daily
	Weekly
	Monthly
	Yearly
	Custom
)

var kindNames = map[Kind]string{
	Minutes: "Every N minutes",
	Hours:   "Every N hours",
	Daily:   "Daily",
	Weekly:  "Weekly",
	Monthly: "Monthly",
	Yearly:  "Yearly",
	Custom:  "Custom calendar expression",
}

func (k Kind) String() string { return kindNames[k] }

// Spec is a validated schedule choice. Expression and Label derive from
// the same fields, so the pair can never diverge.
type Spec struct {
	Kind     Kind
	Every    int    // Minutes, Hours
	Clock    string // "HH:MM" for Daily, Weekly, Monthly, Yearly
	Weekday  string // "Mon".."Sun" for Weekly
	MonthDay int    // 1..31 for Monthly
	Date     string // "MM-DD" for Yearly
	Raw      string // Custom passthrough
}

// Expression renders the systemd OnCalendar value for the spec.
func (s Spec) Expression() string {
	switch s.Kind {
	case Minutes:
		return fmt.Sprintf("*:0/%d:00", s.Every)
	case Hours:
		return fmt.Sprintf("*-*-* 0/%d:00:00", s.Every)
	case Daily:
		return fmt.Sprintf("*-*-* %s:00", s.Clock)
	case Weekly:
		return fmt.Sprintf("%s *-*-* %s:00", s.Weekday, s.Clock)
	case Monthly:
		return fmt.Sprintf("*-*-%02d %s:00", s.MonthDay, s.Clock)
	case Yearly:
		return fmt.Sprintf("*-%s %s:00", s.Date, s.Clock)
	default:
		return s.Raw
	}
}

// Label renders the human-readable form stored alongside the expression.
func (s Spec) Label() string {
	switch s.Kind {
	case Minutes:
		return fmt.Sprintf("Every %d %s", s.Every, plural(s.Every, "minute"))
	case Hours:
		return fmt.Sprintf("Every %d %s", s.Every, plural(s.Every, "hour"))
	case Daily:
		return fmt.Sprintf("Daily at %s", s.Clock)
	case Weekly:
		return fmt.Sprintf("Weekly on %s at %s", s.Weekday, s.Clock)
	case Monthly:
		return fmt.Sprintf("Monthly on day %d at %s", s.MonthDay, s.Clock)
	case Yearly:
		return fmt.Sprintf("Yearly on %s at %s", s.Date, s.Clock)
	default:
		return fmt.Sprintf("Custom schedule (%s)", s.Raw)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// NextRun computes the next trigger after now for the fixed kinds by
// translating the spec to an equivalent cron line. Custom expressions
// use systemd-only syntax and report false; once installed, systemd
// itself answers via the timer unit's next-elapse property.
func (s Spec) NextRun(now time.Time) (time.Time, bool) {
	line, ok := s.cronLine()
	if !ok {
		return time.Time{}, false
	}
	sched, err := cron.ParseStandard(line)
	if err != nil {
		return time.Time{}, false
	}
	return sched.Next(now), true
}

func (s Spec) cronLine() (string, bool) {
	switch s.Kind {
	case Minutes:
		return fmt.Sprintf("*/%d * * * *", s.Every), true
	case Hours:
		return fmt.Sprintf("0 */%d * * *", s.Every), true
	case Daily:
		hh, mm := splitClock(s.Clock)
		return fmt.Sprintf("%d %d * * *", mm, hh), true
	case Weekly:
		hh, mm := splitClock(s.Clock)
		return fmt.Sprintf("%d %d * * %s", mm, hh, s.Weekday), true
	case Monthly:
		hh, mm := splitClock(s.Clock)
		return fmt.Sprintf("%d %d %d * *", mm, hh, s.MonthDay), true
	case Yearly:
		hh, mm := splitClock(s.Clock)
		month, day, _ := strings.Cut(s.Date, "-")
		return fmt.Sprintf("%d %d %s %s *", mm, hh, day, month), true
	default:
		return "", false
	}
}

func splitClock(clock string) (hh, mm int) {
	h, m, _ := strings.Cut(clock, ":")
	hh, _ = strconv.Atoi(h)
	mm, _ = strconv.Atoi(m)
	return hh, mm
}

var (
	clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	datePattern  = regexp.MustCompile(`^(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)
)

// ParseCount parses an integer and checks it against [min, max].
func ParseCount(input string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("enter a whole number")
	}
	if n < min || n > max {
		return 0, fmt.Errorf("must be between %d and %d", min, max)
	}
	return n, nil
}

// ValidateClock accepts strict 24-hour HH:MM with two-digit fields.
func ValidateClock(input string) error {
	if !clockPattern.MatchString(strings.TrimSpace(input)) {
		return fmt.Errorf("use 24-hour HH:MM, e.g. 09:30")
	}
	return nil
}

// NormalizeWeekday maps a three-letter day name in any case to its
// canonical Mon..Sun form.
func NormalizeWeekday(input string) (string, error) {
	day := strings.TrimSpace(input)
	for _, d := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		if strings.EqualFold(day, d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("use a three-letter day: Mon, Tue, Wed, Thu, Fri, Sat or Sun")
}

// ValidateMonthDate accepts strict MM-DD with two-digit fields.
func ValidateMonthDate(input string) error {
	if !datePattern.MatchString(strings.TrimSpace(input)) {
		return fmt.Errorf("use MM-DD, e.g. 03-01")
	}
	return nil
}
