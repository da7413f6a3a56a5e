package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/cronie-dev/cronie/internal/schedule"
)

var errEmptyExpression = errors.New("expression must not be empty")

// scheduleFlow is the two-step schedule prompt shared by the create
// wizard and the manage view: pick a kind, then fill in its parameters.
// Completion is reported through scheduleDoneMsg / scheduleCancelMsg.
type scheduleFlow struct {
	form  *huh.Form
	stage int // 0 = kind, 1 = parameters

	// Form field pointers (survive value copies)
	kind     *schedule.Kind
	count    *string
	clock    *string
	weekday  *string
	monthDay *string
	yearDate *string
	yearTime *string
	custom   *string
}

func newScheduleFlow() scheduleFlow {
	kind := schedule.Minutes
	count, clock, weekday := "", "", ""
	monthDay, yearDate, yearTime, custom := "", "", "", ""
	return scheduleFlow{
		kind:     &kind,
		count:    &count,
		clock:    &clock,
		weekday:  &weekday,
		monthDay: &monthDay,
		yearDate: &yearDate,
		yearTime: &yearTime,
		custom:   &custom,
	}
}

func (f scheduleFlow) active() bool { return f.form != nil }

func (f scheduleFlow) start() (scheduleFlow, tea.Cmd) {
	*f.kind = schedule.Minutes
	*f.count, *f.clock, *f.weekday = "", "", ""
	*f.monthDay, *f.yearDate, *f.yearTime, *f.custom = "", "", "", ""
	f.stage = 0

	kinds := []schedule.Kind{
		schedule.Minutes, schedule.Hours, schedule.Daily, schedule.Weekly,
		schedule.Monthly, schedule.Yearly, schedule.Custom,
	}
	options := make([]huh.Option[schedule.Kind], len(kinds))
	for i, k := range kinds {
		options[i] = huh.NewOption(k.String(), k)
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[schedule.Kind]().Title("Schedule").Options(options...).Value(f.kind),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return f, f.form.Init()
}

func (f scheduleFlow) update(msg tea.Msg) (scheduleFlow, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.form = nil
			return f, func() tea.Msg { return scheduleCancelMsg{} }
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	if f.form.State == huh.StateCompleted {
		if f.stage == 0 {
			return f.startParams()
		}
		spec, err := f.buildSpec()
		f.form = nil
		if err != nil {
			return f, func() tea.Msg { return errorStatus("schedule: %v", err) }
		}
		return f, func() tea.Msg { return scheduleDoneMsg{spec: spec} }
	}

	return f, cmd
}

func (f scheduleFlow) startParams() (scheduleFlow, tea.Cmd) {
	f.stage = 1

	var fields []huh.Field
	switch *f.kind {
	case schedule.Minutes:
		fields = append(fields, huh.NewInput().
			Title("Every how many minutes? (1-59)").
			Value(f.count).
			Validate(func(s string) error {
				_, err := schedule.ParseCount(s, 1, 59)
				return err
			}))
	case schedule.Hours:
		fields = append(fields, huh.NewInput().
			Title("Every how many hours? (1-23)").
			Value(f.count).
			Validate(func(s string) error {
				_, err := schedule.ParseCount(s, 1, 23)
				return err
			}))
	case schedule.Daily:
		fields = append(fields, huh.NewInput().
			Title("Time of day (HH:MM)").
			Value(f.clock).
			Validate(schedule.ValidateClock))
	case schedule.Weekly:
		fields = append(fields,
			huh.NewInput().
				Title("Day of week (Mon..Sun)").
				Value(f.weekday).
				Validate(func(s string) error {
					_, err := schedule.NormalizeWeekday(s)
					return err
				}),
			huh.NewInput().
				Title("Time of day (HH:MM)").
				Value(f.clock).
				Validate(schedule.ValidateClock))
	case schedule.Monthly:
		fields = append(fields,
			huh.NewInput().
				Title("Day of month (1-31)").
				Value(f.monthDay).
				Validate(func(s string) error {
					_, err := schedule.ParseCount(s, 1, 31)
					return err
				}),
			huh.NewInput().
				Title("Time of day (HH:MM)").
				Value(f.clock).
				Validate(schedule.ValidateClock))
	case schedule.Yearly:
		fields = append(fields,
			huh.NewInput().
				Title("Date (MM-DD)").
				Value(f.yearDate).
				Validate(schedule.ValidateMonthDate),
			huh.NewInput().
				Title("Time of day (HH:MM, empty for midnight)").
				Value(f.yearTime).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return schedule.ValidateClock(s)
				}))
	case schedule.Custom:
		fields = append(fields, huh.NewInput().
			Title("OnCalendar expression").
			Description("Passed to systemd verbatim, e.g. Mon..Fri *-*-* 08:00").
			Value(f.custom).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errEmptyExpression
				}
				return nil
			}))
	}

	f.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	return f, f.form.Init()
}

func (f scheduleFlow) buildSpec() (schedule.Spec, error) {
	spec := schedule.Spec{Kind: *f.kind}
	switch *f.kind {
	case schedule.Minutes:
		n, err := schedule.ParseCount(*f.count, 1, 59)
		if err != nil {
			return spec, err
		}
		spec.Every = n
	case schedule.Hours:
		n, err := schedule.ParseCount(*f.count, 1, 23)
		if err != nil {
			return spec, err
		}
		spec.Every = n
	case schedule.Daily:
		spec.Clock = strings.TrimSpace(*f.clock)
	case schedule.Weekly:
		day, err := schedule.NormalizeWeekday(*f.weekday)
		if err != nil {
			return spec, err
		}
		spec.Weekday = day
		spec.Clock = strings.TrimSpace(*f.clock)
	case schedule.Monthly:
		n, err := schedule.ParseCount(*f.monthDay, 1, 31)
		if err != nil {
			return spec, err
		}
		spec.MonthDay = n
		spec.Clock = strings.TrimSpace(*f.clock)
	case schedule.Yearly:
		spec.Date = strings.TrimSpace(*f.yearDate)
		clock := strings.TrimSpace(*f.yearTime)
		if clock == "" {
			clock = "00:00"
		}
		spec.Clock = clock
	case schedule.Custom:
		spec.Raw = strings.TrimSpace(*f.custom)
	}
	return spec, nil
}

func (f scheduleFlow) view() string {
	if f.form == nil {
		return ""
	}
	return f.form.View()
}
