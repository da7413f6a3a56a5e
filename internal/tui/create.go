package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cronie-dev/cronie/internal/repo"
	"github.com/cronie-dev/cronie/internal/schedule"
	"github.com/cronie-dev/cronie/internal/script"
)

// Wizard stages. Nothing touches the filesystem or systemd until the
// confirm stage is answered with Create.
const (
	createDetails = iota
	createSchedule
	createTemplate
	createParams
	createConfirm
)

type createModel struct {
	repo   *repo.Repository
	width  int
	height int

	stage int
	form  *huh.Form
	flow  scheduleFlow

	// Form field pointers (survive value copies)
	name      *string
	desc      *string
	template  *script.Template
	src       *string
	dst       *string
	url       *string
	confirmed *bool

	resolvedName string
	spec         schedule.Spec
	haveSpec     bool
}

func newCreateModel(r *repo.Repository) createModel {
	name, desc, src, dst, url := "", "", "", "", ""
	tmpl := script.Empty
	confirmed := false
	return createModel{
		repo:      r,
		flow:      newScheduleFlow(),
		name:      &name,
		desc:      &desc,
		template:  &tmpl,
		src:       &src,
		dst:       &dst,
		url:       &url,
		confirmed: &confirmed,
	}
}

func (c *createModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c createModel) isActive() bool {
	return c.form != nil || c.flow.active()
}

// begin resets the wizard and opens the details form.
func (c createModel) begin() (createModel, tea.Cmd) {
	*c.name, *c.desc = "", ""
	*c.template = script.Empty
	*c.src, *c.dst, *c.url = "", "", ""
	*c.confirmed = false
	c.resolvedName = ""
	c.spec = schedule.Spec{}
	c.haveSpec = false
	c.stage = createDetails

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("Lowercased, spaces become hyphens. Leave empty for a random name.").
				Value(c.name),
			huh.NewInput().
				Title("Description").
				Value(c.desc).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("description must not be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return c, c.form.Init()
}

func (c createModel) update(msg tea.Msg) (createModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scheduleDoneMsg:
		c.spec = msg.spec
		c.haveSpec = true
		return c.startTemplate()

	case scheduleCancelMsg:
		return c.cancel()
	}

	if c.flow.active() {
		var cmd tea.Cmd
		c.flow, cmd = c.flow.update(msg)
		return c, cmd
	}

	if c.form == nil {
		return c, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			return c.cancel()
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		switch c.stage {
		case createDetails:
			c.form = nil
			c.stage = createSchedule
			var flowCmd tea.Cmd
			c.flow, flowCmd = c.flow.start()
			return c, flowCmd
		case createTemplate:
			if *c.template == script.Empty {
				return c.startConfirm()
			}
			return c.startParams()
		case createParams:
			return c.startConfirm()
		case createConfirm:
			c.form = nil
			if !*c.confirmed {
				return c.cancel()
			}
			return c, c.submit()
		}
	}

	return c, cmd
}

func (c createModel) cancel() (createModel, tea.Cmd) {
	c.form = nil
	c.flow.form = nil
	return c, tea.Batch(
		func() tea.Msg { return statusMsg{text: "Create cancelled, nothing written"} },
		func() tea.Msg { return switchViewMsg{view: viewMenu} },
	)
}

func (c createModel) startTemplate() (createModel, tea.Cmd) {
	c.stage = createTemplate

	templates := []script.Template{script.Empty, script.RsyncMirror, script.HTTPCheck}
	options := make([]huh.Option[script.Template], len(templates))
	for i, t := range templates {
		options[i] = huh.NewOption(t.String(), t)
	}

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[script.Template]().Title("Script template").Options(options...).Value(c.template),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return c, c.form.Init()
}

func (c createModel) startParams() (createModel, tea.Cmd) {
	c.stage = createParams

	var fields []huh.Field
	switch *c.template {
	case script.RsyncMirror:
		fields = append(fields,
			huh.NewInput().Title("Source directory").Value(c.src).Validate(script.ValidateAbsPath),
			huh.NewInput().Title("Destination directory").Value(c.dst).Validate(script.ValidateAbsPath),
		)
	case script.HTTPCheck:
		fields = append(fields,
			huh.NewInput().Title("URL to probe").Value(c.url).Validate(script.ValidateURL),
		)
	}

	c.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	return c, c.form.Init()
}

func (c createModel) startConfirm() (createModel, tea.Cmd) {
	resolved, err := c.repo.ResolveName(*c.name)
	if err != nil {
		c.form = nil
		return c, tea.Batch(
			func() tea.Msg { return errorStatus("%v", err) },
			func() tea.Msg { return switchViewMsg{view: viewMenu} },
		)
	}
	c.resolvedName = resolved
	c.stage = createConfirm
	*c.confirmed = false

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Create this timer?").
				Affirmative("Create").
				Negative("Cancel").
				Value(c.confirmed),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return c, c.form.Init()
}

func (c createModel) buildScript() string {
	switch *c.template {
	case script.RsyncMirror:
		return script.Mirror(strings.TrimSpace(*c.src), strings.TrimSpace(*c.dst))
	case script.HTTPCheck:
		return script.Probe(strings.TrimSpace(*c.url))
	default:
		return script.EmptyStub(c.resolvedName)
	}
}

func (c createModel) toolWarning() string {
	var missing []string
	switch *c.template {
	case script.RsyncMirror:
		missing = script.MissingTools("rsync")
	case script.HTTPCheck:
		missing = script.MissingTools("curl")
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("%s not found on PATH; the job will fail until it is installed", strings.Join(missing, ", "))
}

func (c createModel) submit() tea.Cmd {
	req := repo.CreateRequest{
		Name:        c.resolvedName,
		Description: strings.TrimSpace(*c.desc),
		Interval:    c.spec.Label(),
		OnCalendar:  c.spec.Expression(),
		Script:      c.buildScript(),
	}
	r := c.repo
	return func() tea.Msg {
		t, err := r.Create(context.Background(), req)
		if err != nil {
			return errorStatus("create %s: %v", req.Name, err)
		}
		return timerCreatedMsg{t: t}
	}
}

func (c createModel) view() string {
	w := c.width - 4

	if c.flow.active() {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("New Timer"),
			"",
			c.flow.view(),
		)
		return panelStyle.Width(w).Render(content)
	}

	if c.form == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Working..."))
	}

	if c.stage == createConfirm {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("New Timer"),
			"",
			c.renderSummary(),
			"",
			c.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("New Timer"),
		"",
		c.form.View(),
	)
	return panelStyle.Width(w).Render(content)
}

func (c createModel) renderSummary() string {
	label := func(s string) string { return mutedStyle.Render(fmt.Sprintf("  %-12s", s)) }

	var rows []string
	rows = append(rows, label("Name")+highlightStyle.Render(c.resolvedName))
	rows = append(rows, label("Description")+normalItemStyle.Render(strings.TrimSpace(*c.desc)))
	rows = append(rows, label("Schedule")+normalItemStyle.Render(c.spec.Label()))
	rows = append(rows, label("OnCalendar")+normalItemStyle.Render(c.spec.Expression()))
	if next, ok := c.spec.NextRun(time.Now()); ok {
		rows = append(rows, label("Next run")+successStyle.Render(next.Format("2006-01-02 15:04:05")))
	} else {
		rows = append(rows, label("Next run")+mutedStyle.Render("determined by systemd"))
	}
	rows = append(rows, label("Script")+normalItemStyle.Render(c.template.String()))
	if warn := c.toolWarning(); warn != "" {
		rows = append(rows, "")
		rows = append(rows, warningStyle.Render("  "+warn))
	}
	return strings.Join(rows, "\n")
}
