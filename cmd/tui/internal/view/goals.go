package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
)

type goalsState int

const (
	goalsStateBrowse goalsState = iota
	goalsStateNew
	goalsStateContribute
)

// ImportGoalMsg asks the shell to open the statement importer for a goal.
type ImportGoalMsg struct {
	Goal *goal.Goal
}

// goalFields is heap-allocated so huh bindings survive model copies.
type goalFields struct {
	name   string
	target string
	date   string
	amount string
	note   string
}

type GoalsModel struct {
	CommonModel
	goals         *goal.Service
	contributions *contribution.Service

	state    goalsState
	table    table.Model
	progress []goal.Progress
	summary  *goal.Summary
	form     *huh.Form
	fields   *goalFields

	loading bool
	err     error
	status  string
}

func NewGoalsModel(user uuid.UUID, goals *goal.Service, contributions *contribution.Service) GoalsModel {
	columns := []table.Column{
		{Title: "Goal", Width: 24},
		{Title: "Target", Width: 12},
		{Title: "Saved", Width: 12},
		{Title: "Progress", Width: 10},
		{Title: "Due", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	return GoalsModel{
		CommonModel:   CommonModel{User: user},
		goals:         goals,
		contributions: contributions,
		table:         t,
		fields:        &goalFields{},
		loading:       true,
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	return s
}

func (m GoalsModel) Title() string { return "Savings Goals" }

func (m GoalsModel) ShortHelp() string {
	if m.state != goalsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new goal | c: contribute | i: import statement | r: refresh"
}

func (m GoalsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m GoalsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadGoalsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.progress = msg.progress
		m.summary = msg.summary
		m.refreshTable()

		return m, nil

	case goalSaveMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		}

		m.state = goalsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	if m.state == goalsStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m GoalsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterNew()
		case "c":
			return m.enterContribute()
		case "i":
			if g := m.selected(); g != nil {
				return m, func() tea.Msg { return ImportGoalMsg{Goal: g} }
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m GoalsModel) selected() *goal.Goal {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.progress) {
		return nil
	}

	return m.progress[idx].Goal
}

func (m GoalsModel) enterNew() (tea.Model, tea.Cmd) {
	*m.fields = goalFields{}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fields.name).
				Validate(required("name")),
			huh.NewInput().
				Title("Target amount").
				Placeholder("800.00").
				Value(&m.fields.target).
				Validate(positiveAmount),
			huh.NewInput().
				Title("Target date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fields.date).
				Validate(optionalDate),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = goalsStateNew
	m.table.Blur()

	return m, m.form.Init()
}

func (m GoalsModel) enterContribute() (tea.Model, tea.Cmd) {
	g := m.selected()
	if g == nil {
		return m, nil
	}

	*m.fields = goalFields{}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Amount").
				Value(&m.fields.amount).
				Validate(positiveAmount),
			huh.NewInput().
				Title("Note").
				Value(&m.fields.note),
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD (today when empty)").
				Value(&m.fields.date).
				Validate(optionalDate),
		).Title("Contribute to " + g.Name),
	).WithWidth(45).WithShowHelp(false)

	m.state = goalsStateContribute
	m.table.Blur()

	return m, m.form.Init()
}

func (m GoalsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = goalsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == goalsStateNew {
		return m, m.createCmd()
	}

	return m, m.contributeCmd()
}

func (m GoalsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading goals...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := "No goals yet. Press n to create one."
	if m.summary != nil && m.summary.Goals > 0 {
		header = fmt.Sprintf("Goals: %s | Completed: %s | Saved %s of %s",
			activeStyle(fmt.Sprint(m.summary.Goals)),
			activeStyle(fmt.Sprint(m.summary.Completed)),
			activeStyle(FormatAmount(m.summary.Saved)),
			FormatAmount(m.summary.Target),
		)
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != goalsStateBrowse && m.form != nil {
		title := "New Goal"
		if m.state == goalsStateContribute {
			title = "Contribution"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + m.ShortHelp())
}

func (m *GoalsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.progress))
	for _, p := range m.progress {
		due := ""
		if p.Goal.TargetDate != nil {
			due = FormatDate(*p.Goal.TargetDate)
		}

		pct := p.Percent.StringFixed(1) + "%"
		if p.Complete {
			pct = "done"
		}

		rows = append(rows, table.Row{
			p.Goal.Name,
			FormatAmount(p.Goal.TargetAmount),
			FormatAmount(p.Saved),
			pct,
			due,
		})
	}

	m.table.SetRows(rows)
}

// Form validators

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func positiveAmount(s string) error {
	d, err := parseAmount(strings.TrimSpace(s))
	if err != nil {
		return errors.New("not a number")
	}

	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}

	if errs.CheckAmount(d) != nil {
		return errors.New("at most two decimal places")
	}

	return nil
}

func optionalDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

// parseOptionalDate returns the zero time for an empty value.
func parseOptionalDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}

	return t
}

// Messages

type loadGoalsMsg struct {
	progress []goal.Progress
	summary  *goal.Summary
	err      error
}

type goalSaveMsg struct {
	status string
	err    error
}

func (m GoalsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		progress, err := m.goals.List(ctx, m.User)
		if err != nil {
			return loadGoalsMsg{err: err}
		}

		summary, err := m.goals.Summary(ctx, m.User)

		return loadGoalsMsg{progress: progress, summary: summary, err: err}
	}
}

func (m GoalsModel) createCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		target, err := parseAmount(strings.TrimSpace(f.target))
		if err != nil {
			return goalSaveMsg{err: err}
		}

		params := goal.CreateParams{UserID: m.User, Name: f.name, TargetAmount: target}
		if d := parseOptionalDate(f.date); !d.IsZero() {
			params.TargetDate = &d
		}

		g, err := m.goals.Create(ctx, params)
		if err != nil {
			return goalSaveMsg{err: err}
		}

		return goalSaveMsg{status: okStyle("Created goal " + g.Name)}
	}
}

func (m GoalsModel) contributeCmd() tea.Cmd {
	g := m.selected()
	if g == nil {
		return nil
	}

	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := parseAmount(strings.TrimSpace(f.amount))
		if err != nil {
			return goalSaveMsg{err: err}
		}

		c, err := m.contributions.Record(ctx, contribution.RecordParams{
			UserID: m.User,
			Target: contribution.GoalTarget(g.ID),
			Amount: amount,
			Note:   f.note,
			Date:   parseOptionalDate(f.date),
		})
		if err != nil {
			return goalSaveMsg{err: err}
		}

		return goalSaveMsg{status: okStyle(fmt.Sprintf("Saved %s towards %s", FormatAmount(c.Amount), g.Name))}
	}
}
