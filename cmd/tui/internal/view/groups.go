package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/group"
)

type groupsState int

const (
	groupsStateBrowse groupsState = iota
	groupsStateNew
	groupsStateJoin
	groupsStateDetail
	groupsStatePay
	groupsStateLeave
)

type groupFields struct {
	name      string
	amount    string
	frequency string
	limit     string
	anchor    string
	code      string
	confirm   bool
}

type GroupsModel struct {
	CommonModel
	groups        *group.Service
	contributions *contribution.Service

	state  groupsState
	table  table.Model
	list   []*group.Group
	form   *huh.Form
	fields *groupFields

	detail   *group.Status
	schedule []group.ScheduledPayout
	members  table.Model

	loading bool
	err     error
	status  string
}

func NewGroupsModel(user uuid.UUID, groups *group.Service, contributions *contribution.Service) GroupsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Group", Width: 22},
			{Title: "Amount", Width: 10},
			{Title: "Every", Width: 8},
			{Title: "Cycle", Width: 6},
			{Title: "Next payout", Width: 12},
			{Title: "Code", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	members := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Member", Width: 22},
			{Title: "Paid", Width: 6},
		}),
		table.WithHeight(8),
	)
	members.SetStyles(tableStyles())

	return GroupsModel{
		CommonModel:   CommonModel{User: user},
		groups:        groups,
		contributions: contributions,
		table:         t,
		members:       members,
		fields:        &groupFields{},
		loading:       true,
	}
}

func (m GroupsModel) Title() string { return "Savings Groups" }

func (m GroupsModel) ShortHelp() string {
	switch m.state {
	case groupsStateBrowse:
		return "Esc: back | Enter: open | n: new group | j: join | r: refresh"
	case groupsStateDetail:
		return "Esc: back | p: pay this cycle | l: leave | r: refresh"
	}

	return "Navigate form | Esc: cancel"
}

func (m GroupsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m GroupsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadGroupsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.list = msg.groups
		m.refreshTable()

		return m, nil

	case loadStatusMsg:
		m.loading = false
		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
			m.state = groupsStateBrowse

			return m, nil
		}

		m.detail = msg.status
		m.schedule = msg.schedule
		m.state = groupsStateDetail
		m.refreshMembers()

		return m, nil

	case groupSaveMsg:
		m.form = nil
		m.status = msg.status
		if msg.err != nil {
			m.status = errorStyle(fmt.Sprintf("Error: %v", msg.err))
		}

		if msg.reopen != uuid.Nil {
			return m, m.statusCmd(msg.reopen)
		}

		m.state = groupsStateBrowse
		m.detail = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	switch m.state {
	case groupsStateBrowse:
		return m.updateBrowse(msg)
	case groupsStateDetail:
		return m.updateDetail(msg)
	}

	return m.updateForm(msg)
}

func (m GroupsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterNew()
		case "j":
			return m.enterJoin()
		case "enter":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.list) {
				return m, nil
			}

			m.loading = true

			return m, m.statusCmd(m.list[idx].ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m GroupsModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.state = groupsStateBrowse
		m.detail = nil
		m.table.Focus()

		return m, m.loadCmd()
	case "r":
		return m, m.statusCmd(m.detail.Group.ID)
	case "p":
		return m.enterConfirm(groupsStatePay,
			fmt.Sprintf("Pay %s for cycle %d?", FormatAmount(m.detail.Group.CycleAmount), m.detail.CycleIndex))
	case "l":
		return m.enterConfirm(groupsStateLeave,
			fmt.Sprintf("Leave %s? Your payout order is not handed back.", m.detail.Group.Name))
	}

	return m, nil
}

func (m GroupsModel) enterNew() (tea.Model, tea.Cmd) {
	*m.fields = groupFields{frequency: string(cycle.Weekly)}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fields.name).
				Validate(required("name")),
			huh.NewInput().
				Title("Amount per cycle").
				Placeholder("1000.00").
				Value(&m.fields.amount).
				Validate(positiveAmount),
			huh.NewSelect[string]().
				Title("Frequency").
				Options(huh.NewOptions(string(cycle.Daily), string(cycle.Weekly), string(cycle.Monthly))...).
				Value(&m.fields.frequency),
			huh.NewInput().
				Title("Members").
				Placeholder("at least 2").
				Value(&m.fields.limit).
				Validate(memberLimit),
			huh.NewInput().
				Title("First cycle starts").
				Placeholder("YYYY-MM-DD (today when empty)").
				Value(&m.fields.anchor).
				Validate(optionalDate),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = groupsStateNew
	m.table.Blur()

	return m, m.form.Init()
}

func (m GroupsModel) enterJoin() (tea.Model, tea.Cmd) {
	*m.fields = groupFields{}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Invite code").
				Value(&m.fields.code).
				Validate(required("invite code")),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = groupsStateJoin
	m.table.Blur()

	return m, m.form.Init()
}

func (m GroupsModel) enterConfirm(state groupsState, question string) (tea.Model, tea.Cmd) {
	*m.fields = groupFields{}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Value(&m.fields.confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = state

	return m, m.form.Init()
}

func (m GroupsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.closeForm(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case groupsStateNew:
		return m, m.createCmd()
	case groupsStateJoin:
		return m, m.joinCmd()
	case groupsStatePay:
		if !m.fields.confirm {
			return m.closeForm(), nil
		}

		return m, m.payCmd()
	case groupsStateLeave:
		if !m.fields.confirm {
			return m.closeForm(), nil
		}

		return m, m.leaveCmd()
	}

	return m, cmd
}

func (m GroupsModel) closeForm() GroupsModel {
	m.form = nil

	if m.detail != nil {
		m.state = groupsStateDetail
		return m
	}

	m.state = groupsStateBrowse
	m.table.Focus()

	return m
}

func (m GroupsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading groups...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	var content string
	if m.detail != nil {
		content = m.viewDetail()
	} else {
		content = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View())
	}

	if m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content + "\n\n" + m.ShortHelp())
}

func (m GroupsModel) viewDetail() string {
	st := m.detail

	payee := "nobody (order vacated)"
	if st.Payee != nil {
		payee = memberName(st.Payee)
	}

	state := activeStyle("collecting")

	switch {
	case st.Complete:
		state = okStyle("fully funded")
	case st.InArrears:
		state = errorStyle("in arrears")
	}

	header := fmt.Sprintf(
		"%s  (code %s)\nCycle %d: %s to %s | %s\nPayee: %s | Collected %s of %s",
		lipgloss.NewStyle().Bold(true).Render(st.Group.Name),
		st.Group.InviteCode,
		st.CycleIndex,
		FormatDate(st.CycleStart),
		FormatDate(st.CycleEnd),
		state,
		activeStyle(payee),
		FormatAmount(st.Collected),
		FormatAmount(st.Pool),
	)

	var upcoming strings.Builder

	upcoming.WriteString("Upcoming payouts\n")

	for _, p := range m.schedule {
		who := "vacated"
		if p.Payee != nil {
			who = memberName(p.Payee)
		}

		fmt.Fprintf(&upcoming, "  %s  #%d  %s\n", FormatDate(p.PayoutDate), p.PayoutOrder, who)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				Render(m.members.View()),
			lipgloss.NewStyle().PaddingLeft(2).Render(upcoming.String()),
		),
	)
}

func memberName(m *group.Member) string {
	if m.Name != "" {
		return m.Name
	}

	return m.UserID.String()[:8]
}

func (m *GroupsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.list))
	for _, g := range m.list {
		rows = append(rows, table.Row{
			g.Name,
			FormatAmount(g.CycleAmount),
			string(g.Frequency),
			strconv.Itoa(g.CurrentCycleIndex),
			FormatDate(g.NextPayoutDate()),
			g.InviteCode,
		})
	}

	m.table.SetRows(rows)
}

func (m *GroupsModel) refreshMembers() {
	rows := make([]table.Row, 0, len(m.detail.Members))
	for _, ms := range m.detail.Members {
		paid := ""
		if ms.Contributed {
			paid = "yes"
		}

		rows = append(rows, table.Row{strconv.Itoa(ms.Member.PayoutOrder), memberName(ms.Member), paid})
	}

	m.members.SetRows(rows)
}

func memberLimit(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 2 {
		return errors.New("need a whole number of at least 2")
	}

	return nil
}

// Messages

type loadGroupsMsg struct {
	groups []*group.Group
	err    error
}

type loadStatusMsg struct {
	status   *group.Status
	schedule []group.ScheduledPayout
	err      error
}

type groupSaveMsg struct {
	status string
	// reopen is the group to show after a save made from its detail view.
	reopen uuid.UUID
	err    error
}

func (m GroupsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		groups, err := m.groups.ListForUser(ctx, m.User)

		return loadGroupsMsg{groups: groups, err: err}
	}
}

func (m GroupsModel) statusCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		st, err := m.groups.Status(ctx, id)
		if err != nil {
			return loadStatusMsg{err: err}
		}

		schedule, err := m.groups.Schedule(ctx, id)

		return loadStatusMsg{status: st, schedule: schedule, err: err}
	}
}

func (m GroupsModel) createCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		amount, err := parseAmount(strings.TrimSpace(f.amount))
		if err != nil {
			return groupSaveMsg{err: err}
		}

		freq, err := cycle.ParseFrequency(f.frequency)
		if err != nil {
			return groupSaveMsg{err: err}
		}

		limit, err := strconv.Atoi(strings.TrimSpace(f.limit))
		if err != nil {
			return groupSaveMsg{err: err}
		}

		g, err := m.groups.Create(ctx, group.CreateParams{
			CreatorID:   m.User,
			Name:        f.name,
			CycleAmount: amount,
			Frequency:   freq,
			MemberLimit: limit,
			AnchorDate:  parseOptionalDate(f.anchor),
		})
		if err != nil {
			return groupSaveMsg{err: err}
		}

		return groupSaveMsg{status: okStyle(fmt.Sprintf("Created %s. Invite code: %s", g.Name, g.InviteCode))}
	}
}

func (m GroupsModel) joinCmd() tea.Cmd {
	code := m.fields.code

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		member, err := m.groups.Join(ctx, code, m.User)
		if err != nil {
			return groupSaveMsg{err: err}
		}

		return groupSaveMsg{
			status: okStyle(fmt.Sprintf("Joined with payout order #%d", member.PayoutOrder)),
			reopen: member.GroupID,
		}
	}
}

func (m GroupsModel) payCmd() tea.Cmd {
	g := m.detail.Group

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		c, err := m.contributions.Record(ctx, contribution.RecordParams{
			UserID: m.User,
			Target: contribution.GroupTarget(g.ID),
			Amount: g.CycleAmount,
		})
		if err != nil {
			return groupSaveMsg{err: err, reopen: g.ID}
		}

		return groupSaveMsg{
			status: okStyle(fmt.Sprintf("Paid %s into cycle %d", FormatAmount(c.Amount), *c.CycleIndex)),
			reopen: g.ID,
		}
	}
}

func (m GroupsModel) leaveCmd() tea.Cmd {
	g := m.detail.Group

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := m.groups.Leave(ctx, g.ID, m.User); err != nil {
			return groupSaveMsg{err: err}
		}

		return groupSaveMsg{status: okStyle("Left " + g.Name)}
	}
}
