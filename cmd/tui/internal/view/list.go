package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
)

type ListModel struct {
	CommonModel
	session Session

	state     listState
	table     table.Model
	proposals []*proposal.Proposal
	total     int
	form      *huh.Form
	edit      *editFields

	statusFilterIdx int
	mineOnly        bool

	filter  proposal.ListFilter
	loading bool
	err     error
	status  string
}

type editFields struct {
	Title      string
	ValidUntil string
	Notes      string
}

func NewListModel(session Session) ListModel {
	columns := []table.Column{
		{Title: "Code", Width: 17},
		{Title: "Title", Width: 32},
		{Title: "Status", Width: 17},
		{Title: "Total", Width: 16},
		{Title: "Valid Until", Width: 12},
		{Title: "Ver", Width: 4},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

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
	t.SetStyles(s)

	return ListModel{
		session: session,
		table:   t,
		loading: true,
	}
}

func (m ListModel) Title() string { return "Proposals" }
func (m ListModel) ShortHelp() string {
	if m.state == listStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: edit | u: submit | x: send | c: clone | s: status filter | m: mine | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.proposals = msg.page.Proposals
		m.total = msg.page.Total
		m.refreshTable()

		return m, nil

	case actionResultMsg:
		m.status = msg.note
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "e":
			return m.enterEditMode()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % (len(proposal.Statuses) + 1)
			m.applyFilter()

			return m, m.loadCmd()
		case "m":
			m.mineOnly = !m.mineOnly
			m.applyFilter()

			return m, m.loadCmd()
		case "u":
			return m, m.actionCmd("submitted", m.session.Proposals.Submit)
		case "x":
			return m, m.actionCmd("sent", m.session.Proposals.Send)
		case "c":
			return m, m.actionCmd("cloned as", m.session.Proposals.Clone)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() *proposal.Proposal {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.proposals) {
		return nil
	}

	return m.proposals[idx]
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	p := m.selected()
	if p == nil {
		return m, nil
	}

	if p.Status != proposal.StatusDraft {
		m.status = fmt.Sprintf("%s is %s, only DRAFT proposals can be edited", p.Code, p.Status)
		return m, nil
	}

	fields := &editFields{
		Title:      p.Title,
		ValidUntil: FormatDate(p.ValidUntil),
		Notes:      p.Notes,
	}
	m.edit = fields

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&fields.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}

					return nil
				}),

			huh.NewInput().
				Key("valid_until").
				Title("Valid until").
				Placeholder("YYYY-MM-DD").
				Value(&fields.ValidUntil).
				Validate(func(s string) error {
					if _, err := time.Parse(time.DateOnly, s); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}

					return nil
				}),

			huh.NewText().
				Key("notes").
				Title("Notes").
				Value(&fields.Notes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading proposals...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v\n\n(Esc to back)", m.err))
	}

	statusLabel := "All"
	if m.filter.Status != nil {
		statusLabel = string(*m.filter.Status)
	}

	ownerLabel := "Everyone"
	if m.mineOnly {
		ownerLabel = "Mine"
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [m] Created by: %s | %d proposals",
		activeStyle(statusLabel),
		activeStyle(ownerLabel),
		m.total,
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == listStateEdit && m.form != nil {
		code := ""
		if p := m.selected(); p != nil {
			code = p.Code
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(
				fmt.Sprintf("Edit %s\n\n%s", code, m.form.View()),
			)

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *ListModel) applyFilter() {
	m.filter.Status = nil
	if m.statusFilterIdx > 0 {
		m.filter.Status = new(proposal.Statuses[m.statusFilterIdx-1])
	}

	m.filter.CreatedBy = nil
	if m.mineOnly {
		m.filter.CreatedBy = new(m.session.ActorID)
	}
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.proposals))
	for _, p := range m.proposals {
		rows = append(rows, table.Row{
			p.Code,
			p.Title,
			string(p.Status),
			FormatAmount(p.TotalAmount, m.session.Decimals),
			FormatDate(p.ValidUntil),
			fmt.Sprint(p.Version),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	page *proposal.Page
	err  error
}

func (m ListModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := m.session.Proposals.List(ctx, filter)

		return loadListMsg{page: page, err: err}
	}
}

type actionResultMsg struct {
	note string
	err  error
}

type proposalAction func(ctx context.Context, actorID, id uuid.UUID) (*proposal.Proposal, error)

func (m ListModel) actionCmd(verb string, action proposalAction) tea.Cmd {
	p := m.selected()
	if p == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := action(ctx, m.session.ActorID, p.ID)
		if err != nil {
			return actionResultMsg{err: err}
		}

		if updated.ID != p.ID {
			return actionResultMsg{note: fmt.Sprintf("%s %s %s", p.Code, verb, updated.Code)}
		}

		return actionResultMsg{note: fmt.Sprintf("%s %s (%s)", p.Code, verb, updated.Status)}
	}
}

func (m ListModel) saveCmd() tea.Cmd {
	p := m.selected()
	if p == nil {
		return nil
	}

	fields := *m.edit

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		validUntil, err := time.Parse(time.DateOnly, fields.ValidUntil)
		if err != nil {
			return actionResultMsg{err: err}
		}

		_, err = m.session.Proposals.Update(ctx, m.session.ActorID, p.ID, proposal.UpdateParams{
			Title:      &fields.Title,
			ValidUntil: &validUntil,
			Notes:      &fields.Notes,
			Reason:     "edited in terminal",
		})
		if err != nil {
			return actionResultMsg{err: err}
		}

		return actionResultMsg{note: p.Code + " saved"}
	}
}
