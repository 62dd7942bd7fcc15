package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

const (
	decisionApprove = "approve"
	decisionReject  = "reject"
	decisionSkip    = "skip"
)

// ReviewModel walks the approval inbox of the session user one proposal at
// a time.
type ReviewModel struct {
	CommonModel
	session Session

	queue      []*proposal.Proposal
	current    *proposal.Proposal
	totalCount int

	form   *huh.Form
	answer *decisionAnswer

	loading bool
	status  string
}

type decisionAnswer struct {
	Decision string
	Comments string
}

func NewReviewModel(session Session) ReviewModel {
	return ReviewModel{
		session: session,
		loading: true,
		status:  "Loading approval inbox...",
	}
}

func (m ReviewModel) Title() string { return "Approval Inbox" }

func (m ReviewModel) ShortHelp() string { return "Enter: confirm | Esc: back" }

func (m ReviewModel) Init() tea.Cmd {
	return m.loadPendingCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.loading {
			return m, nil
		}

	case loadPendingMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading inbox: %v", msg.err)
			return m, nil
		}

		m.queue = msg.proposals
		m.totalCount = len(m.queue)

		return m, m.next("")

	case decisionResultMsg:
		m.loading = false

		note := fmt.Sprintf("%s: %s", msg.code, msg.outcome)
		if msg.err != nil {
			note = fmt.Sprintf("%s: %v", msg.code, msg.err)
		}

		return m, m.next(note)
	}

	if m.form == nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.answer.Decision == decisionSkip {
		return m, m.next(m.current.Code + ": skipped")
	}

	m.loading = true
	m.form = nil

	return m, m.decideCmd(m.current, *m.answer)
}

// next moves to the following proposal in the queue. note reports the
// outcome of the previous one.
func (m *ReviewModel) next(note string) tea.Cmd {
	if len(m.queue) == 0 {
		m.current = nil
		m.form = nil
		m.status = strings.TrimSpace(note + "\n\nNothing left to review.")

		return nil
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]

	reviewed := m.totalCount - len(m.queue)
	m.status = fmt.Sprintf("Reviewing %d/%d", reviewed, m.totalCount)

	if note != "" {
		m.status = note + "\n" + m.status
	}

	answer := &decisionAnswer{Decision: decisionApprove}
	m.answer = answer

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Decision").
				Options(
					huh.NewOption("Approve", decisionApprove),
					huh.NewOption("Reject", decisionReject),
					huh.NewOption("Skip for now", decisionSkip),
				).
				Value(&answer.Decision),

			huh.NewText().
				Title("Comments").
				Value(&answer.Comments).
				Validate(func(s string) error {
					if answer.Decision == decisionReject && strings.TrimSpace(s) == "" {
						return errors.New("a rejection needs a comment")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)

	return m.form.Init()
}

func (m ReviewModel) View() string {
	if m.loading || m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	p := m.current

	var items strings.Builder
	for _, it := range p.Items {
		fmt.Fprintf(&items, "  %d. %-30s %6d x %12s = %14s\n",
			it.Sequence, it.Name, it.Quantity,
			FormatAmount(it.UnitPrice, m.session.Decimals),
			FormatAmount(it.TotalPrice, m.session.Decimals),
		)
	}

	info := fmt.Sprintf(
		"%s  %s\nValid until: %s\n\n%s\nSubtotal: %s\nDiscount: %s%% (-%s)\nTax:      %s%% (+%s)\n%s",
		lipgloss.NewStyle().Bold(true).Render(p.Code),
		p.Title,
		FormatDate(p.ValidUntil),
		items.String(),
		FormatAmount(p.Subtotal, m.session.Decimals),
		p.DiscountPercent.String(), FormatAmount(p.DiscountAmount, m.session.Decimals),
		p.TaxPercent.String(), FormatAmount(p.Tax, m.session.Decimals),
		activeStyle("Total:    "+FormatAmount(p.TotalAmount, m.session.Decimals)),
	)

	return lipgloss.NewStyle().Padding(2).Render(
		fmt.Sprintf("%s\n\n%s\n\n%s", lipgloss.NewStyle().Faint(true).Render(m.status), info, m.form.View()),
	)
}

type loadPendingMsg struct {
	proposals []*proposal.Proposal
	err       error
}

func (m ReviewModel) loadPendingCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		ps, err := m.session.Proposals.PendingFor(ctx, m.session.ActorID)
		if err != nil {
			return loadPendingMsg{err: err}
		}

		// listings carry no items; reviewers need them
		for i, p := range ps {
			full, err := m.session.Proposals.Get(ctx, p.ID)
			if err != nil {
				return loadPendingMsg{err: err}
			}

			ps[i] = full
		}

		return loadPendingMsg{proposals: ps}
	}
}

type decisionResultMsg struct {
	code    string
	outcome proposal.Status
	err     error
}

func (m ReviewModel) decideCmd(p *proposal.Proposal, answer decisionAnswer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		decide := m.session.Proposals.Approve
		if answer.Decision == decisionReject {
			decide = m.session.Proposals.Reject
		}

		updated, err := decide(ctx, m.session.ActorID, p.ID, strings.TrimSpace(answer.Comments))
		if err != nil {
			return decisionResultMsg{code: p.Code, err: err}
		}

		return decisionResultMsg{code: p.Code, outcome: updated.Status}
	}
}
