package proposal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Daunny/CRM-AUGU-sub000/internal/opportunity"
	"github.com/Daunny/CRM-AUGU-sub000/internal/template"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=proposal
type Repository interface {
	Begin(ctx context.Context) (Tx, error)

	GetProposal(ctx context.Context, id uuid.UUID) (*Proposal, error)
	ListProposals(ctx context.Context, filter ListFilter) ([]*Proposal, int, error)
	ListVersions(ctx context.Context, proposalID uuid.UUID) ([]*Version, error)
	ListApprovals(ctx context.Context, proposalID uuid.UUID) ([]*Approval, error)
}

// Tx is one atomic unit of work. LockProposal must hold a row lock until
// Commit or Rollback so that concurrent mutations of a proposal serialize.
type Tx interface {
	LockProposal(ctx context.Context, id uuid.UUID) (*Proposal, error)
	NextCodeSequence(ctx context.Context, period string) (int, error)
	CreateProposal(ctx context.Context, p *Proposal) error
	UpdateProposal(ctx context.Context, p *Proposal) error
	ReplaceItems(ctx context.Context, proposalID uuid.UUID, items []*Item) error
	DeleteProposal(ctx context.Context, id uuid.UUID) error
	AppendVersion(ctx context.Context, v *Version) error

	CreateApprovals(ctx context.Context, approvals []*Approval) error
	CycleApprovals(ctx context.Context, proposalID uuid.UUID, cycle int) ([]*Approval, error)
	// ResolveApproval moves a PENDING record to a.Status and fails with
	// ErrConflict when the record is no longer pending.
	ResolveApproval(ctx context.Context, a *Approval) error
	CancelPendingApprovals(ctx context.Context, proposalID uuid.UUID, cycle int) error

	Opportunities() OpportunityStore

	Commit() error
	Rollback() error
}

// OpportunityStore is the slice of the CRM opportunity store proposals use.
type OpportunityStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*opportunity.Opportunity, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage opportunity.Stage, probability int) error
}

// Directory resolves users and the holders of a role.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	ListByRole(ctx context.Context, role user.Role) ([]*user.User, error)
}

type TemplateSource interface {
	Get(ctx context.Context, id uuid.UUID) (*template.Template, error)
}

const (
	defaultValidity = 30 * 24 * time.Hour
	defaultPageSize = 20
	maxPageSize     = 100

	acceptedProbability = 100
)

type Service struct {
	repo      Repository
	workflow  *Workflow
	guard     *Guard
	templates TemplateSource
	now       func() time.Time
}

type Option func(*Service)

// WithTemplates enables creating proposals from templates.
func WithTemplates(t TemplateSource) Option {
	return func(s *Service) { s.templates = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, users Directory, policy Policy, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		workflow: NewWorkflow(policy, users),
		guard:    NewGuard(policy, users),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Guard exposes the authorization guard for callers that only need a decision.
func (s *Service) Guard() *Guard {
	return s.guard
}

type ItemParams struct {
	Type            ItemType
	Name            string
	Description     string
	Quantity        int64
	UnitPrice       int64
	DiscountPercent decimal.Decimal
}

type CreateParams struct {
	OpportunityID   uuid.UUID
	TemplateID      *uuid.UUID
	Title           string
	PaymentTerms    string
	DeliveryTerms   string
	Notes           string
	ValidUntil      time.Time
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
	Items           []ItemParams
}

// UpdateParams changes only the fields that are set.
type UpdateParams struct {
	Title           *string
	PaymentTerms    *string
	DeliveryTerms   *string
	Notes           *string
	ValidUntil      *time.Time
	DiscountPercent *decimal.Decimal
	TaxPercent      *decimal.Decimal
	Reason          string
}

type ListFilter struct {
	Status          *Status
	OpportunityID   *uuid.UUID
	CreatedBy       *uuid.UUID
	PendingApprover *uuid.UUID
	Page            int
	PageSize        int
}

type Page struct {
	Proposals []*Proposal
	Total     int
	Page      int
	PageSize  int
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, params CreateParams) (*Proposal, error) {
	if _, err := s.guard.Resolve(ctx, actorID); err != nil {
		return nil, err
	}

	now := s.now()

	p := &Proposal{
		ID:              uuid.New(),
		OpportunityID:   params.OpportunityID,
		TemplateID:      params.TemplateID,
		Title:           strings.TrimSpace(params.Title),
		PaymentTerms:    params.PaymentTerms,
		DeliveryTerms:   params.DeliveryTerms,
		Notes:           params.Notes,
		ValidUntil:      params.ValidUntil,
		DiscountPercent: params.DiscountPercent,
		TaxPercent:      params.TaxPercent,
		Status:          StatusDraft,
		Version:         1,
		CreatedBy:       actorID,
		UpdatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if p.Title == "" {
		return nil, invalid("title is required")
	}

	if err := s.checkValidUntil(p.ValidUntil); err != nil {
		return nil, err
	}

	if err := s.applyTemplate(ctx, p); err != nil {
		return nil, err
	}

	items, err := buildItems(p.ID, params.Items)
	if err != nil {
		return nil, err
	}

	p.Items = items

	if err := applyTotals(p); err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx Tx) error {
		if _, err := findOpportunity(ctx, tx, p.OpportunityID); err != nil {
			return err
		}

		if err := s.assignCode(ctx, tx, p, now); err != nil {
			return err
		}

		if err := tx.CreateProposal(ctx, p); err != nil {
			return err
		}

		return s.appendVersion(ctx, tx, p, "created", actorID, now)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("proposal created", "proposal_id", p.ID, "code", p.Code, "total", p.TotalAmount)

	return p, nil
}

func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, params UpdateParams) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionEdit, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		if params.Title != nil {
			title := strings.TrimSpace(*params.Title)
			if title == "" {
				return invalid("title is required")
			}

			p.Title = title
		}

		if params.PaymentTerms != nil {
			p.PaymentTerms = *params.PaymentTerms
		}

		if params.DeliveryTerms != nil {
			p.DeliveryTerms = *params.DeliveryTerms
		}

		if params.Notes != nil {
			p.Notes = *params.Notes
		}

		if params.ValidUntil != nil {
			if err := s.checkValidUntil(*params.ValidUntil); err != nil {
				return err
			}

			p.ValidUntil = *params.ValidUntil
		}

		if params.DiscountPercent != nil {
			p.DiscountPercent = *params.DiscountPercent
		}

		if params.TaxPercent != nil {
			p.TaxPercent = *params.TaxPercent
		}

		if err := applyTotals(p); err != nil {
			return err
		}

		return s.commitContentChange(ctx, tx, p, reasonOr(params.Reason, "updated"), actorID, now)
	})
}

// UpdateItems replaces every item of a DRAFT proposal as one batch.
func (s *Service) UpdateItems(ctx context.Context, actorID, id uuid.UUID, params []ItemParams, reason string) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionEdit, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		items, err := buildItems(p.ID, params)
		if err != nil {
			return err
		}

		p.Items = items

		if err := applyTotals(p); err != nil {
			return err
		}

		if err := tx.ReplaceItems(ctx, p.ID, p.Items); err != nil {
			return err
		}

		return s.commitContentChange(ctx, tx, p, reasonOr(reason, "items updated"), actorID, now)
	})
}

// Submit opens a new approval cycle with one pending record per required level.
func (s *Service) Submit(ctx context.Context, actorID, id uuid.UUID) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionSubmit, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		if len(p.Items) == 0 {
			return invalid("proposal has no items")
		}

		if err := s.checkValidUntil(p.ValidUntil); err != nil {
			return err
		}

		levels := s.workflow.ResolveRequiredLevels(p.TotalAmount)

		approvals, err := s.workflow.CreateBatch(ctx, p, p.ApprovalCycle+1, levels, now)
		if err != nil {
			return err
		}

		if err := tx.CreateApprovals(ctx, approvals); err != nil {
			return err
		}

		p.ApprovalCycle++
		p.Status = StatusPendingApproval
		p.SubmittedAt = &now
		p.ApprovedAt = nil
		p.RejectedAt = nil
		p.UpdatedBy = actorID
		p.UpdatedAt = now

		slog.Info("proposal submitted", "proposal_id", p.ID, "cycle", p.ApprovalCycle, "levels", len(levels))

		return tx.UpdateProposal(ctx, p)
	})
}

func (s *Service) Approve(ctx context.Context, actorID, id uuid.UUID, comments string) (*Proposal, error) {
	return s.decide(ctx, actorID, id, ActionApprove, comments)
}

func (s *Service) Reject(ctx context.Context, actorID, id uuid.UUID, comments string) (*Proposal, error) {
	return s.decide(ctx, actorID, id, ActionReject, comments)
}

// decide records one approver's decision and, in the same transaction,
// settles the proposal if the cycle is now complete.
func (s *Service) decide(ctx context.Context, actorID, id uuid.UUID, action Action, comments string) (*Proposal, error) {
	u, err := s.guard.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var p *Proposal

	err = s.inTx(ctx, func(tx Tx) error {
		p, err = tx.LockProposal(ctx, id)
		if err != nil {
			return err
		}

		approvals, err := tx.CycleApprovals(ctx, p.ID, p.ApprovalCycle)
		if err != nil {
			return err
		}

		if err := checkNotProcessed(actorID, approvals); err != nil {
			return err
		}

		if _, err := Next(p.Status, action); err != nil {
			return err
		}

		subj := Subject{Proposal: p, Approvals: approvals}
		if err := s.guard.Authorize(u, action, subj); err != nil {
			return err
		}

		now := s.now()

		record := pendingApprovalOf(actorID, approvals)
		record.Status = ApprovalApproved

		if action == ActionReject {
			record.Status = ApprovalRejected
		}

		record.Comments = comments
		record.DecidedAt = &now

		if err := tx.ResolveApproval(ctx, record); err != nil {
			return err
		}

		return s.settle(ctx, tx, p, approvals, actorID, now)
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) settle(ctx context.Context, tx Tx, p *Proposal, approvals []*Approval, actorID uuid.UUID, now time.Time) error {
	outcome := Evaluate(approvals)

	switch outcome {
	case OutcomeRejected:
		if err := tx.CancelPendingApprovals(ctx, p.ID, p.ApprovalCycle); err != nil {
			return err
		}

		for _, a := range approvals {
			if a.Status == ApprovalPending {
				a.Status = ApprovalCancelled
			}
		}

		p.Status, _ = Next(p.Status, ActionReject)
		p.RejectedAt = &now
	case OutcomeApproved:
		p.Status, _ = Next(p.Status, ActionCompleteApproval)
		p.ApprovedAt = &now
	default:
		return nil
	}

	p.UpdatedBy = actorID
	p.UpdatedAt = now

	slog.Info("approval cycle settled", "proposal_id", p.ID, "cycle", p.ApprovalCycle, "outcome", outcome)

	return tx.UpdateProposal(ctx, p)
}

// Reopen returns a rejected proposal to DRAFT so it can be edited and
// submitted as a new cycle. Records of the closed cycle stay as history.
func (s *Service) Reopen(ctx context.Context, actorID, id uuid.UUID) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionReopen, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		if err := tx.CancelPendingApprovals(ctx, p.ID, p.ApprovalCycle); err != nil {
			return err
		}

		p.Status = StatusDraft
		p.UpdatedBy = actorID
		p.UpdatedAt = now

		return tx.UpdateProposal(ctx, p)
	})
}

func (s *Service) Send(ctx context.Context, actorID, id uuid.UUID) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionSend, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		if err := s.checkValidUntil(p.ValidUntil); err != nil {
			return err
		}

		p.Status = StatusSent
		p.SentAt = &now
		p.UpdatedBy = actorID
		p.UpdatedAt = now

		return tx.UpdateProposal(ctx, p)
	})
}

func (s *Service) MarkViewed(ctx context.Context, actorID, id uuid.UUID) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionView, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		p.Status = StatusViewed
		p.ViewedAt = &now
		p.UpdatedBy = actorID
		p.UpdatedAt = now

		return tx.UpdateProposal(ctx, p)
	})
}

// RecordResponse stores the customer's answer. Acceptance also moves the
// linked opportunity to won, inside the same transaction.
func (s *Service) RecordResponse(ctx context.Context, actorID, id uuid.UUID, accepted bool) (*Proposal, error) {
	action := ActionDecline
	if accepted {
		action = ActionAccept
	}

	return s.mutate(ctx, actorID, id, action, func(tx Tx, subj Subject, p *Proposal, now time.Time) error {
		p.RespondedAt = &now
		p.UpdatedBy = actorID
		p.UpdatedAt = now

		if !accepted {
			p.Status = StatusDeclined
			return tx.UpdateProposal(ctx, p)
		}

		p.Status = StatusAccepted
		p.CustomerSignedAt = &now

		if err := tx.UpdateProposal(ctx, p); err != nil {
			return err
		}

		err := tx.Opportunities().UpdateStage(ctx, subj.Opportunity.ID, opportunity.StageWon, acceptedProbability)
		if err != nil {
			return fmt.Errorf("advancing opportunity: %w", err)
		}

		slog.Info("proposal accepted", "proposal_id", p.ID, "opportunity_id", subj.Opportunity.ID)

		return nil
	})
}

// Expire is the hook for the external validity scheduler.
func (s *Service) Expire(ctx context.Context, actorID, id uuid.UUID) (*Proposal, error) {
	return s.mutate(ctx, actorID, id, ActionExpire, func(tx Tx, _ Subject, p *Proposal, now time.Time) error {
		if err := tx.CancelPendingApprovals(ctx, p.ID, p.ApprovalCycle); err != nil {
			return err
		}

		p.Status = StatusExpired
		p.UpdatedBy = actorID
		p.UpdatedAt = now

		return tx.UpdateProposal(ctx, p)
	})
}

// Clone copies a proposal of any status into a fresh DRAFT with its own code
// and history. Approvals and versions are never copied.
func (s *Service) Clone(ctx context.Context, actorID, id uuid.UUID) (*Proposal, error) {
	u, err := s.guard.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var clone *Proposal

	err = s.inTx(ctx, func(tx Tx) error {
		src, err := tx.LockProposal(ctx, id)
		if err != nil {
			return err
		}

		opp, err := findOpportunity(ctx, tx, src.OpportunityID)
		if err != nil {
			return err
		}

		if _, err := Next(src.Status, ActionClone); err != nil {
			return err
		}

		if err := s.guard.Authorize(u, ActionClone, Subject{Proposal: src, Opportunity: opp}); err != nil {
			return err
		}

		now := s.now()
		clone = cloneOf(src, actorID, now)

		if clone.ValidUntil.Before(today(now)) {
			clone.ValidUntil = today(now).Add(defaultValidity)
		}

		if err := applyTotals(clone); err != nil {
			return err
		}

		if err := s.assignCode(ctx, tx, clone, now); err != nil {
			return err
		}

		if err := tx.CreateProposal(ctx, clone); err != nil {
			return err
		}

		return s.appendVersion(ctx, tx, clone, "cloned from "+src.Code, actorID, now)
	})
	if err != nil {
		return nil, err
	}

	return clone, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	u, err := s.guard.Resolve(ctx, actorID)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx Tx) error {
		p, err := tx.LockProposal(ctx, id)
		if err != nil {
			return err
		}

		if err := s.guard.Authorize(u, ActionDelete, Subject{Proposal: p}); err != nil {
			return err
		}

		action := ActionDelete
		if u.Role == user.RoleAdmin {
			action = ActionForceDelete
		}

		if _, err := Next(p.Status, action); err != nil {
			return err
		}

		if err := tx.CancelPendingApprovals(ctx, p.ID, p.ApprovalCycle); err != nil {
			return err
		}

		slog.Info("proposal deleted", "proposal_id", p.ID, "code", p.Code, "status", p.Status)

		return tx.DeleteProposal(ctx, p.ID)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Proposal, error) {
	return s.repo.GetProposal(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}

	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}

	filter.PageSize = min(filter.PageSize, maxPageSize)

	proposals, total, err := s.repo.ListProposals(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Page{Proposals: proposals, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// PendingFor lists the proposals waiting on approverID's decision.
func (s *Service) PendingFor(ctx context.Context, approverID uuid.UUID) ([]*Proposal, error) {
	page, err := s.List(ctx, ListFilter{
		Status:          new(StatusPendingApproval),
		PendingApprover: &approverID,
		PageSize:        maxPageSize,
	})
	if err != nil {
		return nil, err
	}

	return page.Proposals, nil
}

func (s *Service) Versions(ctx context.Context, id uuid.UUID) ([]*Version, error) {
	if _, err := s.repo.GetProposal(ctx, id); err != nil {
		return nil, err
	}

	return s.repo.ListVersions(ctx, id)
}

// Approvals returns the approval records of every cycle, oldest first.
func (s *Service) Approvals(ctx context.Context, id uuid.UUID) ([]*Approval, error) {
	if _, err := s.repo.GetProposal(ctx, id); err != nil {
		return nil, err
	}

	return s.repo.ListApprovals(ctx, id)
}

type mutation func(tx Tx, subj Subject, p *Proposal, now time.Time) error

// mutate runs the common frame of a state-changing operation: lock the row,
// check the transition, authorize, then apply fn, all in one transaction.
func (s *Service) mutate(ctx context.Context, actorID, id uuid.UUID, action Action, fn mutation) (*Proposal, error) {
	u, err := s.guard.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var p *Proposal

	err = s.inTx(ctx, func(tx Tx) error {
		p, err = tx.LockProposal(ctx, id)
		if err != nil {
			return err
		}

		if _, err := Next(p.Status, action); err != nil {
			return err
		}

		opp, err := findOpportunity(ctx, tx, p.OpportunityID)
		if err != nil {
			return err
		}

		subj := Subject{Proposal: p, Opportunity: opp}
		if err := s.guard.Authorize(u, action, subj); err != nil {
			return err
		}

		return fn(tx, subj, p, s.now())
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (s *Service) commitContentChange(ctx context.Context, tx Tx, p *Proposal, reason string, actorID uuid.UUID, now time.Time) error {
	p.Version++
	p.UpdatedBy = actorID
	p.UpdatedAt = now

	if err := tx.UpdateProposal(ctx, p); err != nil {
		return err
	}

	return s.appendVersion(ctx, tx, p, reason, actorID, now)
}

func (s *Service) appendVersion(ctx context.Context, tx Tx, p *Proposal, reason string, actorID uuid.UUID, now time.Time) error {
	v, err := snapshot(p, reason, actorID, now)
	if err != nil {
		return err
	}

	return tx.AppendVersion(ctx, v)
}

func (s *Service) assignCode(ctx context.Context, tx Tx, p *Proposal, now time.Time) error {
	seq, err := tx.NextCodeSequence(ctx, CodePeriod(now))
	if err != nil {
		return fmt.Errorf("next code sequence: %w", err)
	}

	p.Code = FormatCode(now, seq)

	return nil
}

func (s *Service) applyTemplate(ctx context.Context, p *Proposal) error {
	if p.TemplateID == nil {
		return nil
	}

	if s.templates == nil {
		return invalid("templates are not available")
	}

	t, err := s.templates.Get(ctx, *p.TemplateID)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			return fmt.Errorf("%w: template %s", ErrNotFound, *p.TemplateID)
		}

		return fmt.Errorf("loading template: %w", err)
	}

	if p.PaymentTerms == "" {
		p.PaymentTerms = t.PaymentTerms
	}

	if p.DeliveryTerms == "" {
		p.DeliveryTerms = t.DeliveryTerms
	}

	if p.Notes == "" {
		p.Notes = t.Notes
	}

	return nil
}

func (s *Service) checkValidUntil(validUntil time.Time) error {
	if validUntil.IsZero() {
		return invalid("valid until date is required")
	}

	if validUntil.Before(today(s.now())) {
		return invalid("valid until date %s has passed", validUntil.Format(time.DateOnly))
	}

	return nil
}

func findOpportunity(ctx context.Context, tx Tx, id uuid.UUID) (*opportunity.Opportunity, error) {
	opp, err := tx.Opportunities().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, opportunity.ErrNotFound) {
			return nil, fmt.Errorf("%w: opportunity %s", ErrNotFound, id)
		}

		return nil, fmt.Errorf("loading opportunity: %w", err)
	}

	return opp, nil
}

// checkNotProcessed turns a second decision by the same approver into a
// Conflict instead of a state or permission error.
func checkNotProcessed(actorID uuid.UUID, approvals []*Approval) error {
	for _, a := range approvals {
		if a.ApproverID != actorID {
			continue
		}

		switch {
		case a.Resolved():
			return fmt.Errorf("%w: approval already processed (%s)", ErrConflict, strings.ToLower(string(a.Status)))
		case a.Status == ApprovalCancelled:
			return fmt.Errorf("%w: approval cycle %d is closed", ErrInvalidState, a.Cycle)
		}
	}

	return nil
}

func buildItems(proposalID uuid.UUID, params []ItemParams) ([]*Item, error) {
	items := make([]*Item, len(params))

	for i, ip := range params {
		name := strings.TrimSpace(ip.Name)
		if name == "" {
			return nil, invalid("item %d: name is required", i+1)
		}

		itemType := ip.Type
		if itemType == "" {
			itemType = ItemTypeProduct
		}

		if !itemType.Valid() {
			return nil, invalid("item %d: unknown type %q", i+1, ip.Type)
		}

		items[i] = &Item{
			ID:              uuid.New(),
			ProposalID:      proposalID,
			Sequence:        i + 1,
			Type:            itemType,
			Name:            name,
			Description:     ip.Description,
			Quantity:        ip.Quantity,
			UnitPrice:       ip.UnitPrice,
			DiscountPercent: ip.DiscountPercent,
		}
	}

	return items, nil
}

func cloneOf(src *Proposal, actorID uuid.UUID, now time.Time) *Proposal {
	c := &Proposal{
		ID:              uuid.New(),
		OpportunityID:   src.OpportunityID,
		TemplateID:      src.TemplateID,
		Title:           src.Title,
		PaymentTerms:    src.PaymentTerms,
		DeliveryTerms:   src.DeliveryTerms,
		Notes:           src.Notes,
		ValidUntil:      src.ValidUntil,
		DiscountPercent: src.DiscountPercent,
		TaxPercent:      src.TaxPercent,
		Status:          StatusDraft,
		Version:         1,
		CreatedBy:       actorID,
		UpdatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]*Item, len(src.Items)),
	}

	for i, it := range src.Items {
		c.Items[i] = &Item{
			ID:              uuid.New(),
			ProposalID:      c.ID,
			Sequence:        i + 1,
			Type:            it.Type,
			Name:            it.Name,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
		}
	}

	return c
}

// today is the UTC calendar date of now; validity dates are stored as UTC dates.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func reasonOr(reason, fallback string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}

	return fallback
}
