package proposal_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/opportunity"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

// memStore is an in-memory Repository. Transactions are serialized by a
// single mutex and roll back by restoring the state captured at Begin.
type memStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	proposals     map[uuid.UUID]*proposal.Proposal
	deleted       map[uuid.UUID]bool
	versions      []*proposal.Version
	approvals     []*proposal.Approval
	sequences     map[string]int
	opportunities map[uuid.UUID]*opportunity.Opportunity
}

func newMemStore(opps ...*opportunity.Opportunity) *memStore {
	m := &memStore{state: memState{
		proposals:     map[uuid.UUID]*proposal.Proposal{},
		deleted:       map[uuid.UUID]bool{},
		sequences:     map[string]int{},
		opportunities: map[uuid.UUID]*opportunity.Opportunity{},
	}}

	for _, o := range opps {
		m.state.opportunities[o.ID] = o
	}

	return m
}

func (s memState) clone() memState {
	c := memState{
		proposals:     make(map[uuid.UUID]*proposal.Proposal, len(s.proposals)),
		deleted:       make(map[uuid.UUID]bool, len(s.deleted)),
		versions:      slices.Clone(s.versions),
		approvals:     make([]*proposal.Approval, len(s.approvals)),
		sequences:     make(map[string]int, len(s.sequences)),
		opportunities: make(map[uuid.UUID]*opportunity.Opportunity, len(s.opportunities)),
	}

	for id, p := range s.proposals {
		c.proposals[id] = copyProposal(p)
	}

	for id, d := range s.deleted {
		c.deleted[id] = d
	}

	for i, a := range s.approvals {
		cp := *a
		c.approvals[i] = &cp
	}

	for k, v := range s.sequences {
		c.sequences[k] = v
	}

	for id, o := range s.opportunities {
		cp := *o
		c.opportunities[id] = &cp
	}

	return c
}

func copyProposal(p *proposal.Proposal) *proposal.Proposal {
	cp := *p
	cp.Items = make([]*proposal.Item, len(p.Items))

	for i, it := range p.Items {
		ic := *it
		cp.Items[i] = &ic
	}

	return &cp
}

func (m *memStore) Begin(context.Context) (proposal.Tx, error) {
	m.mu.Lock()

	return &memTx{m: m, saved: m.state.clone()}, nil
}

func (m *memStore) GetProposal(_ context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.get(id)
}

func (m *memStore) ListProposals(_ context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*proposal.Proposal

	for id, p := range m.state.proposals {
		if m.state.deleted[id] {
			continue
		}

		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}

		if filter.OpportunityID != nil && p.OpportunityID != *filter.OpportunityID {
			continue
		}

		if filter.CreatedBy != nil && p.CreatedBy != *filter.CreatedBy {
			continue
		}

		if filter.PendingApprover != nil && !m.state.pendingFor(p, *filter.PendingApprover) {
			continue
		}

		matched = append(matched, copyProposal(p))
	}

	slices.SortFunc(matched, func(a, b *proposal.Proposal) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return -1 * compareStrings(a.Code, b.Code)
	})

	total := len(matched)
	start := min((filter.Page-1)*filter.PageSize, total)
	end := min(start+filter.PageSize, total)

	return matched[start:end], total, nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

func (m *memStore) ListVersions(_ context.Context, proposalID uuid.UUID) ([]*proposal.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*proposal.Version

	for _, v := range m.state.versions {
		if v.ProposalID == proposalID {
			out = append(out, v)
		}
	}

	return out, nil
}

func (m *memStore) ListApprovals(_ context.Context, proposalID uuid.UUID) ([]*proposal.Approval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*proposal.Approval

	for _, a := range m.state.approvals {
		if a.ProposalID == proposalID {
			cp := *a
			out = append(out, &cp)
		}
	}

	return out, nil
}

func (s memState) get(id uuid.UUID) (*proposal.Proposal, error) {
	p, ok := s.proposals[id]
	if !ok || s.deleted[id] {
		return nil, fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, id)
	}

	return copyProposal(p), nil
}

func (s memState) pendingFor(p *proposal.Proposal, approverID uuid.UUID) bool {
	for _, a := range s.approvals {
		if a.ProposalID == p.ID && a.Cycle == p.ApprovalCycle && a.ApproverID == approverID && a.Status == proposal.ApprovalPending {
			return true
		}
	}

	return false
}

type memTx struct {
	m     *memStore
	saved memState
	done  bool
}

func (tx *memTx) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}

	tx.done = true
	tx.m.mu.Unlock()

	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return nil
	}

	tx.done = true
	tx.m.state = tx.saved
	tx.m.mu.Unlock()

	return nil
}

func (tx *memTx) Opportunities() proposal.OpportunityStore {
	return memOpportunities{s: &tx.m.state}
}

func (tx *memTx) LockProposal(_ context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	return tx.m.state.get(id)
}

func (tx *memTx) NextCodeSequence(_ context.Context, period string) (int, error) {
	tx.m.state.sequences[period]++

	return tx.m.state.sequences[period], nil
}

func (tx *memTx) CreateProposal(_ context.Context, p *proposal.Proposal) error {
	for _, existing := range tx.m.state.proposals {
		if existing.Code == p.Code {
			return fmt.Errorf("%w: proposal code %s already exists", proposal.ErrConflict, p.Code)
		}
	}

	tx.m.state.proposals[p.ID] = copyProposal(p)

	return nil
}

func (tx *memTx) UpdateProposal(_ context.Context, p *proposal.Proposal) error {
	stored, ok := tx.m.state.proposals[p.ID]
	if !ok || tx.m.state.deleted[p.ID] {
		return fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, p.ID)
	}

	items := stored.Items
	cp := copyProposal(p)
	cp.Items = items
	tx.m.state.proposals[p.ID] = cp

	return nil
}

func (tx *memTx) ReplaceItems(_ context.Context, proposalID uuid.UUID, items []*proposal.Item) error {
	stored, ok := tx.m.state.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, proposalID)
	}

	stored.Items = copyProposal(&proposal.Proposal{Items: items}).Items

	return nil
}

func (tx *memTx) DeleteProposal(_ context.Context, id uuid.UUID) error {
	if _, ok := tx.m.state.proposals[id]; !ok || tx.m.state.deleted[id] {
		return fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, id)
	}

	tx.m.state.deleted[id] = true

	return nil
}

func (tx *memTx) AppendVersion(_ context.Context, v *proposal.Version) error {
	for _, existing := range tx.m.state.versions {
		if existing.ProposalID == v.ProposalID && existing.Version == v.Version {
			return fmt.Errorf("%w: version %d already recorded", proposal.ErrConflict, v.Version)
		}
	}

	tx.m.state.versions = append(tx.m.state.versions, v)

	return nil
}

func (tx *memTx) CreateApprovals(_ context.Context, approvals []*proposal.Approval) error {
	for _, a := range approvals {
		cp := *a
		tx.m.state.approvals = append(tx.m.state.approvals, &cp)
	}

	return nil
}

func (tx *memTx) CycleApprovals(_ context.Context, proposalID uuid.UUID, cycle int) ([]*proposal.Approval, error) {
	var out []*proposal.Approval

	for _, a := range tx.m.state.approvals {
		if a.ProposalID == proposalID && a.Cycle == cycle {
			cp := *a
			out = append(out, &cp)
		}
	}

	return out, nil
}

func (tx *memTx) ResolveApproval(_ context.Context, a *proposal.Approval) error {
	for _, stored := range tx.m.state.approvals {
		if stored.ID != a.ID {
			continue
		}

		if stored.Status != proposal.ApprovalPending {
			return fmt.Errorf("%w: approval already processed", proposal.ErrConflict)
		}

		stored.Status = a.Status
		stored.Comments = a.Comments
		stored.DecidedAt = a.DecidedAt

		return nil
	}

	return fmt.Errorf("%w: approval already processed", proposal.ErrConflict)
}

func (tx *memTx) CancelPendingApprovals(_ context.Context, proposalID uuid.UUID, cycle int) error {
	for _, a := range tx.m.state.approvals {
		if a.ProposalID == proposalID && a.Cycle == cycle && a.Status == proposal.ApprovalPending {
			a.Status = proposal.ApprovalCancelled
		}
	}

	return nil
}

type memOpportunities struct {
	s *memState
}

func (o memOpportunities) FindByID(_ context.Context, id uuid.UUID) (*opportunity.Opportunity, error) {
	opp, ok := o.s.opportunities[id]
	if !ok {
		return nil, opportunity.ErrNotFound
	}

	cp := *opp

	return &cp, nil
}

func (o memOpportunities) UpdateStage(_ context.Context, id uuid.UUID, stage opportunity.Stage, probability int) error {
	opp, ok := o.s.opportunities[id]
	if !ok {
		return opportunity.ErrNotFound
	}

	opp.Stage = stage
	opp.Probability = probability

	return nil
}

func (m *memStore) opportunity(id uuid.UUID) *opportunity.Opportunity {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *m.state.opportunities[id]

	return &cp
}

// memDirectory lists users in the order they were added.
type memDirectory struct {
	users []*user.User
}

func (d *memDirectory) add(name string, role user.Role) *user.User {
	u := &user.User{ID: uuid.New(), Name: name, Email: name + "@example.com", Role: role, Active: true}
	d.users = append(d.users, u)

	return u
}

func (d *memDirectory) Get(_ context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range d.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}

	return nil, user.ErrNotFound
}

func (d *memDirectory) ListByRole(_ context.Context, role user.Role) ([]*user.User, error) {
	var out []*user.User

	for _, u := range d.users {
		if u.Role == role && u.Active {
			cp := *u
			out = append(out, &cp)
		}
	}

	return out, nil
}
