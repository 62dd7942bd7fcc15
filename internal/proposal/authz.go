package proposal

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/opportunity"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

// Subject is everything the guard needs to know about the proposal being acted on.
type Subject struct {
	Proposal    *Proposal
	Opportunity *opportunity.Opportunity
	// Approvals of the proposal's current submission cycle.
	Approvals []*Approval
}

// Guard decides who may act on a proposal. Roles are always read from the
// directory, so a demotion takes effect on the next request.
type Guard struct {
	policy Policy
	users  Directory
}

func NewGuard(policy Policy, users Directory) *Guard {
	return &Guard{policy: policy, users: users}
}

// Resolve loads the acting user, who must exist and be active.
func (g *Guard) Resolve(ctx context.Context, actorID uuid.UUID) (*user.User, error) {
	u, err := g.users.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user %s", ErrForbidden, actorID)
		}

		return nil, fmt.Errorf("resolving actor: %w", err)
	}

	if !u.Active {
		return nil, fmt.Errorf("%w: user %s is inactive", ErrForbidden, actorID)
	}

	return u, nil
}

// Can is Authorize as a boolean, resolving the actor first.
func (g *Guard) Can(ctx context.Context, actorID uuid.UUID, action Action, subj Subject) bool {
	u, err := g.Resolve(ctx, actorID)
	if err != nil {
		return false
	}

	return g.Authorize(u, action, subj) == nil
}

// Authorize returns nil or a *PermissionError explaining the denial.
func (g *Guard) Authorize(u *user.User, action Action, subj Subject) error {
	p := subj.Proposal

	switch action {
	case ActionApprove, ActionReject:
		return g.authorizeDecision(u, action, subj)

	case ActionEdit, ActionSubmit:
		if !Allowed(p.Status, action) {
			return deny(action, "proposal is %s, only DRAFT proposals can be changed", p.Status)
		}

		if !owns(u, subj) {
			return deny(action, "only the creator or the opportunity's account manager may %s it", action)
		}

		return nil

	case ActionDelete, ActionForceDelete:
		return authorizeDelete(u, p)

	case ActionReopen, ActionSend, ActionView, ActionAccept, ActionDecline, ActionClone:
		if u.Role == user.RoleAdmin || owns(u, subj) {
			return nil
		}

		return deny(action, "only the creator, the account manager or an admin may %s it", action)

	case ActionExpire:
		if u.Role == user.RoleAdmin {
			return nil
		}

		return deny(action, "only an admin may expire proposals")
	}

	return deny(action, "action is not permitted")
}

func (g *Guard) authorizeDecision(u *user.User, action Action, subj Subject) error {
	p := subj.Proposal

	record := pendingApprovalOf(u.ID, subj.Approvals)
	if record == nil {
		return deny(action, "no pending approval for this user")
	}

	if p.CreatedBy == u.ID {
		return deny(action, "creator cannot %s their own proposal", action)
	}

	limit := g.policy.RoleLimit(u.Role)
	accountable := g.policy.Accountable(record.Level, p.TotalAmount)

	if !limit.Covers(accountable) {
		return deny(action, "role %s has approval limit %s, level %d requires %d",
			u.Role, limit, record.Level, accountable)
	}

	return nil
}

func authorizeDelete(u *user.User, p *Proposal) error {
	switch {
	case u.Role == user.RoleAdmin:
		return nil
	case u.Role == user.RoleManager || u.Role == user.RoleExecutive:
		if p.Status == StatusDraft || p.Status == StatusRejected {
			return nil
		}

		return deny(ActionDelete, "role %s may only delete DRAFT or REJECTED proposals, this one is %s", u.Role, p.Status)
	case p.CreatedBy == u.ID:
		if p.Status == StatusDraft {
			return nil
		}

		return deny(ActionDelete, "creators may only delete their own DRAFT proposals, this one is %s", p.Status)
	}

	return deny(ActionDelete, "role %s may not delete proposals it did not create", u.Role)
}

func owns(u *user.User, subj Subject) bool {
	if subj.Proposal.CreatedBy == u.ID {
		return true
	}

	o := subj.Opportunity

	return o != nil && o.AccountManagerID != nil && *o.AccountManagerID == u.ID
}

func pendingApprovalOf(approverID uuid.UUID, approvals []*Approval) *Approval {
	for _, a := range approvals {
		if a.ApproverID == approverID && a.Status == ApprovalPending {
			return a
		}
	}

	return nil
}
