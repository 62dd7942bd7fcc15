package proposal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

// Outcome is the aggregate result of one submission cycle.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeApproved
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Workflow routes a proposal to approvers and decides when a cycle is done.
type Workflow struct {
	policy Policy
	users  Directory
}

func NewWorkflow(policy Policy, users Directory) *Workflow {
	return &Workflow{policy: policy, users: users}
}

// ResolveRequiredLevels maps an amount to its ordered approval levels.
func (w *Workflow) ResolveRequiredLevels(total int64) []Level {
	return w.policy.RequiredLevels(total)
}

// CreateBatch builds one pending approval per level for the given cycle. Each
// level gets a distinct approver other than the proposal's creator; a level
// nobody can take fails the whole batch.
func (w *Workflow) CreateBatch(ctx context.Context, p *Proposal, cycle int, levels []Level, now time.Time) ([]*Approval, error) {
	assigned := map[uuid.UUID]bool{p.CreatedBy: true}
	approvals := make([]*Approval, 0, len(levels))

	for _, lvl := range levels {
		approver, err := w.pickApprover(ctx, lvl.Role, assigned)
		if err != nil {
			return nil, err
		}

		assigned[approver.ID] = true

		approvals = append(approvals, &Approval{
			ID:           uuid.New(),
			ProposalID:   p.ID,
			Cycle:        cycle,
			Level:        lvl.Number,
			RequiredRole: lvl.Role,
			ApproverID:   approver.ID,
			Status:       ApprovalPending,
			CreatedAt:    now,
		})
	}

	return approvals, nil
}

func (w *Workflow) pickApprover(ctx context.Context, role user.Role, exclude map[uuid.UUID]bool) (*user.User, error) {
	candidates, err := w.users.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("resolving approvers for role %s: %w", role, err)
	}

	for _, u := range candidates {
		if u.Active && !exclude[u.ID] {
			return u, nil
		}
	}

	return nil, fmt.Errorf("%w: no eligible %s", ErrNoApproversAvailable, role)
}

// Evaluate folds the approvals of one cycle into an outcome. Any rejection
// wins; otherwise the cycle is approved only when every record is approved.
func Evaluate(approvals []*Approval) Outcome {
	if len(approvals) == 0 {
		return OutcomePending
	}

	approved := 0

	for _, a := range approvals {
		switch a.Status {
		case ApprovalRejected:
			return OutcomeRejected
		case ApprovalApproved:
			approved++
		}
	}

	if approved == len(approvals) {
		return OutcomeApproved
	}

	return OutcomePending
}

// IsComplete reports whether the cycle has been approved at every level.
func (w *Workflow) IsComplete(approvals []*Approval) bool {
	return Evaluate(approvals) == OutcomeApproved
}
