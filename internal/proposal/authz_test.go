package proposal_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Daunny/CRM-AUGU-sub000/internal/opportunity"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

func TestGuard_Authorize(t *testing.T) {
	dir := &memDirectory{}
	creator := dir.add("creator", user.RoleSales)
	am := dir.add("am", user.RoleSales)
	stranger := dir.add("stranger", user.RoleSales)
	operator := dir.add("operator", user.RoleOperator)
	manager := dir.add("manager", user.RoleManager)
	admin := dir.add("admin", user.RoleAdmin)

	guard := proposal.NewGuard(proposal.DefaultPolicy(), dir)

	opp := &opportunity.Opportunity{ID: uuid.New(), AccountManagerID: &am.ID}

	subject := func(status proposal.Status, total int64, approvals ...*proposal.Approval) proposal.Subject {
		return proposal.Subject{
			Proposal:    &proposal.Proposal{ID: uuid.New(), Status: status, TotalAmount: total, CreatedBy: creator.ID},
			Opportunity: opp,
			Approvals:   approvals,
		}
	}

	record := func(approver *user.User, level int) *proposal.Approval {
		return &proposal.Approval{ID: uuid.New(), ApproverID: approver.ID, Level: level, Status: proposal.ApprovalPending}
	}

	type testCase struct {
		name       string
		actor      *user.User
		action     proposal.Action
		subject    proposal.Subject
		wantReason string
	}

	tests := []testCase{
		{name: "CreatorEditsDraft", actor: creator, action: proposal.ActionEdit, subject: subject(proposal.StatusDraft, 0)},
		{name: "AccountManagerSubmits", actor: am, action: proposal.ActionSubmit, subject: subject(proposal.StatusDraft, 0)},
		{name: "StrangerEdits", actor: stranger, action: proposal.ActionEdit, subject: subject(proposal.StatusDraft, 0), wantReason: "only the creator"},
		{name: "AdminCannotEditOthers", actor: admin, action: proposal.ActionEdit, subject: subject(proposal.StatusDraft, 0), wantReason: "only the creator"},
		{name: "EditApproved", actor: creator, action: proposal.ActionEdit, subject: subject(proposal.StatusApproved, 0), wantReason: "only DRAFT"},

		{name: "OperatorWithinLimit", actor: operator, action: proposal.ActionApprove, subject: subject(proposal.StatusPendingApproval, 5_000_000, record(operator, 1))},
		{name: "OperatorOnLargeProposalLevelOne", actor: operator, action: proposal.ActionApprove, subject: subject(proposal.StatusPendingApproval, 120_000_000, record(operator, 1))},
		{
			name:       "OperatorHoldingManagerLevel",
			actor:      operator,
			action:     proposal.ActionReject,
			subject:    subject(proposal.StatusPendingApproval, 50_000_000, record(operator, 2)),
			wantReason: "approval limit",
		},
		{name: "ManagerWithoutRecord", actor: manager, action: proposal.ActionApprove, subject: subject(proposal.StatusPendingApproval, 5_000_000, record(operator, 1)), wantReason: "no pending approval for this user"},
		{name: "SelfApproval", actor: creator, action: proposal.ActionApprove, subject: subject(proposal.StatusPendingApproval, 1, record(creator, 1)), wantReason: "creator cannot approve their own proposal"},

		{name: "CreatorDeletesDraft", actor: creator, action: proposal.ActionDelete, subject: subject(proposal.StatusDraft, 0)},
		{name: "CreatorDeletesRejected", actor: creator, action: proposal.ActionDelete, subject: subject(proposal.StatusRejected, 0), wantReason: "own DRAFT"},
		{name: "ManagerDeletesRejected", actor: manager, action: proposal.ActionDelete, subject: subject(proposal.StatusRejected, 0)},
		{name: "ManagerDeletesSent", actor: manager, action: proposal.ActionDelete, subject: subject(proposal.StatusSent, 0), wantReason: "DRAFT or REJECTED"},
		{name: "AdminDeletesSent", actor: admin, action: proposal.ActionForceDelete, subject: subject(proposal.StatusSent, 0)},

		{name: "AccountManagerSends", actor: am, action: proposal.ActionSend, subject: subject(proposal.StatusApproved, 0)},
		{name: "AdminClones", actor: admin, action: proposal.ActionClone, subject: subject(proposal.StatusAccepted, 0)},
		{name: "StrangerRecordsResponse", actor: stranger, action: proposal.ActionAccept, subject: subject(proposal.StatusSent, 0), wantReason: "account manager"},
		{name: "CreatorExpires", actor: creator, action: proposal.ActionExpire, subject: subject(proposal.StatusSent, 0), wantReason: "only an admin"},
		{name: "AdminExpires", actor: admin, action: proposal.ActionExpire, subject: subject(proposal.StatusSent, 0)},
		{name: "UnknownAction", actor: admin, action: proposal.Action("archive"), subject: subject(proposal.StatusDraft, 0), wantReason: "not permitted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Authorize(tt.actor, tt.action, tt.subject)

			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, proposal.ErrForbidden)
			assert.ErrorContains(t, err, tt.wantReason)
		})
	}
}

// An approver vouches for their level's share of the total, capped at the
// level ceiling, so an operator may sign level 1 of a proposal far above the
// operator limit. The check uses the approver's role at decision time.
func TestGuard_Authorize_LimitCoversLevelShare(t *testing.T) {
	dir := &memDirectory{}
	creator := dir.add("creator", user.RoleSales)
	operator := dir.add("operator", user.RoleOperator)
	manager := dir.add("manager", user.RoleManager)

	guard := proposal.NewGuard(proposal.DefaultPolicy(), dir)
	policy := proposal.DefaultPolicy()

	const total = 50_000_000

	p := &proposal.Proposal{ID: uuid.New(), Status: proposal.StatusPendingApproval, TotalAmount: total, CreatedBy: creator.ID}
	levelOne := &proposal.Approval{ID: uuid.New(), ApproverID: operator.ID, Level: 1, Status: proposal.ApprovalPending}
	levelTwo := &proposal.Approval{ID: uuid.New(), ApproverID: manager.ID, Level: 2, Status: proposal.ApprovalPending}
	subj := proposal.Subject{Proposal: p, Approvals: []*proposal.Approval{levelOne, levelTwo}}

	assert.False(t, policy.RoleLimit(user.RoleOperator).Covers(total))
	assert.Equal(t, int64(10_000_000), policy.Accountable(1, total))

	assert.NoError(t, guard.Authorize(operator, proposal.ActionApprove, subj))
	assert.NoError(t, guard.Authorize(manager, proposal.ActionApprove, subj))

	demotedToOperator := *manager
	demotedToOperator.Role = user.RoleOperator

	err := guard.Authorize(&demotedToOperator, proposal.ActionApprove, subj)
	assert.ErrorIs(t, err, proposal.ErrForbidden)
	assert.ErrorContains(t, err, "level 2 requires 50000000")

	demotedToSales := *operator
	demotedToSales.Role = user.RoleSales

	err = guard.Authorize(&demotedToSales, proposal.ActionApprove, subj)
	assert.ErrorIs(t, err, proposal.ErrForbidden)
	assert.ErrorContains(t, err, "approval limit 0")
}

func TestGuard_Can(t *testing.T) {
	ctx := context.Background()
	dir := &memDirectory{}
	creator := dir.add("creator", user.RoleSales)
	retired := dir.add("retired", user.RoleAdmin)
	retired.Active = false

	guard := proposal.NewGuard(proposal.DefaultPolicy(), dir)
	subj := proposal.Subject{Proposal: &proposal.Proposal{Status: proposal.StatusDraft, CreatedBy: creator.ID}}

	assert.True(t, guard.Can(ctx, creator.ID, proposal.ActionEdit, subj))
	assert.False(t, guard.Can(ctx, retired.ID, proposal.ActionDelete, subj))
	assert.False(t, guard.Can(ctx, uuid.New(), proposal.ActionEdit, subj))
}
