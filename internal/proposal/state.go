package proposal

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a proposal.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusSent            Status = "SENT"
	StatusViewed          Status = "VIEWED"
	StatusAccepted        Status = "ACCEPTED"
	StatusDeclined        Status = "DECLINED"
	StatusExpired         Status = "EXPIRED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusSent,
	StatusViewed,
	StatusAccepted,
	StatusDeclined,
	StatusExpired,
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}

	return false
}

// Terminal reports whether no further transition except cloning is possible.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusExpired
}

// Action is anything a caller can attempt on a proposal.
type Action string

const (
	ActionEdit             Action = "edit"
	ActionSubmit           Action = "submit"
	ActionApprove          Action = "approve"
	ActionCompleteApproval Action = "complete approval of"
	ActionReject           Action = "reject"
	ActionReopen           Action = "reopen"
	ActionSend             Action = "send"
	ActionView             Action = "mark viewed"
	ActionAccept           Action = "accept"
	ActionDecline          Action = "decline"
	ActionDelete           Action = "delete"
	ActionForceDelete      Action = "force delete"
	ActionClone            Action = "clone"
	ActionExpire           Action = "expire"
)

type transition struct {
	from []Status
	// to is the resulting status; empty means the status is left unchanged.
	to Status
}

var nonTerminal = []Status{
	StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusSent, StatusViewed,
}

// transitions is the single source of truth for which action may run from
// which status. Clone and delete have no successor status for the source row:
// clone creates a new DRAFT, delete removes the proposal.
var transitions = map[Action]transition{
	ActionEdit:             {from: []Status{StatusDraft}, to: StatusDraft},
	ActionSubmit:           {from: []Status{StatusDraft}, to: StatusPendingApproval},
	ActionApprove:          {from: []Status{StatusPendingApproval}, to: StatusPendingApproval},
	ActionCompleteApproval: {from: []Status{StatusPendingApproval}, to: StatusApproved},
	ActionReject:           {from: []Status{StatusPendingApproval}, to: StatusRejected},
	ActionReopen:           {from: []Status{StatusRejected}, to: StatusDraft},
	ActionSend:             {from: []Status{StatusApproved}, to: StatusSent},
	ActionView:             {from: []Status{StatusSent}, to: StatusViewed},
	ActionAccept:           {from: []Status{StatusSent, StatusViewed}, to: StatusAccepted},
	ActionDecline:          {from: []Status{StatusSent, StatusViewed}, to: StatusDeclined},
	ActionDelete:           {from: []Status{StatusDraft, StatusRejected}},
	ActionForceDelete:      {from: Statuses},
	ActionClone:            {from: Statuses, to: StatusDraft},
	ActionExpire:           {from: nonTerminal, to: StatusExpired},
}

// Allowed reports whether action may run while the proposal is in status.
func Allowed(status Status, action Action) bool {
	t, ok := transitions[action]
	if !ok {
		return false
	}

	for _, s := range t.from {
		if s == status {
			return true
		}
	}

	return false
}

// Next returns the status a proposal ends up in after action, or an
// ErrInvalidState error naming the statuses the action requires.
func Next(status Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return status, fmt.Errorf("%w: unknown action %q", ErrInvalidState, action)
	}

	if !Allowed(status, action) {
		return status, fmt.Errorf("%w: cannot %s a %s proposal (expected %s)",
			ErrInvalidState, action, status, joinStatuses(t.from))
	}

	if t.to == "" {
		return status, nil
	}

	return t.to, nil
}

func joinStatuses(statuses []Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}

	return strings.Join(parts, " or ")
}
