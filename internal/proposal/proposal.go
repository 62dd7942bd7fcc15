package proposal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

// ItemType classifies a proposal line.
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
	ItemTypeLicense ItemType = "license"
	ItemTypeOther   ItemType = "other"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeProduct, ItemTypeService, ItemTypeLicense, ItemTypeOther:
		return true
	}

	return false
}

// Proposal is the aggregate root. Monetary fields are in minor currency units
// and are only ever written from ComputeTotals.
type Proposal struct {
	ID            uuid.UUID
	Code          string
	OpportunityID uuid.UUID
	TemplateID    *uuid.UUID
	Title         string
	PaymentTerms  string
	DeliveryTerms string
	Notes         string
	ValidUntil    time.Time

	Subtotal        int64
	DiscountPercent decimal.Decimal
	DiscountAmount  int64
	TaxPercent      decimal.Decimal
	Tax             int64
	TotalAmount     int64

	Status        Status
	Version       int
	ApprovalCycle int

	CreatedBy        uuid.UUID
	UpdatedBy        uuid.UUID
	SubmittedAt      *time.Time
	ApprovedAt       *time.Time
	RejectedAt       *time.Time
	SentAt           *time.Time
	ViewedAt         *time.Time
	RespondedAt      *time.Time
	CustomerSignedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Items []*Item
}

// Item is a single priced line of a proposal.
type Item struct {
	ID              uuid.UUID
	ProposalID      uuid.UUID
	Sequence        int
	Type            ItemType
	Name            string
	Description     string
	Quantity        int64
	UnitPrice       int64
	DiscountPercent decimal.Decimal
	TotalPrice      int64
}

// Version is an immutable snapshot of a proposal taken after a content change.
type Version struct {
	ID           uuid.UUID
	ProposalID   uuid.UUID
	Version      int
	Snapshot     []byte // JSON document, see snapshot.go
	ChangeReason string
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
}

// ApprovalStatus is the state of a single approval step.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "PENDING"
	ApprovalApproved  ApprovalStatus = "APPROVED"
	ApprovalRejected  ApprovalStatus = "REJECTED"
	ApprovalCancelled ApprovalStatus = "CANCELLED"
)

// Approval is one required sign-off within a submission cycle.
type Approval struct {
	ID           uuid.UUID
	ProposalID   uuid.UUID
	Cycle        int
	Level        int
	RequiredRole user.Role
	ApproverID   uuid.UUID
	Status       ApprovalStatus
	Comments     string
	CreatedAt    time.Time
	DecidedAt    *time.Time
}

// Resolved reports whether the approver has already decided on this step.
func (a *Approval) Resolved() bool {
	return a.Status == ApprovalApproved || a.Status == ApprovalRejected
}
