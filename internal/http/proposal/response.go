package proposal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

type proposalResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	OpportunityID uuid.UUID       `json:"opportunity_id"`
	TemplateID    *uuid.UUID      `json:"template_id,omitempty"`
	Title         string          `json:"title"`
	PaymentTerms  string          `json:"payment_terms"`
	DeliveryTerms string          `json:"delivery_terms"`
	Notes         string          `json:"notes"`
	ValidUntil    string          `json:"valid_until"`
	Status        proposal.Status `json:"status"`
	Version       int             `json:"version"`
	ApprovalCycle int             `json:"approval_cycle"`

	Subtotal        int64           `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  int64           `json:"discount_amount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Tax             int64           `json:"tax"`
	TotalAmount     int64           `json:"total_amount"`

	Items []itemResponse `json:"items"`

	CreatedBy        uuid.UUID  `json:"created_by"`
	UpdatedBy        uuid.UUID  `json:"updated_by"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	ViewedAt         *time.Time `json:"viewed_at,omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	CustomerSignedAt *time.Time `json:"customer_signed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type itemResponse struct {
	ID              uuid.UUID         `json:"id"`
	Sequence        int               `json:"sequence"`
	Type            proposal.ItemType `json:"type"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	Quantity        int64             `json:"quantity"`
	UnitPrice       int64             `json:"unit_price"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	TotalPrice      int64             `json:"total_price"`
}

type pageResponse struct {
	Proposals []proposalResponse `json:"proposals"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

type versionResponse struct {
	ID           uuid.UUID       `json:"id"`
	Version      int             `json:"version"`
	Snapshot     json.RawMessage `json:"snapshot"`
	ChangeReason string          `json:"change_reason"`
	CreatedBy    uuid.UUID       `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

type approvalResponse struct {
	ID           uuid.UUID               `json:"id"`
	Cycle        int                     `json:"cycle"`
	Level        int                     `json:"level"`
	RequiredRole user.Role               `json:"required_role"`
	ApproverID   uuid.UUID               `json:"approver_id"`
	Status       proposal.ApprovalStatus `json:"status"`
	Comments     string                  `json:"comments,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	DecidedAt    *time.Time              `json:"decided_at,omitempty"`
}

func toResponse(p *proposal.Proposal) proposalResponse {
	resp := proposalResponse{
		ID:               p.ID,
		Code:             p.Code,
		OpportunityID:    p.OpportunityID,
		TemplateID:       p.TemplateID,
		Title:            p.Title,
		PaymentTerms:     p.PaymentTerms,
		DeliveryTerms:    p.DeliveryTerms,
		Notes:            p.Notes,
		ValidUntil:       p.ValidUntil.Format(time.DateOnly),
		Status:           p.Status,
		Version:          p.Version,
		ApprovalCycle:    p.ApprovalCycle,
		Subtotal:         p.Subtotal,
		DiscountPercent:  p.DiscountPercent,
		DiscountAmount:   p.DiscountAmount,
		TaxPercent:       p.TaxPercent,
		Tax:              p.Tax,
		TotalAmount:      p.TotalAmount,
		Items:            make([]itemResponse, len(p.Items)),
		CreatedBy:        p.CreatedBy,
		UpdatedBy:        p.UpdatedBy,
		SubmittedAt:      p.SubmittedAt,
		ApprovedAt:       p.ApprovedAt,
		RejectedAt:       p.RejectedAt,
		SentAt:           p.SentAt,
		ViewedAt:         p.ViewedAt,
		RespondedAt:      p.RespondedAt,
		CustomerSignedAt: p.CustomerSignedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}

	for i, it := range p.Items {
		resp.Items[i] = itemResponse{
			ID:              it.ID,
			Sequence:        it.Sequence,
			Type:            it.Type,
			Name:            it.Name,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
			TotalPrice:      it.TotalPrice,
		}
	}

	return resp
}

func toResponseList(ps []*proposal.Proposal) []proposalResponse {
	resp := make([]proposalResponse, len(ps))
	for i, p := range ps {
		resp[i] = toResponse(p)
	}

	return resp
}

func toVersionList(vs []*proposal.Version) []versionResponse {
	resp := make([]versionResponse, len(vs))
	for i, v := range vs {
		resp[i] = versionResponse{
			ID:           v.ID,
			Version:      v.Version,
			Snapshot:     v.Snapshot,
			ChangeReason: v.ChangeReason,
			CreatedBy:    v.CreatedBy,
			CreatedAt:    v.CreatedAt,
		}
	}

	return resp
}

func toApprovalList(as []*proposal.Approval) []approvalResponse {
	resp := make([]approvalResponse, len(as))
	for i, a := range as {
		resp[i] = approvalResponse{
			ID:           a.ID,
			Cycle:        a.Cycle,
			Level:        a.Level,
			RequiredRole: a.RequiredRole,
			ApproverID:   a.ApproverID,
			Status:       a.Status,
			Comments:     a.Comments,
			CreatedAt:    a.CreatedAt,
			DecidedAt:    a.DecidedAt,
		}
	}

	return resp
}
