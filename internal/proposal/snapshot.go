package proposal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type snapshotDoc struct {
	Code            string          `json:"code"`
	OpportunityID   uuid.UUID       `json:"opportunity_id"`
	TemplateID      *uuid.UUID      `json:"template_id,omitempty"`
	Title           string          `json:"title"`
	PaymentTerms    string          `json:"payment_terms"`
	DeliveryTerms   string          `json:"delivery_terms"`
	Notes           string          `json:"notes"`
	ValidUntil      string          `json:"valid_until"`
	Subtotal        int64           `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  int64           `json:"discount_amount"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Tax             int64           `json:"tax"`
	TotalAmount     int64           `json:"total_amount"`
	Status          Status          `json:"status"`
	Version         int             `json:"version"`
	Items           []snapshotItem  `json:"items"`
}

type snapshotItem struct {
	Sequence        int             `json:"sequence"`
	Type            ItemType        `json:"type"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       int64           `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TotalPrice      int64           `json:"total_price"`
}

// snapshot captures p, items included, as the version it currently carries.
func snapshot(p *Proposal, reason string, by uuid.UUID, at time.Time) (*Version, error) {
	doc := snapshotDoc{
		Code:            p.Code,
		OpportunityID:   p.OpportunityID,
		TemplateID:      p.TemplateID,
		Title:           p.Title,
		PaymentTerms:    p.PaymentTerms,
		DeliveryTerms:   p.DeliveryTerms,
		Notes:           p.Notes,
		ValidUntil:      p.ValidUntil.Format(time.DateOnly),
		Subtotal:        p.Subtotal,
		DiscountPercent: p.DiscountPercent,
		DiscountAmount:  p.DiscountAmount,
		TaxPercent:      p.TaxPercent,
		Tax:             p.Tax,
		TotalAmount:     p.TotalAmount,
		Status:          p.Status,
		Version:         p.Version,
		Items:           make([]snapshotItem, len(p.Items)),
	}

	for i, it := range p.Items {
		doc.Items[i] = snapshotItem{
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

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	return &Version{
		ID:           uuid.New(),
		ProposalID:   p.ID,
		Version:      p.Version,
		Snapshot:     data,
		ChangeReason: reason,
		CreatedBy:    by,
		CreatedAt:    at,
	}, nil
}
