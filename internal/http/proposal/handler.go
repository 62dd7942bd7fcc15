package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Daunny/CRM-AUGU-sub000/internal/http/auth"
	"github.com/Daunny/CRM-AUGU-sub000/internal/importer"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

const maxUploadSize = 10 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})

	return v
}

type Handler struct {
	svc       *proposal.Service
	importSvc *importer.Service
}

func NewHandler(svc *proposal.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/pending", h.pending)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/items", h.updateItems)
		r.Get("/{id}/versions", h.versions)
		r.Get("/{id}/approvals", h.approvals)

		r.Post("/{id}/submit", h.transition(h.svc.Submit, http.StatusOK))
		r.Post("/{id}/approve", h.decide(h.svc.Approve))
		r.Post("/{id}/reject", h.decide(h.svc.Reject))
		r.Post("/{id}/reopen", h.transition(h.svc.Reopen, http.StatusOK))
		r.Post("/{id}/send", h.transition(h.svc.Send, http.StatusOK))
		r.Post("/{id}/viewed", h.transition(h.svc.MarkViewed, http.StatusOK))
		r.Post("/{id}/response", h.recordResponse)
		r.Post("/{id}/clone", h.transition(h.svc.Clone, http.StatusCreated))
		r.Post("/{id}/expire", h.transition(h.svc.Expire, http.StatusOK))
	})

	r.Post("/{id}/items/import", h.importItems)
}

type itemRequest struct {
	Type            proposal.ItemType `json:"type"`
	Name            string            `json:"name" validate:"required"`
	Description     string            `json:"description"`
	Quantity        int64             `json:"quantity" validate:"gt=0"`
	UnitPrice       int64             `json:"unit_price" validate:"gte=0"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
}

type createProposalRequest struct {
	OpportunityID   uuid.UUID       `json:"opportunity_id" validate:"required"`
	TemplateID      *uuid.UUID      `json:"template_id,omitempty"`
	Title           string          `json:"title" validate:"required"`
	PaymentTerms    string          `json:"payment_terms"`
	DeliveryTerms   string          `json:"delivery_terms"`
	Notes           string          `json:"notes"`
	ValidUntil      string          `json:"valid_until" validate:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	Items           []itemRequest   `json:"items" validate:"dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req createProposalRequest
	if !decode(w, r, &req) {
		return
	}

	validUntil, err := parseDate(req.ValidUntil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Create(r.Context(), actorID, proposal.CreateParams{
		OpportunityID:   req.OpportunityID,
		TemplateID:      req.TemplateID,
		Title:           req.Title,
		PaymentTerms:    req.PaymentTerms,
		DeliveryTerms:   req.DeliveryTerms,
		Notes:           req.Notes,
		ValidUntil:      validUntil,
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      req.TaxPercent,
		Items:           toItemParams(req.Items),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := proposal.ListFilter{}

	if s := q.Get("status"); s != "" {
		status := proposal.Status(s)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		filter.Status = &status
	}

	for param, dst := range map[string]**uuid.UUID{
		"opportunity_id": &filter.OpportunityID,
		"created_by":     &filter.CreatedBy,
		"approver_id":    &filter.PendingApprover,
	} {
		s := q.Get(param)
		if s == "" {
			continue
		}

		id, err := uuid.Parse(s)
		if err != nil {
			http.Error(w, "invalid "+param, http.StatusBadRequest)
			return
		}

		*dst = &id
	}

	if s := q.Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.Page = n
		}
	}

	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.PageSize = n
		}
	}

	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageResponse{
		Proposals: toResponseList(page.Proposals),
		Total:     page.Total,
		Page:      page.Page,
		PageSize:  page.PageSize,
	})
}

// pending lists the proposals awaiting the caller's decision.
func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	ps, err := h.svc.PendingFor(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(ps))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

type updateProposalRequest struct {
	Title           *string          `json:"title,omitempty"`
	PaymentTerms    *string          `json:"payment_terms,omitempty"`
	DeliveryTerms   *string          `json:"delivery_terms,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	ValidUntil      *string          `json:"valid_until,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	TaxPercent      *decimal.Decimal `json:"tax_percent,omitempty"`
	Reason          string           `json:"reason"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateProposalRequest
	if !decode(w, r, &req) {
		return
	}

	params := proposal.UpdateParams{
		Title:           req.Title,
		PaymentTerms:    req.PaymentTerms,
		DeliveryTerms:   req.DeliveryTerms,
		Notes:           req.Notes,
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      req.TaxPercent,
		Reason:          req.Reason,
	}

	if req.ValidUntil != nil {
		validUntil, err := parseDate(*req.ValidUntil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		params.ValidUntil = &validUntil
	}

	p, err := h.svc.Update(r.Context(), actorID, id, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

type updateItemsRequest struct {
	Items  []itemRequest `json:"items" validate:"dive"`
	Reason string        `json:"reason"`
}

func (h *Handler) updateItems(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateItemsRequest
	if !decode(w, r, &req) {
		return
	}

	p, err := h.svc.UpdateItems(r.Context(), actorID, id, toItemParams(req.Items), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

// importItems replaces the items of a DRAFT proposal with the rows of an
// uploaded sheet. The optional charset field overrides encoding detection.
func (h *Handler) importItems(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file, r.FormValue("charset"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.UpdateItems(r.Context(), actorID, id, params, "items imported from "+header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("proposal items imported", "proposal_id", p.ID, "file", header.Filename, "items", len(params))

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actorID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) versions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	vs, err := h.svc.Versions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVersionList(vs))
}

func (h *Handler) approvals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	as, err := h.svc.Approvals(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toApprovalList(as))
}

type transitionFunc func(ctx context.Context, actorID, id uuid.UUID) (*proposal.Proposal, error)

func (h *Handler) transition(fn transitionFunc, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := actor(w, r)
		if !ok {
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		p, err := fn(r.Context(), actorID, id)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, status, toResponse(p))
	}
}

type decisionRequest struct {
	Comments string `json:"comments"`
}

type decisionFunc func(ctx context.Context, actorID, id uuid.UUID, comments string) (*proposal.Proposal, error)

func (h *Handler) decide(fn decisionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := actor(w, r)
		if !ok {
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req decisionRequest
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}

		p, err := fn(r.Context(), actorID, id, req.Comments)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

type customerResponseRequest struct {
	Accepted *bool `json:"accepted"`
}

func (h *Handler) recordResponse(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req customerResponseRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Accepted == nil {
		http.Error(w, "accepted field is required", http.StatusBadRequest)
		return
	}

	p, err := h.svc.RecordResponse(r.Context(), actorID, id, *req.Accepted)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func toItemParams(items []itemRequest) []proposal.ItemParams {
	params := make([]proposal.ItemParams, len(items))
	for i, it := range items {
		params[i] = proposal.ItemParams{
			Type:            it.Type,
			Name:            it.Name,
			Description:     it.Description,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
		}
	}

	return params
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}

	return t, nil
}

func actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := auth.ActorFrom(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return uuid.Nil, false
	}

	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
			}

			http.Error(w, "invalid request: "+strings.Join(msgs, "; "), http.StatusBadRequest)

			return false
		}

		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)

		return false
	}

	return true
}

// writeError maps service errors to status codes. Anything unclassified is
// logged and hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errors.Is(err, proposal.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, proposal.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, proposal.ErrInvalidState), errors.Is(err, proposal.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, proposal.ErrValidation), errors.Is(err, proposal.ErrNoApproversAvailable):
		status = http.StatusUnprocessableEntity
	default:
		slog.Error("proposal request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
