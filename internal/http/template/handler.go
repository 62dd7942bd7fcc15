package template

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/template"
)

type Handler struct {
	svc *template.Service
}

func NewHandler(svc *template.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type createTemplateRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	PaymentTerms  string `json:"payment_terms"`
	DeliveryTerms string `json:"delivery_terms"`
	Notes         string `json:"notes"`
}

type templateResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PaymentTerms  string    `json:"payment_terms"`
	DeliveryTerms string    `json:"delivery_terms"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(t *template.Template) templateResponse {
	return templateResponse{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		PaymentTerms:  t.PaymentTerms,
		DeliveryTerms: t.DeliveryTerms,
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.svc.Create(r.Context(), template.CreateParams{
		Name:          req.Name,
		Description:   req.Description,
		PaymentTerms:  req.PaymentTerms,
		DeliveryTerms: req.DeliveryTerms,
		Notes:         req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, template.ErrInvalid):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, template.ErrDuplicate):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("failed to create template", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(t)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ts, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]templateResponse, len(ts))
	for i, t := range ts {
		resp[i] = toResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(t)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
