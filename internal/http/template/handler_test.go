package template_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	templateHandler "github.com/Daunny/CRM-AUGU-sub000/internal/http/template"
	"github.com/Daunny/CRM-AUGU-sub000/internal/template"
)

type memRepo struct {
	byID map[uuid.UUID]*template.Template
}

func (m *memRepo) CreateTemplate(_ context.Context, t *template.Template) error {
	for _, existing := range m.byID {
		if existing.Name == t.Name {
			return template.ErrDuplicate
		}
	}

	t.ID = uuid.New()
	t.CreatedAt = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	m.byID[t.ID] = t

	return nil
}

func (m *memRepo) GetTemplate(_ context.Context, id uuid.UUID) (*template.Template, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, template.ErrNotFound
	}

	return t, nil
}

func (m *memRepo) ListTemplates(context.Context) ([]*template.Template, error) {
	ts := make([]*template.Template, 0, len(m.byID))
	for _, t := range m.byID {
		ts = append(ts, t)
	}

	return ts, nil
}

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Route("/templates", templateHandler.NewHandler(template.NewService(&memRepo{byID: map[uuid.UUID]*template.Template{}})).Routes)

	return r
}

func serve(r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestHandler_CreateGetList(t *testing.T) {
	r := newRouter()

	rec := serve(r, http.MethodPost, "/templates/", `{"name":"Standard SaaS","payment_terms":"Net 30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID           uuid.UUID `json:"id"`
		Name         string    `json:"name"`
		PaymentTerms string    `json:"payment_terms"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Standard SaaS", created.Name)
	assert.Equal(t, "Net 30", created.PaymentTerms)

	rec = serve(r, http.MethodGet, "/templates/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Net 30")

	rec = serve(r, http.MethodGet, "/templates/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestHandler_Errors(t *testing.T) {
	r := newRouter()
	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/templates/", `{"name":"Standard"}`).Code)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "blank name", method: http.MethodPost, path: "/templates/", body: `{"name":" "}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "duplicate name", method: http.MethodPost, path: "/templates/", body: `{"name":"Standard"}`, wantStatus: http.StatusConflict},
		{name: "malformed body", method: http.MethodPost, path: "/templates/", body: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "unknown id", method: http.MethodGet, path: "/templates/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "invalid id", method: http.MethodGet, path: "/templates/abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, serve(r, tt.method, tt.path, tt.body).Code)
		})
	}
}
