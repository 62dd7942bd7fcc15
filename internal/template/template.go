package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("template not found")
	ErrDuplicate = errors.New("template name already exists")
	ErrInvalid   = errors.New("invalid template")
)

// Template is a reusable scaffold of terms a proposal can start from.
type Template struct {
	ID            uuid.UUID
	Name          string
	Description   string
	PaymentTerms  string
	DeliveryTerms string
	Notes         string
	CreatedAt     time.Time
}

type Repository interface {
	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context) ([]*Template, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name          string
	Description   string
	PaymentTerms  string
	DeliveryTerms string
	Notes         string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Template, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	t := &Template{
		Name:          name,
		Description:   params.Description,
		PaymentTerms:  params.PaymentTerms,
		DeliveryTerms: params.DeliveryTerms,
		Notes:         params.Notes,
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Template, error) {
	return s.repo.ListTemplates(ctx)
}
