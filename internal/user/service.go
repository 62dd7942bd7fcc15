package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListActiveByRole(ctx context.Context, role Role) ([]*User, error)
}

// Service is the read side of the user directory.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListByRole returns the active users holding role, least busy approvers first.
func (s *Service) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	return s.repo.ListActiveByRole(ctx, role)
}
