package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*user.User, error) {
	var u user.User

	var role string

	if err := s.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}

	u.Role = user.Role(role)

	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT id, name, email, role, active, created_at
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

// ListActiveByRole orders candidates by their open approval workload so new
// approval batches spread across the people holding a role.
func (s *Store) ListActiveByRole(ctx context.Context, role user.Role) ([]*user.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.active, u.created_at
		FROM users u
		LEFT JOIN proposal_approvals a ON a.approver_id = u.id AND a.status = 'PENDING'
		WHERE u.role = $1 AND u.active
		GROUP BY u.id
		ORDER BY COUNT(a.id) ASC, u.created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("listing users by role: %w", err)
	}
	defer rows.Close()

	var users []*user.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}
