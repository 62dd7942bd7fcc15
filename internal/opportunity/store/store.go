package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Daunny/CRM-AUGU-sub000/internal/opportunity"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db Querier
}

func New(db Querier) *Store {
	return &Store{db: db}
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*opportunity.Opportunity, error) {
	query := `
		SELECT id, name, stage, probability, account_manager_id, created_at, updated_at
		FROM opportunities
		WHERE id = $1
	`

	var (
		o     opportunity.Opportunity
		stage string
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.Name, &stage, &o.Probability, &o.AccountManagerID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, opportunity.ErrNotFound
		}

		return nil, fmt.Errorf("getting opportunity: %w", err)
	}

	o.Stage = opportunity.Stage(stage)

	return &o, nil
}

func (s *Store) UpdateStage(ctx context.Context, id uuid.UUID, stage opportunity.Stage, probability int) error {
	query := `
		UPDATE opportunities
		SET stage = $1, probability = $2, updated_at = NOW()
		WHERE id = $3
	`

	res, err := s.db.ExecContext(ctx, query, stage, probability, id)
	if err != nil {
		return fmt.Errorf("updating opportunity stage: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating opportunity stage: %w", err)
	}

	if n == 0 {
		return opportunity.ErrNotFound
	}

	return nil
}
