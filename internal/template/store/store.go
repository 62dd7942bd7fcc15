package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Daunny/CRM-AUGU-sub000/internal/template"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectTemplateColumns = `id, name, description, payment_terms, delivery_terms, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (*template.Template, error) {
	var t template.Template

	if err := s.Scan(&t.ID, &t.Name, &t.Description, &t.PaymentTerms, &t.DeliveryTerms, &t.Notes, &t.CreatedAt); err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Store) CreateTemplate(ctx context.Context, t *template.Template) error {
	query := `
		INSERT INTO proposal_templates (name, description, payment_terms, delivery_terms, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.PaymentTerms, t.DeliveryTerms, t.Notes,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return template.ErrDuplicate
		}

		return fmt.Errorf("creating template: %w", err)
	}

	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (*template.Template, error) {
	query := `SELECT ` + selectTemplateColumns + ` FROM proposal_templates WHERE id = $1`

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, template.ErrNotFound
		}

		return nil, fmt.Errorf("getting template: %w", err)
	}

	return t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]*template.Template, error) {
	query := `SELECT ` + selectTemplateColumns + ` FROM proposal_templates ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []*template.Template

	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}

		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating template rows: %w", err)
	}

	return templates, nil
}
