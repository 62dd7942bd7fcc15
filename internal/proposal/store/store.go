package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	oppstore "github.com/Daunny/CRM-AUGU-sub000/internal/opportunity/store"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
	"github.com/Daunny/CRM-AUGU-sub000/internal/user"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectProposalColumns = `
	p.id, p.code, p.opportunity_id, p.template_id, p.title, p.payment_terms, p.delivery_terms, p.notes,
	p.valid_until, p.subtotal, p.discount_percent, p.discount_amount, p.tax_percent, p.tax, p.total_amount,
	p.status, p.version, p.approval_cycle, p.created_by, p.updated_by,
	p.submitted_at, p.approved_at, p.rejected_at, p.sent_at, p.viewed_at, p.responded_at, p.customer_signed_at,
	p.created_at, p.updated_at
`

// scanProposal reads a proposal row in selectProposalColumns order. Items are
// loaded separately.
func scanProposal(s scanner) (*proposal.Proposal, error) {
	var (
		p      proposal.Proposal
		status string
	)

	if err := s.Scan(
		&p.ID, &p.Code, &p.OpportunityID, &p.TemplateID, &p.Title, &p.PaymentTerms, &p.DeliveryTerms, &p.Notes,
		&p.ValidUntil, &p.Subtotal, &p.DiscountPercent, &p.DiscountAmount, &p.TaxPercent, &p.Tax, &p.TotalAmount,
		&status, &p.Version, &p.ApprovalCycle, &p.CreatedBy, &p.UpdatedBy,
		&p.SubmittedAt, &p.ApprovedAt, &p.RejectedAt, &p.SentAt, &p.ViewedAt, &p.RespondedAt, &p.CustomerSignedAt,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Status = proposal.Status(status)

	return &p, nil
}

const selectItemColumns = `id, proposal_id, sequence, type, name, description, quantity, unit_price, discount_percent, total_price`

func scanItem(s scanner) (*proposal.Item, error) {
	var (
		it       proposal.Item
		itemType string
	)

	if err := s.Scan(
		&it.ID, &it.ProposalID, &it.Sequence, &itemType, &it.Name, &it.Description,
		&it.Quantity, &it.UnitPrice, &it.DiscountPercent, &it.TotalPrice,
	); err != nil {
		return nil, err
	}

	it.Type = proposal.ItemType(itemType)

	return &it, nil
}

const selectApprovalColumns = `id, proposal_id, cycle, level, required_role, approver_id, status, comments, created_at, decided_at`

func scanApproval(s scanner) (*proposal.Approval, error) {
	var (
		a            proposal.Approval
		role, status string
	)

	if err := s.Scan(
		&a.ID, &a.ProposalID, &a.Cycle, &a.Level, &role, &a.ApproverID, &status, &a.Comments, &a.CreatedAt, &a.DecidedAt,
	); err != nil {
		return nil, err
	}

	a.RequiredRole = user.Role(role)
	a.Status = proposal.ApprovalStatus(status)

	return &a, nil
}

func (s *Store) Begin(ctx context.Context) (proposal.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &proposalTx{tx: dbTx}, nil
}

func (s *Store) GetProposal(ctx context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	return getProposal(ctx, s.db, id, false)
}

func (s *Store) ListProposals(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, int, error) {
	where := ` WHERE p.deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		where += fmt.Sprintf(" AND p.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.OpportunityID != nil {
		where += fmt.Sprintf(" AND p.opportunity_id = $%d", argIdx)

		args = append(args, *filter.OpportunityID)
		argIdx++
	}

	if filter.CreatedBy != nil {
		where += fmt.Sprintf(" AND p.created_by = $%d", argIdx)

		args = append(args, *filter.CreatedBy)
		argIdx++
	}

	if filter.PendingApprover != nil {
		where += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM proposal_approvals a
			WHERE a.proposal_id = p.id AND a.cycle = p.approval_cycle
			AND a.status = 'PENDING' AND a.approver_id = $%d)`, argIdx)

		args = append(args, *filter.PendingApprover)
		argIdx++
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM proposals p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting proposals: %w", err)
	}

	query := `SELECT ` + selectProposalColumns + ` FROM proposals p` + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC, p.code DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)

	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*proposal.Proposal

	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning proposal: %w", err)
		}

		proposals = append(proposals, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating proposal rows: %w", err)
	}

	return proposals, total, nil
}

func (s *Store) ListVersions(ctx context.Context, proposalID uuid.UUID) ([]*proposal.Version, error) {
	query := `
		SELECT id, proposal_id, version, snapshot, change_reason, created_by, created_at
		FROM proposal_versions
		WHERE proposal_id = $1
		ORDER BY version ASC
	`

	rows, err := s.db.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var versions []*proposal.Version

	for rows.Next() {
		var v proposal.Version
		if err := rows.Scan(&v.ID, &v.ProposalID, &v.Version, &v.Snapshot, &v.ChangeReason, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}

		versions = append(versions, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating version rows: %w", err)
	}

	return versions, nil
}

func (s *Store) ListApprovals(ctx context.Context, proposalID uuid.UUID) ([]*proposal.Approval, error) {
	query := `SELECT ` + selectApprovalColumns + `
		FROM proposal_approvals
		WHERE proposal_id = $1
		ORDER BY cycle ASC, level ASC`

	return queryApprovals(ctx, s.db, query, proposalID)
}

func getProposal(ctx context.Context, q queryer, id uuid.UUID, lock bool) (*proposal.Proposal, error) {
	query := `SELECT ` + selectProposalColumns + `
		FROM proposals p
		WHERE p.id = $1 AND p.deleted_at IS NULL`

	if lock {
		query += ` FOR UPDATE`
	}

	p, err := scanProposal(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, id)
		}

		return nil, fmt.Errorf("getting proposal: %w", err)
	}

	p.Items, err = listItems(ctx, q, p.ID)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func listItems(ctx context.Context, q queryer, proposalID uuid.UUID) ([]*proposal.Item, error) {
	query := `SELECT ` + selectItemColumns + ` FROM proposal_items WHERE proposal_id = $1 ORDER BY sequence ASC`

	rows, err := q.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []*proposal.Item

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return items, nil
}

func queryApprovals(ctx context.Context, q queryer, query string, args ...any) ([]*proposal.Approval, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*proposal.Approval

	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning approval: %w", err)
		}

		approvals = append(approvals, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating approval rows: %w", err)
	}

	return approvals, nil
}

type proposalTx struct {
	tx *sql.Tx
}

func (ptx *proposalTx) Commit() error   { return ptx.tx.Commit() }
func (ptx *proposalTx) Rollback() error { return ptx.tx.Rollback() }

func (ptx *proposalTx) Opportunities() proposal.OpportunityStore {
	return oppstore.New(ptx.tx)
}

func (ptx *proposalTx) LockProposal(ctx context.Context, id uuid.UUID) (*proposal.Proposal, error) {
	return getProposal(ctx, ptx.tx, id, true)
}

// NextCodeSequence bumps the per-period counter. The upsert takes a row lock,
// so two transactions can never draw the same number.
func (ptx *proposalTx) NextCodeSequence(ctx context.Context, period string) (int, error) {
	query := `
		INSERT INTO proposal_code_sequences (period, last_value)
		VALUES ($1, 1)
		ON CONFLICT (period) DO UPDATE SET last_value = proposal_code_sequences.last_value + 1
		RETURNING last_value
	`

	var seq int
	if err := ptx.tx.QueryRowContext(ctx, query, period).Scan(&seq); err != nil {
		return 0, fmt.Errorf("advancing code sequence: %w", err)
	}

	return seq, nil
}

func (ptx *proposalTx) CreateProposal(ctx context.Context, p *proposal.Proposal) error {
	query := `
		INSERT INTO proposals (
			id, code, opportunity_id, template_id, title, payment_terms, delivery_terms, notes,
			valid_until, subtotal, discount_percent, discount_amount, tax_percent, tax, total_amount,
			status, version, approval_cycle, created_by, updated_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := ptx.tx.ExecContext(ctx, query,
		p.ID, p.Code, p.OpportunityID, p.TemplateID, p.Title, p.PaymentTerms, p.DeliveryTerms, p.Notes,
		p.ValidUntil, p.Subtotal, p.DiscountPercent, p.DiscountAmount, p.TaxPercent, p.Tax, p.TotalAmount,
		p.Status, p.Version, p.ApprovalCycle, p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: proposal code %s already exists", proposal.ErrConflict, p.Code)
		}

		return fmt.Errorf("creating proposal: %w", err)
	}

	return ptx.insertItems(ctx, p.Items)
}

func (ptx *proposalTx) UpdateProposal(ctx context.Context, p *proposal.Proposal) error {
	query := `
		UPDATE proposals
		SET title = $1, payment_terms = $2, delivery_terms = $3, notes = $4, valid_until = $5,
			subtotal = $6, discount_percent = $7, discount_amount = $8, tax_percent = $9, tax = $10, total_amount = $11,
			status = $12, version = $13, approval_cycle = $14, updated_by = $15,
			submitted_at = $16, approved_at = $17, rejected_at = $18, sent_at = $19, viewed_at = $20,
			responded_at = $21, customer_signed_at = $22, updated_at = $23
		WHERE id = $24 AND deleted_at IS NULL
	`

	res, err := ptx.tx.ExecContext(ctx, query,
		p.Title, p.PaymentTerms, p.DeliveryTerms, p.Notes, p.ValidUntil,
		p.Subtotal, p.DiscountPercent, p.DiscountAmount, p.TaxPercent, p.Tax, p.TotalAmount,
		p.Status, p.Version, p.ApprovalCycle, p.UpdatedBy,
		p.SubmittedAt, p.ApprovedAt, p.RejectedAt, p.SentAt, p.ViewedAt,
		p.RespondedAt, p.CustomerSignedAt, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating proposal: %w", err)
	}

	return expectOne(res, fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, p.ID))
}

func (ptx *proposalTx) ReplaceItems(ctx context.Context, proposalID uuid.UUID, items []*proposal.Item) error {
	if _, err := ptx.tx.ExecContext(ctx, `DELETE FROM proposal_items WHERE proposal_id = $1`, proposalID); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	return ptx.insertItems(ctx, items)
}

func (ptx *proposalTx) insertItems(ctx context.Context, items []*proposal.Item) error {
	query := `
		INSERT INTO proposal_items (` + selectItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, it := range items {
		_, err := ptx.tx.ExecContext(ctx, query,
			it.ID, it.ProposalID, it.Sequence, it.Type, it.Name, it.Description,
			it.Quantity, it.UnitPrice, it.DiscountPercent, it.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("creating item %d: %w", it.Sequence, err)
		}
	}

	return nil
}

// DeleteProposal hides the proposal. Versions and approvals stay as history.
func (ptx *proposalTx) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE proposals
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := ptx.tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting proposal: %w", err)
	}

	return expectOne(res, fmt.Errorf("%w: proposal %s", proposal.ErrNotFound, id))
}

func (ptx *proposalTx) AppendVersion(ctx context.Context, v *proposal.Version) error {
	query := `
		INSERT INTO proposal_versions (id, proposal_id, version, snapshot, change_reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := ptx.tx.ExecContext(ctx, query,
		v.ID, v.ProposalID, v.Version, v.Snapshot, v.ChangeReason, v.CreatedBy, v.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: version %d already recorded", proposal.ErrConflict, v.Version)
		}

		return fmt.Errorf("appending version: %w", err)
	}

	return nil
}

func (ptx *proposalTx) CreateApprovals(ctx context.Context, approvals []*proposal.Approval) error {
	query := `
		INSERT INTO proposal_approvals (` + selectApprovalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, a := range approvals {
		_, err := ptx.tx.ExecContext(ctx, query,
			a.ID, a.ProposalID, a.Cycle, a.Level, a.RequiredRole, a.ApproverID, a.Status, a.Comments, a.CreatedAt, a.DecidedAt,
		)
		if err != nil {
			return fmt.Errorf("creating approval level %d: %w", a.Level, err)
		}
	}

	return nil
}

func (ptx *proposalTx) CycleApprovals(ctx context.Context, proposalID uuid.UUID, cycle int) ([]*proposal.Approval, error) {
	query := `SELECT ` + selectApprovalColumns + `
		FROM proposal_approvals
		WHERE proposal_id = $1 AND cycle = $2
		ORDER BY level ASC`

	return queryApprovals(ctx, ptx.tx, query, proposalID, cycle)
}

func (ptx *proposalTx) ResolveApproval(ctx context.Context, a *proposal.Approval) error {
	query := `
		UPDATE proposal_approvals
		SET status = $1, comments = $2, decided_at = $3
		WHERE id = $4 AND status = 'PENDING'
	`

	res, err := ptx.tx.ExecContext(ctx, query, a.Status, a.Comments, a.DecidedAt, a.ID)
	if err != nil {
		return fmt.Errorf("resolving approval: %w", err)
	}

	return expectOne(res, fmt.Errorf("%w: approval already processed", proposal.ErrConflict))
}

func (ptx *proposalTx) CancelPendingApprovals(ctx context.Context, proposalID uuid.UUID, cycle int) error {
	query := `
		UPDATE proposal_approvals
		SET status = 'CANCELLED'
		WHERE proposal_id = $1 AND cycle = $2 AND status = 'PENDING'
	`

	if _, err := ptx.tx.ExecContext(ctx, query, proposalID, cycle); err != nil {
		return fmt.Errorf("cancelling pending approvals: %w", err)
	}

	return nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return notFound
	}

	return nil
}
