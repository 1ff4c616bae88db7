package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Repository is the persistence port for engagements. Update is conditioned
// on the version the caller read.
type Repository interface {
	Create(ctx context.Context, e Engagement) error
	Get(ctx context.Context, id string) (*Engagement, error)
	List(ctx context.Context, req ListEngagementsRequest) ([]Engagement, int, error)
	Update(ctx context.Context, e Engagement, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
	ListOverdue(ctx context.Context) ([]Engagement, error)
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

const engagementColumns = `id, customer_id, staff_id, scheduled_at, call_status, quotation_required, payment_due_date, payment_status, bill_status, stage_status, notes, version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, e Engagement) error {
	stages, err := json.Marshal(e.Stages)
	if err != nil {
		return &shared.PersistenceError{Op: "engagement: marshal stages", Err: err}
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO engagements (id, customer_id, staff_id, scheduled_at, call_status, quotation_required, payment_due_date, payment_status, bill_status, stage_status, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, NOW(), NOW())
	`, e.ID, e.CustomerID, e.StaffID, e.ScheduledAt, e.CallStatus, e.QuotationRequired, e.PaymentDueDate, e.PaymentStatus, e.BillStatus, stages, e.Notes)
	if err != nil {
		return &shared.PersistenceError{Op: "engagement: create", Err: err}
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Engagement, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM engagements WHERE id = $1`, engagementColumns), id)
	e, err := scanEngagement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, &shared.PersistenceError{Op: "engagement: get", Err: err}
	}
	return e, nil
}

func (r *repository) List(ctx context.Context, req ListEngagementsRequest) ([]Engagement, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if req.CustomerID != nil {
		where += fmt.Sprintf(" AND customer_id = $%d", argPos)
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.CallStatus != nil {
		where += fmt.Sprintf(" AND call_status = $%d", argPos)
		args = append(args, *req.CallStatus)
		argPos++
	}
	if req.From != nil {
		where += fmt.Sprintf(" AND scheduled_at >= $%d", argPos)
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		where += fmt.Sprintf(" AND scheduled_at <= $%d", argPos)
		args = append(args, *req.To)
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM engagements %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, &shared.PersistenceError{Op: "engagement: count", Err: err}
	}

	limit := shared.ClampLimit(req.Limit)
	query := fmt.Sprintf(`SELECT %s FROM engagements %s ORDER BY scheduled_at ASC LIMIT $%d OFFSET $%d`, engagementColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, &shared.PersistenceError{Op: "engagement: list", Err: err}
	}
	defer rows.Close()

	var out []Engagement
	for rows.Next() {
		e, err := scanEngagement(rows)
		if err != nil {
			return nil, 0, &shared.PersistenceError{Op: "engagement: scan", Err: err}
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, e Engagement, expectedVersion int64) error {
	stages, err := json.Marshal(e.Stages)
	if err != nil {
		return &shared.PersistenceError{Op: "engagement: marshal stages", Err: err}
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE engagements
		SET customer_id = $1, scheduled_at = $2, call_status = $3, quotation_required = $4,
		    payment_due_date = $5, payment_status = $6, bill_status = $7, stage_status = $8,
		    notes = $9, version = version + 1, updated_at = NOW()
		WHERE id = $10 AND version = $11
	`, e.CustomerID, e.ScheduledAt, e.CallStatus, e.QuotationRequired, e.PaymentDueDate, e.PaymentStatus, e.BillStatus, stages, e.Notes, e.ID, expectedVersion)
	if err != nil {
		return &shared.PersistenceError{Op: "engagement: update", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &shared.ConflictError{Entity: "engagement", ID: e.ID}
	}
	return nil
}

// Delete removes the engagement and any quotations produced inside it.
func (r *repository) Delete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quotations WHERE engagement_id = $1`, id); err != nil {
			return &shared.PersistenceError{Op: "engagement: delete quotations", Err: err}
		}
		tag, err := tx.Exec(ctx, `DELETE FROM engagements WHERE id = $1`, id)
		if err != nil {
			return &shared.PersistenceError{Op: "engagement: delete", Err: err}
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ListOverdue returns engagements whose due date has passed but whose stored
// payment status still says pending. Used by the nightly sweep.
func (r *repository) ListOverdue(ctx context.Context) ([]Engagement, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM engagements
		WHERE payment_status = $1 AND payment_due_date IS NOT NULL AND payment_due_date < NOW()
	`, engagementColumns), PaymentPending)
	if err != nil {
		return nil, &shared.PersistenceError{Op: "engagement: list overdue", Err: err}
	}
	defer rows.Close()

	var out []Engagement
	for rows.Next() {
		e, err := scanEngagement(rows)
		if err != nil {
			return nil, &shared.PersistenceError{Op: "engagement: scan", Err: err}
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEngagement(row rowScanner) (*Engagement, error) {
	var e Engagement
	var stages []byte
	err := row.Scan(
		&e.ID, &e.CustomerID, &e.StaffID, &e.ScheduledAt, &e.CallStatus, &e.QuotationRequired,
		&e.PaymentDueDate, &e.PaymentStatus, &e.BillStatus, &stages, &e.Notes,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stages, &e.Stages); err != nil {
		return nil, err
	}
	return &e, nil
}
