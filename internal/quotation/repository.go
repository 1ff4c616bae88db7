package quotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemdesk/gemdesk/internal/catalog"
	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Repository persists quotations.
type Repository interface {
	Create(ctx context.Context, q Quotation) error
	Get(ctx context.Context, id string) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error)
	Update(ctx context.Context, q Quotation, expectedVersion int64) error
	MarkExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds a repository to an already-open transaction.
func NewTxRepository(q db.Querier) Repository {
	return &repository{db: q}
}

// pgUnitOfWork opens one transaction and hands the caller quotation, product
// and customer stores bound to it.
type pgUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork builds the transactional store set over a pool.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	return db.WithTx(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, Stores{
			Quotations: NewTxRepository(tx),
			Products:   catalog.NewTxRepository(tx),
			Customers:  customers.NewTxRepository(tx),
		})
	})
}

const quotationColumns = `id, number, engagement_id, customer_id, customer_name, customer_type, items, discount_percent, advanced_unlocked, status, valid_until, notes, created_by, version, created_at, updated_at`

func (r *repository) Create(ctx context.Context, q Quotation) error {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("quotation: marshal items: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO quotations (`+quotationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		q.ID, q.Number, q.EngagementID, q.CustomerID, q.CustomerName, q.CustomerType,
		items, q.DiscountPercent, q.AdvancedUnlocked, q.Status, q.ValidUntil, q.Notes,
		q.CreatedBy, q.Version, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &shared.ConflictError{Entity: "quotation_number", ID: q.Number}
		}
		return &shared.PersistenceError{Op: "quotation.create", Err: err}
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Quotation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id = $1`, id)
	q, err := scanQuotation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if req.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *req.Status)
		argPos++
	}
	if req.CustomerID != nil {
		where += fmt.Sprintf(" AND customer_id = $%d", argPos)
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.EngagementID != nil {
		where += fmt.Sprintf(" AND engagement_id = $%d", argPos)
		args = append(args, *req.EngagementID)
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations `+where, args...).Scan(&total); err != nil {
		return nil, 0, &shared.PersistenceError{Op: "quotation.count", Err: err}
	}

	query := fmt.Sprintf(`SELECT %s FROM quotations %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quotationColumns, where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, &shared.PersistenceError{Op: "quotation.list", Err: err}
	}
	defer rows.Close()

	var out []Quotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, q Quotation, expectedVersion int64) error {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("quotation: marshal items: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET items = $1, discount_percent = $2, advanced_unlocked = $3, status = $4,
		    valid_until = $5, notes = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9`,
		items, q.DiscountPercent, q.AdvancedUnlocked, q.Status,
		q.ValidUntil, q.Notes, q.UpdatedAt, q.ID, expectedVersion)
	if err != nil {
		return &shared.PersistenceError{Op: "quotation.update", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &shared.ConflictError{Entity: "quotation", ID: q.ID}
	}
	return nil
}

func (r *repository) MarkExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE status = $2 AND valid_until < $3`,
		StatusExpired, StatusDraft, cutoff)
	if err != nil {
		return 0, &shared.PersistenceError{Op: "quotation.expire", Err: err}
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuotation(row rowScanner) (*Quotation, error) {
	var q Quotation
	var items []byte
	err := row.Scan(&q.ID, &q.Number, &q.EngagementID, &q.CustomerID, &q.CustomerName, &q.CustomerType,
		&items, &q.DiscountPercent, &q.AdvancedUnlocked, &q.Status, &q.ValidUntil, &q.Notes,
		&q.CreatedBy, &q.Version, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &q.Items); err != nil {
		return nil, fmt.Errorf("quotation: unmarshal items: %w", err)
	}
	q.Recalculate()
	return &q, nil
}
