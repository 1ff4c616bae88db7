package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Repository is the persistence port for customers.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, c Customer) error
	Update(ctx context.Context, id string, updates map[string]any) error
	ApplyPurchase(ctx context.Context, id string, amount decimal.Decimal, at time.Time, expectedVersion int64) error
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds a repository to an already-open transaction. WithTx
// must not be called on the returned repository.
func NewTxRepository(q db.Querier) Repository {
	return &repository{db: q}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const customerColumns = `id, name, email, phone, type, address, city, state, total_purchases, last_purchase_date, version, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id string) (*Customer, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns), id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if req.Type != nil {
		where += fmt.Sprintf(" AND type = $%d", argPos)
		args = append(args, *req.Type)
		argPos++
	}
	if req.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM customers %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := shared.ClampLimit(req.Limit)
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name LIMIT $%d OFFSET $%d`, customerColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO customers (id, name, email, phone, type, address, city, state, total_purchases, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 1, NOW(), NOW())
	`, c.ID, c.Name, c.Email, c.Phone, c.Type, c.Address, c.City, c.State)
	return err
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]any) error {
	set := "updated_at = NOW()"
	args := []any{}
	argPos := 1
	for _, col := range []string{"name", "email", "phone", "type", "address", "city", "state"} {
		if v, ok := updates[col]; ok {
			set += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE customers SET %s WHERE id = $%d`, set, argPos), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ApplyPurchase adds to the running purchase aggregates. The write is
// conditioned on the previously read version so a concurrent acceptance
// surfaces as a ConflictError instead of a silent overwrite.
func (r *repository) ApplyPurchase(ctx context.Context, id string, amount decimal.Decimal, at time.Time, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers
		SET total_purchases = total_purchases + $1,
		    last_purchase_date = $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND version = $4
	`, amount, at, id, expectedVersion)
	if err != nil {
		return &shared.PersistenceError{Op: "customers: apply purchase", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &shared.ConflictError{Entity: "customer", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Type, &c.Address, &c.City, &c.State,
		&c.TotalPurchases, &c.LastPurchaseDate, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
