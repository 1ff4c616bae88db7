package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Repository is the persistence port for products.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, id string, updates map[string]any) error
	DecrementStock(ctx context.Context, id string, qty, expectedMin int) error
}

type repository struct {
	db   db.Querier
	pool *pgxpool.Pool
}

// NewRepository builds a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds a repository to an already-open transaction so other
// modules can compose product writes into their own unit of work. WithTx must
// not be called on the returned repository.
func NewTxRepository(q db.Querier) Repository {
	return &repository{db: q}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const productColumns = `id, sku, name, category, manufacturer, buy_price, wholesale_price, retail_price, stock_level, additional_info, barcode_payload, version, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id string) (*Product, error) {
	return r.getWhere(ctx, "id", id)
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return r.getWhere(ctx, "sku", sku)
}

func (r *repository) getWhere(ctx context.Context, col, val string) (*Product, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM products WHERE %s = $1`, productColumns, col), val)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if req.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, req.Category)
		argPos++
	}
	if req.Manufacturer != "" {
		where += fmt.Sprintf(" AND manufacturer = $%d", argPos)
		args = append(args, req.Manufacturer)
		argPos++
	}
	if req.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.InStockOnly {
		where += " AND stock_level > 0"
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM products %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := shared.ClampLimit(req.Limit)
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY name LIMIT $%d OFFSET $%d`, productColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, sku, name, category, manufacturer, buy_price, wholesale_price, retail_price, stock_level, additional_info, barcode_payload, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, NOW(), NOW())
	`, p.ID, p.SKU, p.Name, p.Category, p.Manufacturer, p.BuyPrice, p.WholesalePrice, p.RetailPrice, p.StockLevel, p.AdditionalInfo, p.BarcodePayload)
	return err
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]any) error {
	set := "updated_at = NOW(), version = version + 1"
	args := []any{}
	argPos := 1
	for _, col := range []string{"name", "buy_price", "wholesale_price", "retail_price", "stock_level", "additional_info", "barcode_payload"} {
		if v, ok := updates[col]; ok {
			set += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	args = append(args, id)
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, set, argPos), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty only while stock remains at or above
// expectedMin. A zero-row update means another sale got there first, so the
// caller gets a ConflictError and can refetch.
func (r *repository) DecrementStock(ctx context.Context, id string, qty, expectedMin int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock_level = stock_level - $1,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND stock_level >= $3 AND stock_level - $1 >= 0
	`, qty, id, expectedMin)
	if err != nil {
		return &shared.PersistenceError{Op: "catalog: decrement stock", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &shared.ConflictError{Entity: "product", ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Manufacturer,
		&p.BuyPrice, &p.WholesalePrice, &p.RetailPrice, &p.StockLevel,
		&p.AdditionalInfo, &p.BarcodePayload, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
