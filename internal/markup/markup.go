// Package markup resolves the fractional markup applied to a product's buy
// price when suggesting a wholesale price. Rules are keyed by manufacturer or
// category; a manufacturer rule wins when both exist.
package markup

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// RuleKind distinguishes what a rule is keyed by.
type RuleKind string

const (
	RuleKindManufacturer RuleKind = "manufacturer"
	RuleKindCategory     RuleKind = "category"
)

// Rule holds one markup fraction, e.g. 0.2 for 20%.
type Rule struct {
	Kind     RuleKind        `json:"kind"`
	Key      string          `json:"key"`
	Fraction decimal.Decimal `json:"fraction"`
}

// Lookup is the black-box dependency the catalog consumes: one fraction per
// (manufacturer, category) pair.
type Lookup interface {
	GetMarkup(ctx context.Context, manufacturer, category string) (decimal.Decimal, error)
}

// Repository persists rules in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert stores or replaces a rule.
func (r *Repository) Upsert(ctx context.Context, rule Rule) error {
	if rule.Key == "" {
		return errors.New("markup: rule key required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO markup_rules (kind, key, fraction, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (kind, key) DO UPDATE SET fraction = EXCLUDED.fraction, updated_at = NOW()
	`, rule.Kind, normalizeKey(rule.Key), rule.Fraction)
	return err
}

// Delete removes a rule.
func (r *Repository) Delete(ctx context.Context, kind RuleKind, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM markup_rules WHERE kind = $1 AND key = $2`, kind, normalizeKey(key))
	return err
}

// List returns all rules.
func (r *Repository) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `SELECT kind, key, fraction FROM markup_rules ORDER BY kind, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.Kind, &rule.Key, &rule.Fraction); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetMarkup resolves the fraction for a product. Manufacturer rules take
// precedence over category rules; no rule means zero markup.
func (r *Repository) GetMarkup(ctx context.Context, manufacturer, category string) (decimal.Decimal, error) {
	if f, ok, err := r.lookup(ctx, RuleKindManufacturer, manufacturer); err != nil || ok {
		return f, err
	}
	if f, ok, err := r.lookup(ctx, RuleKindCategory, category); err != nil || ok {
		return f, err
	}
	return decimal.Zero, nil
}

func (r *Repository) lookup(ctx context.Context, kind RuleKind, key string) (decimal.Decimal, bool, error) {
	if key == "" {
		return decimal.Zero, false, nil
	}
	var fraction decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT fraction FROM markup_rules WHERE kind = $1 AND key = $2`, kind, normalizeKey(key)).Scan(&fraction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return fraction, true, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
