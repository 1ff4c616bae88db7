package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemdesk/gemdesk/internal/platform/db"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Repository defines persistence operations for staff accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Staff, error)
	FindByID(ctx context.Context, id string) (*Staff, error)
	Create(ctx context.Context, s Staff) error
	SetActive(ctx context.Context, id string, active bool) error
}

type repository struct {
	db db.Querier
}

// NewRepository builds a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const staffColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

func (r *repository) FindByEmail(ctx context.Context, email string) (*Staff, error) {
	return r.findWhere(ctx, "email", email)
}

func (r *repository) FindByID(ctx context.Context, id string) (*Staff, error) {
	return r.findWhere(ctx, "id", id)
}

func (r *repository) findWhere(ctx context.Context, col, val string) (*Staff, error) {
	row := r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE `+col+` = $1`, val)
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, &shared.PersistenceError{Op: "auth.find_staff", Err: err}
	}
	return &s, nil
}

func (r *repository) Create(ctx context.Context, s Staff) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO staff (id, name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		s.ID, s.Name, s.Email, s.PasswordHash, s.Role, s.IsActive)
	if err != nil {
		return &shared.PersistenceError{Op: "auth.create_staff", Err: err}
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE staff SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return &shared.PersistenceError{Op: "auth.set_active", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
