package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. The same error is
// returned for unknown accounts, disabled accounts and wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Staff, error) {
	staff, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !staff.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return staff, nil
}

// Register creates a staff account. Only admins may do this.
func (s *Service) Register(ctx context.Context, sess shared.Session, name, email, password string, role shared.Role) (*Staff, error) {
	if !sess.Allow(shared.PermManageStaff) {
		return nil, fmt.Errorf("%w: manage_staff required", shared.ErrForbidden)
	}
	if !shared.ValidRole(role) {
		return nil, shared.NewValidationError("role", "unknown role")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	staff := Staff{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, staff.ID)
}

// Deactivate disables a staff account without deleting its history.
func (s *Service) Deactivate(ctx context.Context, sess shared.Session, id string) error {
	if !sess.Allow(shared.PermManageStaff) {
		return fmt.Errorf("%w: manage_staff required", shared.ErrForbidden)
	}
	return s.repo.SetActive(ctx, id, false)
}
