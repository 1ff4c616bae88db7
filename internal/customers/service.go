package customers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// Service owns customer record lifecycle and purchase aggregates.
type Service struct {
	repo Repository
}

// NewService builds the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a customer. Type defaults are not applied here; the
// request must name a valid tier.
func (s *Service) Create(ctx context.Context, sess shared.Session, req CreateCustomerRequest) (*Customer, error) {
	if !sess.Allow(shared.PermManageCustomers) {
		return nil, fmt.Errorf("%w: manage_customers required", shared.ErrForbidden)
	}
	ctype := CustomerType(req.Type)
	if !ctype.Valid() {
		return nil, shared.NewValidationError("type", "must be retailer or wholesaler")
	}

	customer := Customer{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Type:    ctype,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Version: 1,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Create(ctx, customer)
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, customer.ID)
}

// Update patches mutable fields.
func (s *Service) Update(ctx context.Context, sess shared.Session, id string, req UpdateCustomerRequest) (*Customer, error) {
	if !sess.Allow(shared.PermManageCustomers) {
		return nil, fmt.Errorf("%w: manage_customers required", shared.ErrForbidden)
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Type != nil {
		if !CustomerType(*req.Type).Valid() {
			return nil, shared.NewValidationError("type", "must be retailer or wholesaler")
		}
		updates["type"] = *req.Type
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, id)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}
