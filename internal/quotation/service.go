package quotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/catalog"
	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/engagement"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Stores bundles the repositories an acceptance runs against inside one
// transaction.
type Stores struct {
	Quotations Repository
	Products   catalog.Repository
	Customers  customers.Repository
}

// UnitOfWork executes fn atomically against transaction-bound stores.
// Any error rolls the whole acceptance back.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// ProductPort is the read slice of the catalog used while drafting.
type ProductPort interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// CustomerPort is the read slice of the customer module used while drafting.
type CustomerPort interface {
	Get(ctx context.Context, id string) (*customers.Customer, error)
}

// BillingPort reports acceptance back to the workflow engine.
type BillingPort interface {
	MarkBill(ctx context.Context, engagementID string, status engagement.BillStatus) (*engagement.Engagement, error)
}

// Service drafts, prices and accepts quotations.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	products  ProductPort
	buyers    CustomerPort
	uow       UnitOfWork
	billing   BillingPort
	gate      shared.AuthorizationGate
	audit     shared.AuditPort
	now       func() time.Time
	validDays int
}

// NewService builds the service. billing, gate and audit may be nil.
func NewService(logger *slog.Logger, repo Repository, products ProductPort, buyers CustomerPort, uow UnitOfWork, billing BillingPort, gate shared.AuthorizationGate, audit shared.AuditPort, validDays int) *Service {
	if validDays <= 0 {
		validDays = 7
	}
	return &Service{
		logger:    logger,
		repo:      repo,
		products:  products,
		buyers:    buyers,
		uow:       uow,
		billing:   billing,
		gate:      gate,
		audit:     audit,
		now:       time.Now,
		validDays: validDays,
	}
}

const numberRetries = 5

// Create opens a draft quotation. The document number is regenerated on a
// uniqueness collision up to a small bound.
func (s *Service) Create(ctx context.Context, sess shared.Session, req CreateQuotationRequest) (*Quotation, error) {
	if !sess.Allow(shared.PermManageQuotations) {
		return nil, fmt.Errorf("%w: manage_quotations required", shared.ErrForbidden)
	}
	ctype := customers.CustomerType(req.CustomerType)
	if !ctype.Valid() {
		return nil, shared.NewValidationError("customer_type", "must be retailer or wholesaler")
	}
	if req.CustomerID != nil {
		if _, err := s.buyers.Get(ctx, *req.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewValidationError("customer_id", "customer does not exist")
			}
			return nil, err
		}
	}

	now := s.now()
	q := Quotation{
		ID:              uuid.NewString(),
		EngagementID:    req.EngagementID,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerType:    ctype,
		Items:           []LineItem{},
		DiscountPercent: decimal.Zero,
		Status:          StatusDraft,
		ValidUntil:      now.AddDate(0, 0, s.validDays),
		Notes:           req.Notes,
		CreatedBy:       sess.StaffID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	q.Recalculate()

	var conflict *shared.ConflictError
	for attempt := 0; attempt < numberRetries; attempt++ {
		q.Number = NewNumber(now)
		err := s.repo.Create(ctx, q)
		if err == nil {
			s.record(ctx, sess, "quotation:create", q.ID, map[string]any{"number": q.Number})
			return &q, nil
		}
		if !errors.As(err, &conflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("quotation: exhausted number retries: %w", conflict)
}

// AddLineItem adds a product to the draft, merging quantities when the
// product is already quoted. The catalog snapshot is taken at add time.
func (s *Service) AddLineItem(ctx context.Context, sess shared.Session, id string, req AddLineItemRequest) (*Quotation, error) {
	return s.mutate(ctx, sess, id, "quotation:add_item", func(ctx context.Context, q *Quotation) error {
		product, err := s.products.Get(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("product_id", "product does not exist")
			}
			return err
		}

		existing := 0
		if i := q.findItem(req.ProductID); i >= 0 {
			existing = q.Items[i].Quantity
		}
		if existing+req.Quantity > product.StockLevel {
			return &shared.StockError{ProductID: product.ID, Requested: existing + req.Quantity, Available: product.StockLevel}
		}

		unitPrice := product.RetailPrice
		if q.CustomerType == customers.TypeWholesaler {
			unitPrice = product.WholesalePrice
		}
		if i := q.findItem(req.ProductID); i >= 0 {
			q.Items[i].Quantity += req.Quantity
		} else {
			q.Items = append(q.Items, LineItem{
				ProductID:    product.ID,
				SKU:          product.SKU,
				Name:         product.Name,
				Category:     product.Category,
				Manufacturer: product.Manufacturer,
				UnitPrice:    unitPrice,
				Quantity:     req.Quantity,
			})
		}
		return nil
	})
}

// UpdateQuantity shifts a quoted quantity by delta. Dropping to zero or
// below removes the line.
func (s *Service) UpdateQuantity(ctx context.Context, sess shared.Session, id string, req UpdateQuantityRequest) (*Quotation, error) {
	return s.mutate(ctx, sess, id, "quotation:update_quantity", func(ctx context.Context, q *Quotation) error {
		i := q.findItem(req.ProductID)
		if i < 0 {
			return shared.NewValidationError("product_id", "not on this quotation")
		}
		next := q.Items[i].Quantity + req.Delta
		if next <= 0 {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			return nil
		}
		if req.Delta > 0 {
			product, err := s.products.Get(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if next > product.StockLevel {
				return &shared.StockError{ProductID: product.ID, Requested: next, Available: product.StockLevel}
			}
		}
		q.Items[i].Quantity = next
		return nil
	})
}

// RemoveLineItem drops a product from the draft.
func (s *Service) RemoveLineItem(ctx context.Context, sess shared.Session, id string, req RemoveLineItemRequest) (*Quotation, error) {
	return s.mutate(ctx, sess, id, "quotation:remove_item", func(_ context.Context, q *Quotation) error {
		i := q.findItem(req.ProductID)
		if i < 0 {
			return shared.NewValidationError("product_id", "not on this quotation")
		}
		q.Items = append(q.Items[:i], q.Items[i+1:]...)
		return nil
	})
}

// SetDiscount applies a percentage, bounded by the customer tier unless
// advanced mode has been unlocked on this quotation.
func (s *Service) SetDiscount(ctx context.Context, sess shared.Session, id string, req SetDiscountRequest) (*Quotation, error) {
	pct, err := decimal.NewFromString(req.Percent)
	if err != nil {
		return nil, shared.NewValidationError("percent", "must be a decimal number")
	}
	return s.mutate(ctx, sess, id, "quotation:set_discount", func(_ context.Context, q *Quotation) error {
		if err := ValidateDiscount(pct, q.CustomerType, q.AdvancedUnlocked); err != nil {
			return err
		}
		q.DiscountPercent = pct
		return nil
	})
}

// UnlockAdvanced verifies the unlock secret against the authorization gate
// and lifts the discount ceiling for this quotation only.
func (s *Service) UnlockAdvanced(ctx context.Context, sess shared.Session, id string, req UnlockDiscountRequest) (*Quotation, error) {
	if s.gate == nil {
		return nil, fmt.Errorf("%w: advanced discounts are not enabled", shared.ErrForbidden)
	}
	ok, err := s.gate.UnlockAdvancedDiscount(ctx, sess, req.Secret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid unlock code", shared.ErrForbidden)
	}
	return s.mutate(ctx, sess, id, "quotation:unlock_advanced", func(_ context.Context, q *Quotation) error {
		q.AdvancedUnlocked = true
		return nil
	})
}

// Validate reports whether the draft can be accepted as-is: at least one
// line, availability for every line, and a discount within the ceiling.
func (s *Service) Validate(ctx context.Context, id string) error {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !q.Editable() {
		return &shared.InvalidTransitionError{From: string(q.Status), Reason: "quotation is not a draft"}
	}
	if len(q.Items) == 0 {
		return shared.NewValidationError("items", "quotation has no line items")
	}
	if s.now().After(q.ValidUntil) {
		return shared.NewValidationError("valid_until", "quotation has expired")
	}
	for _, item := range q.Items {
		product, err := s.products.Get(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("items", fmt.Sprintf("product %s no longer exists", item.SKU))
			}
			return err
		}
		if item.Quantity > product.StockLevel {
			return &shared.StockError{ProductID: product.ID, Requested: item.Quantity, Available: product.StockLevel}
		}
	}
	return ValidateDiscount(q.DiscountPercent, q.CustomerType, q.AdvancedUnlocked)
}

// Accept converts the draft to a sale. Stock decrements, the customer's
// purchase history and the status flip commit in a single transaction; any
// failure leaves all three untouched.
func (s *Service) Accept(ctx context.Context, sess shared.Session, id string) (*Quotation, error) {
	if !sess.Allow(shared.PermManageQuotations) {
		return nil, fmt.Errorf("%w: manage_quotations required", shared.ErrForbidden)
	}
	if err := s.Validate(ctx, id); err != nil {
		return nil, err
	}

	var accepted *Quotation
	err := s.uow.Run(ctx, func(ctx context.Context, st Stores) error {
		q, err := st.Quotations.Get(ctx, id)
		if err != nil {
			return err
		}
		if !q.Editable() {
			return &shared.InvalidTransitionError{From: string(q.Status), Reason: "quotation is not a draft"}
		}

		for _, item := range q.Items {
			product, err := st.Products.Get(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.StockLevel < item.Quantity {
				return &shared.StockError{ProductID: product.ID, Requested: item.Quantity, Available: product.StockLevel}
			}
			if err := st.Products.DecrementStock(ctx, item.ProductID, item.Quantity, item.Quantity); err != nil {
				return err
			}
		}

		if q.CustomerID != nil {
			buyer, err := st.Customers.Get(ctx, *q.CustomerID)
			if err != nil {
				return err
			}
			if err := st.Customers.ApplyPurchase(ctx, buyer.ID, q.Totals.FinalTotal, s.now(), buyer.Version); err != nil {
				return err
			}
		}

		next := q.Clone()
		next.Status = StatusAccepted
		next.UpdatedAt = s.now()
		if err := st.Quotations.Update(ctx, next, q.Version); err != nil {
			return err
		}
		next.Version = q.Version + 1
		accepted = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if accepted.EngagementID != nil && s.billing != nil {
		if _, err := s.billing.MarkBill(ctx, *accepted.EngagementID, engagement.BillGenerated); err != nil {
			s.logger.Warn("mark bill generated", slog.String("engagement_id", *accepted.EngagementID), slog.Any("error", err))
		}
	}
	s.record(ctx, sess, "quotation:accept", accepted.ID, map[string]any{
		"number":      accepted.Number,
		"final_total": accepted.Totals.FinalTotal.StringFixed(2),
	})
	return accepted, nil
}

// Reject closes the draft without touching stock or customers.
func (s *Service) Reject(ctx context.Context, sess shared.Session, id string) (*Quotation, error) {
	return s.mutateStatus(ctx, sess, id, "quotation:reject", StatusRejected)
}

// ExpireStale flips drafts whose validity window has passed. Called by the
// background sweep.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.MarkExpired(ctx, s.now())
}

// DiscountOptionsFor returns the ceiling and presets for the picker.
func (s *Service) DiscountOptionsFor(ctx context.Context, id string) (*DiscountOptions, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DiscountOptions{
		Max:     DiscountLimit(q.CustomerType, q.AdvancedUnlocked).StringFixed(0),
		Presets: DiscountPresets(q.CustomerType, q.AdvancedUnlocked),
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]Quotation, int, error) {
	req.Limit = shared.ClampLimit(req.Limit)
	return s.repo.List(ctx, req)
}

// mutate runs a draft-only edit with optimistic concurrency and recalculates
// totals before persisting.
func (s *Service) mutate(ctx context.Context, sess shared.Session, id, action string, fn func(context.Context, *Quotation) error) (*Quotation, error) {
	if !sess.Allow(shared.PermManageQuotations) {
		return nil, fmt.Errorf("%w: manage_quotations required", shared.ErrForbidden)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Editable() {
		return nil, &shared.InvalidTransitionError{From: string(current.Status), Reason: "quotation is not a draft"}
	}

	next := current.Clone()
	if err := fn(ctx, &next); err != nil {
		return nil, err
	}
	next.Recalculate()
	next.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, next, current.Version); err != nil {
		return nil, err
	}
	next.Version = current.Version + 1
	s.record(ctx, sess, action, id, nil)
	return &next, nil
}

func (s *Service) mutateStatus(ctx context.Context, sess shared.Session, id, action string, status Status) (*Quotation, error) {
	return s.mutate(ctx, sess, id, action, func(_ context.Context, q *Quotation) error {
		q.Status = status
		return nil
	})
}

func (s *Service) record(ctx context.Context, sess shared.Session, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  sess.StaffID,
		Action:   action,
		Entity:   "quotation",
		EntityID: id,
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
