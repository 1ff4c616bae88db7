package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/catalog/barcode"
	"github.com/gemdesk/gemdesk/internal/markup"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Service owns the product master: price invariants, SKU assignment and the
// scannable label payload.
type Service struct {
	repo    Repository
	markups markup.Lookup
	audit   shared.AuditPort
}

// NewService builds the service. markups and audit may be nil.
func NewService(repo Repository, markups markup.Lookup, audit shared.AuditPort) *Service {
	return &Service{repo: repo, markups: markups, audit: audit}
}

// Create registers a product. When the wholesale price is omitted it is
// suggested from the buy price and the markup rule for the product's
// manufacturer/category.
func (s *Service) Create(ctx context.Context, sess shared.Session, req CreateProductRequest) (*Product, error) {
	if !sess.Allow(shared.PermManageInventory) {
		return nil, fmt.Errorf("%w: manage_inventory required", shared.ErrForbidden)
	}

	buy, err := decimal.NewFromString(req.BuyPrice)
	if err != nil {
		return nil, shared.NewValidationError("buy_price", "not a valid amount")
	}
	retail, err := decimal.NewFromString(req.RetailPrice)
	if err != nil {
		return nil, shared.NewValidationError("retail_price", "not a valid amount")
	}

	var wholesale decimal.Decimal
	if req.WholesalePrice != "" {
		wholesale, err = decimal.NewFromString(req.WholesalePrice)
		if err != nil {
			return nil, shared.NewValidationError("wholesale_price", "not a valid amount")
		}
	} else {
		wholesale, err = s.SuggestWholesale(ctx, buy, req.Manufacturer, req.Category)
		if err != nil {
			return nil, fmt.Errorf("suggest wholesale: %w", err)
		}
	}

	if err := ValidatePrices(buy, wholesale, retail); err != nil {
		return nil, err
	}

	sku := barcode.GenerateSKU(req.Category, req.Name, req.Manufacturer)
	payload := barcode.Generate(sku, req.Name, req.Category, req.Manufacturer, retail, wholesale, req.AdditionalInfo)
	encoded, err := barcode.Encode(payload)
	if err != nil {
		return nil, err
	}

	product := Product{
		ID:             uuid.NewString(),
		SKU:            sku,
		Name:           req.Name,
		Category:       req.Category,
		Manufacturer:   req.Manufacturer,
		BuyPrice:       buy,
		WholesalePrice: wholesale,
		RetailPrice:    retail,
		StockLevel:     req.StockLevel,
		AdditionalInfo: req.AdditionalInfo,
		BarcodePayload: encoded,
		Version:        1,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Create(ctx, product)
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  sess.StaffID,
			Action:   "catalog:create",
			Entity:   "product",
			EntityID: product.ID,
			Meta:     map[string]any{"sku": sku, "stock_level": req.StockLevel},
		})
	}
	return s.repo.Get(ctx, product.ID)
}

// SuggestWholesale derives a wholesale price from the buy price and the
// markup fraction resolved for (manufacturer, category).
func (s *Service) SuggestWholesale(ctx context.Context, buy decimal.Decimal, manufacturer, category string) (decimal.Decimal, error) {
	if s.markups == nil {
		return buy, nil
	}
	fraction, err := s.markups.GetMarkup(ctx, manufacturer, category)
	if err != nil {
		return decimal.Zero, err
	}
	return buy.Mul(decimal.NewFromInt(1).Add(fraction)), nil
}

// Update patches product fields, re-validating the price ordering against the
// stored values for any price not being changed.
func (s *Service) Update(ctx context.Context, sess shared.Session, id string, req UpdateProductRequest) (*Product, error) {
	if !sess.Allow(shared.PermManageInventory) {
		return nil, fmt.Errorf("%w: manage_inventory required", shared.ErrForbidden)
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	buy, wholesale, retail := existing.BuyPrice, existing.WholesalePrice, existing.RetailPrice
	updates := make(map[string]any)

	if req.BuyPrice != nil {
		if buy, err = decimal.NewFromString(*req.BuyPrice); err != nil {
			return nil, shared.NewValidationError("buy_price", "not a valid amount")
		}
		updates["buy_price"] = buy
	}
	if req.WholesalePrice != nil {
		if wholesale, err = decimal.NewFromString(*req.WholesalePrice); err != nil {
			return nil, shared.NewValidationError("wholesale_price", "not a valid amount")
		}
		updates["wholesale_price"] = wholesale
	}
	if req.RetailPrice != nil {
		if retail, err = decimal.NewFromString(*req.RetailPrice); err != nil {
			return nil, shared.NewValidationError("retail_price", "not a valid amount")
		}
		updates["retail_price"] = retail
	}
	if err := ValidatePrices(buy, wholesale, retail); err != nil {
		return nil, err
	}

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.StockLevel != nil {
		if *req.StockLevel < 0 {
			return nil, shared.NewValidationError("stock_level", "must not be negative")
		}
		updates["stock_level"] = *req.StockLevel
	}
	if req.AdditionalInfo != nil {
		updates["additional_info"] = *req.AdditionalInfo
	}
	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// Lookup resolves a scanned payload to the product it names.
func (s *Service) Lookup(ctx context.Context, scanned string) (*Product, error) {
	payload, err := barcode.Parse(scanned)
	if err != nil {
		return nil, err
	}
	return s.repo.GetBySKU(ctx, payload.SKU)
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}
