package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gemdesk/gemdesk/internal/markup"
	"github.com/gemdesk/gemdesk/internal/shared"
)

type memRepo struct {
	items map[string]Product
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]Product)}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memRepo) Get(_ context.Context, id string) (*Product, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memRepo) GetBySKU(_ context.Context, sku string) (*Product, error) {
	for _, p := range r.items {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRepo) List(_ context.Context, _ ListProductsRequest) ([]Product, int, error) {
	var out []Product
	for _, p := range r.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memRepo) Create(_ context.Context, p Product) error {
	r.items[p.ID] = p
	return nil
}

func (r *memRepo) Update(_ context.Context, id string, updates map[string]any) error {
	p, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, val := range updates {
		switch col {
		case "name":
			p.Name = val.(string)
		case "buy_price":
			p.BuyPrice = val.(decimal.Decimal)
		case "wholesale_price":
			p.WholesalePrice = val.(decimal.Decimal)
		case "retail_price":
			p.RetailPrice = val.(decimal.Decimal)
		case "stock_level":
			p.StockLevel = val.(int)
		case "additional_info":
			p.AdditionalInfo = val.(string)
		}
	}
	p.Version++
	r.items[id] = p
	return nil
}

func (r *memRepo) DecrementStock(_ context.Context, id string, qty, expectedMin int) error {
	p, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if p.StockLevel < expectedMin || p.StockLevel-qty < 0 {
		return &shared.ConflictError{Entity: "product", ID: id}
	}
	p.StockLevel -= qty
	p.Version++
	r.items[id] = p
	return nil
}

func managerSession() shared.Session {
	return shared.NewSession("staff-1", "Asha", shared.RoleManager)
}

func testService() (*Service, *memRepo) {
	repo := newMemRepo()
	markups := markup.StaticLookup{
		Manufacturers: map[string]decimal.Decimal{"tanishq": decimal.RequireFromString("0.10")},
		Categories:    map[string]decimal.Decimal{"rings": decimal.RequireFromString("0.05")},
	}
	return NewService(repo, markups, nil), repo
}

func TestCreateAssignsSKUAndPayload(t *testing.T) {
	svc, _ := testService()

	p, err := svc.Create(context.Background(), managerSession(), CreateProductRequest{
		Name:         "Gold Ring",
		Category:     "Rings",
		Manufacturer: "Kalyan",
		BuyPrice:     "800",
		// explicit wholesale, no markup rule involved
		WholesalePrice: "900",
		RetailPrice:    "1000",
		StockLevel:     5,
	})
	require.NoError(t, err)
	require.Regexp(t, `^RIKAL\d{6}\d{3}$`, p.SKU)
	require.NotEmpty(t, p.BarcodePayload)
	require.Equal(t, 5, p.StockLevel)
}

func TestCreateSuggestsWholesaleFromMarkup(t *testing.T) {
	svc, _ := testService()

	p, err := svc.Create(context.Background(), managerSession(), CreateProductRequest{
		Name:         "Gold Ring",
		Category:     "Rings",
		Manufacturer: "Tanishq",
		BuyPrice:     "1000",
		RetailPrice:  "1500",
		StockLevel:   1,
	})
	require.NoError(t, err)
	// manufacturer rule (10%) wins over category rule (5%)
	require.True(t, p.WholesalePrice.Equal(decimal.NewFromInt(1100)), p.WholesalePrice)
}

func TestCreateRejectsBrokenPriceOrdering(t *testing.T) {
	svc, _ := testService()

	cases := []struct {
		name                  string
		buy, wholesale, retail string
	}{
		{"wholesale below buy", "1000", "900", "1500"},
		{"retail below wholesale", "800", "1000", "999"},
		{"zero buy", "0", "100", "200"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), managerSession(), CreateProductRequest{
				Name: "X", Category: "Rings", Manufacturer: "Kalyan",
				BuyPrice: tc.buy, WholesalePrice: tc.wholesale, RetailPrice: tc.retail,
			})
			var validationErr *shared.ValidationError
			require.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestUpdateRevalidatesAgainstStoredPrices(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	p, err := svc.Create(ctx, managerSession(), CreateProductRequest{
		Name: "Gold Chain", Category: "Chains", Manufacturer: "Kalyan",
		BuyPrice: "800", WholesalePrice: "900", RetailPrice: "1000",
	})
	require.NoError(t, err)

	// Raising buy above the stored wholesale must fail even though the
	// request itself only touches one field.
	bad := "950"
	_, err = svc.Update(ctx, managerSession(), p.ID, UpdateProductRequest{BuyPrice: &bad})
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)

	ok := "850"
	updated, err := svc.Update(ctx, managerSession(), p.ID, UpdateProductRequest{BuyPrice: &ok})
	require.NoError(t, err)
	require.True(t, updated.BuyPrice.Equal(decimal.NewFromInt(850)))
}

func TestLookupRoundTripsScannedPayload(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	p, err := svc.Create(ctx, managerSession(), CreateProductRequest{
		Name: "Gold Ring", Category: "Rings", Manufacturer: "Kalyan",
		BuyPrice: "800", WholesalePrice: "900", RetailPrice: "1000",
	})
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, p.BarcodePayload)
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)
}

func TestLookupRejectsGarbage(t *testing.T) {
	svc, _ := testService()

	_, err := svc.Lookup(context.Background(), "not json at all")
	var parseErr *shared.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestCreateRequiresInventoryPermission(t *testing.T) {
	svc, _ := testService()
	sess := shared.NewSession("staff-2", "Ravi", shared.RoleDispatch)

	_, err := svc.Create(context.Background(), sess, CreateProductRequest{
		Name: "X", Category: "Rings", Manufacturer: "Kalyan",
		BuyPrice: "1", WholesalePrice: "2", RetailPrice: "3",
	})
	require.ErrorIs(t, err, shared.ErrForbidden)
}
