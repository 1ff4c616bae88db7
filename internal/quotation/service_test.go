package quotation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gemdesk/gemdesk/internal/catalog"
	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/shared"
)

type memQuotations struct {
	items map[string]Quotation
}

func newMemQuotations() *memQuotations {
	return &memQuotations{items: make(map[string]Quotation)}
}

func (r *memQuotations) Create(_ context.Context, q Quotation) error {
	for _, existing := range r.items {
		if existing.Number == q.Number {
			return &shared.ConflictError{Entity: "quotation_number", ID: q.Number}
		}
	}
	r.items[q.ID] = q.Clone()
	return nil
}

func (r *memQuotations) Get(_ context.Context, id string) (*Quotation, error) {
	q, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := q.Clone()
	return &out, nil
}

func (r *memQuotations) List(_ context.Context, _ ListQuotationsRequest) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range r.items {
		out = append(out, q.Clone())
	}
	return out, len(out), nil
}

func (r *memQuotations) Update(_ context.Context, q Quotation, expectedVersion int64) error {
	current, ok := r.items[q.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != expectedVersion {
		return &shared.ConflictError{Entity: "quotation", ID: q.ID}
	}
	next := q.Clone()
	next.Version = expectedVersion + 1
	r.items[q.ID] = next
	return nil
}

func (r *memQuotations) MarkExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, q := range r.items {
		if q.Status == StatusDraft && q.ValidUntil.Before(cutoff) {
			q.Status = StatusExpired
			q.Version++
			r.items[id] = q
			n++
		}
	}
	return n, nil
}

type memProducts struct {
	items         map[string]catalog.Product
	failDecrement map[string]error
}

func newMemProducts(products ...catalog.Product) *memProducts {
	m := &memProducts{items: make(map[string]catalog.Product), failDecrement: make(map[string]error)}
	for _, p := range products {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) WithTx(ctx context.Context, fn func(context.Context, catalog.Repository) error) error {
	return fn(ctx, m)
}

func (m *memProducts) Get(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range m.items {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memProducts) List(_ context.Context, _ catalog.ListProductsRequest) ([]catalog.Product, int, error) {
	return nil, 0, nil
}

func (m *memProducts) Create(_ context.Context, p catalog.Product) error {
	m.items[p.ID] = p
	return nil
}

func (m *memProducts) Update(_ context.Context, id string, _ map[string]any) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, id string, qty, expectedMin int) error {
	if err := m.failDecrement[id]; err != nil {
		return err
	}
	p, ok := m.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if p.StockLevel < expectedMin || p.StockLevel-qty < 0 {
		return &shared.ConflictError{Entity: "product", ID: id}
	}
	p.StockLevel -= qty
	p.Version++
	m.items[id] = p
	return nil
}

type memCustomers struct {
	items map[string]customers.Customer
}

func newMemCustomers(buyers ...customers.Customer) *memCustomers {
	m := &memCustomers{items: make(map[string]customers.Customer)}
	for _, c := range buyers {
		m.items[c.ID] = c
	}
	return m
}

func (m *memCustomers) WithTx(ctx context.Context, fn func(context.Context, customers.Repository) error) error {
	return fn(ctx, m)
}

func (m *memCustomers) Get(_ context.Context, id string) (*customers.Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (m *memCustomers) List(_ context.Context, _ customers.ListCustomersRequest) ([]customers.Customer, int, error) {
	return nil, 0, nil
}

func (m *memCustomers) Create(_ context.Context, c customers.Customer) error {
	m.items[c.ID] = c
	return nil
}

func (m *memCustomers) Update(_ context.Context, id string, _ map[string]any) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	return nil
}

func (m *memCustomers) ApplyPurchase(_ context.Context, id string, amount decimal.Decimal, at time.Time, expectedVersion int64) error {
	c, ok := m.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if c.Version != expectedVersion {
		return &shared.ConflictError{Entity: "customer", ID: id}
	}
	c.TotalPurchases = c.TotalPurchases.Add(amount)
	c.LastPurchaseDate = &at
	c.Version++
	m.items[id] = c
	return nil
}

// memUnitOfWork snapshots every store before fn and restores all of them on
// error, mirroring a transaction rollback.
type memUnitOfWork struct {
	quotations *memQuotations
	products   *memProducts
	buyers     *memCustomers
}

func (u *memUnitOfWork) Run(_ context.Context, fn func(ctx context.Context, s Stores) error) error {
	qSnap := make(map[string]Quotation, len(u.quotations.items))
	for k, v := range u.quotations.items {
		qSnap[k] = v.Clone()
	}
	pSnap := make(map[string]catalog.Product, len(u.products.items))
	for k, v := range u.products.items {
		pSnap[k] = v
	}
	cSnap := make(map[string]customers.Customer, len(u.buyers.items))
	for k, v := range u.buyers.items {
		cSnap[k] = v
	}

	err := fn(context.Background(), Stores{Quotations: u.quotations, Products: u.products, Customers: u.buyers})
	if err != nil {
		u.quotations.items = qSnap
		u.products.items = pSnap
		u.buyers.items = cSnap
	}
	return err
}

type fixture struct {
	svc        *Service
	quotations *memQuotations
	products   *memProducts
	buyers     *memCustomers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quotations := newMemQuotations()
	products := newMemProducts(
		catalog.Product{ID: "p-ring", SKU: "RITAN260101123", Name: "Gold Ring", Category: "Rings", Manufacturer: "Tanishq", RetailPrice: decimal.NewFromInt(1000), WholesalePrice: decimal.NewFromInt(900), StockLevel: 5},
		catalog.Product{ID: "p-chain", SKU: "CHTAN260101456", Name: "Gold Chain", Category: "Chains", Manufacturer: "Tanishq", RetailPrice: decimal.NewFromInt(5000), WholesalePrice: decimal.NewFromInt(4500), StockLevel: 2},
	)
	buyers := newMemCustomers(
		customers.Customer{ID: "cust-1", Name: "Meera", Type: customers.TypeRetailer, Version: 1},
		customers.Customer{ID: "cust-2", Name: "Bulk Traders", Type: customers.TypeWholesaler, Version: 1},
	)

	svc := NewService(
		slog.New(slog.DiscardHandler),
		quotations,
		products,
		buyers,
		&memUnitOfWork{quotations: quotations, products: products, buyers: buyers},
		nil,
		nil,
		nil,
		7,
	)
	return &fixture{svc: svc, quotations: quotations, products: products, buyers: buyers}
}

func salesSession() shared.Session {
	return shared.NewSession("staff-1", "Asha", shared.RoleSales)
}

func draft(t *testing.T, f *fixture, customerID string, ctype string) *Quotation {
	t.Helper()
	req := CreateQuotationRequest{CustomerName: "Meera", CustomerType: ctype}
	if customerID != "" {
		req.CustomerID = &customerID
	}
	q, err := f.svc.Create(context.Background(), salesSession(), req)
	require.NoError(t, err)
	return q
}

func TestCreateAssignsNumberAndWindow(t *testing.T) {
	f := newFixture(t)
	q := draft(t, f, "cust-1", "retailer")

	require.Regexp(t, `^Q\d{8}\d{3}$`, q.Number)
	require.Equal(t, StatusDraft, q.Status)
	require.Empty(t, q.Items)
	require.True(t, q.Totals.FinalTotal.IsZero())
	require.WithinDuration(t, time.Now().AddDate(0, 0, 7), q.ValidUntil, time.Minute)
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	bogus := "cust-404"
	_, err := f.svc.Create(context.Background(), salesSession(), CreateQuotationRequest{
		CustomerID: &bogus, CustomerName: "X", CustomerType: "retailer",
	})
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestAddLineItemMergesQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	q, err := f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 2})
	require.NoError(t, err)
	q, err = f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, q.Items, 1)
	require.Equal(t, 3, q.Items[0].Quantity)
	require.True(t, q.Items[0].LineTotal.Equal(decimal.NewFromInt(3000)))
	require.True(t, q.Totals.Subtotal.Equal(decimal.NewFromInt(3000)))
}

func TestAddLineItemUsesWholesalePriceForWholesalers(t *testing.T) {
	f := newFixture(t)
	q := draft(t, f, "cust-2", "wholesaler")

	q, err := f.svc.AddLineItem(context.Background(), salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 1})
	require.NoError(t, err)
	require.True(t, q.Items[0].UnitPrice.Equal(decimal.NewFromInt(900)))
}

func TestAddLineItemStockErrorLeavesDraftUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	q, err := f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-chain", Quantity: 2})
	require.NoError(t, err)

	_, err = f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-chain", Quantity: 1})
	var stockErr *shared.StockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 3, stockErr.Requested)
	require.Equal(t, 2, stockErr.Available)

	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Items[0].Quantity)
	require.Equal(t, q.Version, stored.Version)
}

func TestUpdateQuantityDeltaAndRemoveAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	q, err := f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 2})
	require.NoError(t, err)

	q, err = f.svc.UpdateQuantity(ctx, salesSession(), q.ID, UpdateQuantityRequest{ProductID: "p-ring", Delta: 2})
	require.NoError(t, err)
	require.Equal(t, 4, q.Items[0].Quantity)

	q, err = f.svc.UpdateQuantity(ctx, salesSession(), q.ID, UpdateQuantityRequest{ProductID: "p-ring", Delta: -4})
	require.NoError(t, err)
	require.Empty(t, q.Items)
	require.True(t, q.Totals.Subtotal.IsZero())
}

func TestSetDiscountEnforcesTierCeiling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	_, err := f.svc.SetDiscount(ctx, salesSession(), q.ID, SetDiscountRequest{Percent: "4"})
	var exceeded *shared.DiscountExceededError
	require.ErrorAs(t, err, &exceeded)

	q, err = f.svc.SetDiscount(ctx, salesSession(), q.ID, SetDiscountRequest{Percent: "3"})
	require.NoError(t, err)
	require.True(t, q.DiscountPercent.Equal(decimal.NewFromInt(3)))
}

func TestAcceptCommitsStockCustomerAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	q, err := f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 2})
	require.NoError(t, err)

	accepted, err := f.svc.Accept(ctx, salesSession(), q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, accepted.Status)

	ring, err := f.products.Get(ctx, "p-ring")
	require.NoError(t, err)
	require.Equal(t, 3, ring.StockLevel)

	buyer, err := f.buyers.Get(ctx, "cust-1")
	require.NoError(t, err)
	// 2000 + 18% GST
	require.True(t, buyer.TotalPurchases.Equal(decimal.NewFromInt(2360)), buyer.TotalPurchases)
	require.NotNil(t, buyer.LastPurchaseDate)
}

func TestAcceptRollsBackWhenAnyStepFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	q, err := f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 2})
	require.NoError(t, err)
	q, err = f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-chain", Quantity: 1})
	require.NoError(t, err)

	// The second decrement fails after the first succeeded.
	f.products.failDecrement["p-chain"] = errors.New("connection reset")

	_, err = f.svc.Accept(ctx, salesSession(), q.ID)
	require.Error(t, err)

	ring, err := f.products.Get(ctx, "p-ring")
	require.NoError(t, err)
	require.Equal(t, 5, ring.StockLevel)

	buyer, err := f.buyers.Get(ctx, "cust-1")
	require.NoError(t, err)
	require.True(t, buyer.TotalPurchases.IsZero())

	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
}

func TestAcceptRejectsEmptyDraft(t *testing.T) {
	f := newFixture(t)
	q := draft(t, f, "cust-1", "retailer")

	_, err := f.svc.Accept(context.Background(), salesSession(), q.ID)
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestAcceptedQuotationIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	q, err := f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, salesSession(), q.ID)
	require.NoError(t, err)

	_, err = f.svc.AddLineItem(ctx, salesSession(), q.ID, AddLineItemRequest{ProductID: "p-ring", Quantity: 1})
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	_, err = f.svc.SetDiscount(ctx, salesSession(), q.ID, SetDiscountRequest{Percent: "1"})
	require.ErrorAs(t, err, &transitionErr)
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := draft(t, f, "cust-1", "retailer")

	stored := f.quotations.items[q.ID]
	stored.ValidUntil = time.Now().Add(-time.Hour)
	f.quotations.items[q.ID] = stored

	n, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	after, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, after.Status)

	_, err = f.svc.Accept(ctx, salesSession(), q.ID)
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}
