package customers

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gemdesk/gemdesk/internal/shared"
)

type memRepo struct {
	items map[string]Customer
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]Customer)}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memRepo) Get(_ context.Context, id string) (*Customer, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memRepo) List(_ context.Context, _ ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.items {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memRepo) Create(_ context.Context, c Customer) error {
	r.items[c.ID] = c
	return nil
}

func (r *memRepo) Update(_ context.Context, id string, updates map[string]any) error {
	c, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, val := range updates {
		switch col {
		case "name":
			c.Name = val.(string)
		case "phone":
			c.Phone = val.(string)
		case "type":
			c.Type = CustomerType(val.(string))
		}
	}
	c.Version++
	r.items[id] = c
	return nil
}

func (r *memRepo) ApplyPurchase(_ context.Context, id string, amount decimal.Decimal, at time.Time, expectedVersion int64) error {
	c, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	if c.Version != expectedVersion {
		return &shared.ConflictError{Entity: "customer", ID: id}
	}
	c.TotalPurchases = c.TotalPurchases.Add(amount)
	c.LastPurchaseDate = &at
	c.Version++
	r.items[id] = c
	return nil
}

func adminSession() shared.Session {
	return shared.NewSession("staff-1", "Asha", shared.RoleAdmin)
}

func TestCreateValidatesTier(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Create(context.Background(), adminSession(), CreateCustomerRequest{
		Name: "Meera", Phone: "9999", Type: "vip",
	})
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)

	c, err := svc.Create(context.Background(), adminSession(), CreateCustomerRequest{
		Name: "Meera", Phone: "9999", Type: "wholesaler",
	})
	require.NoError(t, err)
	require.Equal(t, TypeWholesaler, c.Type)
	require.EqualValues(t, 1, c.Version)
}

func TestCreateRequiresPermission(t *testing.T) {
	svc := NewService(newMemRepo())
	sess := shared.NewSession("staff-2", "Ravi", shared.RoleQC)

	_, err := svc.Create(context.Background(), sess, CreateCustomerRequest{
		Name: "Meera", Phone: "9999", Type: "retailer",
	})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdatePatchesOnlyNamedFields(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, adminSession(), CreateCustomerRequest{
		Name: "Meera", Phone: "9999", Type: "retailer",
	})
	require.NoError(t, err)

	newType := "wholesaler"
	updated, err := svc.Update(ctx, adminSession(), c.ID, UpdateCustomerRequest{Type: &newType})
	require.NoError(t, err)
	require.Equal(t, TypeWholesaler, updated.Type)
	require.Equal(t, "Meera", updated.Name)
}

func TestApplyPurchaseAccumulatesAndTracksDate(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, adminSession(), CreateCustomerRequest{
		Name: "Meera", Phone: "9999", Type: "retailer",
	})
	require.NoError(t, err)

	first := time.Now().Add(-time.Hour)
	require.NoError(t, repo.ApplyPurchase(ctx, c.ID, decimal.NewFromInt(2360), first, c.Version))

	second := time.Now()
	after, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, repo.ApplyPurchase(ctx, c.ID, decimal.NewFromInt(1000), second, after.Version))

	final, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, final.TotalPurchases.Equal(decimal.NewFromInt(3360)))
	require.WithinDuration(t, second, *final.LastPurchaseDate, time.Second)
}

func TestApplyPurchaseRejectsStaleVersion(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, adminSession(), CreateCustomerRequest{
		Name: "Meera", Phone: "9999", Type: "retailer",
	})
	require.NoError(t, err)

	err = repo.ApplyPurchase(ctx, c.ID, decimal.NewFromInt(100), time.Now(), c.Version+5)
	var conflictErr *shared.ConflictError
	require.ErrorAs(t, err, &conflictErr)
}
