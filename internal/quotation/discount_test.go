package quotation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/shared"
)

func TestDiscountLimits(t *testing.T) {
	cases := []struct {
		name     string
		ctype    customers.CustomerType
		unlocked bool
		max      int64
	}{
		{"retailer", customers.TypeRetailer, false, 3},
		{"wholesaler", customers.TypeWholesaler, false, 10},
		{"retailer advanced", customers.TypeRetailer, true, 100},
		{"wholesaler advanced", customers.TypeWholesaler, true, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit := DiscountLimit(tc.ctype, tc.unlocked)
			require.True(t, limit.Equal(decimal.NewFromInt(tc.max)))

			require.NoError(t, ValidateDiscount(decimal.NewFromInt(tc.max), tc.ctype, tc.unlocked))

			err := ValidateDiscount(decimal.NewFromInt(tc.max).Add(decimal.RequireFromString("0.01")), tc.ctype, tc.unlocked)
			var exceeded *shared.DiscountExceededError
			require.ErrorAs(t, err, &exceeded)
			require.InDelta(t, float64(tc.max), exceeded.Max, 0.001)
		})
	}
}

func TestValidateDiscountRejectsNegative(t *testing.T) {
	err := ValidateDiscount(decimal.NewFromInt(-1), customers.TypeRetailer, false)
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDiscountPresets(t *testing.T) {
	require.Equal(t, []int{1, 2, 3}, DiscountPresets(customers.TypeRetailer, false))
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, DiscountPresets(customers.TypeWholesaler, false))
	require.Equal(t, []int{5, 10, 15, 20, 25, 30}, DiscountPresets(customers.TypeRetailer, true))
}
