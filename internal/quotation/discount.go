package quotation

import (
	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// Discount ceilings by customer tier. Advanced mode lifts the ceiling to the
// full range once a manager unlocks it on the quotation.
const (
	maxRetailerDiscount   = 3
	maxWholesalerDiscount = 10
	maxAdvancedDiscount   = 100
)

var (
	retailerPresets   = []int{1, 2, 3}
	wholesalerPresets = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	advancedPresets   = []int{5, 10, 15, 20, 25, 30}
)

// DiscountLimit returns the maximum percentage allowed for the tier.
func DiscountLimit(ct customers.CustomerType, advancedUnlocked bool) decimal.Decimal {
	if advancedUnlocked {
		return decimal.NewFromInt(maxAdvancedDiscount)
	}
	if ct == customers.TypeWholesaler {
		return decimal.NewFromInt(maxWholesalerDiscount)
	}
	return decimal.NewFromInt(maxRetailerDiscount)
}

// DiscountPresets returns the quick-pick values the UI offers for the tier.
func DiscountPresets(ct customers.CustomerType, advancedUnlocked bool) []int {
	if advancedUnlocked {
		return advancedPresets
	}
	if ct == customers.TypeWholesaler {
		return wholesalerPresets
	}
	return retailerPresets
}

// ValidateDiscount checks the requested percentage against the tier ceiling.
func ValidateDiscount(pct decimal.Decimal, ct customers.CustomerType, advancedUnlocked bool) error {
	if pct.IsNegative() {
		return shared.NewValidationError("discount_percent", "must not be negative")
	}
	limit := DiscountLimit(ct, advancedUnlocked)
	if pct.GreaterThan(limit) {
		return &shared.DiscountExceededError{
			Requested: pct.InexactFloat64(),
			Max:       limit.InexactFloat64(),
		}
	}
	return nil
}
