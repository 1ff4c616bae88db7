package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// ValidatePrices enforces the entry-time invariant
// buyPrice < wholesalePrice < retailPrice, all positive.
func ValidatePrices(buy, wholesale, retail decimal.Decimal) error {
	if buy.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("buy_price", "must be greater than zero")
	}
	if wholesale.LessThanOrEqual(buy) {
		return shared.NewValidationError("wholesale_price", "must be greater than buy price")
	}
	if retail.LessThanOrEqual(wholesale) {
		return shared.NewValidationError("retail_price", "must be greater than wholesale price")
	}
	return nil
}
