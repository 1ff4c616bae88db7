package quotation

import "github.com/shopspring/decimal"

// GSTRate is the flat goods-and-services tax applied after discount.
var GSTRate = decimal.NewFromFloat(0.18)

var hundred = decimal.NewFromInt(100)

// CalculateTotals derives the money breakdown for a set of line items:
//
//	subtotal   = sum(unit_price * quantity)
//	discount   = subtotal * percent / 100
//	total      = subtotal - discount
//	gst        = total * 0.18
//	finalTotal = total + gst
//
// All arithmetic runs on decimals so repeated recalculation of the same
// quotation always produces the same figures.
func CalculateTotals(items []LineItem, discountPercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	discountAmount := subtotal.Mul(discountPercent).Div(hundred)
	total := subtotal.Sub(discountAmount)
	gstAmount := total.Mul(GSTRate)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
		GSTAmount:      gstAmount,
		FinalTotal:     total.Add(gstAmount),
	}
}
