package quotation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func items(unitPrice string, qty int) []LineItem {
	return []LineItem{{
		ProductID: "p-1",
		UnitPrice: decimal.RequireFromString(unitPrice),
		Quantity:  qty,
	}}
}

func TestCalculateTotalsNoDiscount(t *testing.T) {
	totals := CalculateTotals(items("1000", 2), decimal.Zero)

	require.True(t, totals.Subtotal.Equal(decimal.NewFromInt(2000)), totals.Subtotal)
	require.True(t, totals.DiscountAmount.IsZero(), totals.DiscountAmount)
	require.True(t, totals.Total.Equal(decimal.NewFromInt(2000)), totals.Total)
	require.True(t, totals.GSTAmount.Equal(decimal.NewFromInt(360)), totals.GSTAmount)
	require.True(t, totals.FinalTotal.Equal(decimal.NewFromInt(2360)), totals.FinalTotal)
}

func TestCalculateTotalsTenPercent(t *testing.T) {
	totals := CalculateTotals(items("1000", 2), decimal.NewFromInt(10))

	require.True(t, totals.DiscountAmount.Equal(decimal.NewFromInt(200)), totals.DiscountAmount)
	require.True(t, totals.Total.Equal(decimal.NewFromInt(1800)), totals.Total)
	require.True(t, totals.GSTAmount.Equal(decimal.NewFromInt(324)), totals.GSTAmount)
	require.True(t, totals.FinalTotal.Equal(decimal.NewFromInt(2124)), totals.FinalTotal)
}

func TestCalculateTotalsEmpty(t *testing.T) {
	totals := CalculateTotals(nil, decimal.Zero)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.FinalTotal.IsZero())
}

func TestCalculateTotalsMultipleLines(t *testing.T) {
	lines := []LineItem{
		{ProductID: "p-1", UnitPrice: decimal.RequireFromString("499.50"), Quantity: 2},
		{ProductID: "p-2", UnitPrice: decimal.RequireFromString("1250.25"), Quantity: 1},
	}
	totals := CalculateTotals(lines, decimal.NewFromInt(5))

	// 999.00 + 1250.25 = 2249.25; 5% off = 112.4625
	require.True(t, totals.Subtotal.Equal(decimal.RequireFromString("2249.25")), totals.Subtotal)
	require.True(t, totals.DiscountAmount.Equal(decimal.RequireFromString("112.4625")), totals.DiscountAmount)
	require.True(t, totals.FinalTotal.Equal(totals.Total.Add(totals.GSTAmount)))
}

func TestFinalTotalDecreasesAsDiscountGrows(t *testing.T) {
	prev := CalculateTotals(items("1000", 2), decimal.Zero).FinalTotal
	for pct := 1; pct <= 100; pct++ {
		cur := CalculateTotals(items("1000", 2), decimal.NewFromInt(int64(pct))).FinalTotal
		require.True(t, cur.LessThan(prev), "discount %d%%", pct)
		prev = cur
	}
	require.True(t, prev.IsZero())
}

func TestRecalculateIsDeterministic(t *testing.T) {
	q := Quotation{
		Items: []LineItem{
			{ProductID: "p-1", UnitPrice: decimal.RequireFromString("33333.33"), Quantity: 3},
		},
		DiscountPercent: decimal.RequireFromString("2.5"),
	}
	q.Recalculate()
	first := q.Totals
	for i := 0; i < 10; i++ {
		q.Recalculate()
		require.True(t, q.Totals.FinalTotal.Equal(first.FinalTotal))
		require.True(t, q.Totals.GSTAmount.Equal(first.GSTAmount))
	}
	require.True(t, q.Items[0].LineTotal.Equal(decimal.RequireFromString("99999.99")))
}
