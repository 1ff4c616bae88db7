package markup

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStaticLookupPrecedence(t *testing.T) {
	lookup := StaticLookup{
		Manufacturers: map[string]decimal.Decimal{
			"tanishq": decimal.NewFromFloat(0.25),
		},
		Categories: map[string]decimal.Decimal{
			"rings": decimal.NewFromFloat(0.15),
		},
	}
	ctx := context.Background()

	f, err := lookup.GetMarkup(ctx, "Tanishq", "Rings")
	require.NoError(t, err)
	require.True(t, f.Equal(decimal.NewFromFloat(0.25)), "manufacturer rule wins")

	f, err = lookup.GetMarkup(ctx, "Unknown", "Rings")
	require.NoError(t, err)
	require.True(t, f.Equal(decimal.NewFromFloat(0.15)))

	f, err = lookup.GetMarkup(ctx, "Unknown", "Unknown")
	require.NoError(t, err)
	require.True(t, f.IsZero())
}
