package barcode

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gemdesk/gemdesk/internal/shared"
)

func TestGenerateSKUFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	sku := generateSKUAt("Necklaces", "Tanishq Jewels", now)

	require.True(t, strings.HasPrefix(sku, "NETAN260314"), sku)
	require.Len(t, sku, len("NETAN260314")+3)
}

func TestGenerateSKUStripsNonAlphanumerics(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	sku := generateSKUAt("e-Rings!", "D&G Co", now)
	require.True(t, strings.HasPrefix(sku, "ERDGC260102"), sku)
}

func TestPayloadRoundTrip(t *testing.T) {
	p := Generate(
		"NETAN260314042",
		"Gold Necklace 22k",
		"Necklaces",
		"Tanishq Jewels",
		decimal.NewFromInt(45000),
		decimal.NewFromFloat(41999.5),
		"hallmarked",
	)
	raw, err := Encode(p)
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "NETAN260314042", parsed.SKU)
	require.Equal(t, "Gold Necklace 22k", parsed.Name)
	require.Equal(t, "45000.00", parsed.MRP)
	require.Equal(t, "41999.50", parsed.Wholesale)
	require.Equal(t, "hallmarked", parsed.AdditionalData)
}

func TestParseSoftFails(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"{not json",
		`{"name":"no sku"}`,
		`{"sku":"X","name":"Y"}`,
	}
	for _, raw := range cases {
		_, err := Parse(raw)
		require.Error(t, err, raw)
		var parseErr *shared.ParseError
		require.ErrorAs(t, err, &parseErr, raw)
	}
}
