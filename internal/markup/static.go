package markup

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// StaticLookup resolves markups from fixed tables. Used in tests and as a
// fallback when no rule store is configured.
type StaticLookup struct {
	Manufacturers map[string]decimal.Decimal
	Categories    map[string]decimal.Decimal
}

// GetMarkup implements Lookup with manufacturer precedence.
func (s StaticLookup) GetMarkup(_ context.Context, manufacturer, category string) (decimal.Decimal, error) {
	if f, ok := s.Manufacturers[strings.ToLower(manufacturer)]; ok {
		return f, nil
	}
	if f, ok := s.Categories[strings.ToLower(category)]; ok {
		return f, nil
	}
	return decimal.Zero, nil
}
