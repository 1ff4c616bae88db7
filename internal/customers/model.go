package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType governs discount ceilings and the default pricing tier.
type CustomerType string

const (
	TypeRetailer   CustomerType = "retailer"
	TypeWholesaler CustomerType = "wholesaler"
)

// Valid reports whether the type is a known tier.
func (t CustomerType) Valid() bool {
	return t == TypeRetailer || t == TypeWholesaler
}

// Customer is a buyer record. TotalPurchases and LastPurchaseDate are running
// aggregates updated transactionally when a quotation is accepted.
type Customer struct {
	ID               string          `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Email            *string         `json:"email,omitempty" db:"email"`
	Phone            string          `json:"phone" db:"phone"`
	Type             CustomerType    `json:"type" db:"type"`
	Address          *string         `json:"address,omitempty" db:"address"`
	City             *string         `json:"city,omitempty" db:"city"`
	State            *string         `json:"state,omitempty" db:"state"`
	TotalPurchases   decimal.Decimal `json:"total_purchases" db:"total_purchases"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date,omitempty" db:"last_purchase_date"`
	Version          int64           `json:"version" db:"version"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}
