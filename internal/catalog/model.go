package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry with three strictly increasing price points.
// StockLevel is decremented when quotations are accepted and never drops
// below zero.
type Product struct {
	ID             string          `json:"id" db:"id"`
	SKU            string          `json:"sku" db:"sku"`
	Name           string          `json:"name" db:"name"`
	Category       string          `json:"category" db:"category"`
	Manufacturer   string          `json:"manufacturer" db:"manufacturer"`
	BuyPrice       decimal.Decimal `json:"buy_price" db:"buy_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" db:"wholesale_price"`
	RetailPrice    decimal.Decimal `json:"retail_price" db:"retail_price"`
	StockLevel     int             `json:"stock_level" db:"stock_level"`
	AdditionalInfo string          `json:"additional_info,omitempty" db:"additional_info"`
	BarcodePayload string          `json:"barcode_payload,omitempty" db:"barcode_payload"`
	Version        int64           `json:"version" db:"version"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}
