package quotation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gemdesk/gemdesk/internal/customers"
)

// Status is the lifecycle of a quotation. Drafts are the only mutable state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// LineItem snapshots the product at the moment it was quoted. Later price or
// name changes on the catalog do not rewrite open quotations.
type LineItem struct {
	ProductID    string          `json:"product_id" db:"product_id"`
	SKU          string          `json:"sku" db:"sku"`
	Name         string          `json:"name" db:"name"`
	Category     string          `json:"category" db:"category"`
	Manufacturer string          `json:"manufacturer" db:"manufacturer"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total" db:"line_total"`
}

// Totals is the derived money breakdown of a quotation.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	GSTAmount      decimal.Decimal `json:"gst_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
}

// Quotation is a priced offer tied to an optional engagement. Totals are
// recomputed on every mutation, never patched incrementally.
type Quotation struct {
	ID               string                 `json:"id" db:"id"`
	Number           string                 `json:"number" db:"number"`
	EngagementID     *string                `json:"engagement_id,omitempty" db:"engagement_id"`
	CustomerID       *string                `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName     string                 `json:"customer_name" db:"customer_name"`
	CustomerType     customers.CustomerType `json:"customer_type" db:"customer_type"`
	Items            []LineItem             `json:"items" db:"items"`
	DiscountPercent  decimal.Decimal        `json:"discount_percent" db:"discount_percent"`
	Totals           Totals                 `json:"totals"`
	AdvancedUnlocked bool                   `json:"advanced_unlocked" db:"advanced_unlocked"`
	Status           Status                 `json:"status" db:"status"`
	ValidUntil       time.Time              `json:"valid_until" db:"valid_until"`
	Notes            string                 `json:"notes,omitempty" db:"notes"`
	CreatedBy        string                 `json:"created_by" db:"created_by"`
	Version          int64                  `json:"version" db:"version"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
}

// Clone deep-copies the quotation so transitions can be computed without
// touching the stored value.
func (q Quotation) Clone() Quotation {
	out := q
	out.Items = make([]LineItem, len(q.Items))
	copy(out.Items, q.Items)
	return out
}

// Editable reports whether the quotation still accepts mutations.
func (q Quotation) Editable() bool {
	return q.Status == StatusDraft
}

// Recalculate rebuilds every line total and the money breakdown from the
// current items and discount.
func (q *Quotation) Recalculate() {
	for i := range q.Items {
		q.Items[i].LineTotal = q.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(q.Items[i].Quantity)))
	}
	q.Totals = CalculateTotals(q.Items, q.DiscountPercent)
}

func (q *Quotation) findItem(productID string) int {
	for i := range q.Items {
		if q.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
