package quotation

type CreateQuotationRequest struct {
	EngagementID *string `json:"engagement_id,omitempty"`
	CustomerID   *string `json:"customer_id,omitempty"`
	CustomerName string  `json:"customer_name" validate:"required,max=200"`
	CustomerType string  `json:"customer_type" validate:"required,oneof=retailer wholesaler"`
	Notes        string  `json:"notes,omitempty" validate:"max=2000"`
}

type AddLineItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type UpdateQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Delta     int    `json:"delta" validate:"required"`
}

type RemoveLineItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type SetDiscountRequest struct {
	Percent string `json:"percent" validate:"required"`
}

type UnlockDiscountRequest struct {
	Secret string `json:"secret" validate:"required"`
}

type ListQuotationsRequest struct {
	Status       *Status `json:"status,omitempty"`
	CustomerID   *string `json:"customer_id,omitempty"`
	EngagementID *string `json:"engagement_id,omitempty"`
	Limit        int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset       int     `json:"offset" validate:"gte=0"`
}

// DiscountOptions is what the UI renders for the discount picker.
type DiscountOptions struct {
	Max     string `json:"max"`
	Presets []int  `json:"presets"`
}
