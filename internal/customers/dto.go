package customers

import "time"

type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   string  `json:"phone" validate:"required,max=20"`
	Type    string  `json:"type" validate:"required,oneof=retailer wholesaler"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Type    *string `json:"type,omitempty" validate:"omitempty,oneof=retailer wholesaler"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
}

type ListCustomersRequest struct {
	Type   *CustomerType `json:"type,omitempty"`
	Search string        `json:"search,omitempty"`
	Limit  int           `json:"limit" validate:"gte=0,lte=1000"`
	Offset int           `json:"offset" validate:"gte=0"`
}

type PurchaseApplication struct {
	CustomerID string
	Amount     string
	At         time.Time
}
