package engagement

import "time"

type CreateEngagementRequest struct {
	CustomerID        *string   `json:"customer_id,omitempty"`
	ScheduledAt       time.Time `json:"scheduled_at" validate:"required"`
	QuotationRequired bool      `json:"quotation_required"`
	Notes             string    `json:"notes,omitempty"`
}

type StageTransitionRequest struct {
	Stage   string `json:"stage" validate:"required"`
	Outcome string `json:"outcome,omitempty" validate:"omitempty,oneof=completed rejected"`
}

type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type ListEngagementsRequest struct {
	CustomerID *string     `json:"customer_id,omitempty"`
	CallStatus *CallStatus `json:"call_status,omitempty"`
	From       *time.Time  `json:"from,omitempty"`
	To         *time.Time  `json:"to,omitempty"`
	Limit      int         `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int         `json:"offset" validate:"gte=0"`
}
