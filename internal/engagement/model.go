package engagement

import (
	"time"

	"github.com/gemdesk/gemdesk/internal/shared"
)

// Stage names one step of the post-call fulfillment pipeline.
type Stage string

const (
	StageVideoCall Stage = "video_call"
	StageQuotation Stage = "quotation"
	StageProfiling Stage = "profiling"
	StagePayment   Stage = "payment"
	StageQC        Stage = "qc"
	StagePackaging Stage = "packaging"
	StageDispatch  Stage = "dispatch"
)

// StageOrder is the valid logical progression. The stored map does not
// structurally prevent skipping; the engine enforces this order on every
// transition.
var StageOrder = []Stage{
	StageVideoCall,
	StageQuotation,
	StageProfiling,
	StagePayment,
	StageQC,
	StagePackaging,
	StageDispatch,
}

// StageStatus is the per-stage progress marker.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageRejected   StageStatus = "rejected"
)

// CallStatus tracks the session itself.
type CallStatus string

const (
	CallScheduled CallStatus = "scheduled"
	CallCompleted CallStatus = "completed"
	CallCancelled CallStatus = "cancelled"
)

// PaymentStatus is derived by wall-clock comparison against PaymentDueDate,
// never by a timer inside the engine.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// BillStatus tracks the billing document for quotation-required engagements.
type BillStatus string

const (
	BillPending   BillStatus = "pending"
	BillGenerated BillStatus = "generated"
	BillSent      BillStatus = "sent"
	BillPaid      BillStatus = "paid"
)

// DefaultPaymentDueOffset is how long after the scheduled call payment falls
// due when a quotation is required.
const DefaultPaymentDueOffset = 48 * time.Hour

// Engagement is a single remote sales session and its fulfillment pipeline.
type Engagement struct {
	ID                string                `json:"id" db:"id"`
	CustomerID        *string               `json:"customer_id,omitempty" db:"customer_id"`
	StaffID           string                `json:"staff_id" db:"staff_id"`
	ScheduledAt       time.Time             `json:"scheduled_at" db:"scheduled_at"`
	CallStatus        CallStatus            `json:"call_status" db:"call_status"`
	QuotationRequired bool                  `json:"quotation_required" db:"quotation_required"`
	PaymentDueDate    *time.Time            `json:"payment_due_date,omitempty" db:"payment_due_date"`
	PaymentStatus     PaymentStatus         `json:"payment_status" db:"payment_status"`
	BillStatus        BillStatus            `json:"bill_status" db:"bill_status"`
	Stages            map[Stage]StageStatus `json:"stage_status" db:"stage_status"`
	Notes             string                `json:"notes,omitempty" db:"notes"`
	Version           int64                 `json:"version" db:"version"`
	CreatedAt         time.Time             `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at" db:"updated_at"`
}

// newEngagement initialises every stage to pending and applies the
// payment-due invariant: a due date exists if and only if a quotation is
// required.
func newEngagement(id string, customerID *string, staffID string, scheduledAt time.Time, quotationRequired bool, notes string, dueOffset time.Duration) Engagement {
	e := Engagement{
		ID:                id,
		CustomerID:        customerID,
		StaffID:           staffID,
		ScheduledAt:       scheduledAt,
		CallStatus:        CallScheduled,
		QuotationRequired: quotationRequired,
		PaymentStatus:     PaymentPending,
		BillStatus:        BillPending,
		Stages:            make(map[Stage]StageStatus, len(StageOrder)),
		Notes:             notes,
		Version:           1,
	}
	for _, stage := range StageOrder {
		e.Stages[stage] = StagePending
	}
	if quotationRequired {
		due := scheduledAt.Add(dueOffset)
		e.PaymentDueDate = &due
	}
	return e
}

// Clone copies the snapshot so transitions never mutate the caller's view.
func (e Engagement) Clone() Engagement {
	out := e
	out.Stages = make(map[Stage]StageStatus, len(e.Stages))
	for k, v := range e.Stages {
		out.Stages[k] = v
	}
	return out
}

// Terminal reports whether the engagement accepts no further transitions:
// dispatch finished, or the call was cancelled.
func (e Engagement) Terminal() bool {
	return e.CallStatus == CallCancelled || e.Stages[StageDispatch] == StageCompleted
}

// ValidStage reports whether the name is one of the seven fixed stages.
func ValidStage(stage Stage) bool {
	for _, s := range StageOrder {
		if s == stage {
			return true
		}
	}
	return false
}

// startStage moves a stage from pending to in_progress. Every logically
// prior stage must already be completed; the stored map allows skipping but
// the engine does not.
func (e *Engagement) startStage(stage Stage) error {
	if !ValidStage(stage) {
		return shared.NewValidationError("stage", "unknown stage "+string(stage))
	}
	if e.Terminal() {
		return &shared.InvalidTransitionError{Stage: string(stage), From: string(e.Stages[stage]), Reason: "engagement is terminal"}
	}
	current := e.Stages[stage]
	if current != StagePending {
		return &shared.InvalidTransitionError{Stage: string(stage), From: string(current), Reason: "stage is not pending"}
	}
	for _, prior := range StageOrder {
		if prior == stage {
			break
		}
		if e.Stages[prior] != StageCompleted {
			return &shared.InvalidTransitionError{
				Stage:  string(stage),
				From:   string(current),
				Reason: "prior stage " + string(prior) + " is not completed",
			}
		}
	}
	e.Stages[stage] = StageInProgress
	return nil
}

// completeStage moves an in_progress stage to completed or rejected.
func (e *Engagement) completeStage(stage Stage, outcome StageStatus) error {
	if !ValidStage(stage) {
		return shared.NewValidationError("stage", "unknown stage "+string(stage))
	}
	if outcome != StageCompleted && outcome != StageRejected {
		return shared.NewValidationError("outcome", "must be completed or rejected")
	}
	if e.Terminal() {
		return &shared.InvalidTransitionError{Stage: string(stage), From: string(e.Stages[stage]), Reason: "engagement is terminal"}
	}
	current := e.Stages[stage]
	if current != StageInProgress {
		return &shared.InvalidTransitionError{Stage: string(stage), From: string(current), Reason: "stage is not in progress"}
	}
	e.Stages[stage] = outcome
	if stage == StageVideoCall && outcome == StageCompleted {
		e.CallStatus = CallCompleted
	}
	return nil
}

// reschedule returns the engagement to scheduled and recomputes the payment
// due date. Stages already completed keep their status.
func (e *Engagement) reschedule(newScheduledAt time.Time, dueOffset time.Duration) {
	e.ScheduledAt = newScheduledAt
	e.CallStatus = CallScheduled
	if e.QuotationRequired {
		due := newScheduledAt.Add(dueOffset)
		e.PaymentDueDate = &due
	} else {
		e.PaymentDueDate = nil
	}
}

// cancel freezes the engagement: pending stages become terminal no-ops and
// in_progress stages are forced to rejected.
func (e *Engagement) cancel() {
	e.CallStatus = CallCancelled
	for stage, status := range e.Stages {
		if status == StageInProgress {
			e.Stages[stage] = StageRejected
		}
	}
}

// DerivePaymentStatus computes the wall-clock payment state. Paid is sticky;
// pending flips to overdue once the due date passes.
func (e Engagement) DerivePaymentStatus(now time.Time) PaymentStatus {
	if e.PaymentStatus == PaymentPaid {
		return PaymentPaid
	}
	if e.PaymentDueDate != nil && now.After(*e.PaymentDueDate) {
		return PaymentOverdue
	}
	return PaymentPending
}
