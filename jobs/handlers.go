package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gemdesk/gemdesk/internal/engagement"
	"github.com/gemdesk/gemdesk/internal/quotation"
)

// Handlers binds task processing to the domain services.
type Handlers struct {
	logger      *slog.Logger
	engagements *engagement.Service
	quotations  *quotation.Service
}

// NewHandlers constructs the task handler set.
func NewHandlers(logger *slog.Logger, engagements *engagement.Service, quotations *quotation.Service) *Handlers {
	return &Handlers{logger: logger, engagements: engagements, quotations: quotations}
}

// HandleCallReminder logs the upcoming call. Notification delivery channels
// hang off this handler.
func (h *Handlers) HandleCallReminder(ctx context.Context, t *asynq.Task) error {
	var payload CallReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	e, err := h.engagements.Get(ctx, payload.EngagementID)
	if err != nil {
		// The engagement may have been cancelled or deleted since scheduling.
		h.logger.Info("reminder skipped", slog.String("engagement_id", payload.EngagementID), slog.Any("error", err))
		return nil
	}
	if e.CallStatus != engagement.CallScheduled {
		return nil
	}
	h.logger.Info("video call reminder",
		slog.String("engagement_id", e.ID),
		slog.Time("scheduled_at", e.ScheduledAt))
	return nil
}

// HandleStageEvent consumes stage completion events. Completing the quotation
// stage means a bill document now exists, which the workflow records.
func (h *Handlers) HandleStageEvent(ctx context.Context, t *asynq.Task) error {
	var payload StageEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	h.logger.Info("stage completed",
		slog.String("engagement_id", payload.EngagementID),
		slog.String("stage", payload.Stage),
		slog.String("outcome", payload.Outcome))
	if payload.Stage == string(engagement.StageQuotation) && payload.Outcome == string(engagement.StageCompleted) {
		if _, err := h.engagements.MarkBill(ctx, payload.EngagementID, engagement.BillGenerated); err != nil {
			// Marking twice is harmless; a vanished engagement is not a retryable fault.
			h.logger.Warn("mark bill", slog.String("engagement_id", payload.EngagementID), slog.Any("error", err))
		}
	}
	return nil
}

// HandleOverdueScan flags lapsed payment windows.
func (h *Handlers) HandleOverdueScan(ctx context.Context, _ *asynq.Task) error {
	flagged, err := h.engagements.SweepOverdue(ctx)
	if err != nil {
		return err
	}
	if flagged > 0 {
		h.logger.Info("payments flagged overdue", slog.Int("count", flagged))
	}
	return nil
}

// HandleQuotationExpiry sweeps drafts past their validity window.
func (h *Handlers) HandleQuotationExpiry(ctx context.Context, _ *asynq.Task) error {
	expired, err := h.quotations.ExpireStale(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		h.logger.Info("quotations expired", slog.Int64("count", expired))
	}
	return nil
}
