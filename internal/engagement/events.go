package engagement

import (
	"context"
	"time"
)

// StageCompletedEvent is emitted whenever a stage finishes. The quotation
// engine consumes the quotation-stage event to open billing; no component
// calls another directly.
type StageCompletedEvent struct {
	EngagementID string      `json:"engagement_id"`
	CustomerID   *string     `json:"customer_id,omitempty"`
	Stage        Stage       `json:"stage"`
	Outcome      StageStatus `json:"outcome"`
	At           time.Time   `json:"at"`
}

// EventPublisher is the side channel for stage completion. The production
// implementation enqueues an asynq task.
type EventPublisher interface {
	PublishStageCompleted(ctx context.Context, evt StageCompletedEvent) error
}

// ReminderScheduler books a call reminder shortly before the scheduled time.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, engagementID string, scheduledAt time.Time) error
}
