package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskCallReminder fires shortly before a scheduled video call.
	TaskCallReminder = "engagement:reminder"
	// TaskStageEvent fans out a completed stage to downstream consumers.
	TaskStageEvent = "engagement:stage_event"
	// TaskOverdueScan flags engagements whose payment window has lapsed.
	TaskOverdueScan = "payments:overdue_scan"
	// TaskQuotationExpiry sweeps drafts past their validity window.
	TaskQuotationExpiry = "quotations:expire"
)

// CallReminderPayload identifies the engagement to remind about.
type CallReminderPayload struct {
	EngagementID string    `json:"engagement_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// StageEventPayload mirrors the workflow engine's stage completion event.
type StageEventPayload struct {
	EngagementID string    `json:"engagement_id"`
	CustomerID   *string   `json:"customer_id,omitempty"`
	Stage        string    `json:"stage"`
	Outcome      string    `json:"outcome"`
	At           time.Time `json:"at"`
}

// NewCallReminderTask constructs the reminder task.
func NewCallReminderTask(payload CallReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCallReminder, data), nil
}

// NewStageEventTask constructs the stage event task.
func NewStageEventTask(payload StageEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStageEvent, data), nil
}

// NewOverdueScanTask constructs the cron-driven overdue sweep task.
func NewOverdueScanTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueScan, nil)
}

// NewQuotationExpiryTask constructs the cron-driven expiry sweep task.
func NewQuotationExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskQuotationExpiry, nil)
}
