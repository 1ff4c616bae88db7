package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gemdesk/gemdesk/internal/engagement"
)

// ReminderLead is how long before the call the reminder fires.
const ReminderLead = 5 * time.Minute

// Publisher enqueues workflow events and reminders. It implements the
// engagement engine's EventPublisher and ReminderScheduler ports.
type Publisher struct {
	client *asynq.Client
}

// NewPublisher constructs a Publisher over an Asynq client.
func NewPublisher(client *asynq.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishStageCompleted enqueues a stage event for consumers.
func (p *Publisher) PublishStageCompleted(ctx context.Context, evt engagement.StageCompletedEvent) error {
	task, err := NewStageEventTask(StageEventPayload{
		EngagementID: evt.EngagementID,
		CustomerID:   evt.CustomerID,
		Stage:        string(evt.Stage),
		Outcome:      string(evt.Outcome),
		At:           evt.At,
	})
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue stage event: %w", err)
	}
	return nil
}

// ScheduleReminder enqueues a reminder to fire shortly before the call.
// Calls already closer than the lead get the reminder immediately.
func (p *Publisher) ScheduleReminder(ctx context.Context, engagementID string, scheduledAt time.Time) error {
	task, err := NewCallReminderTask(CallReminderPayload{
		EngagementID: engagementID,
		ScheduledAt:  scheduledAt,
	})
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	if fireAt := scheduledAt.Add(-ReminderLead); time.Until(fireAt) > 0 {
		opts = append(opts, asynq.ProcessAt(fireAt))
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("jobs: enqueue call reminder: %w", err)
	}
	return nil
}

var (
	_ engagement.EventPublisher    = (*Publisher)(nil)
	_ engagement.ReminderScheduler = (*Publisher)(nil)
)
