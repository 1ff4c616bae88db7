package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/shared"
)

// CustomerPort is the slice of the customer module the engine needs: the
// existence check on creation.
type CustomerPort interface {
	Get(ctx context.Context, id string) (*customers.Customer, error)
}

// Service validates and applies engagement transitions. Every transition is
// computed on an in-memory clone first and persisted in one conditional
// write, so the caller sees either the new snapshot or no change at all.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	customers CustomerPort
	events    EventPublisher
	reminders ReminderScheduler
	audit     shared.AuditPort
	now       func() time.Time
	dueOffset time.Duration
}

// NewService builds the service. events, reminders and audit may be nil.
func NewService(logger *slog.Logger, repo Repository, customerPort CustomerPort, events EventPublisher, reminders ReminderScheduler, audit shared.AuditPort) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		customers: customerPort,
		events:    events,
		reminders: reminders,
		audit:     audit,
		now:       time.Now,
		dueOffset: DefaultPaymentDueOffset,
	}
}

// SetPaymentDue overrides the payment window applied to new and rescheduled
// engagements.
func (s *Service) SetPaymentDue(offset time.Duration) {
	if offset > 0 {
		s.dueOffset = offset
	}
}

// Create schedules a new engagement with all seven stages pending.
func (s *Service) Create(ctx context.Context, sess shared.Session, req CreateEngagementRequest) (*Engagement, error) {
	if !sess.Allow(shared.PermManageEngagements) {
		return nil, fmt.Errorf("%w: manage_video_calls required", shared.ErrForbidden)
	}
	if req.ScheduledAt.IsZero() {
		return nil, shared.NewValidationError("scheduled_at", "required")
	}
	if req.CustomerID != nil {
		if _, err := s.customers.Get(ctx, *req.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewValidationError("customer_id", "customer does not exist")
			}
			return nil, &shared.PersistenceError{Op: "engagement: verify customer", Err: err}
		}
	}

	e := newEngagement(uuid.NewString(), req.CustomerID, sess.StaffID, req.ScheduledAt, req.QuotationRequired, req.Notes, s.dueOffset)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	if s.reminders != nil {
		if err := s.reminders.ScheduleReminder(ctx, e.ID, e.ScheduledAt); err != nil {
			s.logger.Warn("schedule call reminder", slog.String("engagement_id", e.ID), slog.Any("error", err))
		}
	}
	s.record(ctx, sess, "engagement:create", e.ID, map[string]any{"quotation_required": e.QuotationRequired})
	return s.repo.Get(ctx, e.ID)
}

// StartStage transitions the named stage from pending to in_progress.
func (s *Service) StartStage(ctx context.Context, sess shared.Session, id string, stage Stage) (*Engagement, error) {
	if err := s.allowStage(sess, stage); err != nil {
		return nil, err
	}
	return s.transition(ctx, sess, id, "engagement:start_stage", func(e *Engagement) error {
		return e.startStage(stage)
	})
}

// CompleteStage transitions an in_progress stage to its outcome. Completing
// the quotation stage signals billing readiness over the event channel;
// completing dispatch makes the engagement terminal.
func (s *Service) CompleteStage(ctx context.Context, sess shared.Session, id string, stage Stage, outcome StageStatus) (*Engagement, error) {
	if err := s.allowStage(sess, stage); err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, sess, id, "engagement:complete_stage", func(e *Engagement) error {
		return e.completeStage(stage, outcome)
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		evt := StageCompletedEvent{
			EngagementID: updated.ID,
			CustomerID:   updated.CustomerID,
			Stage:        stage,
			Outcome:      outcome,
			At:           s.now(),
		}
		if err := s.events.PublishStageCompleted(ctx, evt); err != nil {
			s.logger.Warn("publish stage event", slog.String("engagement_id", id), slog.Any("error", err))
		}
	}
	return updated, nil
}

// Reschedule moves the session and recomputes the payment due date.
// Completed stages are not reset.
func (s *Service) Reschedule(ctx context.Context, sess shared.Session, id string, newScheduledAt time.Time) (*Engagement, error) {
	if !sess.Allow(shared.PermManageEngagements) {
		return nil, fmt.Errorf("%w: manage_video_calls required", shared.ErrForbidden)
	}
	if newScheduledAt.IsZero() {
		return nil, shared.NewValidationError("scheduled_at", "required")
	}
	updated, err := s.transition(ctx, sess, id, "engagement:reschedule", func(e *Engagement) error {
		if e.Terminal() {
			return &shared.InvalidTransitionError{Reason: "engagement is terminal"}
		}
		e.reschedule(newScheduledAt, s.dueOffset)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.reminders != nil {
		if err := s.reminders.ScheduleReminder(ctx, id, newScheduledAt); err != nil {
			s.logger.Warn("schedule call reminder", slog.String("engagement_id", id), slog.Any("error", err))
		}
	}
	return updated, nil
}

// Cancel freezes the engagement.
func (s *Service) Cancel(ctx context.Context, sess shared.Session, id string) (*Engagement, error) {
	if !sess.Allow(shared.PermManageEngagements) {
		return nil, fmt.Errorf("%w: manage_video_calls required", shared.ErrForbidden)
	}
	return s.transition(ctx, sess, id, "engagement:cancel", func(e *Engagement) error {
		if e.Terminal() {
			return &shared.InvalidTransitionError{Reason: "engagement is terminal"}
		}
		e.cancel()
		return nil
	})
}

// MarkBill records billing progress reported back by the quotation engine.
func (s *Service) MarkBill(ctx context.Context, id string, status BillStatus) (*Engagement, error) {
	return s.transition(ctx, shared.Session{}, id, "", func(e *Engagement) error {
		e.BillStatus = status
		return nil
	})
}

// MarkPaymentPaid settles payment for the engagement.
func (s *Service) MarkPaymentPaid(ctx context.Context, sess shared.Session, id string) (*Engagement, error) {
	if !sess.Allow(shared.PermManageEngagements) {
		return nil, fmt.Errorf("%w: manage_video_calls required", shared.ErrForbidden)
	}
	return s.transition(ctx, sess, id, "engagement:payment_paid", func(e *Engagement) error {
		e.PaymentStatus = PaymentPaid
		return nil
	})
}

// SweepOverdue persists the overdue flag for engagements whose payment
// window has lapsed. Called by the background scan; a lost race on any single
// engagement is skipped, the next sweep picks it up.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}
	flagged := 0
	for _, e := range overdue {
		next := e.Clone()
		next.PaymentStatus = PaymentOverdue
		if err := s.repo.Update(ctx, next, e.Version); err != nil {
			var conflict *shared.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			return flagged, err
		}
		flagged++
	}
	return flagged, nil
}

// Get returns one engagement with payment status derived against the clock.
func (s *Service) Get(ctx context.Context, id string) (*Engagement, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e.PaymentStatus = e.DerivePaymentStatus(s.now())
	return e, nil
}

// List returns engagements matching the filter, payment status derived.
func (s *Service) List(ctx context.Context, req ListEngagementsRequest) ([]Engagement, int, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	now := s.now()
	for i := range items {
		items[i].PaymentStatus = items[i].DerivePaymentStatus(now)
	}
	return items, total, nil
}

// Delete removes an engagement and cascades to its quotations, mirroring the
// back-office cleanup flow.
func (s *Service) Delete(ctx context.Context, sess shared.Session, id string) error {
	if !sess.Allow(shared.PermManageEngagements) {
		return fmt.Errorf("%w: manage_video_calls required", shared.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, sess, "engagement:delete", id, nil)
	return nil
}

// transition loads a snapshot, applies fn to a clone and writes the result
// conditioned on the version it read. A lost race surfaces as ConflictError
// with nothing applied.
func (s *Service) transition(ctx context.Context, sess shared.Session, id, action string, fn func(*Engagement) error) (*Engagement, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, next, current.Version); err != nil {
		return nil, err
	}
	if action != "" {
		s.record(ctx, sess, action, id, map[string]any{"stage_status": next.Stages})
	}
	next.Version = current.Version + 1
	return &next, nil
}

func (s *Service) allowStage(sess shared.Session, stage Stage) error {
	perm := shared.PermManageEngagements
	switch stage {
	case StageQC:
		perm = shared.PermManageQC
	case StagePackaging:
		perm = shared.PermManagePackaging
	case StageDispatch:
		perm = shared.PermManageDispatch
	case StageQuotation:
		perm = shared.PermManageQuotations
	}
	if !sess.Allow(perm) {
		return fmt.Errorf("%w: %s required", shared.ErrForbidden, perm)
	}
	return nil
}

func (s *Service) record(ctx context.Context, sess shared.Session, action, id string, meta map[string]any) {
	if s.audit == nil || action == "" {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  sess.StaffID,
		Action:   action,
		Entity:   "engagement",
		EntityID: id,
		Meta:     meta,
	})
}
