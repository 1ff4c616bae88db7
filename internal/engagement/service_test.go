package engagement

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gemdesk/gemdesk/internal/customers"
	"github.com/gemdesk/gemdesk/internal/shared"
)

type memoryRepo struct {
	items map[string]Engagement
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]Engagement)}
}

func (r *memoryRepo) Create(_ context.Context, e Engagement) error {
	r.items[e.ID] = e.Clone()
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id string) (*Engagement, error) {
	e, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := e.Clone()
	return &out, nil
}

func (r *memoryRepo) List(_ context.Context, _ ListEngagementsRequest) ([]Engagement, int, error) {
	var out []Engagement
	for _, e := range r.items {
		out = append(out, e.Clone())
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(_ context.Context, e Engagement, expectedVersion int64) error {
	current, ok := r.items[e.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Version != expectedVersion {
		return &shared.ConflictError{Entity: "engagement", ID: e.ID}
	}
	next := e.Clone()
	next.Version = expectedVersion + 1
	r.items[e.ID] = next
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) ListOverdue(_ context.Context) ([]Engagement, error) {
	return nil, nil
}

type memoryCustomers struct {
	known map[string]bool
}

func (c memoryCustomers) Get(_ context.Context, id string) (*customers.Customer, error) {
	if !c.known[id] {
		return nil, shared.ErrNotFound
	}
	return &customers.Customer{ID: id, Type: customers.TypeRetailer}, nil
}

type capturedEvents struct {
	events []StageCompletedEvent
}

func (c *capturedEvents) PublishStageCompleted(_ context.Context, evt StageCompletedEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func testService(t *testing.T) (*Service, *memoryRepo, *capturedEvents) {
	t.Helper()
	repo := newMemoryRepo()
	events := &capturedEvents{}
	svc := NewService(
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
		repo,
		memoryCustomers{known: map[string]bool{"cust-1": true}},
		events,
		nil,
		nil,
	)
	return svc, repo, events
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func managerSession() shared.Session {
	return shared.NewSession("staff-1", "Asha", shared.RoleAdmin)
}

func TestCreateInitialisesAllStagesPending(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	custID := "cust-1"

	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{
		CustomerID:        &custID,
		ScheduledAt:       time.Now().Add(24 * time.Hour),
		QuotationRequired: true,
	})
	require.NoError(t, err)
	require.Len(t, e.Stages, len(StageOrder))
	for _, stage := range StageOrder {
		require.Equal(t, StagePending, e.Stages[stage], stage)
	}
	require.Equal(t, CallScheduled, e.CallStatus)
	require.NotNil(t, e.PaymentDueDate)
	require.Equal(t, e.ScheduledAt.Add(48*time.Hour), *e.PaymentDueDate)
}

func TestCreateWithoutQuotationHasNoDueDate(t *testing.T) {
	svc, _, _ := testService(t)

	e, err := svc.Create(context.Background(), managerSession(), CreateEngagementRequest{
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Nil(t, e.PaymentDueDate)
}

func TestCreateRejectsUnknownCustomer(t *testing.T) {
	svc, _, _ := testService(t)
	bogus := "cust-404"

	_, err := svc.Create(context.Background(), managerSession(), CreateEngagementRequest{
		CustomerID:  &bogus,
		ScheduledAt: time.Now().Add(time.Hour),
	})
	var validationErr *shared.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestStartStageRequiresPriorCompleted(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{ScheduledAt: time.Now()})
	require.NoError(t, err)

	_, err = svc.StartStage(ctx, managerSession(), e.ID, StageQuotation)
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	_, err = svc.StartStage(ctx, managerSession(), e.ID, StageVideoCall)
	require.NoError(t, err)
}

func TestStartStageRejectsNonPending(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{ScheduledAt: time.Now()})
	require.NoError(t, err)

	_, err = svc.StartStage(ctx, managerSession(), e.ID, StageVideoCall)
	require.NoError(t, err)
	_, err = svc.StartStage(ctx, managerSession(), e.ID, StageVideoCall)
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func advanceThrough(t *testing.T, svc *Service, id string, last Stage) {
	t.Helper()
	ctx := context.Background()
	for _, stage := range StageOrder {
		_, err := svc.StartStage(ctx, managerSession(), id, stage)
		require.NoError(t, err, stage)
		_, err = svc.CompleteStage(ctx, managerSession(), id, stage, StageCompleted)
		require.NoError(t, err, stage)
		if stage == last {
			return
		}
	}
}

func TestQuotationCompletionEmitsEvent(t *testing.T) {
	svc, _, events := testService(t)
	e, err := svc.Create(context.Background(), managerSession(), CreateEngagementRequest{ScheduledAt: time.Now(), QuotationRequired: true})
	require.NoError(t, err)

	advanceThrough(t, svc, e.ID, StageQuotation)

	require.Len(t, events.events, 2)
	require.Equal(t, StageQuotation, events.events[1].Stage)
	require.Equal(t, StageCompleted, events.events[1].Outcome)
}

func TestDispatchCompletionIsTerminal(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{ScheduledAt: time.Now()})
	require.NoError(t, err)

	advanceThrough(t, svc, e.ID, StageDispatch)

	updated, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, updated.Terminal())

	_, err = svc.StartStage(ctx, managerSession(), e.ID, StageVideoCall)
	var transitionErr *shared.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	_, err = svc.Cancel(ctx, managerSession(), e.ID)
	require.ErrorAs(t, err, &transitionErr)
}

func TestCancelForcesInProgressToRejected(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{ScheduledAt: time.Now()})
	require.NoError(t, err)

	_, err = svc.StartStage(ctx, managerSession(), e.ID, StageVideoCall)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, managerSession(), e.ID)
	require.NoError(t, err)
	require.Equal(t, CallCancelled, cancelled.CallStatus)
	require.Equal(t, StageRejected, cancelled.Stages[StageVideoCall])
	require.Equal(t, StagePending, cancelled.Stages[StageQuotation])
	require.True(t, cancelled.Terminal())
}

func TestRescheduleKeepsCompletedStages(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{ScheduledAt: time.Now(), QuotationRequired: true})
	require.NoError(t, err)

	advanceThrough(t, svc, e.ID, StageVideoCall)

	newTime := time.Now().Add(72 * time.Hour)
	updated, err := svc.Reschedule(ctx, managerSession(), e.ID, newTime)
	require.NoError(t, err)
	require.Equal(t, CallScheduled, updated.CallStatus)
	require.Equal(t, StageCompleted, updated.Stages[StageVideoCall])
	require.NotNil(t, updated.PaymentDueDate)
	require.Equal(t, newTime.Add(48*time.Hour), *updated.PaymentDueDate)
}

func TestConflictErrorOnConcurrentWrite(t *testing.T) {
	repo := newMemoryRepo()
	e := newEngagement("e-1", nil, "staff-1", time.Now(), false, "", DefaultPaymentDueOffset)
	require.NoError(t, repo.Create(context.Background(), e))

	err := repo.Update(context.Background(), e, 99)
	var conflictErr *shared.ConflictError
	require.ErrorAs(t, err, &conflictErr)
}

func TestDerivePaymentStatus(t *testing.T) {
	due := time.Now().Add(-time.Hour)
	e := Engagement{PaymentStatus: PaymentPending, PaymentDueDate: &due}
	require.Equal(t, PaymentOverdue, e.DerivePaymentStatus(time.Now()))

	e.PaymentStatus = PaymentPaid
	require.Equal(t, PaymentPaid, e.DerivePaymentStatus(time.Now()))

	future := time.Now().Add(time.Hour)
	e = Engagement{PaymentStatus: PaymentPending, PaymentDueDate: &future}
	require.Equal(t, PaymentPending, e.DerivePaymentStatus(time.Now()))
}

func TestStagePermissions(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	e, err := svc.Create(ctx, managerSession(), CreateEngagementRequest{ScheduledAt: time.Now()})
	require.NoError(t, err)

	qcSess := shared.NewSession("staff-2", "Ravi", shared.RoleQC)
	_, err = svc.StartStage(ctx, qcSess, e.ID, StageVideoCall)
	require.ErrorIs(t, err, shared.ErrForbidden)
}
