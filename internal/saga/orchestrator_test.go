package saga

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/lifecycle"
	"github.com/warehousekit/contractd/internal/store"
)

type fakeScheduler struct {
	mu        sync.Mutex
	pending   map[uuid.UUID]uuid.UUID // token -> correlation id
	cancelled []uuid.UUID
	failNext  error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: map[uuid.UUID]uuid.UUID{}}
}

func (f *fakeScheduler) ScheduleAfter(_ context.Context, _ time.Duration, correlationID uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return uuid.Nil, err
	}
	token := uuid.New()
	f.pending[token] = correlationID
	return token, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, token uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, token)
	f.cancelled = append(f.cancelled, token)
	return nil
}

func (f *fakeScheduler) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

type capturePublisher struct {
	mu   sync.Mutex
	msgs []bus.Message
}

func (p *capturePublisher) Publish(_ context.Context, _ string, msg bus.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *capturePublisher) published() []bus.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bus.Message(nil), p.msgs...)
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *store.SagaStore, *fakeScheduler, *capturePublisher) {
	t.Helper()
	st, err := store.OpenSagaStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sched := newFakeScheduler()
	pub := &capturePublisher{}
	return NewOrchestrator(st, sched, pub, time.Hour), st, sched, pub
}

func createEvent(id uuid.UUID) lifecycle.Event {
	return lifecycle.Event{
		Kind:          lifecycle.EvCreateContract,
		CorrelationID: id,
		WarehouseID:   uuid.New(),
		ManagerID:     uuid.New(),
		ScheduledFor:  time.Now().UTC().Add(24 * time.Hour),
	}
}

func TestOrchestrator_CreateSchedulesTimeout(t *testing.T) {
	orch, st, sched, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))

	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCreated, rec.CurrentState)
	require.NotNil(t, rec.TimeoutToken)
	require.Equal(t, 1, sched.pendingCount())
}

func TestOrchestrator_ActivityRotatesToken(t *testing.T) {
	orch, st, sched, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	first, err := st.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvAddLine, CorrelationID: id}))
	second, err := st.Get(ctx, id)
	require.NoError(t, err)

	require.Equal(t, lifecycle.StateLinesAdded, second.CurrentState)
	require.NotNil(t, second.TimeoutToken)
	require.NotEqual(t, *first.TimeoutToken, *second.TimeoutToken)
	require.Contains(t, sched.cancelled, *first.TimeoutToken)
	require.Equal(t, 1, sched.pendingCount(), "exactly one timer outstanding after reschedule")
}

func TestOrchestrator_StartCancelsTimeout(t *testing.T) {
	orch, st, sched, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvStart, CorrelationID: id}))

	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateInProgress, rec.CurrentState)
	require.Nil(t, rec.TimeoutToken)
	require.Zero(t, sched.pendingCount())
}

func TestOrchestrator_CompleteFinalizes(t *testing.T) {
	orch, st, _, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvStart, CorrelationID: id}))
	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvComplete, CorrelationID: id}))

	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCompleted, rec.CurrentState)
	require.True(t, rec.Finalized)
	require.NotNil(t, rec.CompletedAt)

	// Finalized instances ignore every further event.
	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvCancel, CorrelationID: id}))
	rec, err = st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCompleted, rec.CurrentState)
}

func TestOrchestrator_TimeoutAutoCancels(t *testing.T) {
	orch, st, _, pub := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	token := *rec.TimeoutToken

	require.NoError(t, orch.Handle(ctx, lifecycle.Event{
		Kind:          lifecycle.EvTimeoutExpired,
		CorrelationID: id,
		Token:         token,
	}))

	rec, err = st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCancelled, rec.CurrentState)
	require.True(t, rec.Finalized)
	require.Nil(t, rec.TimeoutToken)

	msgs := pub.published()
	require.Len(t, msgs, 1)
	cancel, ok := msgs[0].(command.Cancel)
	require.True(t, ok)
	require.Equal(t, id, cancel.ContractID)
}

func TestOrchestrator_StaleTokenDropped(t *testing.T) {
	orch, st, _, pub := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	require.NoError(t, orch.Handle(ctx, lifecycle.Event{
		Kind:          lifecycle.EvTimeoutExpired,
		CorrelationID: id,
		Token:         uuid.New(), // never issued for the current window
	}))

	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCreated, rec.CurrentState)
	require.Empty(t, pub.published())
}

func TestOrchestrator_UnknownCorrelationDropped(t *testing.T) {
	orch, st, _, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvStart, CorrelationID: id}))

	_, err := st.Get(ctx, id)
	require.ErrorIs(t, err, contract.ErrNotFound)
}

func TestOrchestrator_ScheduleFailureLeavesStateUntouched(t *testing.T) {
	orch, st, sched, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	sched.failNext = errors.New("redis down")
	require.Error(t, orch.Handle(ctx, createEvent(id)))

	_, err := st.Get(ctx, id)
	require.ErrorIs(t, err, contract.ErrNotFound, "failed step must not persist")

	// Redelivery succeeds once the scheduler is back.
	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCreated, rec.CurrentState)
}

func TestOrchestrator_ScheduleFailureKeepsStoredRecord(t *testing.T) {
	orch, st, sched, _ := newTestOrchestrator(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, orch.Handle(ctx, createEvent(id)))
	before, err := st.Get(ctx, id)
	require.NoError(t, err)

	sched.failNext = errors.New("redis down")
	require.Error(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvAddLine, CorrelationID: id}))

	after, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCreated, after.CurrentState, "aborted step must not advance the state")
	require.Equal(t, *before.TimeoutToken, *after.TimeoutToken, "aborted step must not rotate the token")

	// Redelivery succeeds once the scheduler is back.
	require.NoError(t, orch.Handle(ctx, lifecycle.Event{Kind: lifecycle.EvAddLine, CorrelationID: id}))
	rec, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateLinesAdded, rec.CurrentState)
}
