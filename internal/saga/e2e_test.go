package saga

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/lifecycle"
	"github.com/warehousekit/contractd/internal/persistence/sqlite"
	"github.com/warehousekit/contractd/internal/service"
	"github.com/warehousekit/contractd/internal/store"
)

// harness wires the full asynchronous pipeline the daemon runs: memory
// bus, command consumer applying the aggregate, and the saga consumer
// driving the lifecycle, with a fake scheduler instead of Redis.
type harness struct {
	bus   *bus.MemoryBus
	svc   *service.Contracts
	store *store.SagaStore
	sched *fakeScheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "contracts.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := sqlite.NewContractRepository(db)
	require.NoError(t, err)

	st, err := store.OpenSagaStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	h := &harness{
		bus:   bus.NewMemoryBus(),
		svc:   service.NewContracts(repo),
		store: st,
		sched: newFakeScheduler(),
	}

	orch := NewOrchestrator(st, h.sched, h.bus, time.Hour)

	// The memory bus drops messages published before anyone subscribes,
	// so wait until both consumers (three subscriptions: commands for the
	// service, commands and timeouts for the saga) are attached before
	// letting tests publish.
	rb := &readyBus{MemoryBus: h.bus, subscribed: make(chan struct{}, 3)}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = service.NewConsumer(h.svc, rb).Run(ctx) }()
	go func() { _ = NewConsumer(orch, rb).Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-rb.subscribed:
		case <-time.After(5 * time.Second):
			t.Fatal("consumers never subscribed to the bus")
		}
	}

	return h
}

// readyBus signals each successful subscription so the harness can block
// until the consumers are attached.
type readyBus struct {
	*bus.MemoryBus
	subscribed chan struct{}
}

func (b *readyBus) Subscribe(ctx context.Context, topic string) (bus.Subscriber, error) {
	sub, err := b.MemoryBus.Subscribe(ctx, topic)
	if err == nil {
		b.subscribed <- struct{}{}
	}
	return sub, err
}

func (h *harness) publish(t *testing.T, msg bus.Message) {
	t.Helper()
	require.NoError(t, h.bus.Publish(context.Background(), bus.TopicCommands, msg))
}

func (h *harness) waitForState(t *testing.T, id uuid.UUID, want lifecycle.State) *lifecycle.SagaState {
	t.Helper()
	var rec *lifecycle.SagaState
	require.Eventually(t, func() bool {
		got, err := h.store.Get(context.Background(), id)
		if err != nil {
			return false
		}
		rec = got
		return got.CurrentState == want
	}, 5*time.Second, 10*time.Millisecond, "saga never reached %s", want)
	return rec
}

func (h *harness) waitForStatus(t *testing.T, id uuid.UUID, want contract.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		c, err := h.svc.Get(context.Background(), id)
		return err == nil && c.Status() == want
	}, 5*time.Second, 10*time.Millisecond, "aggregate never reached %s", want)
}

func TestPipeline_HappyPath(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()

	h.publish(t, command.CreateContract{
		CorrelationID: id,
		ContractID:    id,
		WarehouseID:   uuid.New(),
		ManagerID:     uuid.New(),
		ScheduledFor:  time.Now().UTC().Add(24 * time.Hour),
	})
	h.waitForState(t, id, lifecycle.StateCreated)
	h.waitForStatus(t, id, contract.StatusPending)

	h.publish(t, command.AddLine{
		CorrelationID: id, ContractID: id, ProductID: uuid.New(), Quantity: 3,
	})
	h.waitForState(t, id, lifecycle.StateLinesAdded)

	h.publish(t, command.Start{CorrelationID: id, ContractID: id})
	h.waitForState(t, id, lifecycle.StateInProgress)
	h.waitForStatus(t, id, contract.StatusInProgress)

	h.publish(t, command.Complete{CorrelationID: id, ContractID: id})
	rec := h.waitForState(t, id, lifecycle.StateCompleted)
	h.waitForStatus(t, id, contract.StatusCompleted)

	require.True(t, rec.Finalized)
	require.Nil(t, rec.TimeoutToken)
	require.Zero(t, h.sched.pendingCount())
}

func TestPipeline_TimeoutCancelsSagaAndAggregate(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()

	h.publish(t, command.CreateContract{
		CorrelationID: id,
		ContractID:    id,
		WarehouseID:   uuid.New(),
		ManagerID:     uuid.New(),
		ScheduledFor:  time.Now().UTC().Add(24 * time.Hour),
	})
	rec := h.waitForState(t, id, lifecycle.StateCreated)
	require.NotNil(t, rec.TimeoutToken)

	// Simulate the scheduler firing after the inactivity window.
	require.NoError(t, h.bus.Publish(context.Background(), bus.TopicTimeouts, command.TimeoutExpired{
		CorrelationID: id,
		Token:         *rec.TimeoutToken,
	}))

	h.waitForState(t, id, lifecycle.StateCancelled)
	h.waitForStatus(t, id, contract.StatusCancelled)
}

func TestPipeline_CancelledContractIgnoresLateCommands(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()

	h.publish(t, command.CreateContract{
		CorrelationID: id,
		ContractID:    id,
		WarehouseID:   uuid.New(),
		ManagerID:     uuid.New(),
		ScheduledFor:  time.Now().UTC().Add(24 * time.Hour),
	})
	h.waitForState(t, id, lifecycle.StateCreated)

	h.publish(t, command.AddLine{
		CorrelationID: id, ContractID: id, ProductID: uuid.New(), Quantity: 1,
	})
	h.publish(t, command.Start{CorrelationID: id, ContractID: id})
	h.waitForState(t, id, lifecycle.StateInProgress)

	h.publish(t, command.Cancel{CorrelationID: id, ContractID: id})
	h.waitForState(t, id, lifecycle.StateCancelled)
	h.waitForStatus(t, id, contract.StatusCancelled)

	// Late start is dropped by the saga and rejected by the aggregate.
	h.publish(t, command.Start{CorrelationID: id, ContractID: id})
	time.Sleep(100 * time.Millisecond)

	rec, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StateCancelled, rec.CurrentState)
	c, err := h.svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, contract.StatusCancelled, c.Status())
}
