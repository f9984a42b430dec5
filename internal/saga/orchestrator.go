// Package saga drives the contract lifecycle state machine: it loads the
// persisted instance for an event's correlation id, steps the transition
// table, executes the resulting effects against the timeout scheduler and
// the bus, and persists the new state.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/lifecycle"
	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/metrics"
	"github.com/warehousekit/contractd/internal/scheduler"
)

// StateStore persists saga instances keyed by correlation id. Update runs
// the whole read-modify-write atomically; a fn error leaves the stored
// record untouched.
type StateStore interface {
	Put(ctx context.Context, rec *lifecycle.SagaState) error
	Update(ctx context.Context, correlationID uuid.UUID, fn func(*lifecycle.SagaState) error) (*lifecycle.SagaState, error)
}

// Publisher is the slice of the bus the orchestrator needs for the
// cancel-dispatch effect.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg bus.Message) error
}

// Orchestrator executes lifecycle events against the persisted saga state.
type Orchestrator struct {
	store   StateStore
	sched   scheduler.Scheduler
	pub     Publisher
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewOrchestrator(store StateStore, sched scheduler.Scheduler, pub Publisher, inactivityTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:   store,
		sched:   sched,
		pub:     pub,
		timeout: inactivityTimeout,
		now:     time.Now,
		logger:  log.WithComponent("saga"),
	}
}

// errNoTransition aborts a store update when the event does not fire in
// the current state; the record stays untouched and the event is dropped.
var errNoTransition = errors.New("no transition for event")

// Handle processes one lifecycle event. Events that do not match the
// transition table are dropped, not failed: stale timeout tokens, events
// after finalization and events for unknown correlations are all expected
// in a fire-and-forget delivery model. The whole step runs inside one
// store transaction, so scheduling failures abort it before any state is
// persisted and redelivery starts clean.
func (o *Orchestrator) Handle(ctx context.Context, ev lifecycle.Event) error {
	// Consumers put the correlation id in ctx; direct callers just get the
	// event field.
	logger := log.WithContext(ctx, o.logger).With().
		Str(log.FieldEvent, ev.Kind.String()).
		Logger()

	var (
		tr   lifecycle.Transition
		from lifecycle.State
	)
	apply := func(rec *lifecycle.SagaState) error {
		from = rec.CurrentState
		t, effects, ok := lifecycle.Step(rec, ev, o.now())
		if !ok {
			return errNoTransition
		}
		for _, effect := range effects {
			if err := o.execute(ctx, rec, ev, effect); err != nil {
				return fmt.Errorf("effect %s: %w", effect, err)
			}
		}
		tr = t
		return nil
	}

	_, err := o.store.Update(ctx, ev.CorrelationID, apply)
	switch {
	case errors.Is(err, contract.ErrNotFound):
		// CreateContract is the only event allowed to bring a new
		// instance into existence.
		if ev.Kind != lifecycle.EvCreateContract {
			logger.Warn().Msg("event for unknown saga instance dropped")
			metrics.IncSagaEventDropped(ev.Kind.String())
			return nil
		}
		rec := lifecycle.NewSagaState(ev.CorrelationID, o.now())
		if err := apply(rec); err != nil {
			return fmt.Errorf("saga: create instance %s: %w", ev.CorrelationID, err)
		}
		if err := o.store.Put(ctx, rec); err != nil {
			return fmt.Errorf("saga: persist instance %s: %w", ev.CorrelationID, err)
		}

	case errors.Is(err, errNoTransition):
		logger.Debug().
			Str(log.FieldOldState, string(from)).
			Msg("event does not fire in current state, dropped")
		metrics.IncSagaEventDropped(ev.Kind.String())
		return nil

	case err != nil:
		return fmt.Errorf("saga: step %s for %s: %w", ev.Kind, ev.CorrelationID, err)
	}

	metrics.IncSagaTransition(ev.Kind.String(), string(tr.To))
	logger.Info().
		Str(log.FieldOldState, string(tr.From)).
		Str(log.FieldNewState, string(tr.To)).
		Msg("saga transition")
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, rec *lifecycle.SagaState, ev lifecycle.Event, effect lifecycle.EffectKind) error {
	switch effect {
	case lifecycle.EffectScheduleTimeout:
		token, err := o.sched.ScheduleAfter(ctx, o.timeout, rec.CorrelationID)
		if err != nil {
			return err
		}
		rec.TimeoutToken = &token

	case lifecycle.EffectCancelTimeout:
		if rec.TimeoutToken == nil {
			return nil
		}
		token := *rec.TimeoutToken
		rec.TimeoutToken = nil
		if err := o.sched.Cancel(ctx, token); err != nil {
			// Best effort: a leftover timer fires with a token the
			// instance no longer holds and is dropped on arrival.
			o.logger.Warn().Err(err).
				Str(log.FieldCorrelationID, rec.CorrelationID.String()).
				Str(log.FieldTimeoutToken, token.String()).
				Msg("timeout cancel failed, relying on stale-token drop")
			return nil
		}

	case lifecycle.EffectDispatchCancel:
		cancel := command.Cancel{
			CorrelationID: rec.CorrelationID,
			ContractID:    rec.CorrelationID,
		}
		if err := o.pub.Publish(ctx, bus.TopicCommands, cancel); err != nil {
			return err
		}

	case lifecycle.EffectNotifyTimeout:
		rec.TimeoutToken = nil
		o.logger.Warn().
			Str(log.FieldCorrelationID, rec.CorrelationID.String()).
			Str(log.FieldTimeoutToken, ev.Token.String()).
			Msg("contract inactive for the whole timeout window, auto-cancelling")

	default:
		return fmt.Errorf("unhandled effect kind %d", effect)
	}
	return nil
}
