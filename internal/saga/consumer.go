package saga

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/lifecycle"
	"github.com/warehousekit/contractd/internal/log"
)

// EventFromMessage maps a bus payload to a lifecycle event. The boolean is
// false for payloads the saga has no interest in, such as line decreases.
func EventFromMessage(msg bus.Message) (lifecycle.Event, bool) {
	switch m := msg.(type) {
	case command.CreateContract:
		return lifecycle.Event{
			Kind:          lifecycle.EvCreateContract,
			CorrelationID: m.CorrelationID,
			WarehouseID:   m.WarehouseID,
			ManagerID:     m.ManagerID,
			ScheduledFor:  m.ScheduledFor,
		}, true
	case command.AddLine:
		return lifecycle.Event{Kind: lifecycle.EvAddLine, CorrelationID: m.CorrelationID}, true
	case command.Reschedule:
		return lifecycle.Event{
			Kind:          lifecycle.EvReschedule,
			CorrelationID: m.CorrelationID,
			ScheduledFor:  m.NewDate,
		}, true
	case command.Start:
		return lifecycle.Event{Kind: lifecycle.EvStart, CorrelationID: m.CorrelationID}, true
	case command.Complete:
		return lifecycle.Event{Kind: lifecycle.EvComplete, CorrelationID: m.CorrelationID}, true
	case command.Cancel:
		return lifecycle.Event{Kind: lifecycle.EvCancel, CorrelationID: m.CorrelationID}, true
	case command.TimeoutExpired:
		return lifecycle.Event{
			Kind:          lifecycle.EvTimeoutExpired,
			CorrelationID: m.CorrelationID,
			Token:         m.Token,
		}, true
	default:
		return lifecycle.Event{}, false
	}
}

// Consumer feeds bus traffic into the orchestrator. It reads the command
// topic and the timeout topic; each topic is consumed by exactly one
// goroutine, which keeps delivery ordered per topic.
type Consumer struct {
	orch   *Orchestrator
	bus    bus.Bus
	logger zerolog.Logger
}

func NewConsumer(orch *Orchestrator, b bus.Bus) *Consumer {
	return &Consumer{
		orch:   orch,
		bus:    b,
		logger: log.WithComponent("saga.consumer"),
	}
}

// Run blocks until ctx is cancelled, consuming both topics.
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range []string{bus.TopicCommands, bus.TopicTimeouts} {
		sub, err := c.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("saga: subscribe %s: %w", topic, err)
		}
		g.Go(func() error {
			defer sub.Close()
			return c.consume(ctx, topic, sub)
		})
	}
	return g.Wait()
}

func (c *Consumer) consume(ctx context.Context, topic string, sub bus.Subscriber) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-sub.C():
			ev, ok := EventFromMessage(msg)
			if !ok {
				continue
			}
			evCtx := log.ContextWithCorrelationID(ctx, ev.CorrelationID.String())
			if err := c.orch.Handle(evCtx, ev); err != nil {
				c.logger.Error().Err(err).
					Str(log.FieldTopic, topic).
					Str(log.FieldCorrelationID, ev.CorrelationID.String()).
					Str(log.FieldEvent, ev.Kind.String()).
					Msg("saga event failed")
			}
		}
	}
}
