package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/warehousekit/contractd/internal/bus"
	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/log"
	"github.com/warehousekit/contractd/internal/metrics"
)

// Consumer applies commands from the bus to the aggregate. A single
// goroutine drains the topic, so commands for one contract never race.
type Consumer struct {
	svc    *Contracts
	bus    bus.Bus
	logger zerolog.Logger
}

func NewConsumer(svc *Contracts, b bus.Bus) *Consumer {
	return &Consumer{
		svc:    svc,
		bus:    b,
		logger: log.WithComponent("service.consumer"),
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	sub, err := c.bus.Subscribe(ctx, bus.TopicCommands)
	if err != nil {
		return fmt.Errorf("service: subscribe %s: %w", bus.TopicCommands, err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-sub.C():
			c.apply(ctx, msg)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, msg bus.Message) {
	if m, ok := msg.(command.Correlated); ok {
		ctx = log.ContextWithCorrelationID(ctx, m.Correlation().String())
	}

	var (
		kind string
		err  error
	)
	switch m := msg.(type) {
	case command.CreateContract:
		kind, err = "create_contract", c.svc.Create(ctx, m)
	case command.AddLine:
		kind, err = "add_line", c.svc.AddLine(ctx, m)
	case command.DecreaseLine:
		kind, err = "decrease_line", c.svc.DecreaseLine(ctx, m)
	case command.Reschedule:
		kind, err = "reschedule", c.svc.Reschedule(ctx, m)
	case command.Start:
		kind, err = "start", c.svc.Start(ctx, m)
	case command.Complete:
		kind, err = "complete", c.svc.Complete(ctx, m)
	case command.Cancel:
		kind, err = "cancel", c.svc.Cancel(ctx, m)
	default:
		// Timeout events live on their own topic; anything else here is
		// a wiring bug worth one log line, not a crash.
		c.logger.Warn().Msgf("unexpected message type %T on command topic", msg)
		return
	}

	metrics.IncCommandReceived(kind)
	if err == nil {
		return
	}
	metrics.IncCommandRejected(kind, rejectReason(err))
	c.logger.Warn().Err(err).
		Str(log.FieldEvent, kind).
		Msg("command rejected")
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, contract.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, contract.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, contract.ErrNotFound):
		return "not_found"
	case errors.Is(err, contract.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
