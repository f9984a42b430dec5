// Package service applies validated commands to the contract aggregate.
// Each operation is one load, one mutation, one persist; optimistic
// write conflicts are retried a few times before giving up.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/warehousekit/contractd/internal/command"
	"github.com/warehousekit/contractd/internal/domain/contract"
	"github.com/warehousekit/contractd/internal/log"
)

// conflictRetries bounds the optimistic-concurrency retry loop. The bus
// consumer serializes commands per correlation id, so conflicts only
// happen when an operator pokes the database directly.
const conflictRetries = 3

// ContractRepository is the persistence the service needs.
type ContractRepository interface {
	Add(ctx context.Context, c *contract.Contract) error
	Get(ctx context.Context, id contract.ContractID) (*contract.Contract, int64, error)
	Update(ctx context.Context, c *contract.Contract, expectedVersion int64) error
}

// Contracts executes contract commands against the repository.
type Contracts struct {
	repo   ContractRepository
	logger zerolog.Logger
}

func NewContracts(repo ContractRepository) *Contracts {
	return &Contracts{
		repo:   repo,
		logger: log.WithComponent("service.contracts"),
	}
}

// Create builds a new pending contract and stores it.
func (s *Contracts) Create(ctx context.Context, cmd command.CreateContract) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	c, err := contract.New(cmd.ContractID, cmd.WarehouseID, cmd.ManagerID, cmd.ScheduledFor)
	if err != nil {
		return err
	}
	if err := s.repo.Add(ctx, c); err != nil {
		return err
	}
	logger := log.WithContext(ctx, s.logger)
	logger.Info().
		Str(log.FieldContractID, cmd.ContractID.String()).
		Str(log.FieldWarehouseID, cmd.WarehouseID.String()).
		Str(log.FieldManagerID, cmd.ManagerID.String()).
		Time("scheduled_for", c.ScheduledFor().Time()).
		Msg("contract created")
	return nil
}

// AddLine adds quantity units of a product to the contract.
func (s *Contracts) AddLine(ctx context.Context, cmd command.AddLine) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, cmd.ContractID, "line added", func(c *contract.Contract) error {
		return c.AddLine(cmd.ProductID, cmd.Quantity)
	})
}

// DecreaseLine removes quantity units of a product from the contract.
func (s *Contracts) DecreaseLine(ctx context.Context, cmd command.DecreaseLine) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, cmd.ContractID, "line decreased", func(c *contract.Contract) error {
		return c.DecreaseLine(cmd.ProductID, cmd.Quantity)
	})
}

// Reschedule moves the contract to a new unloading date.
func (s *Contracts) Reschedule(ctx context.Context, cmd command.Reschedule) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, cmd.ContractID, "contract rescheduled", func(c *contract.Contract) error {
		return c.Reschedule(cmd.NewDate)
	})
}

// Start moves the contract into unloading.
func (s *Contracts) Start(ctx context.Context, cmd command.Start) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, cmd.ContractID, "unloading started", func(c *contract.Contract) error {
		return c.Start()
	})
}

// Complete finishes the unloading.
func (s *Contracts) Complete(ctx context.Context, cmd command.Complete) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, cmd.ContractID, "unloading completed", func(c *contract.Contract) error {
		return c.Complete()
	})
}

// Cancel cancels the contract.
func (s *Contracts) Cancel(ctx context.Context, cmd command.Cancel) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, cmd.ContractID, "contract cancelled", func(c *contract.Contract) error {
		return c.Cancel()
	})
}

// Get loads a contract for read access.
func (s *Contracts) Get(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	cid, err := contract.NewContractID(id)
	if err != nil {
		return nil, err
	}
	c, _, err := s.repo.Get(ctx, cid)
	return c, err
}

func (s *Contracts) mutate(ctx context.Context, id uuid.UUID, what string, fn func(*contract.Contract) error) error {
	cid, err := contract.NewContractID(id)
	if err != nil {
		return err
	}
	logger := log.WithContext(ctx, s.logger)

	for attempt := 0; ; attempt++ {
		c, version, err := s.repo.Get(ctx, cid)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		err = s.repo.Update(ctx, c, version)
		if err == nil {
			logger.Info().
				Str(log.FieldContractID, cid.String()).
				Str(log.FieldStatus, c.Status().String()).
				Msg(what)
			return nil
		}
		if !errors.Is(err, contract.ErrConflict) || attempt >= conflictRetries {
			return fmt.Errorf("apply %q to contract %s: %w", what, cid, err)
		}
		logger.Debug().
			Str(log.FieldContractID, cid.String()).
			Int("attempt", attempt+1).
			Msg("write conflict, reloading")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 5 * time.Millisecond):
		}
	}
}
