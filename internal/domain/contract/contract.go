// Package contract holds the unloading-contract aggregate and its value
// objects. Everything here is pure and synchronous; persistence and
// orchestration live elsewhere.
package contract

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Contract is the aggregate root for one unloading agreement: a warehouse,
// a responsible manager, a scheduled date and an ordered set of product
// lines, unique by product.
type Contract struct {
	id           ContractID
	warehouse    WarehouseID
	manager      ManagerID
	createdAt    time.Time
	scheduledFor ScheduledDate
	status       Status
	lines        []*Line
}

// New creates a Pending contract with no lines. All identifiers must be
// non-nil and scheduledFor must be a valid future UTC timestamp.
func New(id, warehouse, manager uuid.UUID, scheduledFor time.Time) (*Contract, error) {
	cid, err := NewContractID(id)
	if err != nil {
		return nil, err
	}
	wid, err := NewWarehouseID(warehouse)
	if err != nil {
		return nil, err
	}
	mid, err := NewManagerID(manager)
	if err != nil {
		return nil, err
	}
	sched, err := NewScheduledDate(scheduledFor)
	if err != nil {
		return nil, err
	}
	return &Contract{
		id:           cid,
		warehouse:    wid,
		manager:      mid,
		createdAt:    time.Now().UTC(),
		scheduledFor: sched,
		status:       StatusPending,
	}, nil
}

// Rehydrate restores a persisted contract without re-running the
// creation-time wall-clock checks.
func Rehydrate(
	id ContractID,
	warehouse WarehouseID,
	manager ManagerID,
	createdAt time.Time,
	scheduledFor ScheduledDate,
	status Status,
	lines []*Line,
) *Contract {
	return &Contract{
		id:           id,
		warehouse:    warehouse,
		manager:      manager,
		createdAt:    createdAt.UTC(),
		scheduledFor: scheduledFor,
		status:       status,
		lines:        lines,
	}
}

func (c *Contract) ID() ContractID { return c.id }

func (c *Contract) Warehouse() WarehouseID { return c.warehouse }

func (c *Contract) Manager() ManagerID { return c.manager }

func (c *Contract) CreatedAt() time.Time { return c.createdAt }

func (c *Contract) ScheduledFor() ScheduledDate { return c.scheduledFor }

func (c *Contract) Status() Status { return c.status }

// Lines returns the contract lines in insertion order. The slice is a copy;
// the lines themselves stay owned by the aggregate.
func (c *Contract) Lines() []*Line {
	out := make([]*Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// AddLine appends a line for product or, when a line for that product
// already exists, increases its quantity. Permitted only while Pending.
func (c *Contract) AddLine(product uuid.UUID, quantity int) error {
	if c.status != StatusPending {
		return fmt.Errorf("%w: cannot add lines to a %s contract", ErrInvalidState, c.status)
	}
	pid, err := NewProductID(product)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, quantity)
	}
	for _, l := range c.lines {
		if l.Product() == pid {
			return l.increase(quantity)
		}
	}
	lid, err := NewLineID(uuid.New())
	if err != nil {
		return err
	}
	qty, err := NewQuantity(quantity)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, newLine(lid, pid, qty))
	return nil
}

// DecreaseLine lowers the quantity of the line for product. Permitted only
// while Pending; the quantity cannot drop below zero.
func (c *Contract) DecreaseLine(product uuid.UUID, quantity int) error {
	if c.status != StatusPending {
		return fmt.Errorf("%w: cannot modify lines of a %s contract", ErrInvalidState, c.status)
	}
	pid, err := NewProductID(product)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidArgument, quantity)
	}
	for _, l := range c.lines {
		if l.Product() == pid {
			return l.decrease(quantity)
		}
	}
	return fmt.Errorf("%w: no line for product %s", ErrNotFound, pid)
}

// Reschedule replaces the scheduled date. Permitted only while Pending.
func (c *Contract) Reschedule(newDate time.Time) error {
	if c.status != StatusPending {
		return fmt.Errorf("%w: only a pending contract can be rescheduled, status is %s", ErrInvalidState, c.status)
	}
	sched, err := NewScheduledDate(newDate)
	if err != nil {
		return err
	}
	c.scheduledFor = sched
	return nil
}

// Start moves the contract to InProgress. The contract must be Pending and
// must carry at least one line.
func (c *Contract) Start() error {
	if c.status != StatusPending {
		return fmt.Errorf("%w: contract is already started or finished, status is %s", ErrInvalidState, c.status)
	}
	if len(c.lines) == 0 {
		return fmt.Errorf("%w: cannot start unloading with no lines", ErrInvalidState)
	}
	c.status = StatusInProgress
	return nil
}

// Complete moves the contract to Completed. Only an InProgress contract can
// complete.
func (c *Contract) Complete() error {
	if c.status != StatusInProgress {
		return fmt.Errorf("%w: contract is not in progress, status is %s", ErrInvalidState, c.status)
	}
	c.status = StatusCompleted
	return nil
}

// Cancel moves the contract to Cancelled. Forbidden only once Completed;
// cancelling an already-cancelled contract is a no-op transition to the
// same status.
func (c *Contract) Cancel() error {
	if c.status == StatusCompleted {
		return fmt.Errorf("%w: a completed contract cannot be cancelled", ErrInvalidState)
	}
	c.status = StatusCancelled
	return nil
}
