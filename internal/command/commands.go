// Package command defines the asynchronous command payloads accepted by the
// contract service. The HTTP layer publishes them, the command consumer and
// the saga orchestrator subscribe. Every command carries a correlation id;
// for contract commands it equals the contract id.
package command

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warehousekit/contractd/internal/domain/contract"
)

// CreateContract requests a new unloading contract.
type CreateContract struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	ManagerID     uuid.UUID `json:"manager_id"`
	ScheduledFor  time.Time `json:"scheduled_for"`
}

func (c CreateContract) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	if c.WarehouseID == uuid.Nil {
		return fmt.Errorf("%w: warehouse id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ManagerID == uuid.Nil {
		return fmt.Errorf("%w: manager id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ScheduledFor.IsZero() {
		return fmt.Errorf("%w: scheduled date must not be zero", contract.ErrInvalidArgument)
	}
	return nil
}

// AddLine requests adding quantity units of a product to the contract.
type AddLine struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`
}

func (c AddLine) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product id must not be empty", contract.ErrInvalidArgument)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", contract.ErrInvalidArgument, c.Quantity)
	}
	return nil
}

// DecreaseLine requests removing quantity units of a product from the
// contract. Unlike AddLine it is not lifecycle activity and does not
// touch the inactivity timer.
type DecreaseLine struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	ProductID     uuid.UUID `json:"product_id"`
	Quantity      int       `json:"quantity"`
}

func (c DecreaseLine) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product id must not be empty", contract.ErrInvalidArgument)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", contract.ErrInvalidArgument, c.Quantity)
	}
	return nil
}

// Reschedule requests moving the contract to a new unloading date.
type Reschedule struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
	NewDate       time.Time `json:"new_date"`
}

func (c Reschedule) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	if c.NewDate.IsZero() {
		return fmt.Errorf("%w: new date must not be zero", contract.ErrInvalidArgument)
	}
	return nil
}

// Start requests the unloading to begin.
type Start struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
}

func (c Start) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	return nil
}

// Complete requests the unloading to finish successfully.
type Complete struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
}

func (c Complete) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	return nil
}

// Cancel requests cancelling the contract.
type Cancel struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	ContractID    uuid.UUID `json:"contract_id"`
}

func (c Cancel) Validate() error {
	if c.CorrelationID == uuid.Nil {
		return fmt.Errorf("%w: correlation id must not be empty", contract.ErrInvalidArgument)
	}
	if c.ContractID == uuid.Nil {
		return fmt.Errorf("%w: contract id must not be empty", contract.ErrInvalidArgument)
	}
	return nil
}

// TimeoutExpired is the delayed event the scheduler delivers when a
// contract saw no activity for the whole inactivity window. Token
// identifies the exact timer that fired.
type TimeoutExpired struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Token         uuid.UUID `json:"token"`
}

// Correlated is implemented by every payload that belongs to one saga
// instance; consumers use it to carry the correlation id into their logs.
type Correlated interface {
	Correlation() uuid.UUID
}

func (c CreateContract) Correlation() uuid.UUID { return c.CorrelationID }
func (c AddLine) Correlation() uuid.UUID        { return c.CorrelationID }
func (c DecreaseLine) Correlation() uuid.UUID   { return c.CorrelationID }
func (c Reschedule) Correlation() uuid.UUID     { return c.CorrelationID }
func (c Start) Correlation() uuid.UUID          { return c.CorrelationID }
func (c Complete) Correlation() uuid.UUID       { return c.CorrelationID }
func (c Cancel) Correlation() uuid.UUID         { return c.CorrelationID }
func (c TimeoutExpired) Correlation() uuid.UUID { return c.CorrelationID }
