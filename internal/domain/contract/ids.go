package contract

import (
	"fmt"

	"github.com/google/uuid"
)

// Strongly typed identifiers. Each wraps a UUID and can never hold the nil
// value; equality is plain ==.

// ContractID identifies an unloading contract. It doubles as the saga
// correlation id.
type ContractID uuid.UUID

// NewContractID validates id and wraps it.
func NewContractID(id uuid.UUID) (ContractID, error) {
	if id == uuid.Nil {
		return ContractID{}, fmt.Errorf("%w: contract id must not be empty", ErrInvalidArgument)
	}
	return ContractID(id), nil
}

func (id ContractID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id ContractID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the id holds the nil UUID.
func (id ContractID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// WarehouseID identifies the warehouse receiving the goods.
type WarehouseID uuid.UUID

// NewWarehouseID validates id and wraps it.
func NewWarehouseID(id uuid.UUID) (WarehouseID, error) {
	if id == uuid.Nil {
		return WarehouseID{}, fmt.Errorf("%w: warehouse id must not be empty", ErrInvalidArgument)
	}
	return WarehouseID(id), nil
}

func (id WarehouseID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id WarehouseID) String() string { return uuid.UUID(id).String() }

// ManagerID identifies the manager responsible for the contract.
type ManagerID uuid.UUID

// NewManagerID validates id and wraps it.
func NewManagerID(id uuid.UUID) (ManagerID, error) {
	if id == uuid.Nil {
		return ManagerID{}, fmt.Errorf("%w: manager id must not be empty", ErrInvalidArgument)
	}
	return ManagerID(id), nil
}

func (id ManagerID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id ManagerID) String() string { return uuid.UUID(id).String() }

// ProductID identifies a product referenced by a contract line.
type ProductID uuid.UUID

// NewProductID validates id and wraps it.
func NewProductID(id uuid.UUID) (ProductID, error) {
	if id == uuid.Nil {
		return ProductID{}, fmt.Errorf("%w: product id must not be empty", ErrInvalidArgument)
	}
	return ProductID(id), nil
}

func (id ProductID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id ProductID) String() string { return uuid.UUID(id).String() }

// LineID identifies a single contract line. Lines are owned by their
// contract and never referenced from outside the aggregate.
type LineID uuid.UUID

// NewLineID validates id and wraps it.
func NewLineID(id uuid.UUID) (LineID, error) {
	if id == uuid.Nil {
		return LineID{}, fmt.Errorf("%w: line id must not be empty", ErrInvalidArgument)
	}
	return LineID(id), nil
}

func (id LineID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id LineID) String() string { return uuid.UUID(id).String() }
