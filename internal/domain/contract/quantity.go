package contract

import (
	"fmt"
	"strconv"
)

// Quantity is a non-negative number of product units.
type Quantity int

// NewQuantity validates v and wraps it.
func NewQuantity(v int) (Quantity, error) {
	if v < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative, got %d", ErrInvalidArgument, v)
	}
	return Quantity(v), nil
}

// Add returns the quantity increased by n. The result must stay
// non-negative.
func (q Quantity) Add(n int) (Quantity, error) {
	return NewQuantity(int(q) + n)
}

// Subtract returns the quantity decreased by n. It fails when the result
// would drop below zero.
func (q Quantity) Subtract(n int) (Quantity, error) {
	if int(q)-n < 0 {
		return 0, fmt.Errorf("%w: resulting quantity must not be negative (%d - %d)", ErrInvalidArgument, int(q), n)
	}
	return Quantity(int(q) - n), nil
}

func (q Quantity) Int() int { return int(q) }

func (q Quantity) String() string { return strconv.Itoa(int(q)) }
