package contract

import "errors"

// Error taxonomy for the contract domain. Callers classify failures with
// errors.Is; the concrete messages carry the offending detail.
var (
	// ErrInvalidArgument marks malformed input: empty identifiers,
	// non-positive quantities, invalid dates. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState marks a transition that the current status forbids.
	// Retrying the same command cannot succeed without an intervening
	// legitimate transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound marks a load of an aggregate or saga record that does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a lost optimistic-concurrency race: the record was
	// modified between load and save.
	ErrConflict = errors.New("concurrent modification")
)
