// Package lifecycle is the pure state machine behind the contract saga.
// It knows nothing about persistence, transport or timers: transitions are
// looked up in an explicit table and side effects are returned as data for
// an outer driver to execute.
package lifecycle

// State is the orchestration state of one saga instance. It mirrors, but is
// distinct from, the business status of the contract aggregate.
type State string

const (
	// StateNone is the pre-creation state; only CreateContract may leave it.
	StateNone        State = ""
	StateCreated     State = "created"
	StateLinesAdded  State = "lines_added"
	StateRescheduled State = "rescheduled"
	StateInProgress  State = "in_progress"
	StateCompleted   State = "completed"
	StateCancelled   State = "cancelled"
)

// IsTerminal reports whether no further transitions are accepted.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

func (s State) String() string { return string(s) }
