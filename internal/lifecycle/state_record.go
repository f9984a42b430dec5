package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// SagaState is the persisted orchestration record for one contract, keyed
// by correlation id. The snapshot fields (warehouse, manager, dates, line
// count) exist for observability without reloading the aggregate.
//
// At most one timeout token is outstanding at any time: it is set right
// after scheduling and cleared right after cancellation or firing.
type SagaState struct {
	CorrelationID uuid.UUID  `json:"correlation_id"`
	CurrentState  State      `json:"current_state"`
	TimeoutToken  *uuid.UUID `json:"timeout_token,omitempty"`

	WarehouseID  uuid.UUID  `json:"warehouse_id"`
	ManagerID    uuid.UUID  `json:"manager_id"`
	CreatedAt    time.Time  `json:"created_at"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	LinesCount   int        `json:"lines_count"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Finalized marks the instance as removed from active processing; no
	// further events are accepted for its correlation id.
	Finalized bool      `json:"finalized"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSagaState initializes a saga record in StateNone, ready for the
// CreateContract transition.
func NewSagaState(correlationID uuid.UUID, now time.Time) *SagaState {
	return &SagaState{
		CorrelationID: correlationID,
		CurrentState:  StateNone,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

// Apply mutates the saga record according to the transition and the event
// payload. It performs no I/O.
func Apply(rec *SagaState, tr Transition, ev Event, now time.Time) {
	now = now.UTC()
	switch ev.Kind {
	case EvCreateContract:
		rec.WarehouseID = ev.WarehouseID
		rec.ManagerID = ev.ManagerID
		rec.ScheduledFor = ev.ScheduledFor
		rec.CreatedAt = now
		rec.LinesCount = 0
	case EvAddLine:
		rec.LinesCount++
	case EvReschedule:
		rec.ScheduledFor = ev.ScheduledFor
	case EvStart:
		t := now
		rec.StartedAt = &t
	case EvComplete:
		t := now
		rec.CompletedAt = &t
	}

	rec.CurrentState = tr.To
	if tr.To.IsTerminal() {
		rec.Finalized = true
	}
	rec.UpdatedAt = now
}
