package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is a lifecycle event of the contract saga.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvCreateContract
	EvAddLine
	EvReschedule
	EvStart
	EvComplete
	EvCancel
	EvTimeoutExpired
)

func (k EventKind) String() string {
	switch k {
	case EvCreateContract:
		return "create_contract"
	case EvAddLine:
		return "add_line"
	case EvReschedule:
		return "reschedule"
	case EvStart:
		return "start"
	case EvComplete:
		return "complete"
	case EvCancel:
		return "cancel"
	case EvTimeoutExpired:
		return "timeout_expired"
	default:
		return "unknown"
	}
}

// Event carries a correlation id plus the payload fields Apply needs to
// update the saga snapshot.
type Event struct {
	Kind          EventKind
	CorrelationID uuid.UUID

	// CreateContract payload
	WarehouseID uuid.UUID
	ManagerID   uuid.UUID

	// CreateContract and Reschedule payload
	ScheduledFor time.Time

	// TimeoutExpired payload: the token of the fired timer. The driver
	// drops expiries whose token no longer matches the stored one.
	Token uuid.UUID
}
