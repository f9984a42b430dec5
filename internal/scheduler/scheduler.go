// Package scheduler provides the durable delayed delivery of contract
// inactivity timeouts. The port is schedule-after-delay / cancel-by-token;
// the Redis implementation survives process restarts.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Scheduler is the timeout scheduler port the saga orchestrator depends on.
type Scheduler interface {
	// ScheduleAfter durably schedules a TimeoutExpired delivery for
	// correlationID after delay and returns the timer's token.
	// Scheduling failures must be surfaced: the orchestrator step that
	// requested the timer fails as a whole and is redelivered.
	ScheduleAfter(ctx context.Context, delay time.Duration, correlationID uuid.UUID) (uuid.UUID, error)

	// Cancel removes a scheduled delivery. Cancelling a token that
	// already fired or was never known is a no-op, not an error.
	Cancel(ctx context.Context, token uuid.UUID) error
}
