package contract

import (
	"fmt"
	"time"
)

// ScheduledDate is the UTC timestamp the unloading is planned for.
type ScheduledDate struct {
	t time.Time
}

// NewScheduledDate validates t for the creation and reschedule paths: the
// value must be UTC-normalized and must not lie in the past relative to the
// wall clock at the moment of construction.
func NewScheduledDate(t time.Time) (ScheduledDate, error) {
	if t.IsZero() {
		return ScheduledDate{}, fmt.Errorf("%w: scheduled date must not be zero", ErrInvalidArgument)
	}
	if t.Location() != time.UTC {
		return ScheduledDate{}, fmt.Errorf("%w: scheduled date must be in UTC", ErrInvalidArgument)
	}
	if t.Before(time.Now().UTC()) {
		return ScheduledDate{}, fmt.Errorf("%w: scheduled date must not be in the past", ErrInvalidArgument)
	}
	return ScheduledDate{t: t}, nil
}

// RehydrateScheduledDate restores a stored date without the wall-clock
// check, so loading a contract whose date has since passed cannot fail.
func RehydrateScheduledDate(t time.Time) (ScheduledDate, error) {
	if t.IsZero() {
		return ScheduledDate{}, fmt.Errorf("%w: scheduled date must not be zero", ErrInvalidArgument)
	}
	return ScheduledDate{t: t.UTC()}, nil
}

func (d ScheduledDate) Time() time.Time { return d.t }

func (d ScheduledDate) IsZero() bool { return d.t.IsZero() }

func (d ScheduledDate) Equal(other ScheduledDate) bool { return d.t.Equal(other.t) }

func (d ScheduledDate) Before(other ScheduledDate) bool { return d.t.Before(other.t) }

func (d ScheduledDate) String() string { return d.t.Format(time.RFC3339) }
