package contract

import "fmt"

// Status is the business status of an unloading contract.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus maps a stored string back to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: unknown contract status %q", ErrInvalidArgument, s)
	}
}

func (s Status) String() string { return string(s) }
