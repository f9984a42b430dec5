package lifecycle

// EffectKind is a side effect a transition asks the driver to execute.
// Effects are plain data so the transition function stays testable without
// I/O; ordering within a transition is significant.
type EffectKind int

const (
	// EffectScheduleTimeout schedules a fresh inactivity timeout and
	// stores its token on the saga record.
	EffectScheduleTimeout EffectKind = iota + 1

	// EffectCancelTimeout best-effort cancels the outstanding timeout, if
	// any, and clears the stored token. Cancelling an already-fired or
	// unknown token is a no-op.
	EffectCancelTimeout

	// EffectDispatchCancel publishes a Cancel command for the contract so
	// the business aggregate converges to Cancelled after an auto-timeout.
	EffectDispatchCancel

	// EffectNotifyTimeout reports that the inactivity window elapsed.
	EffectNotifyTimeout
)

func (e EffectKind) String() string {
	switch e {
	case EffectScheduleTimeout:
		return "schedule_timeout"
	case EffectCancelTimeout:
		return "cancel_timeout"
	case EffectDispatchCancel:
		return "dispatch_cancel"
	case EffectNotifyTimeout:
		return "notify_timeout"
	default:
		return "unknown"
	}
}
