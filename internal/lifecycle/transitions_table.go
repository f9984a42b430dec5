package lifecycle

// Transition is a single allowed edge in the saga state machine.
type Transition struct {
	From    State
	To      State
	Event   EventKind
	Effects []EffectKind
}

var transitionsTable = []Transition{
	// Creation: the only edge out of StateNone.
	{From: StateNone, To: StateCreated, Event: EvCreateContract,
		Effects: []EffectKind{EffectScheduleTimeout}},

	// Activity while waiting for the unloading to start. Each activity
	// replaces the inactivity timeout: cancel the old token, schedule a
	// fresh one.
	{From: StateCreated, To: StateLinesAdded, Event: EvAddLine,
		Effects: []EffectKind{EffectCancelTimeout, EffectScheduleTimeout}},
	{From: StateCreated, To: StateRescheduled, Event: EvReschedule,
		Effects: []EffectKind{EffectCancelTimeout, EffectScheduleTimeout}},

	// Start path
	{From: StateCreated, To: StateInProgress, Event: EvStart,
		Effects: []EffectKind{EffectCancelTimeout}},
	{From: StateLinesAdded, To: StateInProgress, Event: EvStart,
		Effects: []EffectKind{EffectCancelTimeout}},
	{From: StateRescheduled, To: StateInProgress, Event: EvStart,
		Effects: []EffectKind{EffectCancelTimeout}},

	// Terminal user transitions
	{From: StateInProgress, To: StateCompleted, Event: EvComplete,
		Effects: []EffectKind{EffectCancelTimeout}},
	{From: StateInProgress, To: StateCancelled, Event: EvCancel,
		Effects: []EffectKind{EffectCancelTimeout}},

	// Inactivity timeout from any non-terminal state
	{From: StateCreated, To: StateCancelled, Event: EvTimeoutExpired,
		Effects: []EffectKind{EffectNotifyTimeout, EffectDispatchCancel}},
	{From: StateLinesAdded, To: StateCancelled, Event: EvTimeoutExpired,
		Effects: []EffectKind{EffectNotifyTimeout, EffectDispatchCancel}},
	{From: StateRescheduled, To: StateCancelled, Event: EvTimeoutExpired,
		Effects: []EffectKind{EffectNotifyTimeout, EffectDispatchCancel}},
	{From: StateInProgress, To: StateCancelled, Event: EvTimeoutExpired,
		Effects: []EffectKind{EffectNotifyTimeout, EffectDispatchCancel}},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from State, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}
