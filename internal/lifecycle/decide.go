package lifecycle

import "time"

// Decide resolves the transition for an event against the current record.
// It is pure: no clock, no I/O, no mutation. The boolean is false when the
// event does not match the transition table — a finalized instance, an
// event the current state does not accept, or a timeout expiry whose token
// is stale. Unmatched events simply do not fire; in the fire-and-forget
// delivery model that is not an error.
func Decide(rec *SagaState, ev Event) (Transition, bool) {
	if rec.Finalized || rec.CurrentState.IsTerminal() {
		return Transition{}, false
	}
	if ev.Kind == EvTimeoutExpired {
		if rec.TimeoutToken == nil || *rec.TimeoutToken != ev.Token {
			return Transition{}, false
		}
	}
	return TransitionFor(rec.CurrentState, ev.Kind)
}

// Step decides and, when the event matches, applies the transition to the
// record. The returned effects are for the driver to execute.
func Step(rec *SagaState, ev Event, now time.Time) (Transition, []EffectKind, bool) {
	tr, ok := Decide(rec, ev)
	if !ok {
		return Transition{}, nil, false
	}
	Apply(rec, tr, ev, now)
	return tr, tr.Effects, true
}
