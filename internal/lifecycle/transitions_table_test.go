package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allStates = []State{
	StateNone,
	StateCreated,
	StateLinesAdded,
	StateRescheduled,
	StateInProgress,
	StateCompleted,
	StateCancelled,
}

var allEvents = []EventKind{
	EvCreateContract,
	EvAddLine,
	EvReschedule,
	EvStart,
	EvComplete,
	EvCancel,
	EvTimeoutExpired,
}

func TestTransitionTable_NoDuplicateEdges(t *testing.T) {
	seen := map[State]map[EventKind]struct{}{}
	for _, tr := range transitionsTable {
		if _, ok := seen[tr.From]; !ok {
			seen[tr.From] = map[EventKind]struct{}{}
		}
		if _, dup := seen[tr.From][tr.Event]; dup {
			t.Fatalf("duplicate transition: %s + %s", tr.From, tr.Event)
		}
		seen[tr.From][tr.Event] = struct{}{}
	}
}

func TestTransitionTable_TerminalStatesHaveNoEdges(t *testing.T) {
	for _, tr := range transitionsTable {
		require.False(t, tr.From.IsTerminal(),
			"terminal state %s must not accept %s", tr.From, tr.Event)
	}
}

func TestTransitionTable_SpecEdges(t *testing.T) {
	tests := []struct {
		from State
		ev   EventKind
		to   State
		ok   bool
	}{
		{StateNone, EvCreateContract, StateCreated, true},
		{StateCreated, EvAddLine, StateLinesAdded, true},
		{StateCreated, EvReschedule, StateRescheduled, true},
		{StateCreated, EvStart, StateInProgress, true},
		{StateLinesAdded, EvStart, StateInProgress, true},
		{StateRescheduled, EvStart, StateInProgress, true},
		{StateInProgress, EvComplete, StateCompleted, true},
		{StateInProgress, EvCancel, StateCancelled, true},
		{StateCreated, EvTimeoutExpired, StateCancelled, true},
		{StateLinesAdded, EvTimeoutExpired, StateCancelled, true},
		{StateRescheduled, EvTimeoutExpired, StateCancelled, true},
		{StateInProgress, EvTimeoutExpired, StateCancelled, true},

		// A second create for the same instance never matches.
		{StateCreated, EvCreateContract, "", false},
		// Lines and reschedules are only accepted right after creation.
		{StateLinesAdded, EvAddLine, "", false},
		{StateRescheduled, EvReschedule, "", false},
		{StateLinesAdded, EvReschedule, "", false},
		{StateRescheduled, EvAddLine, "", false},
		// No edges into a running or finished unloading.
		{StateInProgress, EvAddLine, "", false},
		{StateInProgress, EvStart, "", false},
		{StateCreated, EvComplete, "", false},
		{StateCreated, EvCancel, "", false},
		{StateCompleted, EvCancel, "", false},
		{StateCompleted, EvTimeoutExpired, "", false},
		{StateCancelled, EvTimeoutExpired, "", false},
	}
	for _, tc := range tests {
		tr, ok := TransitionFor(tc.from, tc.ev)
		require.Equal(t, tc.ok, ok, "%s + %s", tc.from, tc.ev)
		if tc.ok {
			require.Equal(t, tc.to, tr.To, "%s + %s", tc.from, tc.ev)
		}
	}
}

func TestTransitionTable_TimerEffects(t *testing.T) {
	for _, tr := range transitionsTable {
		switch tr.Event {
		case EvCreateContract:
			require.Equal(t, []EffectKind{EffectScheduleTimeout}, tr.Effects)
		case EvAddLine, EvReschedule:
			require.Equal(t, []EffectKind{EffectCancelTimeout, EffectScheduleTimeout}, tr.Effects,
				"activity in %s must replace the timeout", tr.From)
		case EvStart, EvComplete, EvCancel:
			require.Equal(t, []EffectKind{EffectCancelTimeout}, tr.Effects,
				"%s from %s must cancel the timeout", tr.Event, tr.From)
		case EvTimeoutExpired:
			require.Contains(t, tr.Effects, EffectDispatchCancel)
			require.NotContains(t, tr.Effects, EffectScheduleTimeout)
		}
	}
}

func TestTransitionTable_EveryNonTerminalStateTimesOut(t *testing.T) {
	for _, s := range allStates {
		if s == StateNone || s.IsTerminal() {
			continue
		}
		tr, ok := TransitionFor(s, EvTimeoutExpired)
		require.True(t, ok, "state %s must accept a timeout", s)
		require.Equal(t, StateCancelled, tr.To)
	}
}
