package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// FuzzStep drives random event sequences through a fresh record and checks
// the structural invariants no sequence may break.
func FuzzStep(f *testing.F) {
	f.Add([]byte{1, 2, 4, 5})
	f.Add([]byte{1, 3, 4, 6})
	f.Add([]byte{1, 7, 2, 4})

	f.Fuzz(func(t *testing.T, seq []byte) {
		now := time.Now().UTC()
		rec := NewSagaState(uuid.UUID{1}, now)
		for i, b := range seq {
			ev := Event{Kind: EventKind(int(b) % 8), ScheduledFor: now.Add(time.Hour)}
			if ev.Kind == EvTimeoutExpired && rec.TimeoutToken != nil {
				ev.Token = *rec.TimeoutToken
			}
			_, effects, _ := Step(rec, ev, now)

			// Emulate the driver's token bookkeeping so expiries can match.
			for _, effect := range effects {
				switch effect {
				case EffectScheduleTimeout:
					token := uuid.UUID{byte(i + 1)}
					rec.TimeoutToken = &token
				case EffectCancelTimeout, EffectNotifyTimeout:
					rec.TimeoutToken = nil
				}
			}

			if rec.Finalized != rec.CurrentState.IsTerminal() {
				t.Fatalf("finalized flag out of sync with state %s", rec.CurrentState)
			}
			if rec.CurrentState.IsTerminal() && rec.TimeoutToken != nil {
				t.Fatalf("terminal state %s holds a timeout token", rec.CurrentState)
			}
			if rec.LinesCount < 0 {
				t.Fatalf("negative line count")
			}
		}
	})
}
