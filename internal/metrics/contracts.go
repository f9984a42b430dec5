// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Command intake
	commandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractd_commands_received_total",
		Help: "Commands accepted by the HTTP layer, by command kind",
	}, []string{"command"})

	commandsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractd_commands_rejected_total",
		Help: "Commands rejected before dispatch, by command kind and reason",
	}, []string{"command", "reason"})

	// Saga transitions
	sagaTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractd_saga_transitions_total",
		Help: "Saga transitions fired, by event and resulting state",
	}, []string{"event", "to"})

	sagaEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractd_saga_events_dropped_total",
		Help: "Events that matched no transition and were dropped, by event",
	}, []string{"event"})

	// Timeout scheduling
	timeoutsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contractd_timeouts_scheduled_total",
		Help: "Inactivity timeouts scheduled",
	})
	timeoutsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contractd_timeouts_cancelled_total",
		Help: "Inactivity timeouts cancelled before firing",
	})
	timeoutsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contractd_timeouts_fired_total",
		Help: "Inactivity timeouts delivered to the orchestrator",
	})

	// Bus
	busDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contractd_bus_dropped_total",
		Help: "Messages dropped on publish, by topic and reason",
	}, []string{"topic", "reason"})
)

func IncCommandReceived(kind string) {
	commandsReceived.WithLabelValues(kind).Inc()
}

func IncCommandRejected(kind, reason string) {
	commandsRejected.WithLabelValues(kind, reason).Inc()
}

func IncSagaTransition(event, to string) {
	sagaTransitions.WithLabelValues(event, to).Inc()
}

func IncSagaEventDropped(event string) {
	sagaEventsDropped.WithLabelValues(event).Inc()
}

func IncTimeoutScheduled() { timeoutsScheduled.Inc() }

func IncTimeoutCancelled() { timeoutsCancelled.Inc() }

func IncTimeoutFired() { timeoutsFired.Inc() }

func IncBusDrop(topic, reason string) {
	busDropped.WithLabelValues(topic, reason).Inc()
}
