// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admission outcomes.
const (
	OutcomeAdmitted = "admitted"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_admissions_total",
			Help: "Reservation admission attempts by outcome",
		},
		[]string{"outcome"},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_transitions_total",
			Help: "Reservation status changes by target status",
		},
		[]string{"status"},
	)

	seatCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_cache_lookups_total",
			Help: "Seat map cache lookups by result",
		},
		[]string{"result"},
	)

	events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_events_published_total",
			Help: "Reservation events handed to the broker by status",
		},
		[]string{"status"},
	)
)

func ObserveAdmission(outcome string) { admissions.WithLabelValues(outcome).Inc() }

func ObserveTransition(status string) { transitions.WithLabelValues(status).Inc() }

func ObserveSeatCache(hit bool) {
	if hit {
		seatCache.WithLabelValues("hit").Inc()
		return
	}
	seatCache.WithLabelValues("miss").Inc()
}

func ObserveEventPublish(err error) {
	if err != nil {
		events.WithLabelValues("failed").Inc()
		return
	}
	events.WithLabelValues("ok").Inc()
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
