// Package metrics holds the Prometheus collectors for the ledger backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	// GamesSettled counts settlement runs by outcome
	// (settled | imbalance | error).
	GamesSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablestakes",
			Subsystem: "settling",
			Name:      "games_total",
			Help:      "Settlement runs by outcome.",
		},
		[]string{"outcome"},
	)

	// SettlementsGenerated counts individual transfers written by the
	// settlement worker.
	SettlementsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablestakes",
			Subsystem: "settling",
			Name:      "settlements_generated_total",
			Help:      "Total settlement transfers generated.",
		},
	)

	// SettlementsConfirmed counts pending settlements confirmed by players.
	SettlementsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablestakes",
			Subsystem: "settling",
			Name:      "settlements_confirmed_total",
			Help:      "Total settlements confirmed as paid.",
		},
	)
)

func init() {
	Registry.MustRegister(GamesSettled, SettlementsGenerated, SettlementsConfirmed)
}

// Handler serves the registry for GET /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
