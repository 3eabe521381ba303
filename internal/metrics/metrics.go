// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsCreated counts sessions opened since process start.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sherlock_sessions_created_total",
		Help: "Total number of game sessions created.",
	})

	// ActionsProcessed counts resolved game actions by type.
	ActionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sherlock_actions_processed_total",
		Help: "Total number of game actions processed, by action type.",
	}, []string{"type"})

	// ConnectionsOpen tracks live WebSocket connections.
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sherlock_ws_connections_open",
		Help: "Number of currently open WebSocket connections.",
	})
)

// RegisterSessionGauge exposes the registry's live session count.
func RegisterSessionGauge(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sherlock_sessions_active",
		Help: "Number of currently live game sessions.",
	}, func() float64 {
		return float64(count())
	})
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
