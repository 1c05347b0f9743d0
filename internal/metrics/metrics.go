// Package metrics provides Prometheus instrumentation for the trading engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TurnsTotal counts simulation turns advanced across all sessions.
	TurnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradesim_turns_total",
		Help: "Total simulation turns advanced",
	})

	// ActionsTotal counts ledgered actions, partitioned by kind and outcome.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradesim_actions_total",
		Help: "Total attempted actions by kind and outcome",
	}, []string{"action", "outcome"})

	// RejectionsTotal counts rejected actions by reason.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradesim_rejections_total",
		Help: "Total rejected actions by reason",
	}, []string{"reason"})

	// LimitTriggersTotal counts limit orders that triggered and settled.
	LimitTriggersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradesim_limit_triggers_total",
		Help: "Total limit orders executed by turn-advance triggering",
	})

	// GasFee observes the jittered gas fee charged per settled trade.
	GasFee = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradesim_gas_fee_dollars",
		Help:    "Gas fee charged per settled trade in USD",
		Buckets: []float64{15, 20, 25, 30, 35, 40, 45, 50},
	})

	// ActiveSessions tracks the number of sessions resident in memory.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_active_sessions",
		Help: "Number of simulation sessions currently in memory",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradesim_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradesim_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradesim_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the API's path space is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
