// Package metrics exposes the console's own Prometheus metrics: poll
// cadence outcomes, configuration submissions and board activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels used across counters.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultReject  = "rejected"
)

// Registry holds all console metrics. Each Registry owns its own Prometheus
// registry, so multiple instances never collide.
type Registry struct {
	registry *prometheus.Registry

	// Poll loop metrics
	Polls        *prometheus.CounterVec
	PollDuration *prometheus.HistogramVec

	// Configuration metrics
	Submissions *prometheus.CounterVec

	// Catalog metrics
	CatalogLoads *prometheus.CounterVec

	// Board metrics
	BoardClients prometheus.Gauge
}

// NewRegistry creates and registers all console metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pythia_console_polls_total",
				Help: "Performance poll ticks by result (success, error, skipped)",
			},
			[]string{"result"},
		),

		PollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pythia_console_poll_duration_seconds",
				Help:    "Duration of performance fetches in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"result"},
		),

		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pythia_console_submissions_total",
				Help: "Configuration submissions by result (success, rejected, error)",
			},
			[]string{"result"},
		),

		CatalogLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pythia_console_catalog_loads_total",
				Help: "Strategy catalog loads by result (success, error)",
			},
			[]string{"result"},
		),

		BoardClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pythia_console_board_clients",
				Help: "Number of websocket clients connected to the board",
			},
		),
	}

	r.registry.MustRegister(
		r.Polls,
		r.PollDuration,
		r.Submissions,
		r.CatalogLoads,
		r.BoardClients,
	)

	return r
}

// RecordPoll records one completed fetch with its duration.
func (r *Registry) RecordPoll(result string, duration time.Duration) {
	r.Polls.WithLabelValues(result).Inc()
	r.PollDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordSkippedTick records an interval tick skipped because a fetch was
// still in flight.
func (r *Registry) RecordSkippedTick() {
	r.Polls.WithLabelValues(ResultSkipped).Inc()
}

// RecordSubmission records one configuration submission outcome.
func (r *Registry) RecordSubmission(result string) {
	r.Submissions.WithLabelValues(result).Inc()
}

// RecordCatalogLoad records one strategy catalog load outcome.
func (r *Registry) RecordCatalogLoad(result string) {
	r.CatalogLoads.WithLabelValues(result).Inc()
}

// Handler returns the HTTP handler serving this registry's metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
