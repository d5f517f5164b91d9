// Package metrics exposes dispatch counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const namespace = "newsrelay"

// Recorder implements ports.Metrics on a dedicated registry.
type Recorder struct {
	registry *prometheus.Registry

	items    *prometheus.CounterVec
	fetches  *prometheus.CounterVec
	removals prometheus.Counter
}

var _ ports.Metrics = (*Recorder)(nil)

// NewRecorder registers the counters on a fresh registry together with the Go runtime collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_items_total",
				Help:      "Candidates handled by the dispatch pipeline",
			},
			[]string{"source", "action", "result"},
		),
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Source pages that could not be retrieved",
			},
			[]string{"source"},
		),
		removals: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entries_removed_total",
				Help:      "Ledger entries removed by delete requests",
			},
		),
	}
}

// ItemDispatched counts one candidate outcome.
func (r *Recorder) ItemDispatched(source string, action domain.Action, result string) {
	r.items.WithLabelValues(source, string(action), result).Inc()
}

// FetchFailed counts a failed source retrieval.
func (r *Recorder) FetchFailed(source string) {
	r.fetches.WithLabelValues(source).Inc()
}

// EntryRemoved counts a ledger removal.
func (r *Recorder) EntryRemoved() {
	r.removals.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
