// Package metrics exposes Prometheus collectors for content syncs, queries
// and page renders. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blogcontent"

type Metrics struct {
	registry  *prometheus.Registry
	queries   *prometheus.CounterVec
	documents *prometheus.GaugeVec
	syncs     *prometheus.CounterVec
	renders   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, so several instances can
// coexist in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Content queries served, by route.",
		}, []string{"route"}),
		documents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents loaded per collection at the last sync.",
		}, []string{"collection"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Content syncs, by result.",
		}, []string{"result"}),
		renders: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Time spent rendering pages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"page"}),
	}
	m.registry.MustRegister(
		m.queries, m.documents, m.syncs, m.renders,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Query(route string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(route).Inc()
}

func (m *Metrics) Documents(collection string, n int) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(collection).Set(float64(n))
}

func (m *Metrics) Sync(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.syncs.WithLabelValues(result).Inc()
}

// Render starts a timer for page; call the returned func when done.
func (m *Metrics) Render(page string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.renders.WithLabelValues(page).Observe(time.Since(start).Seconds())
	}
}
