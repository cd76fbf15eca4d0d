// Package metrics exposes table service activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tablekit"

// Collector implements core.Observer and the HTTP request instrumentation
// used by the web server. It owns its registry so tests and multiple
// servers in one process do not collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	imports  *prometheus.CounterVec
	rowsIn   prometheus.Counter
	exports  prometheus.Counter
	rowsOut  prometheus.Counter
	commits  *prometheus.CounterVec
	records  prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry. withRuntime adds the
// Go runtime and process collectors.
func New(withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "CSV imports by result.",
		}, []string{"result"}),
		rowsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_rows_total",
			Help:      "Rows loaded by successful imports.",
		}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "CSV exports written.",
		}),
		rowsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exported_rows_total",
			Help:      "Rows written by exports.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edit_commits_total",
			Help:      "Edit session commits by result.",
		}, []string{"result"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records currently held by the store.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	c.registry.MustRegister(c.imports, c.rowsIn, c.exports, c.rowsOut,
		c.commits, c.records, c.requests, c.latency)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ImportFinished counts an import attempt.
func (c *Collector) ImportFinished(result string, rows int) {
	c.imports.WithLabelValues(result).Inc()
	if result == "success" {
		c.rowsIn.Add(float64(rows))
	}
}

// ExportFinished counts an export.
func (c *Collector) ExportFinished(rows int) {
	c.exports.Inc()
	c.rowsOut.Add(float64(rows))
}

// CommitFinished counts an edit session commit.
func (c *Collector) CommitFinished(result string, _ int) {
	c.commits.WithLabelValues(result).Inc()
}

// RecordCount sets the records gauge.
func (c *Collector) RecordCount(n int) {
	c.records.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}
