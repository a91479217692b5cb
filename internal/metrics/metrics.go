// Package metrics exposes Prometheus instrumentation for the redline
// service. All collectors live on a private registry so tests can
// construct isolated instances without global state.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redline"

// Metrics bundles every collector the service records into.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequests counts finished HTTP requests by method, route and
	// status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration tracks request latency by method and route.
	HTTPDuration *prometheus.HistogramVec

	// ProofreadRuns counts proofreading runs by language and outcome.
	ProofreadRuns *prometheus.CounterVec

	// ProofreadDuration tracks end-to-end proofreading latency. Editor
	// round trips dominate, so the buckets run much longer than the
	// HTTP ones.
	ProofreadDuration prometheus.Histogram

	// AssistantRetries counts retried editor requests.
	AssistantRetries prometheus.Counter

	// DocumentsStored counts documents written to the store.
	DocumentsStored prometheus.Counter

	// UploadBytes accumulates the size of accepted uploads.
	UploadBytes prometheus.Counter

	// JobsActive gauges proofreading jobs currently running.
	JobsActive prometheus.Gauge

	// WSClients gauges connected WebSocket clients.
	WSClients prometheus.Gauge

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited prometheus.Counter
}

// New builds a Metrics instance backed by a fresh registry, with the
// standard Go runtime and process collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Finished HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ProofreadRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proofread",
			Name:      "runs_total",
			Help:      "Proofreading runs by language and outcome.",
		}, []string{"language", "status"}),
		ProofreadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proofread",
			Name:      "duration_seconds",
			Help:      "End-to-end proofreading latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		AssistantRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "retries_total",
			Help:      "Editor requests that were retried.",
		}),
		DocumentsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "documents_total",
			Help:      "Documents written to the store.",
		}),
		UploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "upload_bytes_total",
			Help:      "Bytes accepted from document uploads.",
		}),
		JobsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "active",
			Help:      "Proofreading jobs currently running.",
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected WebSocket clients.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one finished request. The path should be the
// route pattern, not the raw URL, to keep cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveProofread records one proofreading run.
func (m *Metrics) ObserveProofread(language string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ProofreadRuns.WithLabelValues(language, status).Inc()
	m.ProofreadDuration.Observe(elapsed.Seconds())
}
