// Package metrics holds the Prometheus collectors of the console service.
// All methods are safe on a nil *Metrics so components can run without
// instrumentation in tests and in the CLI.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phishdetect"

type Metrics struct {
	registry *prometheus.Registry

	GatewayRequests    *prometheus.CounterVec
	GatewayDuration    *prometheus.HistogramVec
	ScansRecorded      *prometheus.CounterVec
	JobsFinished       *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
}

// New registers every collector on a private registry, together with the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Model analysis requests by artifact type and outcome.",
		}, []string{"type", "outcome"}),
		GatewayDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Round trip time of model analysis requests.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"type"}),
		ScansRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "scans_recorded_total",
			Help:      "Scans appended to the history by type and verdict.",
		}, []string{"type", "verdict"}),
		JobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Asynchronous analysis jobs by final status.",
		}, []string{"status"}),
		EventPublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_errors_total",
			Help:      "Scan events that could not be published.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveGateway(scanType, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(scanType, outcome).Inc()
	m.GatewayDuration.WithLabelValues(scanType).Observe(took.Seconds())
}

func (m *Metrics) ScanRecorded(scanType, verdict string) {
	if m == nil {
		return
	}
	m.ScansRecorded.WithLabelValues(scanType, verdict).Inc()
}

func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	m.JobsFinished.WithLabelValues(status).Inc()
}

func (m *Metrics) EventPublishFailed() {
	if m == nil {
		return
	}
	m.EventPublishErrors.Inc()
}
