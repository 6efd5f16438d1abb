package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paygate"

// Metrics holds the collectors for the HTTP surface and the processor client.
type Metrics struct {
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec
	ProcessorCalls  *prometheus.CounterVec
	ProcessorMS     *prometheus.HistogramVec
	RefundsRecorded *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		ProcessorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "calls_total",
			Help:      "Payment processor calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ProcessorMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "call_duration_ms",
			Help:      "Payment processor call latency in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 15000},
		}, []string{"operation"}),
		RefundsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "refunds_total",
			Help:      "Refunds written to the order ledger by mode.",
		}, []string{"mode"}),
	}

	reg.MustRegister(m.Requests, m.LatencyMS, m.ProcessorCalls, m.ProcessorMS, m.RefundsRecorded)
	return m
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
