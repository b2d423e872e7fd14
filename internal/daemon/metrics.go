package daemon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors served at /metrics.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	operationsTotal  *prometheus.CounterVec
	outputActive     *prometheus.GaugeVec
	runtimeReady     prometheus.Gauge
	importSkipped    prometheus.Counter
	deviceEvents     *prometheus.CounterVec
	websocketClients prometheus.Gauge
}

// NewMetrics creates and registers the daemon collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revostream_http_requests_total",
		Help: "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "code"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "revostream_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	operationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revostream_operations_total",
		Help: "Runtime operations by name and result",
	}, []string{"operation", "result"})
	outputActive := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "revostream_output_active",
		Help: "1 while the output is running",
	}, []string{"output"})
	runtimeReady := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "revostream_runtime_initialized",
		Help: "1 while the engine is started",
	})
	importSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "revostream_import_skipped_sources_total",
		Help: "Sources skipped by collection imports",
	})
	deviceEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revostream_device_events_total",
		Help: "Video device hotplug events by action",
	}, []string{"action"})
	websocketClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "revostream_event_stream_clients",
		Help: "Connected websocket event stream clients",
	})

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		operationsTotal,
		outputActive,
		runtimeReady,
		importSkipped,
		deviceEvents,
		websocketClients,
	)

	return &Metrics{
		registry:         registry,
		requestsTotal:    requestsTotal,
		requestDuration:  requestDuration,
		operationsTotal:  operationsTotal,
		outputActive:     outputActive,
		runtimeReady:     runtimeReady,
		importSkipped:    importSkipped,
		deviceEvents:     deviceEvents,
		websocketClients: websocketClients,
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveOperation counts a runtime operation outcome.
func (m *Metrics) ObserveOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operationsTotal.WithLabelValues(operation, result).Inc()
}

// AddImportSkipped adds n skipped import sources.
func (m *Metrics) AddImportSkipped(n int) {
	if n > 0 {
		m.importSkipped.Add(float64(n))
	}
}

// ObserveDeviceEvent counts a hotplug event.
func (m *Metrics) ObserveDeviceEvent(action string) {
	m.deviceEvents.WithLabelValues(action).Inc()
}

// SetOutputs sets the runtime and output gauges.
func (m *Metrics) SetOutputs(initialized, recording, streaming bool) {
	m.runtimeReady.Set(boolGauge(initialized))
	m.outputActive.WithLabelValues("recording").Set(boolGauge(recording))
	m.outputActive.WithLabelValues("streaming").Set(boolGauge(streaming))
}

// Handler returns an http.Handler that serves the registry.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
