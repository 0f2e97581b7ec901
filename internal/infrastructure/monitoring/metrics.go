package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each value owns its registry, so
// several simulators (or tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Simulation metrics
	EventsTotal    *prometheus.CounterVec
	DeadlocksTotal prometheus.Counter
	CycleSize      prometheus.Histogram
	Processes      prometheus.Gauge
	Channels       prometheus.Gauge
	Steps          prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics creates a collector with Go runtime and process metrics
// already registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsim_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipcsim_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsim_events_total",
				Help: "Simulation events emitted, by type",
			},
			[]string{"type"},
		),
		DeadlocksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ipcsim_deadlocks_total",
				Help: "Deadlock cycles detected",
			},
		),
		CycleSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ipcsim_deadlock_cycle_size",
				Help:    "Number of processes in each detected cycle",
				Buckets: []float64{2, 3, 4, 6, 8, 16, 32},
			},
		),
		Processes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipcsim_processes",
				Help: "Live simulated processes",
			},
		),
		Channels: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipcsim_channels",
				Help: "Simulated channels",
			},
		),
		Steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ipcsim_steps_total",
				Help: "Simulation ticks executed",
			},
		),

		WSConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ipcsim_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipcsim_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "kind"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.EventsTotal,
		m.DeadlocksTotal,
		m.CycleSize,
		m.Processes,
		m.Channels,
		m.Steps,
		m.WSConnections,
		m.WSMessages,
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "ipcsim_uptime_seconds",
				Help: "Server uptime in seconds",
			},
			func() float64 { return time.Since(m.startTime).Seconds() },
		),
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterCounterFunc exposes a counter whose value is read at scrape time.
func (m *Metrics) RegisterCounterFunc(name, help string, fn func() float64) error {
	return m.registry.Register(prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		fn,
	))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStep counts one executed tick.
func (m *Metrics) RecordStep() {
	m.Steps.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, kind string) {
	m.WSMessages.WithLabelValues(direction, kind).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
