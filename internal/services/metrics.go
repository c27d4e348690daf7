package services

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry
	edits    *prometheus.CounterVec
	inFlight prometheus.Gauge
	duration prometheus.Histogram
	requests *prometheus.CounterVec
}

func NewMetrics(sessions, sockets func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoedit",
			Name:      "edits_total",
			Help:      "Settled edit attempts by outcome.",
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "photoedit",
			Name:      "edits_in_flight",
			Help:      "Edit requests currently waiting on the backend.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "photoedit",
			Name:      "edit_duration_seconds",
			Help:      "Time from dispatch to settle of an edit request.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "photoedit",
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.edits,
		m.inFlight,
		m.duration,
		m.requests,
		collectors.NewGoCollector(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "photoedit",
			Name:      "sessions",
			Help:      "Live editor sessions.",
		}, func() float64 { return float64(sessions()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "photoedit",
			Name:      "websocket_clients",
			Help:      "Connected notification sockets.",
		}, func() float64 { return float64(sockets()) }),
	)
	return m
}

func (m *Metrics) started() { m.inFlight.Inc() }

func (m *Metrics) settled(outcome string, took time.Duration) {
	m.inFlight.Dec()
	m.edits.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) rejected(outcome string) {
	m.edits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) request(method, route, status string) {
	m.requests.WithLabelValues(method, route, status).Inc()
}

func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
