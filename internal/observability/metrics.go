package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	movementsTotal  *prometheus.CounterVec
	lowStockItems   prometheus.Gauge
	ledgerMismatch  prometheus.Gauge
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curastock_http_requests_total",
		Help: "HTTP request count by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "curastock_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "curastock_movements_posted_total",
		Help: "Ledger movements posted by direction and classification.",
	}, []string{"direction", "classification"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "curastock_low_stock_items",
		Help: "Items currently at or below their low-stock threshold.",
	})
	mismatch := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "curastock_ledger_mismatched_items",
		Help: "Items whose counters diverge from their replayed ledger.",
	})
	registry.MustRegister(requests, duration, movements, lowStock, mismatch)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		movementsTotal:  movements,
		lowStockItems:   lowStock,
		ledgerMismatch:  mismatch,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// MovementPosted counts a posted ledger movement.
func (m *Metrics) MovementPosted(direction, classification string) {
	if m == nil {
		return
	}
	m.movementsTotal.WithLabelValues(direction, classification).Inc()
}

// SetLowStockItems records the current low-stock item count.
func (m *Metrics) SetLowStockItems(count int) {
	if m == nil {
		return
	}
	m.lowStockItems.Set(float64(count))
}

// SetLedgerMismatches records the current reconciliation mismatch count.
func (m *Metrics) SetLedgerMismatches(count int) {
	if m == nil {
		return
	}
	m.ledgerMismatch.Set(float64(count))
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
