package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castward/castlink/internal/metrics"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge
)

// RegisterMetrics inicializa las métricas HTTP y las de dominio.
// Devuelve el handler para /metrics.
func RegisterMetrics(registry *prometheus.Registry) http.Handler {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		})
	})

	// Registro tolerante: si ya estaban registradas (p.ej. dos routers en
	// tests), las métricas existentes siguen funcionando.
	for _, c := range []prometheus.Collector{httpRequestsTotal, httpRequestDuration, httpInflight} {
		_ = registry.Register(c)
	}
	_ = metrics.Register(registry)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// WithMetrics instrumenta cada request con contadores y latencia.
func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		httpInflight.Inc()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		httpInflight.Dec()

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(time.Since(start).Seconds())
	})
}
