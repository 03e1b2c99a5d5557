// Package metrics provides Prometheus metrics for the character hub.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	responseSize     *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	favoriteOpsTotal *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	healthStatus     prometheus.Gauge
}

var (
	globalMetrics *Metrics
	initOnce      sync.Once
)

// NewMetrics creates and registers Prometheus metrics. Metrics are registered
// once per process; later calls return the same instance.
func NewMetrics() *Metrics {
	initOnce.Do(func() {
		globalMetrics = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "character_hub_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			requestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "character_hub_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"method", "path", "status"},
			),
			requestsInFlight: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "character_hub_http_requests_in_flight",
					Help: "Number of HTTP requests currently being processed",
				},
			),
			responseSize: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "character_hub_http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
				},
				[]string{"method", "path"},
			),
			upstreamTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "character_hub_directory_requests_total",
					Help: "Total number of character directory queries by outcome",
				},
				[]string{"outcome"},
			),
			upstreamDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "character_hub_directory_request_duration_seconds",
					Help:    "Character directory query duration in seconds",
					Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
				},
				[]string{"outcome"},
			),
			favoriteOpsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "character_hub_favorite_operations_total",
					Help: "Total number of favorites operations by outcome",
				},
				[]string{"op", "outcome"},
			),
			activeSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "character_hub_active_sessions",
					Help: "Number of users with a live favorites session",
				},
			),
			healthStatus: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "character_hub_health_status",
					Help: "Health status of the service (1 = healthy, 0 = unhealthy)",
				},
			),
		}
	})

	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the response size.
func (m *Metrics) RecordResponseSize(method, path string, size int) {
	m.responseSize.WithLabelValues(method, path).Observe(float64(size))
}

// ObserveUpstream records one character directory query.
func (m *Metrics) ObserveUpstream(outcome string, duration time.Duration) {
	m.upstreamTotal.WithLabelValues(outcome).Inc()
	m.upstreamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveFavoriteOp records one toggle or remove.
func (m *Metrics) ObserveFavoriteOp(op, outcome string) {
	m.favoriteOpsTotal.WithLabelValues(op, outcome).Inc()
}

// SetActiveSessions sets the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// SetHealthStatus sets the health status.
func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.healthStatus.Set(1)
	} else {
		m.healthStatus.Set(0)
	}
}

// MetricsServer provides a separate HTTP server for Prometheus metrics.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a new metrics server.
func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	router := http.NewServeMux()
	router.Handle(path, promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the metrics server. It returns nil after Shutdown.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", zap.String("addr", ms.server.Addr))
	if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// MetricsMiddleware creates middleware that records HTTP metrics. Paths are
// labelled by route template so ids in the URL do not create new series.
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.requestsInFlight.Inc()
			defer m.requestsInFlight.Dec()

			start := time.Now()
			rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := routePath(r)
			m.RecordHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
			m.RecordResponseSize(r.Method, path, rw.size)
		})
	}
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// metricsResponseWriter wraps http.ResponseWriter to capture metrics.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

// WriteHeader captures the status code.
func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size.
func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}
