package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec
	AuthFailuresTotal   *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	ClientsTotal         prometheus.Gauge
	ClientsConvertedTotal prometheus.Gauge
	ContractsTotal       prometheus.Gauge
	ContractsSignedTotal prometheus.Gauge
	EventsTotal          prometheus.Gauge
	ActiveUsersTotal     prometheus.Gauge
	APITokensActive      prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "entity", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "entity"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation", "entity"},
		),

		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"entity", "operation", "team", "allowed"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_auth_failures_total",
				Help: "Total number of failed authentication attempts",
			},
			[]string{"reason"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		ClientsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_clients_total",
				Help: "Total number of clients",
			},
		),
		ClientsConvertedTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_clients_converted_total",
				Help: "Number of converted clients",
			},
		),
		ContractsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_contracts_total",
				Help: "Total number of contracts",
			},
		),
		ContractsSignedTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_contracts_signed_total",
				Help: "Number of signed contracts",
			},
		),
		EventsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_events_total",
				Help: "Total number of events",
			},
		),
		ActiveUsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_active_users_total",
				Help: "Number of active collaborator accounts",
			},
		),
		APITokensActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_api_tokens_active",
				Help: "Number of active API tokens",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.AuthzDecisionsTotal,
		m.AuthFailuresTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.ClientsTotal,
		m.ClientsConvertedTotal,
		m.ContractsTotal,
		m.ContractsSignedTotal,
		m.EventsTotal,
		m.ActiveUsersTotal,
		m.APITokensActive,
	)

	return m
}

// ObserveAuthzDecision records an authorization decision.
func (m *Metrics) ObserveAuthzDecision(entity, operation, team string, allowed bool) {
	m.AuthzDecisionsTotal.WithLabelValues(entity, operation, team, strconv.FormatBool(allowed)).Inc()
}

// ObserveStorageOperation records one store call.
func (m *Metrics) ObserveStorageOperation(operation, entity string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.StorageErrorsTotal.WithLabelValues(operation, entity).Inc()
	}
	m.StorageOperationsTotal.WithLabelValues(operation, entity, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation, entity).Observe(duration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
