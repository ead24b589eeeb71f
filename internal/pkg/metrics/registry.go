package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outbound API Metrics
var (
	// APICalls tracks outbound HTTP calls made through the client transport
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_api_calls_total",
			Help: "Total outbound API calls by host, method, normalized route, and status code",
		},
		[]string{"host", "method", "route", "status_code"},
	)

	// APIDuration tracks outbound call latency
	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "inkwell_api_duration_ms",
			Help:                            "Outbound API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"host", "method", "route"},
	)

	// APITransportErrors tracks failed round trips and error statuses
	APITransportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_api_transport_errors_total",
			Help: "Total outbound API errors by host, route, and error type",
		},
		[]string{"host", "route", "error_type"},
	)

	// APIErrors tracks failed logical calls by request error kind
	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_api_request_errors_total",
			Help: "Total failed API requests by error kind",
		},
		[]string{"kind"},
	)

	// APIRetries tracks requests re-issued after a token refresh
	APIRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inkwell_api_retries_total",
			Help: "Total API requests retried after refreshing an expired token",
		},
	)
)

// Token Metrics
var (
	// TokenRefreshes tracks completed refresh attempts (joined callers count once)
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_token_refreshes_total",
			Help: "Total token refresh attempts by status",
		},
		[]string{"status"},
	)

	// TokenRefreshDuration tracks login latency during refresh
	TokenRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:                            "inkwell_token_refresh_duration_ms",
			Help:                            "Token refresh login duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
	)

	// StoreOperations tracks token store operations
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_store_operations_total",
			Help: "Total token store operations by backend, operation, and status",
		},
		[]string{"backend", "operation", "status"},
	)

	// StoreDuration tracks token store latency
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "inkwell_store_operation_duration_ms",
			Help:                            "Token store operation duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"backend", "operation"},
	)

	// StoreErrors tracks token store errors by type
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_store_errors_total",
			Help: "Total token store errors by backend, operation, and error type",
		},
		[]string{"backend", "operation", "error_type"},
	)
)

// Cache Metrics
var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_cache_hits_total",
			Help: "Total cache hits by service and cache name",
		},
		[]string{"service", "cache_name"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_cache_misses_total",
			Help: "Total cache misses by service and cache name",
		},
		[]string{"service", "cache_name"},
	)
)

// Weather Metrics
var (
	// WeatherLookups tracks which provider answered a weather lookup
	WeatherLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_weather_lookups_total",
			Help: "Total weather lookups by answering provider (default when all failed)",
		},
		[]string{"provider"},
	)
)

// HTTP/Web Handler Metrics
var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inkwell_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "inkwell_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "path"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inkwell_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)
)
