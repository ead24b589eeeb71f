package client

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

// metricsTransport wraps an http.RoundTripper to collect metrics on outbound calls
type metricsTransport struct {
	base http.RoundTripper
}

// NewMetricsTransport creates a transport wrapper that records call counts,
// latency and errors per host and normalized route. The blog client and the
// weather providers install it on their HTTP clients.
func NewMetricsTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &metricsTransport{base: base}
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	host := req.URL.Host
	route := normalizeRoute(req.URL.Path)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	metrics.APICalls.WithLabelValues(host, req.Method, route, strconv.Itoa(statusCode)).Inc()
	metrics.APIDuration.WithLabelValues(host, req.Method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		metrics.APITransportErrors.WithLabelValues(host, route, classifyTransportError(statusCode, err)).Inc()
	}

	return resp, err
}

var (
	numericSegment = regexp.MustCompile(`/\d+(/|$)`)
	hexSegment     = regexp.MustCompile(`/[0-9a-fA-F]{24,}(/|$)`)
)

// normalizeRoute replaces ID-like path segments with placeholders to keep
// label cardinality bounded.
func normalizeRoute(path string) string {
	if path == "" {
		return "/"
	}
	// Run twice so adjacent IDs sharing a slash are both replaced
	for i := 0; i < 2; i++ {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
		path = hexSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}

// classifyTransportError categorizes outbound errors for metrics
func classifyTransportError(statusCode int, err error) string {
	if err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "deadline") || strings.Contains(errStr, "timeout"):
			return "timeout"
		case strings.Contains(errStr, "canceled"):
			return "canceled"
		case strings.Contains(errStr, "connection"):
			return "connection"
		case strings.Contains(errStr, "TLS") || strings.Contains(errStr, "tls"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
