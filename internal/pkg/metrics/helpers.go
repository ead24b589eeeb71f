package metrics

import (
	"strings"
	"time"
)

// RecordStoreOperation records token store metrics consistently
// backend: store backend (e.g., "file", "redis", "postgres")
// operation: "get", "set", or "remove"
// err: error from the operation (nil if successful)
func RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreDuration.WithLabelValues(backend, operation).Observe(float64(duration.Milliseconds()))

	status := "success"
	if err != nil {
		status = "error"
		StoreErrors.WithLabelValues(backend, operation, classifyStoreError(err)).Inc()
	}
	StoreOperations.WithLabelValues(backend, operation, status).Inc()
}

// classifyStoreError categorizes storage errors for metrics
func classifyStoreError(err error) string {
	if err == nil {
		return "none"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "connect"):
		return "connection"
	case strings.Contains(errStr, "permission"):
		return "permission"
	case strings.Contains(errStr, "decrypt") || strings.Contains(errStr, "open sealed"):
		return "decrypt"
	case strings.Contains(errStr, "syntax") || strings.Contains(errStr, "unmarshal") || strings.Contains(errStr, "invalid character"):
		return "corrupt"
	default:
		return "other"
	}
}
