package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/inkwell/internal/client"
	"github.com/devilmonastery/inkwell/internal/pkg/logger"
	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LogRequest logs each request and records HTTP metrics. Routes are labelled
// by their mux template so IDs do not explode label cardinality.
func LogRequest(log *slog.Logger) mux.MiddlewareFunc {
	log = log.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip health checks, metrics scrapes and static files to reduce noise
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" || isStaticFile(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.HTTPActiveRequests.Inc()
			defer metrics.HTTPActiveRequests.Dec()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // default if WriteHeader not called
			}
			next.ServeHTTP(wrapped, r)
			duration := time.Since(start)

			route := routeTemplate(r)
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(float64(duration.Milliseconds()))

			attrs := []any{
				slog.Int("status", wrapped.statusCode),
				slog.Int64("bytes", wrapped.written),
				slog.String("client_ip", clientIP(r)),
				slog.String("user_agent", r.UserAgent()),
			}
			if id := r.Header.Get(client.RequestIDHeader); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			reqLog := logger.WithDuration(logger.WithHTTPRequest(log, r.Method, r.URL.Path), duration)
			if wrapped.statusCode >= 500 {
				reqLog.Error("request failed", attrs...)
			} else {
				reqLog.Info("request", attrs...)
			}
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// clientIP returns the real IP, considering X-Forwarded-For if behind proxy
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// isStaticFile checks if the path is a static file request
func isStaticFile(path string) bool {
	return strings.HasPrefix(path, "/static/")
}
