package middleware

import (
	"net/http"
	"strconv"
	"time"

	"audio-converter/internal/logging"
	"audio-converter/internal/metrics"
)

// responseWriter captures status code and bytes written for logging and
// metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig controls which requests the logger reports.
type LoggingConfig struct {
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the default logging configuration.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

// Logger returns middleware that logs every request and records HTTP
// metrics.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			path := normalizePath(r.URL.Path)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())

			if r.URL.Path == "/health" && !config.LogHealthChecks {
				return
			}

			logging.Info("%s %s %d %dB %s", r.Method, r.URL.Path, rw.statusCode, rw.bytesWritten, duration.Round(time.Millisecond))
		})
	}
}

// normalizePath collapses per-file paths so download requests do not
// explode metric cardinality.
func normalizePath(path string) string {
	if len(path) > len("/download/") && path[:len("/download/")] == "/download/" {
		return "/download/{filename}"
	}
	return path
}
