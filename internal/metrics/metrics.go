package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_converter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_converter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_converter_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Auth metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_converter_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_converter_active_sessions",
			Help: "Number of sessions currently held in memory",
		},
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_converter_conversions_total",
			Help: "Total number of conversion jobs by outcome",
		},
		[]string{"outcome"}, // "success", "probe_failed", "encode_failed", "too_long", "cannot_fit", "bad_request"
	)

	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_converter_conversion_duration_seconds",
			Help:    "Wall-clock duration of conversion jobs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	ConversionPassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_converter_conversion_passes_total",
			Help: "Total number of encoder passes across all jobs",
		},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_converter_upload_bytes_total",
			Help: "Total bytes received in upload bodies",
		},
	)

	OutputBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_converter_output_bytes_total",
			Help: "Total bytes of MP3 output produced",
		},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_converter_jobs_in_flight",
			Help: "Number of conversion jobs currently running",
		},
	)
)

// Janitor metrics
var (
	JanitorRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_converter_janitor_runs_total",
			Help: "Total number of converted-directory prune runs",
		},
	)

	JanitorFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_converter_janitor_files_removed_total",
			Help: "Total number of expired output files removed",
		},
	)
)

// Handler returns the HTTP handler that serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
