package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ilovevideo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ilovevideo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ilovevideo_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transcode job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ilovevideo_jobs_total",
			Help: "Total number of transcode jobs by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: compress|resize; outcome: success|failed|aborted
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ilovevideo_job_duration_seconds",
			Help:    "End-to-end transcode job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	JobInputBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_job_input_bytes_total",
			Help: "Total bytes of uploaded video accepted for processing",
		},
	)

	JobOutputBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_job_output_bytes_total",
			Help: "Total bytes of processed video returned to callers",
		},
	)

	JobSizeGuardFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_job_size_guard_fallbacks_total",
			Help: "Jobs where the output was larger than the input and the original was returned",
		},
	)

	ProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ilovevideo_ffmpeg_processes_active",
			Help: "Number of external transcode processes currently running",
		},
	)
)

// Quota metrics
var (
	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ilovevideo_quota_rejections_total",
			Help: "Requests rejected because the daily quota was exhausted",
		},
		[]string{"tier"},
	)

	QuotaCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_quota_commits_total",
			Help: "Total number of quota usage commits",
		},
	)
)

// Usage ledger (SQLite) metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ilovevideo_db_queries_total",
			Help: "Total number of usage ledger queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ilovevideo_db_query_duration_seconds",
			Help:    "Usage ledger query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ilovevideo_db_connections_open",
			Help: "Number of open usage ledger connections",
		},
	)
)

// Sweeper metrics
var (
	SweeperRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_sweeper_runs_total",
			Help: "Total number of retention sweeper runs",
		},
	)

	SweeperFilesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_sweeper_files_removed_total",
			Help: "Stale scratch files removed by the retention sweeper",
		},
	)

	SweeperLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ilovevideo_sweeper_last_run_timestamp",
			Help: "Timestamp of the last retention sweeper run",
		},
	)

	SweeperErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ilovevideo_sweeper_errors_total",
			Help: "Total number of retention sweeper errors",
		},
	)
)
