// Package metrics provides Prometheus instrumentation for the transcoding
// service.
//
// All metrics are prefixed with "ilovevideo_" to avoid naming collisions
// with other applications. They fall into five categories:
//
//   - HTTP metrics: request counts, durations, and in-flight gauge
//   - Job metrics: transcode jobs by kind and outcome, durations, byte
//     throughput, size-guard fallbacks, and active ffmpeg processes
//   - Quota metrics: rejections by tier and usage commits
//   - Ledger metrics: SQLite query counts, durations, and open connections
//   - Sweeper metrics: retention sweep runs, removed files, and errors
//
// Metrics are exposed on a dedicated listener (METRICS_PORT) separate from
// the application port.
package metrics
