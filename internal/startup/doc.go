// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides
// consistent logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// A .env file in the working directory is merged in first if present.
// The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATA_DIR: Path to the persistent data directory (default: /data)
//   - SCRATCH_DIR: Path to the scratch directory for uploads and outputs (default: /scratch)
//   - FFMPEG_PATH: Encoder binary name or path (default: ffmpeg)
//   - GUEST_LIMIT: Daily job limit for anonymous clients (default: 3)
//   - USER_LIMIT: Daily job limit for authenticated users (default: 10)
//   - MAX_UPLOAD_SIZE_MB: Maximum upload size in MiB (default: 500)
//   - MAX_CONCURRENT_JOBS: Concurrent encoder process cap, 0 for unbounded
//     (default: derived from GOMAXPROCS)
//   - MAX_FILE_AGE: Scratch file retention as Go duration (default: 1h)
//   - SWEEP_INTERVAL: Retention sweep interval as Go duration (default: 10m)
//   - AUTH_JWT_SECRET: Shared secret for bearer token verification
//   - AUTH_ISSUER: Expected token issuer (default: ilovevideo)
//   - WEBHOOK_SECRET: Shared secret for payment webhook signatures
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The package validates and creates required directories. The data
// directory and both scratch subdirectories (uploads and outputs) must
// be writable; startup fails otherwise.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via
// [GetBuildInfo]: Version, Commit, and BuildTime.
package startup
