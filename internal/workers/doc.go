// Package workers provides utilities for sizing the transcode process pool
// in containerized environments.
//
// Go 1.19+ automatically sets GOMAXPROCS based on container CPU limits,
// while runtime.NumCPU() still reports the host machine's CPU count.
// Spawning one ffmpeg process per host CPU on a CPU-limited pod leads to
// throttling, so worker counts are derived from GOMAXPROCS instead.
//
// The TRANSCODE_WORKERS environment variable overrides the calculation,
// which is useful for fine-tuning a deployment or temporarily limiting
// concurrency. A cap of 0 means unbounded, matching the original design
// of one subprocess per in-flight request.
package workers
