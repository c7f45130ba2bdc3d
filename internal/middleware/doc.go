// Package middleware provides HTTP middleware for request logging and
// Prometheus metrics collection.
//
// Access logs use W3C Extended Log Format with all user-controlled
// fields sanitized against log injection. The metrics middleware records
// request counts, durations, and in-flight gauges with path
// normalization to keep label cardinality bounded.
package middleware
