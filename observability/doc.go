// Package observability provides a metrics extension for Invoke. The
// MetricsExtension implements lifecycle hooks to record system-wide
// counters for command registration, invocation outcomes, context
// transitions, and scheduler fires.
//
// For per-invocation tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
