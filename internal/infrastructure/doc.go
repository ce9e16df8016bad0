// Package infrastructure provides process-wide plumbing: the JSON slog logger with
// trace and run id injection, and the OpenTelemetry tracer and meter providers
// backing the Prometheus /metrics endpoint.
package infrastructure
