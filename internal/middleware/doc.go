// Package middleware holds the HTTP middleware chain of the web server:
// request IDs, structured request logging, panic recovery, rate limiting,
// body size limits, security headers and OpenTelemetry instrumentation.
//
// Errors produced here are rendered through the shared RFC 7807 error handler.
package middleware
