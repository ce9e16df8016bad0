// Package services implements the application layer between the HTTP handlers
// and the processing core.
//
// ProcessingService runs an input file through parsing, the pipeline and the
// exporters. It serializes uploads: while one file is processed, further
// uploads are rejected with ErrRunInProgress instead of queueing.
//
// HealthService reports liveness and the freshness of the exchange rate file.
package services
