package http

import (
	"context"
	"io"

	"cruisepulse/internal/files"
	"cruisepulse/internal/rates"
	"cruisepulse/internal/services"
)

// ProcessingServiceInterface defines the processing operations used by the handlers
type ProcessingServiceInterface interface {
	ProcessUpload(ctx context.Context, filename string, src io.Reader) (*services.ProcessResult, error)
	ResultPath(name string) (string, error)
}

// HealthServiceInterface defines the health and rate status operations
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	RatesStatus(ctx context.Context) rates.Status
	Version() map[string]interface{}
}

// ResultListerInterface lists the result files available for download
type ResultListerInterface interface {
	FindResults() ([]files.FileInfo, error)
}
