package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"cruisepulse/internal/config"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/rates"
	"cruisepulse/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version    string
	paths      *config.Paths
	thresholds rates.Thresholds
	startTime  time.Time
	now        func() time.Time
	logger     *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, paths *config.Paths, thresholds rates.Thresholds, logger *slog.Logger) *HealthService {
	return &HealthService{
		version:    version,
		paths:      paths,
		thresholds: thresholds,
		startTime:  time.Now(),
		now:        time.Now,
		logger:     infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck reports liveness plus the state of the rate file and the
// results directory. Stale rates degrade the status but the service stays up.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	ratesStatus := hs.RatesStatus(ctx)

	status := HealthStatus{
		Status:    "ok",
		Timestamp: hs.now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]interface{}{
			"rates":   ratesStatus,
			"results": map[string]interface{}{"writable": config.FileExists(hs.paths.ResultsDir)},
		},
	}
	if ratesStatus.Status != rates.LevelSuccess {
		status.Status = "degraded"
	}

	hs.logger.DebugContext(ctx, "Health check completed",
		slog.String("status", status.Status),
		slog.String("rates", string(ratesStatus.Status)))
	return status
}

// RatesStatus reports how fresh the exchange rate file is
func (hs *HealthService) RatesStatus(ctx context.Context) rates.Status {
	status := rates.CheckFile(hs.paths.RatesFile, hs.now(), hs.thresholds)
	if status.Status == rates.LevelError {
		hs.logger.WarnContext(ctx, "Exchange rates need attention",
			slog.String("path", hs.paths.RatesFile),
			slog.String("message", status.Message))
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":     hs.version,
		"build_time":  info.BuildTime,
		"git_commit":  info.GitCommit,
		"go_version":  info.GoVersion,
		"os":          info.OS,
		"arch":        info.Architecture,
		"data_format": info.DataFormat,
		"api_version": info.APIVersion,
		"start_time":  hs.startTime.Format(time.RFC3339),
	}
}
