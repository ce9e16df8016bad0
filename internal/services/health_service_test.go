package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruisepulse/internal/rates"
	"cruisepulse/pkg/contracts/domain"
)

func TestHealthService_HealthCheck(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		latest     *time.Time
		wantStatus string
		wantRates  rates.Level
	}{
		{"no rate file", nil, "degraded", rates.LevelError},
		{"fresh rates", ptr(now.AddDate(0, 0, -1)), "ok", rates.LevelSuccess},
		{"aging rates", ptr(now.AddDate(0, 0, -5)), "degraded", rates.LevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := testPaths(t)
			if tt.latest != nil {
				require.NoError(t, rates.SaveFile(paths.RatesFile, rates.NewTable([]domain.Rate{{
					Date:   *tt.latest,
					Values: map[domain.Currency]float64{domain.CurrencyUSD: 90, domain.CurrencyEUR: 95},
				}})))
			}

			hs := NewHealthService("1.0.0", paths, rates.DefaultThresholds, nil)
			hs.now = func() time.Time { return now }

			status := hs.HealthCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1.0.0", status.Version)

			ratesStatus, ok := status.Services["rates"].(rates.Status)
			require.True(t, ok)
			assert.Equal(t, tt.wantRates, ratesStatus.Status)
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("1.0.0", testPaths(t), rates.DefaultThresholds, nil)
	info := hs.Version()
	assert.Equal(t, "1.0.0", info["version"])
	assert.NotEmpty(t, info["go_version"])
	assert.Equal(t, "v1", info["data_format"])
}

func ptr[T any](v T) *T {
	return &v
}
