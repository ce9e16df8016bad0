package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cruisepulse/internal/rates"
	"cruisepulse/internal/services"
)

// MockHealthService is a mock implementation of HealthServiceInterface
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) RatesStatus(ctx context.Context) rates.Status {
	return m.Called().Get(0).(rates.Status)
}

func (m *MockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func freshRates() rates.Status {
	return rates.Status{
		Status:       rates.LevelSuccess,
		Message:      "Курсы актуальны",
		MinDate:      "01.01.2024",
		MaxDate:      "09.03.2024",
		TotalRecords: 69,
		DaysOld:      1,
	}
}

func TestHealthHandler(t *testing.T) {
	svc := new(MockHealthService)
	svc.On("HealthCheck").Return(services.HealthStatus{
		Status:    "degraded",
		Timestamp: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Version:   "1.0.0",
	})
	svc.On("RatesStatus").Return(freshRates())
	svc.On("Version").Return(map[string]interface{}{"version": "1.0.0"})

	h := NewHealthHandler(svc, nil)

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		contains []string
	}{
		{"health", h.HealthCheck, []string{`"status":"degraded"`, `"version":"1.0.0"`}},
		{"rates status", h.RatesStatus, []string{`"status":"success"`, `"max_date":"09.03.2024"`, `"total_records":69`}},
		{"version", h.Version, []string{`"version":"1.0.0"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tt.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestServeIndex(t *testing.T) {
	tests := []struct {
		name   string
		status rates.Status
		want   []string
	}{
		{
			name:   "fresh rates",
			status: freshRates(),
			want:   []string{`class="status success"`, "01.01.2024", "записей: 69", "не более 16 МБ"},
		},
		{
			name:   "missing rate file",
			status: rates.Status{Status: rates.LevelError, Message: rates.MessageNotFound},
			want:   []string{`class="status error"`, rates.MessageNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockHealthService)
			svc.On("RatesStatus").Return(tt.status)

			rec := httptest.NewRecorder()
			ServeIndex(svc, 16<<20, "1.0.0", nil)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			for _, want := range tt.want {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}
