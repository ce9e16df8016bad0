package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "cruisepulse/internal/errors"
	"cruisepulse/internal/files"
	"cruisepulse/internal/shared/testutil"
)

// MockResultLister is a mock implementation of ResultListerInterface
type MockResultLister struct {
	mock.Mock
}

func (m *MockResultLister) FindResults() ([]files.FileInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]files.FileInfo), args.Error(1)
}

func TestResultsHandler_List(t *testing.T) {
	found := []files.FileInfo{
		{Name: "processed_20240310_140509.csv", Size: 120, ModTime: time.Date(2024, 3, 10, 14, 5, 9, 0, time.UTC)},
		{Name: "processed_20240309_090000.csv", Size: 80, ModTime: time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC)},
	}

	tests := []struct {
		name         string
		query        string
		listErr      error
		expectedCode int
		contains     []string
		absent       []string
	}{
		{
			name:         "all results",
			expectedCode: http.StatusOK,
			contains:     []string{`"count":2`, `"download_url":"/api/download/processed_20240310_140509.csv"`, `"created_at":"2024-03-10T14:05:09Z"`},
		},
		{
			name:         "limited",
			query:        "?limit=1",
			expectedCode: http.StatusOK,
			contains:     []string{`"count":1`, "processed_20240310_140509.csv"},
			absent:       []string{"processed_20240309_090000.csv"},
		},
		{
			name:         "bad limit",
			query:        "?limit=zero",
			expectedCode: http.StatusBadRequest,
			contains:     []string{"VALIDATION_FAILED"},
		},
		{
			name:         "listing fails",
			listErr:      errors.New("permission denied"),
			expectedCode: http.StatusInternalServerError,
			contains:     []string{"STORAGE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := new(MockResultLister)
			if tt.listErr != nil {
				lister.On("FindResults").Return(nil, tt.listErr)
			} else {
				lister.On("FindResults").Return(found, nil).Maybe()
			}

			logger, _ := testutil.NewTestLogger(t)
			h := NewResultsHandler(lister, logger, apierrors.NewErrorHandler(logger, false))

			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/api/results"+tt.query, nil))

			require.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			for _, want := range tt.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, rec.Body.String(), unwanted)
			}
			lister.AssertExpectations(t)
		})
	}
}
