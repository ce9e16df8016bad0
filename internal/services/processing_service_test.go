package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cruisepulse/internal/config"
	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/exporter"
	"cruisepulse/internal/operations"
	"cruisepulse/internal/rates"
	"cruisepulse/internal/shared/testutil"
	"cruisepulse/pkg/contracts/domain"
)

const bookingsCSV = "Путевка,Страна,Дата создания,Статус путевки,Валюта,Сумма к оплате\n" +
	"V-1,Турция,2024-03-01,Подтвержден,EUR,100\n" +
	"V-2,Речной круиз,2024-03-01,Подтвержден,рб,500\n" +
	"V-3,Египет,2024-03-02,Аннулирован,USD,700\n"

// MockPublisher is a mock for exporter.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, columns []string, records []domain.EnrichedRecord) error {
	args := m.Called(ctx, columns, records)
	return args.Error(0)
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths, err := config.NewPaths(config.PathsConfig{
		BaseDir:    t.TempDir(),
		DataDir:    "data",
		UploadsDir: "data/uploads",
		ResultsDir: "data/results",
		LogsDir:    "logs",
		RatesFile:  "data/exchange_rates.csv",
	})
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())
	return paths
}

func newTestService(t *testing.T, publisher exporter.Publisher) (*ProcessingService, *config.Paths, *testutil.BufferedSlogHandler) {
	t.Helper()
	paths := testPaths(t)
	logger, handler := testutil.NewTestLogger(t)

	table := rates.NewTable([]domain.Rate{{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Values: map[domain.Currency]float64{domain.CurrencyUSD: 90, domain.CurrencyEUR: 95},
	}})
	pipeline := operations.NewPipeline(rates.StaticProvider{Table: table}, operations.Options{}, logger)
	svc := NewProcessingService(pipeline, exporter.NewCSVWriter(paths, logger), publisher, paths, logger)
	return svc, paths, handler
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func resultFiles(t *testing.T, paths *config.Paths) []string {
	t.Helper()
	entries, err := os.ReadDir(paths.ResultsDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestProcessingService_ProcessFile(t *testing.T) {
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.MatchedBy(func(records []domain.EnrichedRecord) bool {
		return len(records) == 2
	})).Return(nil).Once()

	svc, paths, _ := newTestService(t, publisher)

	result, err := svc.ProcessFile(context.Background(), writeInput(t, "bookings.csv", bookingsCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 1, result.Stats.RemovedCancelled)
	assert.True(t, result.Published)
	assert.NotEmpty(t, result.RunID)
	assert.True(t, strings.HasPrefix(result.ResultFile, config.ResultFilePrefix))
	assert.Equal(t, []string{result.ResultFile}, resultFiles(t, paths))

	raw, err := os.ReadFile(paths.GetResultPath(result.ResultFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "9927.50")

	publisher.AssertExpectations(t)
}

func TestProcessingService_PublishFailureIsNotFatal(t *testing.T) {
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("quota exceeded"))

	svc, paths, handler := newTestService(t, publisher)

	result, err := svc.ProcessFile(context.Background(), writeInput(t, "bookings.csv", bookingsCSV))
	require.NoError(t, err)

	assert.False(t, result.Published)
	assert.Len(t, resultFiles(t, paths), 1)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Failed to publish result")
}

func TestProcessingService_ProcessFileFailures(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantType apperrors.ErrorType
	}{
		{"legacy excel", "bookings.xls", "binary", apperrors.ErrTypeParsing},
		{"no key columns", "bookings.csv", "Страна,Валюта\nТурция,EUR\n", apperrors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &MockPublisher{}
			svc, paths, _ := newTestService(t, publisher)

			result, err := svc.ProcessFile(context.Background(), writeInput(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apperrors.IsType(err, tt.wantType), err.Error())
			assert.Empty(t, resultFiles(t, paths), "no output on failure")
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProcessingService_ProcessUpload(t *testing.T) {
	svc, paths, _ := newTestService(t, nil)

	result, err := svc.ProcessUpload(context.Background(), "bookings.csv", strings.NewReader(bookingsCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.False(t, result.Published)

	uploads, err := os.ReadDir(paths.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, uploads, "upload is removed after processing")
}

func TestProcessingService_ProcessUploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"empty name", "", ErrMissingFile},
		{"unsupported type", "report.pdf", ErrInvalidFileType},
		{"no extension", "bookings", ErrInvalidFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t, nil)
			_, err := svc.ProcessUpload(context.Background(), tt.filename, strings.NewReader(bookingsCSV))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProcessingService_OneRunAtATime(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	svc.runMu.Lock()
	_, err := svc.ProcessUpload(context.Background(), "bookings.csv", strings.NewReader(bookingsCSV))
	svc.runMu.Unlock()
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.ProcessUpload(context.Background(), "bookings.csv", strings.NewReader(bookingsCSV))
	assert.NoError(t, err)
}

func TestProcessingService_ResultPath(t *testing.T) {
	svc, paths, _ := newTestService(t, nil)
	require.NoError(t, os.WriteFile(paths.GetResultPath("processed_20240310_150405.csv"), []byte("x"), 0644))

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{"existing", "processed_20240310_150405.csv", nil},
		{"missing", "processed_20240101_000000.csv", ErrFileNotFound},
		{"traversal", "../config.yaml", ErrInvalidFileName},
		{"not csv", "processed.txt", ErrInvalidFileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := svc.ResultPath(tt.file)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, paths.GetResultPath(tt.file), path)
		})
	}
}
