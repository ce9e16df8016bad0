package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruisepulse/internal/config"
	"cruisepulse/internal/rates"
	"cruisepulse/internal/shared/testutil"
	"cruisepulse/pkg/contracts/domain"
)

const bookingsCSV = "Путевка,Страна,Дата создания,Статус путевки,Валюта,Сумма к оплате\n" +
	"V-1,Турция,2024-03-01,Подтвержден,EUR,100\n" +
	"V-2,Речной круиз,2024-03-01,Подтвержден,рб,500\n" +
	"V-3,Египет,2024-03-02,Аннулирован,USD,700\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Server.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Telemetry.MetricsEnabled = false
	cfg.Telemetry.TraceExporter = "none"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := NewApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	return a
}

func seedRates(t *testing.T, a *Application) {
	t.Helper()
	require.NoError(t, rates.SaveFile(a.Paths.RatesFile, rates.NewTable([]domain.Rate{{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Values: map[domain.Currency]float64{domain.CurrencyUSD: 90, domain.CurrencyEUR: 95},
	}})))
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestApplication_UploadAndDownload(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	seedRates(t, a)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, uploadRequest(t, "bookings.csv", bookingsCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var upload struct {
		Status      string                  `json:"status"`
		Rows        int                     `json:"rows"`
		DownloadURL string                  `json:"download_url"`
		Stats       *domain.ProcessingStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	assert.Equal(t, "success", upload.Status)
	assert.Equal(t, 2, upload.Rows)
	assert.Equal(t, 1, upload.Stats.RemovedCancelled)
	assert.True(t, upload.Stats.RatesAvailable)

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, upload.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="cruise_analytics_`))
	assert.Contains(t, rec.Body.String(), "9927.50")

	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"download_url":"`+upload.DownloadURL+`"`)
}

func TestApplication_UploadWithoutRates(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, uploadRequest(t, "bookings.csv", bookingsCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rates_available":false`)
}

func TestApplication_Routes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxUploadBytes = 512
	a := newTestApp(t, cfg)

	tests := []struct {
		name         string
		req          *http.Request
		expectedCode int
		contains     string
	}{
		{"health", httptest.NewRequest(http.MethodGet, "/api/health", nil), http.StatusOK, `"status":"degraded"`},
		{"rates status", httptest.NewRequest(http.MethodGet, "/api/rates/status", nil), http.StatusOK, `"status":"error"`},
		{"version", httptest.NewRequest(http.MethodGet, "/api/version", nil), http.StatusOK, config.AppVersion},
		{"index", httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, `action="/api/upload"`},
		{"unknown route", httptest.NewRequest(http.MethodGet, "/api/nope", nil), http.StatusNotFound, `"trace_id"`},
		{"bad result name", httptest.NewRequest(http.MethodGet, "/api/download/passwd", nil), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unsupported upload", uploadRequest(t, "bookings.pdf", "x"), http.StatusBadRequest, "UNSUPPORTED_FILE"},
		{"oversized upload", uploadRequest(t, "bookings.csv", strings.Repeat("x", 4096)), http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"no results yet", httptest.NewRequest(http.MethodGet, "/api/results", nil), http.StatusOK, `"count":0`},
		{"no metrics endpoint", httptest.NewRequest(http.MethodGet, "/metrics", nil), http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router.ServeHTTP(rec, tt.req)

			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestApplication_SheetsRequireSpreadsheet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sheets.Enabled = true

	logger, _ := testutil.NewTestLogger(t)
	_, err := NewApplication(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets publisher")
}

func TestApplication_ServeShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
