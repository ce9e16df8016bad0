package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruisepulse/internal/rates"
)

const dailyXML = `<?xml version="1.0" encoding="utf-8"?>
<ValCurs Date="02.03.2024" name="Foreign Currency Market">
<Valute ID="R01235"><CharCode>USD</CharCode><Nominal>1</Nominal><Value>91,3336</Value></Valute>
<Valute ID="R01239"><CharCode>EUR</CharCode><Nominal>1</Nominal><Value>98,7074</Value></Valute>
</ValCurs>`

func fixedNow() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"paths:\n  base_dir: "+base+"\n"+
			"rates:\n  start_date: \"2024-03-01\"\n"+
			"telemetry:\n  trace_exporter: none\n"), 0644))
	return base, path
}

func decodeReport(t *testing.T, b []byte) report {
	t.Helper()
	var out report
	require.NoError(t, json.Unmarshal(b, &out), string(b))
	return out
}

func TestRun_DownloadsThenUpToDate(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(dailyXML))
	}))
	defer srv.Close()

	base, configPath := writeConfig(t)
	args := []string{"-config", configPath, "-source", srv.URL}

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout, &stderr, fixedNow), stderr.String())

	out := decodeReport(t, stdout.Bytes())
	require.NotNil(t, out.Update)
	assert.Equal(t, rates.UpdateSuccess, out.Update.Status)
	assert.Equal(t, 4, out.Update.Added)
	assert.Equal(t, int32(4), requests.Load())
	assert.Equal(t, rates.LevelSuccess, out.Status.Status)
	assert.Equal(t, "04.03.2024", out.Status.MaxDate)
	assert.FileExists(t, filepath.Join(base, "data", "app_data", "currency_rates.csv"))

	stdout.Reset()
	require.NoError(t, run(context.Background(), args, &stdout, &stderr, fixedNow))
	out = decodeReport(t, stdout.Bytes())
	assert.Equal(t, rates.UpdateUpToDate, out.Update.Status)
	assert.Equal(t, int32(4), requests.Load())
}

func TestRun_SourceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, configPath := writeConfig(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-source", srv.URL}, &stdout, &stderr, fixedNow)
	require.Error(t, err)

	out := decodeReport(t, stdout.Bytes())
	assert.Equal(t, rates.UpdateError, out.Update.Status)
	assert.Equal(t, 4, out.Update.Skipped)
	assert.Equal(t, rates.LevelError, out.Status.Status)
}

func TestRun_StatusOnly(t *testing.T) {
	base, configPath := writeConfig(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-status"}, &stdout, &stderr, fixedNow))
	out := decodeReport(t, stdout.Bytes())
	assert.Nil(t, out.Update)
	assert.Equal(t, rates.MessageNotFound, out.Status.Message)

	ratesPath := filepath.Join(base, "custom.csv")
	require.NoError(t, os.WriteFile(ratesPath, []byte("date,USD,EUR\n2024-02-20,90,95\n"), 0644))

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-status", "-rates", ratesPath}, &stdout, &stderr, fixedNow))
	out = decodeReport(t, stdout.Bytes())
	assert.Equal(t, rates.LevelError, out.Status.Status)
	assert.Equal(t, rates.MessageStale, out.Status.Message)
	assert.Equal(t, 14, out.Status.DaysOld)
}

func TestRun_InvalidStartDate(t *testing.T) {
	_, configPath := writeConfig(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-from", "01.03.2024"}, &stdout, &stderr, fixedNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start date")
}
