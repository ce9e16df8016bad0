package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cruisepulse/internal/rates"
	"cruisepulse/pkg/contracts/domain"
)

const bookingsCSV = "Путевка,Страна,Дата создания,Статус путевки,Валюта,Сумма к оплате\n" +
	"V-1,Турция,2024-03-01,Подтвержден,EUR,100\n" +
	"V-2,Речной круиз,2024-03-01,Подтвержден,рб,500\n" +
	"V-3,Египет,2024-03-02,Аннулирован,USD,700\n"

// setup writes a config rooted in a temp dir and returns the config path and input file
func setup(t *testing.T, withRates bool) (string, string, string) {
	t.Helper()
	base := t.TempDir()

	configPath := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"paths:\n  base_dir: "+base+"\n"+
			"telemetry:\n  trace_exporter: none\n"+
			"logging:\n  level: warning\n"), 0644))

	input := filepath.Join(base, "bookings.csv")
	require.NoError(t, os.WriteFile(input, []byte(bookingsCSV), 0644))

	if withRates {
		require.NoError(t, rates.SaveFile(filepath.Join(base, "data", "app_data", "currency_rates.csv"), rates.NewTable([]domain.Rate{{
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Values: map[domain.Currency]float64{domain.CurrencyUSD: 90, domain.CurrencyEUR: 95},
		}})))
	}
	return base, configPath, input
}

type statsDoc struct {
	RunID      string                  `json:"run_id"`
	ResultFile string                  `json:"result_file"`
	ResultPath string                  `json:"result_path"`
	Rows       int                     `json:"rows"`
	Published  bool                    `json:"published"`
	Stats      *domain.ProcessingStats `json:"stats"`
}

func TestRun(t *testing.T) {
	base, configPath, input := setup(t, true)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-in", input}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var doc statsDoc
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc), stdout.String())
	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, 2, doc.Rows)
	assert.False(t, doc.Published)
	assert.Equal(t, 1, doc.Stats.RemovedCancelled)
	assert.True(t, doc.Stats.RatesAvailable)
	assert.True(t, strings.HasPrefix(doc.ResultFile, "processed_"))
	assert.Equal(t, filepath.Join(base, "data", "results", doc.ResultFile), doc.ResultPath)

	content, err := os.ReadFile(doc.ResultPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("\ufeff")))
	assert.Contains(t, string(content), "9927.50")
}

func TestRun_StatsFileAndOverrides(t *testing.T) {
	base, configPath, input := setup(t, false)
	resultsDir := filepath.Join(base, "out")
	statsPath := filepath.Join(base, "stats.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-config", configPath,
		"-results", resultsDir,
		"-stats", statsPath,
		input,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	var doc statsDoc
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.False(t, doc.Stats.RatesAvailable)
	assert.Equal(t, resultsDir, filepath.Dir(doc.ResultPath))
	assert.FileExists(t, doc.ResultPath)
}

func TestRun_Errors(t *testing.T) {
	base, configPath, input := setup(t, false)
	pdf := filepath.Join(base, "bookings.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no input", []string{"-config", configPath}, "input file is required"},
		{"unknown flag", []string{"-bogus"}, "flag provided but not defined"},
		{"missing input", []string{"-config", configPath, "-in", filepath.Join(t.TempDir(), "nope.csv")}, "nope.csv"},
		{"unsupported input", []string{"-config", configPath, "-in", pdf}, "unsupported input file"},
		{"publish without spreadsheet", []string{"-config", configPath, "-publish", "-in", input}, "sheets publisher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &stderr)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "-in")
}
