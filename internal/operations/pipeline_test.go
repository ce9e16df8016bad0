package operations_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "cruisepulse/internal/errors"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/operations"
	"cruisepulse/internal/rates"
	"cruisepulse/internal/shared/testutil"
	"cruisepulse/pkg/contracts/domain"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
}

func testRates() *rates.Table {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	return rates.NewTable([]domain.Rate{
		{Date: day(1), Values: map[domain.Currency]float64{domain.CurrencyUSD: 90.0, domain.CurrencyEUR: 95.0}},
		{Date: day(5), Values: map[domain.Currency]float64{domain.CurrencyUSD: 91.5, domain.CurrencyEUR: 99.25}},
	})
}

// exportTable mimics a raw booking export: source headers, one extra column,
// a cancelled booking and a row without a voucher.
func exportTable() *domain.Table {
	return domain.NewTable(
		[]string{
			"Путевка", "Страна", "Дата создания", "Дата заезда", "Статус путевки", "Валюта",
			"Сумма к оплате", "Оплата", "Название тура", "Покупатель: Наименование", "Примечание",
		},
		[][]string{
			{"V-1", "Турция", "2024-03-01", "2024-03-20", "Подтвержден", "EUR", "100", "4963.75", "Отдых в Анталье", "ООО Вояж-Тур, Москва", ""},
			{"V-2", "Речной круиз", "2024-03-01", "2024-03-09 10:00:00", "Подтвержден", "рб", "500", "", "Волга", "ИП Петров, Подольск", ""},
			{"V-3", "Норвегия", "", "", "Подтвержден", "USD", "0", "100", "Fjord CRUISE", "", "звонить"},
			{"V-4", "Египет", "2024-03-02", "2024-04-01", "Аннулирован", "USD", "700", "", "", "", ""},
			{"  ", "Египет", "2024-03-02", "2024-04-01", "Подтвержден", "USD", "900", "", "", "", ""},
		},
	)
}

func newPipeline(t *testing.T, provider rates.Provider, opts operations.Options, options ...operations.PipelineOption) (*operations.Pipeline, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return operations.NewPipeline(provider, opts, logger, options...), handler
}

func amounts(result *operations.Result) []float64 {
	out := make([]float64, len(result.Records))
	for i, rec := range result.Records {
		out[i] = rec.AmountRUB
	}
	return out
}

func TestPipeline_Run(t *testing.T) {
	p, handler := newPipeline(t, rates.StaticProvider{Table: testRates()}, operations.Options{})
	input := exportTable()

	result, err := p.Run(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []float64{9927.5, 500.0, 0}, amounts(result))

	stats := result.Stats
	assert.Equal(t, 5, stats.OriginalRows)
	assert.Equal(t, 11, stats.OriginalCols)
	assert.Equal(t, 1, stats.RemovedCancelled)
	assert.Equal(t, 1, stats.RemovedEmptyVoucher)
	assert.Equal(t, 0, stats.RemovedDuplicates)
	assert.Equal(t, 2, stats.ConvertedCurrency)
	assert.Equal(t, 0, stats.ConversionFailures)
	assert.Equal(t, 3, stats.ExtractedRegions)
	assert.True(t, stats.RatesAvailable)
	assert.Equal(t, 3, stats.FinalRows)
	assert.Equal(t, 16, stats.FinalCols)
	assert.Equal(t, domain.DerivedColumns, stats.AddedCols)

	assert.Equal(t, []string{
		domain.FieldVoucherID, domain.FieldCountry, domain.FieldCreationDate, domain.FieldCheckinDate,
		domain.FieldVoucherStatus, domain.FieldCurrency, domain.FieldAmountToPay, domain.FieldPayment,
		domain.FieldTourName, domain.FieldBuyerName,
		domain.ColumnAmountRUB, domain.ColumnRegion, domain.ColumnIsCruiseSeller,
		domain.ColumnPaymentPercentage, domain.ColumnDaysUntilCheckin, domain.ColumnCreationMonth,
	}, result.Columns)

	rows := result.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "V-1", rows[0][0])
	assert.Equal(t, "9927.50", rows[0][10])

	require.Len(t, result.Steps, 6)
	for _, st := range result.Steps {
		assert.Equal(t, operations.StepStatusCompleted, st.GetStatus(), st.ID)
	}

	assert.Equal(t, "Путевка", input.Columns[0], "input table must not be modified")
	assert.Equal(t, 5, input.NumRows())

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Pipeline run completed")
	testutil.AssertLogAttr(t, handler, "run_id", result.RunID)
	testutil.AssertNoErrors(t, handler)
}

func TestPipeline_RunIsRepeatable(t *testing.T) {
	p, _ := newPipeline(t, rates.StaticProvider{Table: testRates()}, operations.Options{Workers: 4})

	first, err := p.Run(context.Background(), exportTable())
	require.NoError(t, err)
	second, err := p.Run(context.Background(), exportTable())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Stats, second.Stats, "stats are per run")
	assert.Equal(t, amounts(first), amounts(second))
}

func TestPipeline_RunWithoutRates(t *testing.T) {
	tests := []struct {
		name     string
		provider rates.Provider
	}{
		{"provider error", rates.StaticProvider{Err: apperrors.NewRatesError("rate file missing", nil)}},
		{"empty table", rates.StaticProvider{Table: rates.NewTable(nil)}},
		{"no provider", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, handler := newPipeline(t, tt.provider, operations.Options{})

			result, err := p.Run(context.Background(), exportTable())
			require.NoError(t, err)

			assert.False(t, result.Stats.RatesAvailable)
			assert.Equal(t, []float64{0, 0, 0}, amounts(result))
			assert.Equal(t, 0, result.Stats.ConvertedCurrency)
			assert.Equal(t, 3, result.Stats.FinalRows)
			testutil.AssertLogContains(t, handler, slog.LevelWarn, "amount_rub will be zero")
		})
	}
}

func TestPipeline_ImputeMissing(t *testing.T) {
	p, _ := newPipeline(t, rates.StaticProvider{Table: testRates()}, operations.Options{ImputeMissing: true})

	result, err := p.Run(context.Background(), exportTable())
	require.NoError(t, err)

	require.Len(t, result.Steps, 7)
	assert.Equal(t, operations.StepIDImputeMissing, result.Steps[5].ID)
	assert.Equal(t, operations.StepIDEnrich, result.Steps[6].ID)
	assert.Equal(t, 0, result.Stats.ImputedAmounts)
	assert.Equal(t, 0, result.Stats.ImputedPayments, "each currency has a single row")
}

func TestPipeline_CleansThousandsSeparators(t *testing.T) {
	input := domain.NewTable(
		[]string{"Путевка", "Статус путевки", "Валюта", "Сумма к оплате"},
		[][]string{
			{"V-1", "Подтвержден", "RUB", "1,500"},
			{"V-2", "Подтвержден", "RUB", "250.5"},
		},
	)
	p, _ := newPipeline(t, nil, operations.Options{})

	result, err := p.Run(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 1500.0, result.Records[0].AmountToPay)
	assert.Equal(t, "1500", result.Records[0].Fields[domain.FieldAmountToPay])
}

func TestPipeline_FillBuyerNames(t *testing.T) {
	input := domain.NewTable(
		[]string{"Путевка", "Покупатель: Ответственное подразделение", "Покупатель: Наименование"},
		[][]string{
			{"V-1", "КЛИЕНТСКИЙ ЗАЛ", ""},
			{"V-2", "Агентства", ""},
			{"V-3", "Агентства", "ООО Ромашка"},
		},
	)
	p, _ := newPipeline(t, nil, operations.Options{})

	result, err := p.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.FilledBuyerNameClientHall)
	assert.Equal(t, 1, result.Stats.FilledBuyerNameUndefined)
	assert.Equal(t, "КЛИЕНТСКИЙ ЗАЛ", result.Records[0].Fields[domain.FieldBuyerName])
}

func TestPipeline_RunFailures(t *testing.T) {
	t.Run("nil input", func(t *testing.T) {
		p, _ := newPipeline(t, nil, operations.Options{})

		result, err := p.Run(context.Background(), nil)
		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	})

	t.Run("key columns missing", func(t *testing.T) {
		input := domain.NewTable([]string{"Страна", "Валюта"}, [][]string{{"Турция", "EUR"}})
		p, handler := newPipeline(t, nil, operations.Options{})

		result, err := p.Run(context.Background(), input)
		require.Error(t, err)
		assert.Nil(t, result)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)

		var opErr *operations.OperationError
		require.True(t, errors.As(err, &opErr))
		assert.Equal(t, operations.StepIDFilterRows, opErr.Step)

		testutil.AssertLogContains(t, handler, slog.LevelError, "Pipeline run failed")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p, _ := newPipeline(t, rates.StaticProvider{Table: testRates()}, operations.Options{})

		result, err := p.Run(ctx, exportTable())
		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	})
}

func TestPipeline_Telemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	metrics, err := infrastructure.CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)
	tracer := operations.NewOperationTracerWith(tp.Tracer("test"), metrics)

	p, _ := newPipeline(t, rates.StaticProvider{Table: testRates()}, operations.Options{}, operations.WithTracer(tracer))
	_, err = p.Run(context.Background(), exportTable())
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "pipeline.run")
	assert.Contains(t, names, "pipeline.step.load_rates")
	assert.Contains(t, names, "pipeline.step.enrich")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var metricNames []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			metricNames = append(metricNames, m.Name)
		}
	}
	assert.Contains(t, metricNames, "pipeline_runs_total")
	assert.Contains(t, metricNames, "pipeline_step_duration_seconds")
	assert.Contains(t, metricNames, "pipeline_rows_removed_total")
}
