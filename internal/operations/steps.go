package operations

import (
	"context"
	"log/slog"

	"cruisepulse/internal/dataprocessing"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/rates"
)

// Step IDs in execution order
const (
	StepIDLoadRates        = "load_rates"
	StepIDNormalizeColumns = "normalize_columns"
	StepIDCleanNumeric     = "clean_numeric"
	StepIDFilterRows       = "filter_rows"
	StepIDFillBuyerNames   = "fill_buyer_names"
	StepIDImputeMissing    = "impute_missing"
	StepIDEnrich           = "enrich"
)

// LoadRatesStep fetches the rate table. A missing table is not an error: the
// run continues without currency conversion.
type LoadRatesStep struct {
	BaseStep
	provider rates.Provider
	logger   *slog.Logger
}

// NewLoadRatesStep creates the rate loading Step
func NewLoadRatesStep(provider rates.Provider, logger *slog.Logger) *LoadRatesStep {
	return &LoadRatesStep{
		BaseStep: NewBaseStep(StepIDLoadRates, "Load exchange rates"),
		provider: provider,
		logger:   logger,
	}
}

// Execute implements Step
func (s *LoadRatesStep) Execute(ctx context.Context, state *RunState) error {
	logger := infrastructure.ContextLogger(s.logger, ctx)

	if s.provider == nil {
		logger.WarnContext(ctx, "No exchange rate provider configured, amount_rub will be zero")
		state.Stats.RatesAvailable = false
		return nil
	}

	table, err := s.provider.Rates(ctx)
	if err != nil || table.Len() == 0 {
		attrs := []any{}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.WarnContext(ctx, "Exchange rates unavailable, amount_rub will be zero", attrs...)
		state.Stats.RatesAvailable = false
		return nil
	}

	state.Rates = table
	state.Stats.RatesAvailable = true
	state.annotate(s.ID(), "entries", table.Len())
	return nil
}

// NormalizeColumnsStep renames export headers to canonical fields
type NormalizeColumnsStep struct {
	BaseStep
	logger *slog.Logger
}

// NewNormalizeColumnsStep creates the column normalization Step
func NewNormalizeColumnsStep(logger *slog.Logger) *NormalizeColumnsStep {
	return &NormalizeColumnsStep{
		BaseStep: NewBaseStep(StepIDNormalizeColumns, "Normalize columns"),
		logger:   logger,
	}
}

// Execute implements Step
func (s *NormalizeColumnsStep) Execute(ctx context.Context, state *RunState) error {
	table, retained := dataprocessing.NormalizeColumns(state.Table)
	state.Table = table
	state.annotate(s.ID(), "retained_columns", retained)

	infrastructure.ContextLogger(s.logger, ctx).InfoContext(ctx, "Columns normalized",
		slog.Int("retained", retained),
		slog.Int("original", state.Stats.OriginalCols))
	return nil
}

// CleanNumericStep strips thousands separators
type CleanNumericStep struct {
	BaseStep
}

// NewCleanNumericStep creates the numeric cleaning Step
func NewCleanNumericStep() *CleanNumericStep {
	return &CleanNumericStep{BaseStep: NewBaseStep(StepIDCleanNumeric, "Clean numeric columns")}
}

// Execute implements Step
func (s *CleanNumericStep) Execute(_ context.Context, state *RunState) error {
	table, cleaned := dataprocessing.CleanNumeric(state.Table)
	state.Table = table
	state.annotate(s.ID(), "cleaned_columns", cleaned)
	return nil
}

// FilterRowsStep drops cancelled bookings and rows without a voucher
type FilterRowsStep struct {
	BaseStep
	logger *slog.Logger
}

// NewFilterRowsStep creates the row filtering Step
func NewFilterRowsStep(logger *slog.Logger) *FilterRowsStep {
	return &FilterRowsStep{
		BaseStep: NewBaseStep(StepIDFilterRows, "Filter rows"),
		logger:   logger,
	}
}

// Execute implements Step
func (s *FilterRowsStep) Execute(ctx context.Context, state *RunState) error {
	table, counts, err := dataprocessing.FilterRows(state.Table)
	if err != nil {
		return err
	}

	state.Table = table
	state.Stats.RemovedCancelled = counts.RemovedCancelled
	state.Stats.RemovedEmptyVoucher = counts.RemovedEmptyVoucher
	state.annotate(s.ID(), "removed", counts.Total())

	infrastructure.ContextLogger(s.logger, ctx).InfoContext(ctx, "Rows filtered",
		slog.Int("removed_cancelled", counts.RemovedCancelled),
		slog.Int("removed_empty_voucher", counts.RemovedEmptyVoucher),
		slog.Int("remaining", table.NumRows()))
	return nil
}

// FillBuyerNamesStep fills empty buyer names
type FillBuyerNamesStep struct {
	BaseStep
}

// NewFillBuyerNamesStep creates the buyer name filling Step
func NewFillBuyerNamesStep() *FillBuyerNamesStep {
	return &FillBuyerNamesStep{BaseStep: NewBaseStep(StepIDFillBuyerNames, "Fill buyer names")}
}

// Execute implements Step
func (s *FillBuyerNamesStep) Execute(_ context.Context, state *RunState) error {
	table, counts := dataprocessing.FillBuyerNames(state.Table)
	state.Table = table
	state.Stats.FilledBuyerNameClientHall = counts.ClientHall
	state.Stats.FilledBuyerNameUndefined = counts.Unspecified
	return nil
}

// ImputeMissingStep replaces missing amounts with per-currency medians
type ImputeMissingStep struct {
	BaseStep
	logger *slog.Logger
}

// NewImputeMissingStep creates the imputation Step
func NewImputeMissingStep(logger *slog.Logger) *ImputeMissingStep {
	return &ImputeMissingStep{
		BaseStep: NewBaseStep(StepIDImputeMissing, "Impute missing amounts"),
		logger:   logger,
	}
}

// Execute implements Step
func (s *ImputeMissingStep) Execute(ctx context.Context, state *RunState) error {
	records, counts := dataprocessing.ImputeMissing(state.BookingRecords())
	state.Records = records
	state.Stats.ImputedAmounts = counts.Amounts
	state.Stats.ImputedPayments = counts.Payments

	infrastructure.ContextLogger(s.logger, ctx).InfoContext(ctx, "Missing amounts imputed",
		slog.Int("amounts", counts.Amounts),
		slog.Int("payments", counts.Payments))
	return nil
}

// EnrichStep converts amounts and derives the analytic fields
type EnrichStep struct {
	BaseStep
	markup float64
	opts   dataprocessing.EnrichOptions
	logger *slog.Logger
}

// NewEnrichStep creates the enrichment Step
func NewEnrichStep(markup float64, opts dataprocessing.EnrichOptions, logger *slog.Logger) *EnrichStep {
	return &EnrichStep{
		BaseStep: NewBaseStep(StepIDEnrich, "Enrich records"),
		markup:   markup,
		opts:     opts,
		logger:   logger,
	}
}

// Execute implements Step
func (s *EnrichStep) Execute(ctx context.Context, state *RunState) error {
	logger := infrastructure.ContextLogger(s.logger, ctx)

	var converter *dataprocessing.CurrencyConverter
	if state.Rates != nil {
		converter = dataprocessing.NewCurrencyConverter(state.Rates, s.markup, logger)
	}

	enriched, counts, err := dataprocessing.NewEnricher(converter, s.opts, logger).
		Enrich(ctx, state.BookingRecords())
	if err != nil {
		return err
	}

	state.Enriched = enriched
	state.Stats.ConvertedCurrency = counts.ConvertedCurrency
	state.Stats.ConversionFailures = counts.ConversionFailures
	state.Stats.ExtractedRegions = counts.ExtractedRegions

	logger.InfoContext(ctx, "Records enriched",
		slog.Int("records", len(enriched)),
		slog.Int("converted_currency", counts.ConvertedCurrency),
		slog.Int("conversion_failures", counts.ConversionFailures),
		slog.Int("extracted_regions", counts.ExtractedRegions))
	return nil
}
