package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cruisepulse/internal/config"
	"cruisepulse/internal/dataprocessing"
	"cruisepulse/internal/infrastructure"
	"cruisepulse/internal/rates"
	"cruisepulse/pkg/contracts/domain"
)

// Options selects the optional steps and enrichment variants of a Pipeline
type Options struct {
	RegionSource     string
	CheckinReference string
	ImputeMissing    bool
	Workers          int
	Markup           float64
	// Now is the clock days_until_checkin counts from; defaults to time.Now
	Now func() time.Time
}

// OptionsFromConfig maps the pipeline configuration section to Options
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		RegionSource:     cfg.RegionSource,
		CheckinReference: cfg.CheckinReference,
		ImputeMissing:    cfg.ImputeMissing,
		Workers:          cfg.Workers,
		Markup:           cfg.Markup,
	}
}

// Result is the output of one pipeline run
type Result struct {
	RunID    string                  `json:"run_id"`
	Columns  []string                `json:"columns"`
	Records  []domain.EnrichedRecord `json:"records"`
	Stats    *domain.ProcessingStats `json:"stats"`
	Steps    []*StepState            `json:"steps"`
	Duration time.Duration           `json:"duration"`
}

// Rows renders the records in column order
func (r *Result) Rows() [][]string {
	rows := make([][]string, len(r.Records))
	for i, rec := range r.Records {
		rows[i] = rec.Row(r.Columns)
	}
	return rows
}

// Pipeline turns a raw booking table into enriched records
type Pipeline struct {
	provider rates.Provider
	opts     Options
	tracer   *OperationTracer
	logger   *slog.Logger
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithTracer instruments runs with spans and metrics
func WithTracer(tracer *OperationTracer) PipelineOption {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// NewPipeline creates a pipeline. A nil provider runs every conversion in
// degraded mode.
func NewPipeline(provider rates.Provider, opts Options, logger *slog.Logger, options ...PipelineOption) *Pipeline {
	if opts.Markup <= 0 {
		opts.Markup = config.DefaultMarkup
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Pipeline{
		provider: provider,
		opts:     opts,
		logger:   infrastructure.WithComponent(logger, "pipeline"),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Steps returns the steps of a run in execution order
func (p *Pipeline) Steps() []Step {
	steps := []Step{
		NewLoadRatesStep(p.provider, p.logger),
		NewNormalizeColumnsStep(p.logger),
		NewCleanNumericStep(),
		NewFilterRowsStep(p.logger),
		NewFillBuyerNamesStep(),
	}
	if p.opts.ImputeMissing {
		steps = append(steps, NewImputeMissingStep(p.logger))
	}
	return append(steps, NewEnrichStep(p.opts.Markup, dataprocessing.EnrichOptions{
		RegionSource:     p.opts.RegionSource,
		CheckinReference: p.opts.CheckinReference,
		Workers:          p.opts.Workers,
		Now:              p.opts.Now,
	}, p.logger))
}

// Run executes every step over input. The input table is not modified. A
// failed or cancelled run returns no result and leaves no partial output.
func (p *Pipeline) Run(ctx context.Context, input *domain.Table) (*Result, error) {
	if input == nil {
		return nil, NewValidationError("", "input table is nil")
	}

	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)
	ctx, span := p.tracer.TraceRun(ctx, runID, input.NumRows())
	logger := infrastructure.ContextLogger(p.logger, ctx)
	start := time.Now()

	state := NewRunState(runID, input)
	steps := p.Steps()
	for _, s := range steps {
		state.Steps = append(state.Steps, NewStepState(s.ID(), s.Name()))
	}

	logger.InfoContext(ctx, "Pipeline run started",
		slog.Int("rows", state.Stats.OriginalRows),
		slog.Int("columns", state.Stats.OriginalCols),
		slog.Int("steps", len(steps)))

	var runErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			runErr = NewCancellationError(step.ID(), err)
		} else {
			runErr = p.executeStep(ctx, state, step, state.Steps[i])
		}
		if runErr != nil {
			for _, rest := range state.Steps[i+1:] {
				rest.Skip(fmt.Sprintf("previous step %s did not complete", step.ID()))
			}
			if state.Steps[i].GetStatus() == StepStatusPending {
				state.Steps[i].Skip(runErr.Error())
			}
			break
		}
	}

	result := p.buildResult(state, time.Since(start))
	if runErr != nil {
		logger.ErrorContext(ctx, "Pipeline run failed",
			slog.String("error", runErr.Error()),
			slog.Duration("duration", result.Duration))
		p.tracer.RecordRunCompletion(ctx, span, result, result.Duration, runErr)
		return nil, runErr
	}

	logger.InfoContext(ctx, "Pipeline run completed",
		slog.Int("final_rows", result.Stats.FinalRows),
		slog.Int("final_cols", result.Stats.FinalCols),
		slog.Int("removed", result.Stats.TotalRemoved()),
		slog.Bool("rates_available", result.Stats.RatesAvailable),
		slog.Duration("duration", result.Duration))
	p.tracer.RecordRunCompletion(ctx, span, result, result.Duration, nil)
	return result, nil
}

func (p *Pipeline) executeStep(ctx context.Context, state *RunState, step Step, st *StepState) error {
	stepCtx, span := p.tracer.TraceStep(ctx, state.ID, step.ID())

	infrastructure.ContextLogger(p.logger, ctx).DebugContext(ctx, "Executing step",
		slog.String("step", step.ID()))

	st.Start()
	err := step.Execute(stepCtx, state)
	if err != nil {
		err = WrapError(err, step.ID())
		st.Fail(err)
	} else {
		st.Complete()
	}
	p.tracer.RecordStepCompletion(stepCtx, span, step.ID(), st.Duration(), err)
	return err
}

func (p *Pipeline) buildResult(state *RunState, duration time.Duration) *Result {
	columns := append([]string(nil), state.Table.Columns...)
	columns = append(columns, domain.DerivedColumns...)

	stats := state.Stats
	stats.FinalRows = len(state.Enriched)
	stats.FinalCols = len(columns)
	stats.AddedCols = append([]string{}, domain.DerivedColumns...)

	return &Result{
		RunID:    state.ID,
		Columns:  columns,
		Records:  state.Enriched,
		Stats:    stats,
		Steps:    state.Steps,
		Duration: duration,
	}
}
