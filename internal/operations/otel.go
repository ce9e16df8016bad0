package operations

import (
	"context"
	"fmt"
	"time"

	"cruisepulse/internal/infrastructure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "cruisepulse.pipeline"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs.
// A nil tracer is valid and records nothing.
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a tracer from the process providers
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	if providers == nil {
		return &OperationTracer{tracer: otel.Tracer(TracerName)}, nil
	}

	pt := &OperationTracer{tracer: providers.Tracer}
	if pt.tracer == nil {
		pt.tracer = otel.Tracer(TracerName)
	}
	if providers.Meter != nil {
		metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		pt.metrics = metrics
	}
	return pt, nil
}

// NewOperationTracerWith creates a tracer from explicit parts
func NewOperationTracerWith(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// Metrics returns the pipeline instruments, nil when metrics are disabled
func (pt *OperationTracer) Metrics() *infrastructure.PipelineMetrics {
	if pt == nil {
		return nil
	}
	return pt.metrics
}

// TraceRun creates a span for a whole pipeline run
func (pt *OperationTracer) TraceRun(ctx context.Context, runID string, inputRows int) (context.Context, trace.Span) {
	if pt == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return pt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.input_rows", inputRows),
		),
	)
}

// TraceStep creates a span for one Step
func (pt *OperationTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	if pt == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return pt.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion ends the Step span and records its duration
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	if pt == nil {
		return
	}

	span.SetAttributes(attribute.Float64("step.duration_seconds", duration.Seconds()))
	if err != nil {
		infrastructure.RecordError(ctx, err, trace.WithAttributes(
			attribute.String("step.id", stepID),
			attribute.String("error.type", string(GetErrorType(err))),
		))
	} else {
		span.SetStatus(codes.Ok, "step completed")
	}
	span.End()

	pt.metrics.RecordStep(ctx, stepID, duration, err == nil)
}

// RecordRunCompletion ends the run span and records run level metrics
func (pt *OperationTracer) RecordRunCompletion(ctx context.Context, span trace.Span, result *Result, duration time.Duration, err error) {
	if pt == nil {
		return
	}

	rows := 0
	if result != nil && result.Stats != nil {
		stats := result.Stats
		rows = stats.FinalRows
		span.SetAttributes(
			attribute.Int("run.final_rows", stats.FinalRows),
			attribute.Int("run.removed_rows", stats.TotalRemoved()),
			attribute.Int("run.converted_currency", stats.ConvertedCurrency),
			attribute.Bool("run.rates_available", stats.RatesAvailable),
		)
		pt.metrics.RecordRemoved(ctx, "cancelled", stats.RemovedCancelled)
		pt.metrics.RecordRemoved(ctx, "empty_voucher", stats.RemovedEmptyVoucher)
		pt.metrics.RecordConversionFailures(ctx, stats.ConversionFailures)
	}

	if err != nil {
		infrastructure.RecordError(ctx, err, trace.WithAttributes(
			attribute.String("error.type", string(GetErrorType(err))),
		))
	} else {
		span.SetStatus(codes.Ok, "run completed")
	}
	span.End()

	pt.metrics.RecordRun(ctx, duration, rows, err)
}
