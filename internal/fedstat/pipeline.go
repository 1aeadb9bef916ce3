package fedstat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fedstatcli/internal/dataprocessing"
	"fedstatcli/internal/infrastructure"
)

// Step is one named table transformation
type Step struct {
	Name string
	Run  func(*dataprocessing.Table) (*dataprocessing.Table, error)
}

func pure(name string, fn func(*dataprocessing.Table) *dataprocessing.Table) Step {
	return Step{Name: name, Run: func(t *dataprocessing.Table) (*dataprocessing.Table, error) {
		return fn(t), nil
	}}
}

// NormalizationSteps turns a raw table into a normalized one
func NormalizationSteps() []Step {
	return []Step{
		pure("clean", dataprocessing.Clean),
		pure("remove_districts", dataprocessing.RemoveDistricts),
		pure("aggregate_districts", dataprocessing.AggregateDistricts),
		pure("interpolate", dataprocessing.Interpolate),
	}
}

// ProcessedData loads the raw table and normalizes it: one row per region,
// age group and settlement type with "{Y}end" and "{Y}mid" columns. The
// LoadRaw caching caveat applies.
func (ind *Indicator) ProcessedData(ctx context.Context, opts LoadOptions) (*dataprocessing.Table, error) {
	ctx, span := ind.tracer.Start(ctx, "fedstat.processed_data",
		trace.WithAttributes(attribute.String("indicator.id", ind.id)))
	defer span.End()

	raw, err := ind.LoadRaw(ctx, opts)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return runSteps(ctx, ind.tracer, ind.logger, ind.metrics, raw, NormalizationSteps())
}

func runSteps(ctx context.Context, tracer trace.Tracer, logger *slog.Logger, metrics *infrastructure.BusinessMetrics,
	t *dataprocessing.Table, steps []Step) (*dataprocessing.Table, error) {
	for _, step := range steps {
		stepCtx, span := tracer.Start(ctx, "fedstat.step."+step.Name,
			trace.WithAttributes(attribute.Int("rows.in", t.Len())))

		start := time.Now()
		out, err := step.Run(t)
		duration := time.Since(start)
		infrastructure.RecordPipelineStep(stepCtx, metrics, step.Name, out.Len(), duration, err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			logger.ErrorContext(stepCtx, "Pipeline step failed",
				slog.String("step", step.Name),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s: %w", step.Name, err)
		}

		span.SetAttributes(attribute.Int("rows.out", out.Len()))
		span.End()
		logger.DebugContext(stepCtx, "Pipeline step completed",
			slog.String("step", step.Name),
			slog.Int("rows_in", t.Len()),
			slog.Int("rows_out", out.Len()),
			slog.Duration("duration", duration))
		t = out
	}
	return t, nil
}
