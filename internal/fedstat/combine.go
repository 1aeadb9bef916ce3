package fedstat

import (
	"context"

	"fedstatcli/internal/dataprocessing"
	"fedstatcli/internal/infrastructure"
)

// CombineOptions controls how two indicators are summed
type CombineOptions struct {
	Load LoadOptions
	// EstimateYear, when set, fills missing "{year}end" values of each table
	// from the other one before summing
	EstimateYear int
}

// Combine processes both indicators one after the other and sums them into
// a single table. Callers wanting concurrent downloads can call
// ProcessedData themselves and use CombineTables.
func Combine(ctx context.Context, a, b *Indicator, opts CombineOptions) (*dataprocessing.Table, error) {
	first, err := a.ProcessedData(ctx, opts.Load)
	if err != nil {
		return nil, err
	}
	second, err := b.ProcessedData(ctx, opts.Load)
	if err != nil {
		return nil, err
	}
	return CombineTables(ctx, first, second, opts.EstimateYear)
}

// CombineTables reconciles the row sets of two normalized tables, aligns
// them, optionally estimates a missing year in both directions and sums
// them. The result follows the row order of first.
func CombineTables(ctx context.Context, first, second *dataprocessing.Table, estimateYear int) (*dataprocessing.Table, error) {
	steps := []Step{
		{Name: "reconcile", Run: func(t *dataprocessing.Table) (*dataprocessing.Table, error) {
			var err error
			t, second, err = dataprocessing.ReconcileRowSets(t, second)
			return t, err
		}},
		{Name: "align", Run: func(t *dataprocessing.Table) (*dataprocessing.Table, error) {
			var err error
			second, err = dataprocessing.AlignRows(t, second)
			return t, err
		}},
	}
	if estimateYear > 0 {
		steps = append(steps, Step{Name: "estimate_missing", Run: func(t *dataprocessing.Table) (*dataprocessing.Table, error) {
			estimated, err := dataprocessing.EstimateMissing(t, second, estimateYear)
			if err != nil {
				return nil, err
			}
			second, err = dataprocessing.EstimateMissing(second, t, estimateYear)
			return estimated, err
		}})
	}
	steps = append(steps, Step{Name: "sum", Run: func(t *dataprocessing.Table) (*dataprocessing.Table, error) {
		return dataprocessing.SumAligned(t, second)
	}})

	logger := infrastructure.WithComponent(infrastructure.LoggerWithContext(ctx), "combine")
	return runSteps(ctx, infrastructure.Tracer(), logger, nil, first, steps)
}
