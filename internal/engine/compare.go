package engine

import (
	"context"

	"github.com/piwi3910/lotcut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.SolveSettings
}

// ComparisonResult holds one scenario's outcome and the figures shown side by side.
type ComparisonResult struct {
	Scenario    ComparisonScenario
	Result      model.OptimizeResult
	Err         error
	PlansCount  int
	TotalPieces int
	UsedLength  float64
	Shortfall   int // demanded pieces not planned
	SplitLines  int // demand lines served from more than one lot
}

// CompareScenarios runs every scenario on the same request, in order.
// A failing scenario keeps its error and does not stop the others.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, req Request, opts ...Option) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		res, err := New(scenario.Settings, opts...).Run(ctx, req)
		cr := ComparisonResult{Scenario: scenario, Result: res, Err: err}
		if err == nil {
			cr.PlansCount = len(res.Plans)
			cr.TotalPieces = res.TotalPieces()
			cr.UsedLength = res.TotalUsedLength()
			for _, row := range res.Summary {
				for _, s := range res.Sizes {
					if d := row.Diff(s); d < 0 {
						cr.Shortfall -= d
					}
				}
			}
			for _, in := range res.Integrity {
				if len(in.Allocations) > 1 {
					cr.SplitLines++
				}
			}
		}
		results = append(results, cr)
	}
	return results
}

// CompareStrategies runs each strategy with otherwise identical settings.
func CompareStrategies(ctx context.Context, base model.SolveSettings, strategies []model.Strategy, req Request, opts ...Option) []ComparisonResult {
	return CompareScenarios(ctx, BuildStrategyScenarios(base, strategies), req, opts...)
}

// BuildStrategyScenarios derives one scenario per strategy from base.
// An empty list means every strategy.
func BuildStrategyScenarios(base model.SolveSettings, strategies []model.Strategy) []ComparisonScenario {
	if len(strategies) == 0 {
		strategies = model.Strategies()
	}
	scenarios := make([]ComparisonScenario, 0, len(strategies))
	for _, s := range strategies {
		settings := base
		settings.Strategy = s
		scenarios = append(scenarios, ComparisonScenario{Name: string(s), Settings: settings})
	}
	return scenarios
}
