package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/lotcut/internal/model"
	"go.uber.org/zap"
)

// Result is what every strategy produces.
type Result struct {
	Jobs      []model.CutJob
	Plans     []model.CuttingPlan
	Integrity model.IntegrityMap
	Unmet     []*ColorError
}

// Solver allocates lots against demand. Each call works on its own clone of
// the lot state; the inputs are never mutated.
type Solver interface {
	Name() model.Strategy
	Solve(ctx context.Context, demand model.Demand, lots model.LotGroups, cons model.Consumption) (Result, error)
}

// NewSolver returns the strategy selected by settings.
func NewSolver(settings model.SolveSettings, logger *zap.Logger) (Solver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch settings.Strategy {
	case model.StrategyGreedy, "":
		return NewGreedySolver(logger), nil
	case model.StrategyWaterfall:
		return NewWaterfallSolver(logger), nil
	case model.StrategyGenetic:
		if err := settings.Genetic.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return NewGeneticSolver(settings.Genetic, logger), nil
	case model.StrategyILP:
		return NewILPSolver(settings.ILP, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, settings.Strategy)
}

// validateConsumption rejects lookups that would divide by zero.
func validateConsumption(cons model.Consumption, demand model.Demand) error {
	if !cons.Covers(demand.AllSizes()) {
		return fmt.Errorf("%w: consumption must be positive for every size, average is %v", ErrInvalidInput, cons.Average)
	}
	return nil
}

// finish turns committed jobs into plans and scores integrity from them.
func finish(jobs []model.CutJob, arena *model.LotArena, demand model.Demand, unmet []*ColorError) Result {
	return Result{
		Jobs:      jobs,
		Plans:     BuildPlans(jobs, arena),
		Integrity: IntegrityFromAllocations(demand, AllocationsFromJobs(jobs)),
		Unmet:     unmet,
	}
}

// colorShortfall reports a color with remaining need, distinguishing colors
// that never had an eligible lot.
func colorShortfall(color string, need map[string]int, arena *model.LotArena) *ColorError {
	short := false
	for _, q := range need {
		if q > 0 {
			short = true
			break
		}
	}
	if !short {
		return nil
	}
	if len(arena.Eligible(color)) == 0 {
		return &ColorError{Color: color, Err: ErrNoFeasibleLot}
	}
	return &ColorError{Color: color, Err: ErrShortfall}
}
