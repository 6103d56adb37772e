package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/piwi3910/lotcut/internal/milp"
	"github.com/piwi3910/lotcut/internal/model"
	"go.uber.org/zap"
)

// ILPSolver solves the whole job as one integer program: pieces per
// (lot, demand line) with a fixed cost for every lot a line touches.
type ILPSolver struct {
	Config model.ILPConfig
	logger *zap.Logger
}

// NewILPSolver creates an exact solver.
func NewILPSolver(config model.ILPConfig, logger *zap.Logger) *ILPSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ILPSolver{Config: config, logger: logger}
}

func (s *ILPSolver) Name() model.Strategy { return model.StrategyILP }

// ilpPair links the variables of one lot and one demand line.
type ilpPair struct {
	lotID string
	line  model.DemandLine
	cut   int
	use   int
}

// Solve builds and solves the program. Any line that cannot be met exactly
// fails the whole run with ErrInfeasible.
func (s *ILPSolver) Solve(ctx context.Context, demand model.Demand, lots model.LotGroups, cons model.Consumption) (Result, error) {
	if err := validateConsumption(cons, demand); err != nil {
		return Result{}, err
	}
	arena := model.NewLotArena(lots.Flatten())
	lines := demand.Lines()

	p := milp.NewProblem()
	var pairs []ilpPair
	capacity := make(map[string][]milp.Term)
	for _, line := range lines {
		per := cons.For(line.Size)
		var cuts []milp.Term
		for _, id := range arena.IDs() {
			lot, _ := arena.Lot(id)
			if !lot.Eligible(line.Color) {
				continue
			}
			bigM := math.Min(s.Config.BigM, math.Min(float64(line.Quantity), math.Floor(lot.TotalLength/per)))
			if bigM < 1 {
				continue
			}
			name := line.Key() + "@" + id
			cut := p.AddVar("cut["+name+"]", per, 0, math.Inf(1), true)
			use := p.AddBinary("use["+name+"]", s.Config.SplitPenalty)
			p.AddConstraint("link["+name+"]", []milp.Term{{Var: cut, Coef: 1}, {Var: use, Coef: -bigM}}, milp.LessEq, 0)
			capacity[id] = append(capacity[id], milp.Term{Var: cut, Coef: per})
			cuts = append(cuts, milp.Term{Var: cut, Coef: 1})
			pairs = append(pairs, ilpPair{lotID: id, line: line, cut: cut, use: use})
		}
		if len(cuts) == 0 {
			ce := &ColorError{Color: line.Color, Err: ErrNoFeasibleLot}
			if len(arena.Eligible(line.Color)) > 0 {
				ce = &ColorError{Color: line.Color, Err: fmt.Errorf("size %s fits no lot", line.Size)}
			}
			return Result{}, fmt.Errorf("%w: %w", ErrInfeasible, ce)
		}
		p.AddConstraint("demand["+line.Key()+"]", cuts, milp.Equal, float64(line.Quantity))
	}
	for _, id := range arena.IDs() {
		if terms := capacity[id]; len(terms) > 0 {
			lot, _ := arena.Lot(id)
			p.AddConstraint("capacity["+id+"]", terms, milp.LessEq, lot.TotalLength)
		}
	}

	if s.Config.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.TimeLimit)
		defer cancel()
	}
	opts := milp.DefaultOptions()
	opts.NodeLimit = s.Config.NodeLimit

	start := time.Now()
	sol, err := milp.Solve(ctx, p, opts)
	switch {
	case errors.Is(err, milp.ErrInfeasible):
		return Result{}, fmt.Errorf("%w: demand equality cannot be met under lot capacity", ErrInfeasible)
	case errors.Is(err, milp.ErrNodeLimit), errors.Is(err, context.DeadlineExceeded):
		return Result{}, fmt.Errorf("%w: %v", ErrSolverTimeout, err)
	case err != nil:
		return Result{}, fmt.Errorf("failed to solve cutting program: %w", err)
	}
	s.logger.Debug("cutting program solved",
		zap.Int("vars", p.NumVars()),
		zap.Int("constraints", p.NumConstraints()),
		zap.Int("nodes", sol.Nodes),
		zap.Bool("optimal", sol.Optimal),
		zap.Float64("objective", sol.Objective),
		zap.Duration("elapsed", time.Since(start)))
	if !sol.Optimal {
		s.logger.Warn("search stopped early, using best plan found", zap.Int("nodes", sol.Nodes))
	}

	jobs, err := ilpJobs(sol, p, pairs, arena, cons, opts.IntTolerance)
	if err != nil {
		return Result{}, err
	}
	allocs := AllocationsFromJobs(jobs)
	return Result{
		Jobs:      jobs,
		Plans:     BuildPlans(jobs, arena),
		Integrity: splitIntegrity(demand, allocs),
	}, nil
}

// ilpJobs turns the pieces per (lot, line) into single-size cuts. All colors
// cutting the same size on a lot share one marker so they end up in one plan.
// Cuts are rounded to integers, so a lot filled to capacity may be overshot
// by up to intTol pieces per variable; that overshoot is absorbed.
func ilpJobs(sol milp.Solution, p *milp.Problem, pairs []ilpPair, arena *model.LotArena, cons model.Consumption, intTol float64) ([]model.CutJob, error) {
	type cell struct {
		lotID, size string
	}
	var cells []cell
	qty := make(map[cell][]ilpPair)
	for _, pr := range pairs {
		q := int(sol.Value(p, pr.cut))
		if q <= 0 {
			continue
		}
		c := cell{pr.lotID, pr.line.Size}
		if _, ok := qty[c]; !ok {
			cells = append(cells, c)
		}
		pr.cut = q
		qty[c] = append(qty[c], pr)
	}

	var jobs []model.CutJob
	for _, c := range cells {
		total := 0
		for _, pr := range qty[c] {
			total += pr.cut
		}
		ratio := max(1, (total+model.MaxLayers-1)/model.MaxLayers)
		marker := make(model.SizeCombination, ratio)
		for i := range marker {
			marker[i] = c.size
		}
		for _, pr := range qty[c] {
			layers, rest := pr.cut/ratio, pr.cut%ratio
			if layers > 0 {
				jobs = append(jobs, model.NewCutJob(pr.line.Color, marker, layers, c.lotID, cons))
			}
			for rest > 0 {
				l := min(rest, model.MaxLayers)
				jobs = append(jobs, model.NewCutJob(pr.line.Color, model.SizeCombination{c.size}, l, c.lotID, cons))
				rest -= l
			}
		}
	}
	for _, j := range jobs {
		used := j.MetrajUsed()
		slack := intTol * float64(len(pairs)) * cons.MarkerLength(j.Ratio)
		if rem := arena.Remaining(j.LotID); used > rem && used-rem <= slack {
			used = rem
		}
		if err := arena.Consume(j.LotID, used); err != nil {
			return nil, fmt.Errorf("failed to apply solution: %w", err)
		}
	}
	return jobs, nil
}

// splitIntegrity scores 100 for a line served by one lot, 50 when split and
// 0 when unserved.
func splitIntegrity(demand model.Demand, allocs Allocations) model.IntegrityMap {
	out := IntegrityFromAllocations(demand, allocs)
	for key, in := range out {
		switch len(in.Allocations) {
		case 0:
			in.Score = 0
		case 1:
			in.Score = 100
		default:
			in.Score = 50
		}
		out[key] = in
	}
	return out
}
