package engine

import (
	"context"
	"math"

	"github.com/piwi3910/lotcut/internal/model"
	"go.uber.org/zap"
)

const (
	greedyMaxRounds     = 500
	greedySoftLayerCap  = 65
	greedySoftCapAbove  = 100
	greedyDangerousBand = 10

	scoreSizeBonus      = 300.0
	scoreLayerBonus     = 500.0
	scoreDangerPenalty  = 1000.0
	scoreOverCutPenalty = 100.0
)

// GreedySolver cuts each color on its largest remaining lot, one scored
// marker per round. It is deterministic.
type GreedySolver struct {
	logger *zap.Logger
}

// NewGreedySolver creates a greedy solver.
func NewGreedySolver(logger *zap.Logger) *GreedySolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GreedySolver{logger: logger}
}

func (g *GreedySolver) Name() model.Strategy { return model.StrategyGreedy }

// RecipeFor returns the fixed layer ratio used for a set of distinct sizes:
// one size is cut 4-up, two sizes 2+2, three sizes 1+1+1 with the size of
// highest need doubled, four sizes 1+1+1+1. Other counts have no recipe.
func RecipeFor(sizes []string, need map[string]int) map[string]int {
	switch len(sizes) {
	case 1:
		return map[string]int{sizes[0]: 4}
	case 2:
		return map[string]int{sizes[0]: 2, sizes[1]: 2}
	case 3:
		ratio := map[string]int{sizes[0]: 1, sizes[1]: 1, sizes[2]: 1}
		top := sizes[0]
		for _, s := range sizes[1:] {
			if need[s] > need[top] {
				top = s
			}
		}
		ratio[top] = 2
		return ratio
	case 4:
		return map[string]int{sizes[0]: 1, sizes[1]: 1, sizes[2]: 1, sizes[3]: 1}
	}
	return nil
}

type greedyCandidate struct {
	ratio  map[string]int
	layers int
	score  float64
}

// Solve runs the scoring loop color by color, in demand order, on one shared arena.
func (g *GreedySolver) Solve(ctx context.Context, demand model.Demand, lots model.LotGroups, cons model.Consumption) (Result, error) {
	if err := validateConsumption(cons, demand); err != nil {
		return Result{}, err
	}
	arena := model.NewLotArena(lots.Flatten())

	var jobs []model.CutJob
	var unmet []*ColorError
	for _, color := range demand.Colors() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		colorJobs, need := g.solveColor(color, demand, arena, cons)
		jobs = append(jobs, colorJobs...)
		if ce := colorShortfall(color, need, arena); ce != nil {
			g.logger.Warn("color not fully planned", zap.String("color", color), zap.Error(ce.Err))
			unmet = append(unmet, ce)
		}
	}
	return finish(jobs, arena, demand, unmet), nil
}

func (g *GreedySolver) solveColor(color string, demand model.Demand, arena *model.LotArena, cons model.Consumption) ([]model.CutJob, map[string]int) {
	need := demand.ForColor(color)
	allowance := make(map[string]int, len(need))
	for s, q := range need {
		allowance[s] = model.ToleranceCeiling(q)
	}
	sizes := demand.Sizes(color)
	excluded := make(map[string]bool)

	var jobs []model.CutJob
	for round := 0; round < greedyMaxRounds; round++ {
		var lot *model.FabricLot
		for _, l := range arena.Active(color) {
			if !excluded[l.ID] {
				l := l
				lot = &l
				break
			}
		}
		if lot == nil {
			break
		}

		var active []string
		for _, s := range sizes {
			if need[s] > 0 {
				active = append(active, s)
			}
		}
		if len(active) == 0 {
			break
		}

		best := bestGreedyCandidate(active, need, allowance, arena.Remaining(lot.ID), cons)
		if best == nil {
			// the lot cannot host any marker for this color any more
			excluded[lot.ID] = true
			continue
		}

		job := model.NewCutJob(color, model.FromRatio(best.ratio), best.layers, lot.ID, cons)
		if err := arena.Consume(lot.ID, job.MetrajUsed()); err != nil {
			excluded[lot.ID] = true
			continue
		}
		for s, r := range best.ratio {
			need[s] -= r * best.layers
			allowance[s] -= r * best.layers
		}
		jobs = append(jobs, job)
	}
	return jobs, need
}

func greedySizeSets(active []string, need map[string]int) [][]string {
	var sets [][]string
	n := len(active)
	for i := 0; i < n; i++ {
		sets = append(sets, []string{active[i]})
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sets = append(sets, []string{active[i], active[j]})
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				sets = append(sets, []string{active[i], active[j], active[k]})
			}
		}
	}
	if n >= 4 {
		sets = append(sets, topByDemand(active, need, 4))
	}
	return sets
}

func bestGreedyCandidate(active []string, need, allowance map[string]int, lotRemaining float64, cons model.Consumption) *greedyCandidate {
	var best *greedyCandidate
	for _, set := range greedySizeSets(active, need) {
		ratio := RecipeFor(set, need)
		c := scoreGreedy(ratio, need, allowance, lotRemaining, cons)
		if c == nil {
			continue
		}
		if best == nil || c.score > best.score {
			best = c
		}
	}
	return best
}

func scoreGreedy(ratio map[string]int, need, allowance map[string]int, lotRemaining float64, cons model.Consumption) *greedyCandidate {
	markerLen := cons.MarkerLength(ratio)
	if markerLen <= 0 {
		return nil
	}
	byLot := int(math.Floor(lotRemaining / markerLen))
	byDemand := math.MaxInt
	headroom := math.MaxInt
	for s, r := range ratio {
		byDemand = min(byDemand, allowance[s]/r)
		headroom = min(headroom, need[s])
	}
	layers := min(model.MaxLayers, byLot, byDemand)
	// headroom is in pieces: large lines are cut in several passes
	if headroom > greedySoftCapAbove && layers > greedySoftLayerCap {
		layers = greedySoftLayerCap
	}
	if layers <= 0 {
		return nil
	}

	pieces := 0
	risk := 0.0
	for s, r := range ratio {
		cut := r * layers
		pieces += cut
		after := need[s] - cut
		switch {
		case after > 0 && after < greedyDangerousBand:
			risk += scoreDangerPenalty
		case after < 0:
			risk += scoreOverCutPenalty * float64(-after)
		}
	}
	score := float64(pieces) +
		float64(len(ratio))*scoreSizeBonus +
		float64(layers)/float64(model.MaxLayers)*scoreLayerBonus -
		risk
	return &greedyCandidate{ratio: ratio, layers: layers, score: score}
}
