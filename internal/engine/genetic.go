package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/piwi3910/lotcut/internal/model"
	"go.uber.org/zap"
)

// GeneticSolver evolves one cut list per color. Colors are solved
// concurrently, each on a private clone of the lots, and merged back in
// demand order.
type GeneticSolver struct {
	Config model.GeneticConfig
	logger *zap.Logger
}

// NewGeneticSolver creates a genetic solver with the given configuration.
func NewGeneticSolver(config model.GeneticConfig, logger *zap.Logger) *GeneticSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneticSolver{Config: config, logger: logger}
}

func (g *GeneticSolver) Name() model.Strategy { return model.StrategyGenetic }

// Solve dispatches one task per color and commits the results in color order.
// A color left short by earlier commits is refilled from the remaining lots.
func (g *GeneticSolver) Solve(ctx context.Context, demand model.Demand, lots model.LotGroups, cons model.Consumption) (Result, error) {
	if err := validateConsumption(cons, demand); err != nil {
		return Result{}, err
	}
	master := model.NewLotArena(lots.Flatten())
	colors := demand.Colors()

	seed := g.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tasks := make([]*GeneticTask, len(colors))
	for i, color := range colors {
		if len(master.Eligible(color)) == 0 {
			continue
		}
		cfg := g.Config
		cfg.Seed = seed + int64(i)
		tasks[i] = StartGenetic(ctx, GeneticInput{
			Color:       color,
			Demand:      demand.ForColor(color),
			Arena:       master.Clone(),
			Consumption: cons,
			Config:      cfg,
		})
	}

	var jobs []model.CutJob
	var unmet []*ColorError
	for i, color := range colors {
		need := demand.ForColor(color)
		if tasks[i] != nil {
			res, err := tasks[i].Wait(ctx)
			if err != nil {
				for _, t := range tasks[i+1:] {
					if t != nil {
						t.Cancel()
					}
				}
				return Result{}, err
			}
			g.logger.Debug("genetic color solved",
				zap.String("color", color),
				zap.Float64("fitness", res.Fitness),
				zap.Int("jobs", len(res.Jobs)))
			committed := commitJobs(master, res.Jobs)
			deduct(need, committed)
			jobs = append(jobs, committed...)

			// earlier colors may have taken the lots this color's run chose
			extra, err := g.refill(ctx, color, need, master, cons, cfgSeed(seed, len(colors), i))
			if err != nil {
				for _, t := range tasks[i+1:] {
					if t != nil {
						t.Cancel()
					}
				}
				return Result{}, err
			}
			jobs = append(jobs, extra...)
		}
		if ce := colorShortfall(color, need, master); ce != nil {
			g.logger.Warn("color not fully planned", zap.String("color", color), zap.Error(ce.Err))
			unmet = append(unmet, ce)
		}
	}
	return finish(jobs, master, demand, unmet), nil
}

// refill plans a color's remaining shortfall against the lots left after
// commit: one more genetic run, then the greedy loop for whatever is still short.
func (g *GeneticSolver) refill(ctx context.Context, color string, need map[string]int, master *model.LotArena, cons model.Consumption, seed int64) ([]model.CutJob, error) {
	residual := shortfall(need)
	if len(residual) == 0 || len(master.Active(color)) == 0 {
		return nil, nil
	}
	cfg := g.Config
	cfg.Seed = seed
	res, err := StartGenetic(ctx, GeneticInput{
		Color:       color,
		Demand:      residual,
		Arena:       master.Clone(),
		Consumption: cons,
		Config:      cfg,
	}).Wait(ctx)
	if err != nil {
		return nil, err
	}
	jobs := commitJobs(master, res.Jobs)
	deduct(need, jobs)

	residual = shortfall(need)
	if len(residual) == 0 {
		return jobs, nil
	}
	rest := model.BuildDemand([]model.OrderRow{{Color: color, Quantities: residual}}, 0)
	topUp, left := NewGreedySolver(g.logger).solveColor(color, rest, master, cons)
	for s := range residual {
		need[s] = left[s]
	}
	g.logger.Debug("genetic shortfall topped up",
		zap.String("color", color),
		zap.Int("genetic_jobs", len(jobs)),
		zap.Int("greedy_jobs", len(topUp)))
	return append(jobs, topUp...), nil
}

// cfgSeed gives refill runs seeds distinct from the first pass.
func cfgSeed(seed int64, colors, i int) int64 {
	return seed + int64(colors+i)
}

func shortfall(need map[string]int) map[string]int {
	out := make(map[string]int)
	for s, q := range need {
		if q > 0 {
			out[s] = q
		}
	}
	return out
}

func deduct(need map[string]int, jobs []model.CutJob) {
	for _, j := range jobs {
		for s := range j.Ratio {
			need[s] -= j.PiecesProduced(s)
		}
	}
}

// commitJobs consumes jobs from the arena in order, trimming layers that no
// longer fit and dropping jobs left with none.
func commitJobs(arena *model.LotArena, jobs []model.CutJob) []model.CutJob {
	var out []model.CutJob
	for _, j := range jobs {
		if j.MarkerLength <= 0 {
			continue
		}
		if fit := int(math.Floor(arena.Remaining(j.LotID) / j.MarkerLength)); j.Layers > fit {
			j.Layers = fit
		}
		if j.Layers < 1 {
			continue
		}
		if err := arena.Consume(j.LotID, j.MetrajUsed()); err != nil {
			continue
		}
		out = append(out, j)
	}
	return out
}

// chromosome is a candidate cut list for one color.
type chromosome struct {
	jobs    []model.CutJob
	fitness float64
}

// geneticOptimizer holds the immutable inputs of one color's run.
type geneticOptimizer struct {
	config   model.GeneticConfig
	color    string
	sizes    []string
	demand   map[string]int
	lots     []model.FabricLot
	capacity map[string]float64
	cons     model.Consumption
	patterns []model.SizeCombination
	target   float64
	rng      *rand.Rand
}

func newGeneticOptimizer(in GeneticInput) *geneticOptimizer {
	sizes := make([]string, 0, len(in.Demand))
	for s, q := range in.Demand {
		if q > 0 {
			sizes = append(sizes, s)
		}
	}
	model.SortSizes(sizes)

	lots := in.Arena.Active(in.Color)
	capacity := make(map[string]float64, len(lots))
	for _, l := range lots {
		capacity[l.ID] = in.Arena.Remaining(l.ID)
	}

	// the efficiency target is the demand weighted length per piece
	var weighted float64
	total := 0
	for _, s := range sizes {
		weighted += float64(in.Demand[s]) * in.Consumption.For(s)
		total += in.Demand[s]
	}
	target := in.Consumption.Average
	if total > 0 {
		target = weighted / float64(total)
	}

	return &geneticOptimizer{
		config:   in.Config,
		color:    in.Color,
		sizes:    sizes,
		demand:   in.Demand,
		lots:     lots,
		capacity: capacity,
		cons:     in.Consumption,
		patterns: GeneratePatterns(sizes, in.Demand),
		target:   target,
		rng:      rand.New(rand.NewSource(in.Config.Seed)),
	}
}

// optimize runs the generation loop. The context is checked between generations.
func (g *geneticOptimizer) optimize(ctx context.Context) (chromosome, error) {
	if len(g.sizes) == 0 || len(g.lots) == 0 || len(g.patterns) == 0 {
		return chromosome{}, nil
	}

	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i])
	}

	eliteCount := g.config.EliteCount()
	for gen := 0; gen < g.config.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return chromosome{}, err
		}
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)
		for i := 0; i < eliteCount && i < len(population); i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}
		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)
			child := g.crossover(parent1, parent2)
			g.mutate(&child)
			child.fitness = g.evaluate(child)
			newPop = append(newPop, child)
		}
		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
	best := g.copyChromosome(population[0])
	best.jobs = g.repair(best.jobs)
	return best, nil
}

func (g *geneticOptimizer) initPopulation() []chromosome {
	population := make([]chromosome, g.config.PopulationSize)
	for i := range population {
		population[i] = chromosome{jobs: g.randomGreedy()}
	}
	return population
}

// randomGreedy builds a cut list by repeatedly placing a random applicable
// marker on a random lot with room, with a random layer count.
func (g *geneticOptimizer) randomGreedy() []model.CutJob {
	remaining := make(map[string]int, len(g.demand))
	for s, q := range g.demand {
		remaining[s] = q
	}
	capacity := make(map[string]float64, len(g.capacity))
	for id, c := range g.capacity {
		capacity[id] = c
	}

	var jobs []model.CutJob
	for attempt := 0; attempt < g.config.InitAttempts; attempt++ {
		var open []model.FabricLot
		for _, l := range g.lots {
			if capacity[l.ID] > 0 {
				open = append(open, l)
			}
		}
		var applicable []model.SizeCombination
		for _, p := range g.patterns {
			ok := true
			for _, s := range p {
				if remaining[s] <= 0 {
					ok = false
					break
				}
			}
			if ok {
				applicable = append(applicable, p)
			}
		}
		if len(open) == 0 || len(applicable) == 0 {
			break
		}

		lot := open[g.rng.Intn(len(open))]
		pattern := applicable[g.rng.Intn(len(applicable))]
		ratio := pattern.Ratio()
		markerLen := g.cons.MarkerLength(ratio)
		bound := min(model.MaxLayers, int(math.Floor(capacity[lot.ID]/markerLen)))
		for s, r := range ratio {
			bound = min(bound, remaining[s]/r+g.config.OverCutBuffer)
		}
		if bound < 1 {
			continue
		}
		layers := 1 + g.rng.Intn(bound)
		job := model.NewCutJob(g.color, pattern, layers, lot.ID, g.cons)
		capacity[lot.ID] -= job.MetrajUsed()
		for s, r := range ratio {
			remaining[s] -= r * layers
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// evaluate scores a chromosome; higher is better.
func (g *geneticOptimizer) evaluate(c chromosome) float64 {
	cfg := g.config
	score := cfg.BaseScore

	produced := make(map[string]int, len(g.sizes))
	used := make(map[string]float64)
	totalPieces := 0
	var totalLength float64
	for _, j := range c.jobs {
		for s := range j.Ratio {
			produced[s] += j.PiecesProduced(s)
		}
		used[j.LotID] += j.MetrajUsed()
		totalPieces += j.TotalPieces()
		totalLength += j.MetrajUsed()
		score += cfg.LayerBonus * float64(j.Layers)
		if j.Pattern.Distinct() >= 3 {
			score += cfg.WideMarkerBonus
		}
	}

	for _, s := range g.sizes {
		d, p := g.demand[s], produced[s]
		ceiling := model.ToleranceCeiling(d)
		switch {
		case p < d:
			short := float64(d - p)
			score -= cfg.ShortfallWeight * short * short
		case p > ceiling:
			excess := float64(p - ceiling)
			score -= cfg.ExcessWeight * excess * excess
		default:
			score += cfg.WithinBonus
		}
	}

	if len(used) > 1 {
		score -= cfg.ExtraLotPenalty * float64(len(used)-1)
	}

	if totalPieces > 0 {
		if avg := totalLength / float64(totalPieces); avg > g.target+1e-9 {
			score -= cfg.EfficiencyWeight * (avg - g.target)
		}
	}

	for id, u := range used {
		if over := u - g.capacity[id]; over > 1e-9 {
			score -= cfg.OverrunPenalty * math.Ceil(over)
		}
	}
	return score
}

func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return best
}

// crossover joins the first half of parent1 with the second half of parent2.
func (g *geneticOptimizer) crossover(parent1, parent2 chromosome) chromosome {
	head := parent1.jobs[:len(parent1.jobs)/2]
	tail := parent2.jobs[len(parent2.jobs)/2:]
	jobs := make([]model.CutJob, 0, len(head)+len(tail))
	jobs = append(jobs, head...)
	jobs = append(jobs, tail...)
	return chromosome{jobs: jobs}
}

// mutate either moves a random job to a random lot or shifts its layers.
func (g *geneticOptimizer) mutate(c *chromosome) {
	if len(c.jobs) == 0 || g.rng.Float64() >= g.config.MutationRate {
		return
	}
	i := g.rng.Intn(len(c.jobs))
	if g.rng.Intn(2) == 0 {
		c.jobs[i].LotID = g.lots[g.rng.Intn(len(g.lots))].ID
		return
	}
	shift := g.config.LayerShift
	layers := c.jobs[i].Layers + g.rng.Intn(2*shift+1) - shift
	c.jobs[i].Layers = max(1, min(model.MaxLayers, layers))
}

// repair trims jobs that overrun their lot so the returned list is feasible.
func (g *geneticOptimizer) repair(jobs []model.CutJob) []model.CutJob {
	capacity := make(map[string]float64, len(g.capacity))
	for id, c := range g.capacity {
		capacity[id] = c
	}
	var out []model.CutJob
	for _, j := range jobs {
		fit := int(math.Floor(capacity[j.LotID] / j.MarkerLength))
		j.Layers = min(j.Layers, fit, model.MaxLayers)
		if j.Layers < 1 {
			continue
		}
		capacity[j.LotID] -= j.MetrajUsed()
		out = append(out, j)
	}
	return out
}

func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	jobs := make([]model.CutJob, len(c.jobs))
	copy(jobs, c.jobs)
	return chromosome{jobs: jobs, fitness: c.fitness}
}
