package engine

import (
	"context"
	"math"
	"sort"

	"github.com/piwi3910/lotcut/internal/model"
	"go.uber.org/zap"
)

const (
	highVolumeMaxRatio  = 8
	highVolumeMinPieces = 50
	leftoverPiecesPerR  = 70
	leftoverMaxRatio    = 6
)

// WaterfallSolver rations demand against supply, assigns lines to lots and
// then consolidates each lot's pieces into single-size cuts.
type WaterfallSolver struct {
	logger *zap.Logger
}

// NewWaterfallSolver creates a waterfall solver.
func NewWaterfallSolver(logger *zap.Logger) *WaterfallSolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaterfallSolver{logger: logger}
}

func (w *WaterfallSolver) Name() model.Strategy { return model.StrategyWaterfall }

// ReductionFactor is available/demanded when demand exceeds supply, 1 otherwise.
func ReductionFactor(available, demanded float64) float64 {
	if demanded <= 0 || demanded <= available {
		return 1
	}
	if available <= 0 {
		return 0
	}
	return available / demanded
}

// RationedQuantities scales every line by factor, rounding down.
func RationedQuantities(lines []model.DemandLine, factor float64) []model.DemandLine {
	out := make([]model.DemandLine, len(lines))
	for i, l := range lines {
		l.Quantity = int(math.Floor(float64(l.Quantity)*factor + 1e-9))
		out[i] = l
	}
	return out
}

// lotShare is one color's pieces of one size assigned to one lot.
type lotShare struct {
	color string
	need  int
}

// Solve runs the three phases on a fresh clone of the lots.
func (w *WaterfallSolver) Solve(ctx context.Context, demand model.Demand, lots model.LotGroups, cons model.Consumption) (Result, error) {
	if err := validateConsumption(cons, demand); err != nil {
		return Result{}, err
	}
	flat := lots.Flatten()

	// Phase A
	lines := demand.Lines()
	var demanded float64
	for _, l := range lines {
		demanded += float64(l.Quantity) * cons.For(l.Size)
	}
	factor := ReductionFactor(lots.TotalLength(), demanded)
	rationed := RationedQuantities(lines, factor)
	if factor < 1 {
		w.logger.Info("demand exceeds supply, rationing",
			zap.Float64("available", lots.TotalLength()),
			zap.Float64("demanded", demanded),
			zap.Float64("factor", factor))
	}

	// Phase B
	assigned := w.assign(lines, rationed, model.NewLotArena(flat), cons)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Phase C
	arena := model.NewLotArena(flat)
	var jobs []model.CutJob
	for _, id := range arena.IDs() {
		bySize := assigned[id]
		sizes := make([]string, 0, len(bySize))
		for s := range bySize {
			sizes = append(sizes, s)
		}
		model.SortSizes(sizes)
		for _, size := range sizes {
			jobs = append(jobs, consolidate(arena, id, size, bySize[size], cons)...)
		}
	}

	var unmet []*ColorError
	produced := AllocationsFromJobs(jobs)
	for _, color := range demand.Colors() {
		need := demand.ForColor(color)
		for s := range need {
			for _, a := range produced[model.DemandKey(color, s)] {
				need[s] -= a.Quantity
			}
		}
		if ce := colorShortfall(color, need, arena); ce != nil {
			w.logger.Warn("color not fully planned", zap.String("color", color), zap.Error(ce.Err))
			unmet = append(unmet, ce)
		}
	}
	return finish(jobs, arena, demand, unmet), nil
}

// assign places each rationed line, largest original quantity first, onto
// the smallest lot that takes it whole, or else the largest lot left.
func (w *WaterfallSolver) assign(original, rationed []model.DemandLine, plan *model.LotArena, cons model.Consumption) map[string]map[string][]*lotShare {
	order := make([]int, len(rationed))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return original[order[a]].Quantity > original[order[b]].Quantity
	})

	out := make(map[string]map[string][]*lotShare)
	for _, idx := range order {
		line := rationed[idx]
		per := cons.For(line.Size)
		remaining := line.Quantity
		for remaining > 0 {
			lotID, capacity := pickLot(plan, line.Color, remaining, per)
			if lotID == "" {
				break
			}
			take := min(remaining, capacity)
			if err := plan.Consume(lotID, float64(take)*per); err != nil {
				break
			}
			remaining -= take
			if out[lotID] == nil {
				out[lotID] = make(map[string][]*lotShare)
			}
			out[lotID][line.Size] = addShare(out[lotID][line.Size], line.Color, take)
		}
	}
	return out
}

func addShare(shares []*lotShare, color string, qty int) []*lotShare {
	for _, s := range shares {
		if s.color == color {
			s.need += qty
			return shares
		}
	}
	return append(shares, &lotShare{color: color, need: qty})
}

// pickLot returns the smallest eligible lot able to take need pieces at once,
// otherwise the largest lot with room for at least one piece.
func pickLot(plan *model.LotArena, color string, need int, per float64) (string, int) {
	active := plan.Active(color)
	if len(active) == 0 {
		return "", 0
	}
	capacity := func(id string) int {
		return int(math.Floor(plan.Remaining(id) / per))
	}
	for i := len(active) - 1; i >= 0; i-- {
		if c := capacity(active[i].ID); c >= need {
			return active[i].ID, c
		}
	}
	for _, l := range active {
		if c := capacity(l.ID); c > 0 {
			return l.ID, c
		}
	}
	return "", 0
}

// nextCut chooses ratio and layers for a backlog of pieces of one size.
func nextCut(backlog int) (ratio, layers int) {
	bestPieces := 0
	for r := highVolumeMaxRatio; r >= 1; r-- {
		l := min(model.MaxLayers, backlog/r)
		if p := l * r; p >= highVolumeMinPieces && p > bestPieces {
			bestPieces, ratio, layers = p, r, l
		}
	}
	if bestPieces > 0 {
		return ratio, layers
	}
	ratio = int(math.Round(float64(backlog) / leftoverPiecesPerR))
	ratio = max(1, min(leftoverMaxRatio, ratio))
	return ratio, min(model.MaxLayers, backlog/ratio)
}

// consolidate turns the shares of one size on one lot into cut jobs until
// the backlog is cleared or the lot is full.
func consolidate(arena *model.LotArena, lotID, size string, shares []*lotShare, cons model.Consumption) []model.CutJob {
	var jobs []model.CutJob
	for {
		needs := make([]int, len(shares))
		backlog := 0
		for i, s := range shares {
			needs[i] = max(0, s.need)
			backlog += needs[i]
		}
		if backlog == 0 {
			return jobs
		}
		ratio, layers := nextCut(backlog)
		markerLen := float64(ratio) * cons.For(size)
		if fit := int(math.Floor(arena.Remaining(lotID) / markerLen)); layers > fit {
			layers = fit
		}
		if layers <= 0 {
			return jobs
		}
		pattern := make(model.SizeCombination, ratio)
		for i := range pattern {
			pattern[i] = size
		}
		for i, l := range distributeLayers(layers, ratio, needs) {
			if l == 0 {
				continue
			}
			job := model.NewCutJob(shares[i].color, pattern, l, lotID, cons)
			if err := arena.Consume(lotID, job.MetrajUsed()); err != nil {
				return jobs
			}
			shares[i].need -= l * ratio
			jobs = append(jobs, job)
		}
	}
}

// distributeLayers splits a cut's layers over the orders sharing it: an
// equal share per order that still needs whole layers, capped by what it
// needs. Layers no order needs in full are left unassigned for a smaller cut.
// When the share rounds to zero, or no order needs a whole layer at all, the
// remainder goes to the first active order, which can over-produce that order.
func distributeLayers(layers, ratio int, needs []int) []int {
	out := make([]int, len(needs))
	if len(needs) == 0 {
		return out
	}
	wanted := func(i int) int {
		return needs[i]/ratio - out[i]
	}
	remaining := layers
	for remaining > 0 {
		var active []int
		for i := range needs {
			if wanted(i) > 0 {
				active = append(active, i)
			}
		}
		if len(active) == 0 {
			if remaining == layers {
				out[firstNeeding(needs)] += remaining
			}
			break
		}
		share := remaining / len(active)
		if share == 0 {
			out[active[0]] += remaining
			break
		}
		for _, i := range active {
			give := min(share, wanted(i), remaining)
			out[i] += give
			remaining -= give
		}
	}
	return out
}

func firstNeeding(needs []int) int {
	for i, n := range needs {
		if n > 0 {
			return i
		}
	}
	return 0
}
