package engine

import (
	"sort"

	"github.com/piwi3910/lotcut/internal/model"
)

// BuildPlans groups jobs that share a lot and a marker into cutting plans,
// one row per color. Plans keep the order in which their first job appears.
func BuildPlans(jobs []model.CutJob, arena *model.LotArena) []model.CuttingPlan {
	var plans []model.CuttingPlan
	index := make(map[string]int)
	for _, job := range jobs {
		if job.Layers <= 0 || len(job.Ratio) == 0 {
			continue
		}
		key := job.LotID + "#" + model.FromRatio(job.Ratio).Key()
		i, ok := index[key]
		if !ok {
			lot, _ := arena.Lot(job.LotID)
			ratio := make(map[string]int, len(job.Ratio))
			for s, r := range job.Ratio {
				ratio[s] = r
			}
			plans = append(plans, model.CuttingPlan{
				ID:              len(plans) + 1,
				LotID:           job.LotID,
				LotNo:           lot.LotNo,
				ToleranceClass:  lot.ToleranceClass,
				Ratio:           ratio,
				MarkerLength:    job.MarkerLength,
				FabricsUsed:     lot.RollNumbers(),
				RemainingLength: arena.Remaining(job.LotID),
			})
			i = len(plans) - 1
			index[key] = i
		}
		p := &plans[i]
		p.TotalLayers += job.Layers
		p.UsedLength += job.MetrajUsed()
		addRow(p, job)
	}
	for i := range plans {
		if len(plans[i].Rows) > 1 {
			plans[i].Note = "mixed marker"
		}
	}
	return plans
}

func addRow(p *model.CuttingPlan, job model.CutJob) {
	for i := range p.Rows {
		if p.Rows[i].Color == job.Color {
			p.Rows[i].Layers += job.Layers
			for s := range job.Ratio {
				p.Rows[i].Quantities[s] += job.PiecesProduced(s)
			}
			return
		}
	}
	row := model.PlanRow{Color: job.Color, Layers: job.Layers, Quantities: make(map[string]int, len(job.Ratio))}
	for s := range job.Ratio {
		row.Quantities[s] = job.PiecesProduced(s)
	}
	p.Rows = append(p.Rows, row)
}

// Allocations maps a demand key to pieces taken per lot, in first-use order.
type Allocations map[string][]model.Allocation

func (a Allocations) add(color, size, lotID string, qty int) {
	if qty <= 0 {
		return
	}
	key := model.DemandKey(color, size)
	for i := range a[key] {
		if a[key][i].LotID == lotID {
			a[key][i].Quantity += qty
			return
		}
	}
	a[key] = append(a[key], model.Allocation{LotID: lotID, Quantity: qty})
}

// AllocationsFromJobs collects the pieces each job contributes per demand line.
func AllocationsFromJobs(jobs []model.CutJob) Allocations {
	a := make(Allocations)
	for _, job := range jobs {
		for s := range job.Ratio {
			a.add(job.Color, s, job.LotID, job.PiecesProduced(s))
		}
	}
	return a
}

// IntegrityFromAllocations scores each demand line as
// 100 x largest single-lot allocation / demand, capped at 100.
// Lines with no allocation score 0.
func IntegrityFromAllocations(demand model.Demand, allocs Allocations) model.IntegrityMap {
	out := make(model.IntegrityMap)
	for _, line := range demand.Lines() {
		list := append([]model.Allocation(nil), allocs[line.Key()]...)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Quantity > list[j].Quantity })
		score := 0
		if len(list) > 0 && line.Quantity > 0 {
			score = list[0].Quantity * 100 / line.Quantity
			if score > 100 {
				score = 100
			}
		}
		out[line.Key()] = model.Integrity{Score: score, Allocations: list}
	}
	return out
}

// BuildSummary compares demand against the planned quantities for every color.
// Sizes span the union of all colors so rows line up in a table.
func BuildSummary(demand model.Demand, plans []model.CuttingPlan, integrity model.IntegrityMap) []model.SummaryRow {
	sizes := demand.AllSizes()
	planned := make(map[string]map[string]int)
	for _, p := range plans {
		for _, r := range p.Rows {
			if planned[r.Color] == nil {
				planned[r.Color] = make(map[string]int)
			}
			for s, q := range r.Quantities {
				planned[r.Color][s] += q
			}
		}
	}

	var rows []model.SummaryRow
	for _, color := range demand.Colors() {
		row := model.SummaryRow{
			Color:     color,
			Demanded:  make(map[string]int, len(sizes)),
			Planned:   make(map[string]int, len(sizes)),
			Integrity: make(map[string]model.Integrity),
		}
		for _, s := range sizes {
			row.Demanded[s] = demand.Quantity(color, s)
			row.Planned[s] = planned[color][s]
			if row.Demanded[s] == 0 && row.Planned[s] == 0 {
				continue
			}
			in, ok := integrity[model.DemandKey(color, s)]
			if !ok {
				in = model.Integrity{Score: 100}
			}
			row.Integrity[s] = in
		}
		rows = append(rows, row)
	}
	return rows
}
