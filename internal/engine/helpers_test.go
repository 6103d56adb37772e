package engine

import (
	"fmt"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
)

func makeTestLots(lengths ...float64) model.LotGroups {
	lots := make([]model.FabricLot, 0, len(lengths))
	for i, l := range lengths {
		no := fmt.Sprintf("L%d", i+1)
		lots = append(lots, model.FabricLot{
			LotNo:       no,
			TotalLength: l,
			Rolls:       []model.Roll{{ID: no, RollNo: "R-" + no, LotNo: no, Length: l}},
		})
	}
	return model.LotGroups{"KALIP-1": lots}
}

func makeTestDemand() model.Demand {
	return model.BuildDemand([]model.OrderRow{
		{Color: "RED", Quantities: map[string]int{"32": 300, "34": 250, "36": 120}},
		{Color: "BLUE", Quantities: map[string]int{"32": 200, "36": 90}},
	}, 0)
}

func unitConsumption() model.Consumption {
	return model.Consumption{Mode: model.ConsumptionAverage, Average: 1.0}
}

func smallGeneticConfig() model.GeneticConfig {
	cfg := model.DefaultGeneticConfig()
	cfg.PopulationSize = 30
	cfg.Generations = 40
	cfg.Seed = 7
	return cfg
}

// producedByLine sums planned pieces per demand key.
func producedByLine(res Result) map[string]int {
	out := make(map[string]int)
	for _, p := range res.Plans {
		for _, r := range p.Rows {
			for s, q := range r.Quantities {
				out[model.DemandKey(r.Color, s)] += q
			}
		}
	}
	return out
}

func assertCapacity(t *testing.T, res Result, lots model.LotGroups) {
	t.Helper()
	used := make(map[string]float64)
	for _, j := range res.Jobs {
		used[j.LotID] += j.MetrajUsed()
	}
	for _, l := range lots.Flatten() {
		if used[l.ID] > l.TotalLength+1e-6 {
			t.Errorf("lot %s overrun: used %.3f of %.3f", l.ID, used[l.ID], l.TotalLength)
		}
	}
}

func assertJobShape(t *testing.T, res Result) {
	t.Helper()
	for _, j := range res.Jobs {
		if j.Layers < 1 || j.Layers > model.MaxLayers {
			t.Errorf("job %+v has %d layers", j.Pattern, j.Layers)
		}
		if d := len(j.Ratio); d < 1 || d > model.MaxPatternSizes {
			t.Errorf("job %+v has %d distinct sizes", j.Pattern, d)
		}
	}
}

func assertWithinTolerance(t *testing.T, res Result, demand model.Demand) {
	t.Helper()
	produced := producedByLine(res)
	for _, line := range demand.Lines() {
		got := produced[line.Key()]
		if got < line.Quantity {
			t.Errorf("%s: produced %d, demanded %d", line.Key(), got, line.Quantity)
		}
		if ceiling := model.ToleranceCeiling(line.Quantity); got > ceiling {
			t.Errorf("%s: produced %d, ceiling %d", line.Key(), got, ceiling)
		}
	}
}

// assertSingleLot fails for every demand line whose fulfillment spans lots.
func assertSingleLot(t *testing.T, res Result, demand model.Demand) {
	t.Helper()
	for _, line := range demand.Lines() {
		if n := len(res.Integrity[line.Key()].Allocations); n != 1 {
			t.Errorf("%s: cut from %d lots, expected 1", line.Key(), n)
		}
	}
}
