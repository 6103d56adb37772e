package engine

import (
	"context"
	"testing"
	"time"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestOptimizer(config model.GeneticConfig, demand map[string]int, lengths ...float64) *geneticOptimizer {
	return newGeneticOptimizer(GeneticInput{
		Color:       "RED",
		Demand:      demand,
		Arena:       model.NewLotArena(makeTestLots(lengths...).Flatten()),
		Consumption: unitConsumption(),
		Config:      config,
	})
}

func fourUp(size string) model.SizeCombination {
	return model.SizeCombination{size, size, size, size}
}

func TestGeneticFitnessPrefersSingleLot(t *testing.T) {
	g := makeTestOptimizer(model.DefaultGeneticConfig(), map[string]int{"32": 100}, 500, 500)
	cons := unitConsumption()

	oneLot := chromosome{jobs: []model.CutJob{
		model.NewCutJob("RED", fourUp("32"), 25, "KALIP-1/L1", cons),
	}}
	twoLots := chromosome{jobs: []model.CutJob{
		model.NewCutJob("RED", fourUp("32"), 13, "KALIP-1/L1", cons),
		model.NewCutJob("RED", fourUp("32"), 12, "KALIP-1/L2", cons),
	}}
	shortOneLot := chromosome{jobs: []model.CutJob{
		model.NewCutJob("RED", fourUp("32"), 24, "KALIP-1/L1", cons),
	}}

	assert.Equal(t, 10150.0, g.evaluate(oneLot))
	assert.Equal(t, 150.0, g.evaluate(twoLots))
	assert.Equal(t, 9248.0, g.evaluate(shortOneLot))
	assert.Greater(t, g.evaluate(shortOneLot), g.evaluate(twoLots),
		"a small shortage on one lot beats an exact split over two")
}

func TestGeneticFitnessPenalizesOverrun(t *testing.T) {
	g := makeTestOptimizer(model.DefaultGeneticConfig(), map[string]int{"32": 100}, 500)
	cons := unitConsumption()

	feasible := chromosome{jobs: []model.CutJob{
		model.NewCutJob("RED", fourUp("32"), 25, "KALIP-1/L1", cons),
	}}
	overrun := chromosome{jobs: []model.CutJob{
		model.NewCutJob("RED", fourUp("32"), 80, "KALIP-1/L1", cons),
		model.NewCutJob("RED", fourUp("32"), 80, "KALIP-1/L1", cons),
	}}
	assert.Less(t, g.evaluate(overrun), g.evaluate(feasible))
}

func TestGeneticFitnessEfficiencyTarget(t *testing.T) {
	g := newGeneticOptimizer(GeneticInput{
		Color:  "RED",
		Demand: map[string]int{"S": 50, "L": 50},
		Arena:  model.NewLotArena(makeTestLots(1000).Flatten()),
		Consumption: model.Consumption{
			Mode:    model.ConsumptionPerSize,
			Average: 1.0,
			PerSize: map[string]float64{"S": 1.0, "L": 2.0},
		},
		Config: model.DefaultGeneticConfig(),
	})
	assert.InDelta(t, 1.5, g.target, 1e-9)
}

func TestGeneticRepairTrimsOverrun(t *testing.T) {
	g := makeTestOptimizer(model.DefaultGeneticConfig(), map[string]int{"32": 100}, 500)
	cons := unitConsumption()

	jobs := g.repair([]model.CutJob{
		model.NewCutJob("RED", fourUp("32"), 80, "KALIP-1/L1", cons),
		model.NewCutJob("RED", fourUp("32"), 80, "KALIP-1/L1", cons),
		model.NewCutJob("RED", fourUp("32"), 5, "KALIP-1/L1", cons),
	})
	require.Len(t, jobs, 2)
	assert.Equal(t, 80, jobs[0].Layers)
	assert.Equal(t, 45, jobs[1].Layers)
}

func TestGeneticRandomGreedyRespectsBounds(t *testing.T) {
	g := makeTestOptimizer(smallGeneticConfig(), map[string]int{"32": 300, "34": 200, "36": 50}, 400, 300)
	for i := 0; i < 20; i++ {
		used := make(map[string]float64)
		for _, j := range g.randomGreedy() {
			if j.Layers < 1 || j.Layers > model.MaxLayers {
				t.Fatalf("layers out of range: %d", j.Layers)
			}
			used[j.LotID] += j.MetrajUsed()
		}
		for id, u := range used {
			if u > g.capacity[id]+1e-9 {
				t.Errorf("construction overran %s: %.2f > %.2f", id, u, g.capacity[id])
			}
		}
	}
}

func TestGeneticMutateClampsLayers(t *testing.T) {
	cfg := model.DefaultGeneticConfig()
	cfg.MutationRate = 1
	g := makeTestOptimizer(cfg, map[string]int{"32": 100}, 500)
	cons := unitConsumption()

	for i := 0; i < 200; i++ {
		c := chromosome{jobs: []model.CutJob{model.NewCutJob("RED", fourUp("32"), 1, "KALIP-1/L1", cons)}}
		g.mutate(&c)
		if l := c.jobs[0].Layers; l < 1 || l > model.MaxLayers {
			t.Fatalf("mutated layers out of range: %d", l)
		}
	}
}

func TestGeneticSolveProperties(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(900, 600, 400)
	res, err := NewGeneticSolver(smallGeneticConfig(), nil).Solve(context.Background(), demand, lots, unitConsumption())
	require.NoError(t, err)

	require.NotEmpty(t, res.Jobs)
	assertJobShape(t, res)
	assertCapacity(t, res, lots)
	for _, j := range res.Jobs {
		assert.Contains(t, []string{"RED", "BLUE"}, j.Color)
	}
}

func TestGeneticSolveRefillsColorFromFreeLot(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{
		{Color: "RED", Quantities: map[string]int{"32": 100}},
		{Color: "BLUE", Quantities: map[string]int{"32": 100}},
	}, 0)
	lots := makeTestLots(110, 110)

	for seed := int64(1); seed <= 10; seed++ {
		cfg := model.DefaultGeneticConfig()
		cfg.Seed = seed
		res, err := NewGeneticSolver(cfg, nil).Solve(context.Background(), demand, lots, unitConsumption())
		require.NoError(t, err)

		assert.Empty(t, res.Unmet, "seed %d", seed)
		produced := producedByLine(res)
		assert.GreaterOrEqual(t, produced["RED-32"], 100, "seed %d", seed)
		assert.GreaterOrEqual(t, produced["BLUE-32"], 100, "seed %d", seed)
		assertCapacity(t, res, lots)
		assertJobShape(t, res)
	}
}

func TestGeneticSolveKeepsLineOnOneLot(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{{Color: "RED", Quantities: map[string]int{"32": 100}}}, 0)
	lots := makeTestLots(500, 400)

	for seed := int64(1); seed <= 5; seed++ {
		cfg := model.DefaultGeneticConfig()
		cfg.Seed = seed
		res, err := NewGeneticSolver(cfg, nil).Solve(context.Background(), demand, lots, unitConsumption())
		require.NoError(t, err)
		assertSingleLot(t, res, demand)
	}
}

func TestGeneticSolveIsolatesColorWithoutLots(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(2000)
	lots["KALIP-1"][0].Color = "RED"

	res, err := NewGeneticSolver(smallGeneticConfig(), nil).Solve(context.Background(), demand, lots, unitConsumption())
	require.NoError(t, err)

	var blue *ColorError
	for _, ce := range res.Unmet {
		if ce.Color == "BLUE" {
			blue = ce
		}
	}
	require.NotNil(t, blue)
	assert.ErrorIs(t, blue, ErrNoFeasibleLot)
	for _, j := range res.Jobs {
		assert.Equal(t, "RED", j.Color)
	}
}

func TestStartGeneticDeliversOnce(t *testing.T) {
	task := StartGenetic(context.Background(), GeneticInput{
		Color:       "RED",
		Demand:      map[string]int{"32": 120, "34": 80},
		Arena:       model.NewLotArena(makeTestLots(500).Flatten()),
		Consumption: unitConsumption(),
		Config:      smallGeneticConfig(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RED", res.Color)
	assert.NotEmpty(t, res.Jobs)

	select {
	case extra := <-task.Done():
		t.Errorf("unexpected second result: %+v", extra)
	default:
	}
}

func TestStartGeneticCancelledDeliversNoPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := StartGenetic(ctx, GeneticInput{
		Color:       "RED",
		Demand:      map[string]int{"32": 120},
		Arena:       model.NewLotArena(makeTestLots(500).Flatten()),
		Consumption: unitConsumption(),
		Config:      smallGeneticConfig(),
	})
	res := <-task.Done()
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, res.Jobs)
}

func TestGeneticSolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGeneticSolver(smallGeneticConfig(), nil).Solve(ctx, makeTestDemand(), makeTestLots(2000), unitConsumption())
	assert.ErrorIs(t, err, context.Canceled)
}
