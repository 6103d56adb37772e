package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRecorder struct {
	mu      sync.Mutex
	records []model.RunRecord
}

func (c *captureRecorder) Record(rec model.RunRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func testRequest() Request {
	return Request{
		JobName:  "spring",
		Customer: "Generic",
		Orders: []model.OrderRow{
			{Color: "RED", Quantities: map[string]int{"32": 300, "34": 250, "36": 120}},
			{Color: "BLUE", Quantities: map[string]int{"32": 200, "36": 90}},
		},
		Lots:        makeTestLots(2000, 2000),
		Consumption: unitConsumption(),
	}
}

func TestOptimizerRunBuildsReport(t *testing.T) {
	rec := &captureRecorder{}
	opt := New(model.DefaultSettings(), WithRecorder(rec))

	result, err := opt.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, model.StrategyGreedy, result.Strategy)
	assert.Equal(t, []string{"32", "34", "36"}, result.Sizes)
	require.Len(t, result.Summary, 2)
	assert.Equal(t, "RED", result.Summary[0].Color)
	assert.Empty(t, result.Unmet)
	for _, row := range result.Summary {
		for _, s := range result.Sizes {
			assert.GreaterOrEqual(t, row.Diff(s), 0, "%s-%s", row.Color, s)
		}
	}

	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.Equal(t, result.RunID, r.RunID)
	assert.Equal(t, "spring", r.JobName)
	assert.Equal(t, "Generic", r.Customer)
	assert.Equal(t, len(result.Plans), r.Plans)
	assert.Equal(t, result.TotalPieces(), r.TotalPieces)
}

func TestOptimizerInflationRaisesDemand(t *testing.T) {
	settings := model.DefaultSettings()
	settings.InflationPct = 10
	result, err := New(settings).Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 330, result.Summary[0].Demanded["32"])
}

func TestOptimizerEmptyDemand(t *testing.T) {
	req := testRequest()
	req.Orders = []model.OrderRow{{Color: "RED", Quantities: map[string]int{"32": 0}}}
	_, err := New(model.DefaultSettings()).Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptimizerUnknownStrategy(t *testing.T) {
	settings := model.DefaultSettings()
	settings.Strategy = "simulated-annealing"
	_, err := New(settings).Run(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestOptimizerReportsUnmetColors(t *testing.T) {
	req := testRequest()
	req.Lots["KALIP-1"][0].Color = "RED"
	req.Lots["KALIP-1"][1].Color = "RED"

	result, err := New(model.DefaultSettings()).Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Unmet, 1)
	assert.Equal(t, "BLUE", result.Unmet[0].Color)
	assert.Equal(t, -200, result.Summary[1].Diff("32"))
}

func TestOptimizerOptimizeGroupsRolls(t *testing.T) {
	job := model.NewJob()
	job.Name = "rolls"
	job.Orders = testRequest().Orders
	job.Consumption = unitConsumption()
	job.Rolls = []model.Roll{
		{RollNo: "1", LotNo: "A", Length: 900, WidthShrink: 1, LengthShrink: 2},
		{RollNo: "2", LotNo: "A", Length: 900, WidthShrink: 2, LengthShrink: 1},
		{RollNo: "3", LotNo: "B", Length: 800, WidthShrink: 5, LengthShrink: 4},
	}

	result, err := New(model.DefaultSettings()).Optimize(context.Background(), job, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Plans)
	for _, p := range result.Plans {
		assert.Contains(t, []string{"KALIP-1", "KALIP-2"}, p.ToleranceClass)
	}
}

func TestNewSolverStrategies(t *testing.T) {
	for _, s := range model.Strategies() {
		settings := model.DefaultSettings()
		settings.Strategy = s
		solver, err := NewSolver(settings, nil)
		require.NoError(t, err)
		assert.Equal(t, s, solver.Name())
	}

	settings := model.DefaultSettings()
	settings.Strategy = model.StrategyGenetic
	settings.Genetic.PopulationSize = 1
	_, err := NewSolver(settings, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompareStrategies(t *testing.T) {
	base := model.DefaultSettings()
	base.Genetic = smallGeneticConfig()

	results := CompareStrategies(context.Background(), base,
		[]model.Strategy{model.StrategyGreedy, model.StrategyWaterfall, model.StrategyILP}, testRequest())
	require.Len(t, results, 3)

	for _, r := range results {
		require.NoError(t, r.Err, r.Scenario.Name)
		assert.Equal(t, model.Strategy(r.Scenario.Name), r.Result.Strategy)
		assert.Zero(t, r.Shortfall, r.Scenario.Name)
		assert.Greater(t, r.PlansCount, 0)
	}
}

func TestBuildStrategyScenariosDefaultsToAll(t *testing.T) {
	scenarios := BuildStrategyScenarios(model.DefaultSettings(), nil)
	require.Len(t, scenarios, len(model.Strategies()))
	for i, s := range model.Strategies() {
		assert.Equal(t, s, scenarios[i].Settings.Strategy)
	}
}
