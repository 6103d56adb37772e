package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeFor(t *testing.T) {
	tests := []struct {
		name  string
		sizes []string
		need  map[string]int
		want  map[string]int
	}{
		{"single size cut four up", []string{"S"}, nil, map[string]int{"S": 4}},
		{"pair two plus two", []string{"S", "M"}, nil, map[string]int{"S": 2, "M": 2}},
		{"triple bumps highest need", []string{"S", "M", "L"}, map[string]int{"S": 10, "M": 40, "L": 20}, map[string]int{"S": 1, "M": 2, "L": 1}},
		{"triple tie keeps first", []string{"S", "M", "L"}, map[string]int{"S": 10, "M": 10, "L": 10}, map[string]int{"S": 2, "M": 1, "L": 1}},
		{"quad one each", []string{"S", "M", "L", "XL"}, nil, map[string]int{"S": 1, "M": 1, "L": 1, "XL": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecipeFor(tt.sizes, tt.need))
		})
	}
	assert.Nil(t, RecipeFor([]string{"a", "b", "c", "d", "e"}, nil))
	assert.Nil(t, RecipeFor(nil, nil))
}

func solveGreedy(t *testing.T, demand model.Demand, lots model.LotGroups) Result {
	t.Helper()
	res, err := NewGreedySolver(nil).Solve(context.Background(), demand, lots, unitConsumption())
	require.NoError(t, err)
	return res
}

func TestGreedyHardLayerCap(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{{Color: "RED", Quantities: map[string]int{"S": 100, "M": 100, "L": 100, "XL": 100}}}, 0)
	lots := makeTestLots(1000)
	res := solveGreedy(t, demand, lots)

	require.NotEmpty(t, res.Jobs)
	assert.Equal(t, 80, res.Jobs[0].Layers, "first cut is bounded by the table height")
	assert.Equal(t, map[string]int{"S": 1, "M": 1, "L": 1, "XL": 1}, res.Jobs[0].Ratio)
	assertCapacity(t, res, lots)
	assertJobShape(t, res)
}

func TestGreedySoftCapCountsPiecesNotLayers(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{{Color: "RED", Quantities: map[string]int{"S": 340}}}, 0)
	res := solveGreedy(t, demand, makeTestLots(1000))

	require.Len(t, res.Jobs, 2)
	assert.Equal(t, 65, res.Jobs[0].Layers, "340 pieces left is above the soft cap threshold")
	assert.Equal(t, 24, res.Jobs[1].Layers)

	require.Len(t, res.Plans, 1, "repeat cuts of one marker on one lot form one plan")
	assert.Equal(t, 356, res.Plans[0].TotalPieces())
	assertWithinTolerance(t, res, demand)
}

func TestGreedySoftLayerCap(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{{Color: "RED", Quantities: map[string]int{"S": 400}}}, 0)
	res := solveGreedy(t, demand, makeTestLots(1000))

	require.NotEmpty(t, res.Jobs)
	assert.Equal(t, 65, res.Jobs[0].Layers)
	assertWithinTolerance(t, res, demand)
}

func TestGreedySmallDemandSinglePlan(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{{Color: "RED", Quantities: map[string]int{"S": 100}}}, 0)
	res := solveGreedy(t, demand, makeTestLots(1000))

	require.Len(t, res.Plans, 1)
	plan := res.Plans[0]
	assert.Equal(t, map[string]int{"S": 4}, plan.Ratio)
	assert.Equal(t, 26, plan.TotalLayers)
	assert.Equal(t, 104, plan.TotalPieces())
	assert.InDelta(t, 896.0, plan.RemainingLength, 1e-9)
	assert.Equal(t, 100, res.Integrity["RED-S"].Score)
}

func TestGreedyMeetsDemandWithinTolerance(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(2000, 2000)
	res := solveGreedy(t, demand, lots)

	assert.Empty(t, res.Unmet)
	assertWithinTolerance(t, res, demand)
	assertCapacity(t, res, lots)
	assertJobShape(t, res)
}

func TestGreedyKeepsLineOnOneLot(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{{Color: "RED", Quantities: map[string]int{"32": 100, "34": 80}}}, 0)
	res := solveGreedy(t, demand, makeTestLots(1000, 300))

	assert.Empty(t, res.Unmet)
	assertSingleLot(t, res, demand)
	assertWithinTolerance(t, res, demand)
}

func TestGreedyIsDeterministic(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(700, 400, 300)

	first := solveGreedy(t, demand, lots)
	for i := 0; i < 3; i++ {
		again := solveGreedy(t, demand, lots)
		assert.Equal(t, first.Jobs, again.Jobs)
		assert.Equal(t, first.Plans, again.Plans)
	}
}

func TestGreedyCapacityUnderShortage(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(300, 150)
	res := solveGreedy(t, demand, lots)

	assertCapacity(t, res, lots)
	assertJobShape(t, res)
	require.NotEmpty(t, res.Unmet)
	for _, ce := range res.Unmet {
		assert.True(t, errors.Is(ce, ErrShortfall), "color %s: %v", ce.Color, ce.Err)
	}
}

func TestGreedyColorWithoutEligibleLotIsIsolated(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(3000)
	lots["KALIP-1"][0].Color = "red"

	res := solveGreedy(t, demand, lots)

	require.Len(t, res.Unmet, 1)
	assert.Equal(t, "BLUE", res.Unmet[0].Color)
	assert.ErrorIs(t, res.Unmet[0], ErrNoFeasibleLot)

	produced := producedByLine(res)
	assert.GreaterOrEqual(t, produced["RED-32"], 300)
	assert.Zero(t, produced["BLUE-32"])
}

func TestGreedyLotTooShortForOneColorStaysOpenForNext(t *testing.T) {
	demand := model.BuildDemand([]model.OrderRow{
		{Color: "RED", Quantities: map[string]int{"XL": 10}},
		{Color: "BLUE", Quantities: map[string]int{"S": 2}},
	}, 0)
	cons := model.Consumption{Mode: model.ConsumptionPerSize, PerSize: map[string]float64{"XL": 5, "S": 1}}
	arena := model.NewLotArena(makeTestLots(3).Flatten())
	id := arena.IDs()[0]

	g := NewGreedySolver(nil)
	red, _ := g.solveColor("RED", demand, arena, cons)
	assert.Empty(t, red)
	assert.Equal(t, 3.0, arena.Remaining(id))

	blue, need := g.solveColor("BLUE", demand, arena, cons)
	require.NotEmpty(t, blue)
	if need["S"] > 0 {
		t.Errorf("BLUE still needs %d pieces of S", need["S"])
	}
	assert.Less(t, arena.Remaining(id), 3.0)
}

func TestGreedyDoesNotMutateInputs(t *testing.T) {
	demand := makeTestDemand()
	lots := makeTestLots(2000)
	solveGreedy(t, demand, lots)

	assert.Equal(t, 300, demand.Quantity("RED", "32"))
	assert.Equal(t, 2000.0, lots["KALIP-1"][0].TotalLength)
}

func TestGreedyRejectsZeroConsumption(t *testing.T) {
	_, err := NewGreedySolver(nil).Solve(context.Background(), makeTestDemand(), makeTestLots(100), model.Consumption{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGreedyAcceptsPerSizeTableWithoutAverage(t *testing.T) {
	cons := model.Consumption{Mode: model.ConsumptionPerSize, PerSize: map[string]float64{"32": 1, "34": 1, "36": 1}}
	res, err := NewGreedySolver(nil).Solve(context.Background(), makeTestDemand(), makeTestLots(2000, 2000), cons)
	require.NoError(t, err)
	assert.Empty(t, res.Unmet)
}
