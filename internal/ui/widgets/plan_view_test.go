package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/lotcut/internal/model"
)

func testPlan() model.CuttingPlan {
	return model.CuttingPlan{
		ID:             1,
		LotNo:          "L1",
		ToleranceClass: "KALIP-1",
		Ratio:          map[string]int{"34": 1, "32": 2},
		MarkerLength:   3.75,
		TotalLayers:    10,
		Rows: []model.PlanRow{
			{Color: "RED", Layers: 6, Quantities: map[string]int{"32": 12, "34": 6}},
			{Color: "BLUE", Layers: 4, Quantities: map[string]int{"32": 8, "34": 4}},
		},
	}
}

func TestPlanHeader(t *testing.T) {
	got := PlanHeader(2, testPlan())
	assert.Equal(t, "Plan 2: lot L1 (KALIP-1), marker 32x2 34x1, 3.75 m x 10 layers, 30 pieces", got)
}

func TestPlanRowsTable(t *testing.T) {
	rows := PlanRowsTable(testPlan())
	assert.Equal(t, []string{"Color", "Layers", "32", "34"}, rows[0])
	assert.Equal(t, []string{"RED", "6", "12", "6"}, rows[1])
	assert.Equal(t, []string{"BLUE", "4", "8", "4"}, rows[2])
}

func TestSummaryTable(t *testing.T) {
	result := &model.OptimizeResult{
		Sizes: []string{"32", "34"},
		Summary: []model.SummaryRow{{
			Color:    "RED",
			Demanded: map[string]int{"32": 10, "34": 6},
			Planned:  map[string]int{"32": 12, "34": 5},
		}},
	}
	rows := SummaryTable(result)
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 lines, got %d", len(rows))
	}
	assert.Equal(t, []string{"Color", "", "32", "34", "Total"}, rows[0])
	assert.Equal(t, []string{"", "Diff", "+2", "-1", "+1"}, rows[3])
}
