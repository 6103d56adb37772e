package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/lotcut/internal/model"
)

func TestParseQuantities(t *testing.T) {
	q, err := parseQuantities("32:10, 34=5 36:2")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"32": 10, "34": 5, "36": 2}, q)

	q, err = parseQuantities("")
	require.NoError(t, err)
	assert.Empty(t, q)

	_, err = parseQuantities("32")
	assert.Error(t, err)

	_, err = parseQuantities("32:-1")
	assert.Error(t, err)

	_, err = parseQuantities("32:abc")
	assert.Error(t, err)
}

func TestParsePerSize(t *testing.T) {
	m, err := parsePerSize("32:1.1 34:1.3")
	require.NoError(t, err)
	assert.InDelta(t, 1.1, m["32"], 1e-9)
	assert.InDelta(t, 1.3, m["34"], 1e-9)

	_, err = parsePerSize("32:0")
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	q := map[string]int{"36": 2, "32": 10, "XL": 1}
	text := formatQuantities(q)
	assert.Equal(t, "32:10 36:2 XL:1", text)

	back, err := parseQuantities(text)
	require.NoError(t, err)
	assert.Equal(t, q, back)

	assert.Equal(t, "32:1.1 34:1.25", formatPerSize(map[string]float64{"34": 1.25, "32": 1.1}))
}

func TestJobSizes(t *testing.T) {
	orders := []model.OrderRow{
		{Color: "RED", Quantities: map[string]int{"34": 1, "32": 2}},
		{Color: "BLUE", Quantities: map[string]int{"30": 1, "34": 3}},
	}
	assert.Equal(t, []string{"30", "32", "34"}, jobSizes(orders))
	assert.Empty(t, jobSizes(nil))
}

func TestParseSizeList(t *testing.T) {
	assert.Equal(t, []string{"32", "34", "36"}, parseSizeList("32, 34\t36"))
}

func TestLotLines(t *testing.T) {
	groups := model.LotGroups{
		"KALIP-1": {
			{LotNo: "A", TotalLength: 150, Rolls: []model.Roll{{RollNo: "R2"}, {RollNo: "R1"}}},
		},
		"KALIP-2": {
			{LotNo: "B", TotalLength: 40, Color: "RED", Rolls: []model.Roll{{RollNo: "R3"}}},
		},
	}
	lines := lotLines(groups)
	require.Len(t, lines, 4)
	assert.Equal(t, "KALIP-1: 1 lot(s), 150.00 m", lines[0])
	assert.Equal(t, "    Lot A: 150.00 m, rolls R1, R2", lines[1])
	assert.Equal(t, "    Lot B: 40.00 m, rolls R3 (RED only)", lines[3])
}

func TestParseBands(t *testing.T) {
	b, err := parseBands("2.5 5", "TIGHT MID LOOSE")
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, 5}, b.Bounds)
	assert.Equal(t, []string{"TIGHT", "MID", "LOOSE"}, b.Names)
	assert.Equal(t, "2.5 5", formatBounds(b))

	_, err = parseBands("5 2", "A B C")
	assert.Error(t, err, "descending bounds")

	_, err = parseBands("3 6", "A B")
	assert.Error(t, err, "too few names")

	_, err = parseBands("x", "A B")
	assert.Error(t, err)

	b, err = parseBands("", "ALL")
	require.NoError(t, err)
	assert.Equal(t, []string{"ALL"}, b.Names)
}
