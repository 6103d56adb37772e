package engine

import (
	"strconv"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
)

func patternKeys(combos []model.SizeCombination) map[string]bool {
	keys := make(map[string]bool, len(combos))
	for _, c := range combos {
		keys[c.Key()] = true
	}
	return keys
}

func TestGeneratePatternsEmpty(t *testing.T) {
	assert.Empty(t, GeneratePatterns(nil, nil))
}

func TestGeneratePatternsCounts(t *testing.T) {
	tests := []struct {
		sizes []string
		want  int
	}{
		{[]string{"32"}, 4},
		{[]string{"32", "34"}, 8 + 6},
		{[]string{"32", "34", "36"}, 12 + 18 + 4},
		{[]string{"32", "34", "36", "38"}, 16 + 36 + 16 + 1},
	}
	for _, tt := range tests {
		got := GeneratePatterns(tt.sizes, nil)
		if len(got) != tt.want {
			t.Errorf("%v: expected %d combinations, got %d", tt.sizes, tt.want, len(got))
		}
		assert.Len(t, patternKeys(got), len(got), "combinations must be unique")
	}
}

func TestGeneratePatternsSingleSizeIncludesFourUp(t *testing.T) {
	keys := patternKeys(GeneratePatterns([]string{"S"}, nil))
	assert.True(t, keys["S|S|S|S"])
	assert.True(t, keys["S"])
}

func TestGeneratePatternsPairVariants(t *testing.T) {
	keys := patternKeys(GeneratePatterns([]string{"34", "32"}, nil))
	for _, k := range []string{"32|34", "32|32|34", "32|32|32|34", "32|32|34|34", "32|34|34", "32|34|34|34"} {
		if !keys[k] {
			t.Errorf("missing pair variant %s", k)
		}
	}
}

func TestGeneratePatternsStridedLargeSizeSet(t *testing.T) {
	var sizes []string
	demand := make(map[string]int)
	for i := 1; i <= 20; i++ {
		s := strconv.Itoa(i)
		sizes = append(sizes, s)
		demand[s] = 10
	}
	for _, s := range []string{"5", "9", "13", "17"} {
		demand[s] = 500
	}

	combos := GeneratePatterns(sizes, demand)
	keys := patternKeys(combos)
	assert.True(t, keys["5|9|13|17"], "top-4-by-demand combination must be present")
	for _, c := range combos {
		if len(c) > model.MaxPatternSizes {
			t.Errorf("combination %v has more than %d entries", c, model.MaxPatternSizes)
		}
	}

	// without striding 20 sizes would give C(20,4) = 4845 quads alone
	assert.Less(t, len(combos), 4845)
}

func TestTopByDemand(t *testing.T) {
	got := topByDemand([]string{"36", "32", "38", "34", "40"}, map[string]int{"32": 5, "34": 50, "36": 50, "38": 1, "40": 20}, 4)
	assert.Equal(t, []string{"32", "34", "36", "40"}, got)
}
