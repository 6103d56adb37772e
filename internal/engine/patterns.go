package engine

import (
	"sort"

	"github.com/piwi3910/lotcut/internal/model"
)

// strideThreshold is the size count above which triples and quads are sampled.
const strideThreshold = 15

// GeneratePatterns enumerates candidate markers for one color's active sizes.
// Singles are repeated 1-4 times, every pair gets six literal mixes, and
// triples and quads are sampled with a stride once there are more than 15
// sizes. A top-4-by-demand marker is always added when at least four sizes
// are active.
func GeneratePatterns(sizes []string, demand map[string]int) []model.SizeCombination {
	sorted := make([]string, 0, len(sizes))
	seenSize := make(map[string]bool, len(sizes))
	for _, s := range sizes {
		if !seenSize[s] {
			seenSize[s] = true
			sorted = append(sorted, s)
		}
	}
	model.SortSizes(sorted)
	n := len(sorted)

	var out []model.SizeCombination
	seen := make(map[string]bool)
	add := func(c model.SizeCombination) {
		k := c.Key()
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, c)
	}

	for _, s := range sorted {
		for i := 1; i <= model.MaxPatternSizes; i++ {
			c := make(model.SizeCombination, i)
			for k := range c {
				c[k] = s
			}
			add(c)
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := sorted[i], sorted[j]
			add(model.SizeCombination{a, b})
			add(model.SizeCombination{a, a, b})
			add(model.SizeCombination{a, a, a, b})
			add(model.SizeCombination{a, a, b, b})
			add(model.SizeCombination{a, b, b})
			add(model.SizeCombination{a, b, b, b})
		}
	}

	if n >= 3 {
		step := stride(n, 5)
		for i := 0; i < n; i += step {
			for j := i + 1; j < n; j += step {
				for k := j + 1; k < n; k += step {
					a, b, c := sorted[i], sorted[j], sorted[k]
					add(model.SizeCombination{a, b, c})
					add(model.SizeCombination{a, a, b, c})
					add(model.SizeCombination{a, b, b, c})
					add(model.SizeCombination{a, b, c, c})
				}
			}
		}
	}

	if n >= 4 {
		step := stride(n, 4)
		for i := 0; i < n; i += step {
			for j := i + 1; j < n; j += step {
				for k := j + 1; k < n; k += step {
					for l := k + 1; l < n; l += step {
						add(model.SizeCombination{sorted[i], sorted[j], sorted[k], sorted[l]})
					}
				}
			}
		}
		add(model.SizeCombination(topByDemand(sorted, demand, 4)))
	}

	return out
}

func stride(n, div int) int {
	if n > strideThreshold {
		if s := n / div; s > 1 {
			return s
		}
	}
	return 1
}

// topByDemand returns the k sizes with the largest demand, ties broken by
// size order, and the result itself in size order.
func topByDemand(sizes []string, demand map[string]int, k int) []string {
	ranked := make([]string, len(sizes))
	copy(ranked, sizes)
	model.SortSizes(ranked)
	sort.SliceStable(ranked, func(i, j int) bool {
		return demand[ranked[i]] > demand[ranked[j]]
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	model.SortSizes(ranked)
	return ranked
}
