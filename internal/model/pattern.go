package model

import "strings"

// SizeCombination is a marker: an ordered multiset of 1-4 sizes.
// A size repeated n times has ratio n.
type SizeCombination []string

// Ratio counts the repeats of each size.
func (c SizeCombination) Ratio() map[string]int {
	r := make(map[string]int, len(c))
	for _, s := range c {
		r[s]++
	}
	return r
}

// Distinct returns the number of distinct sizes.
func (c SizeCombination) Distinct() int {
	return len(c.Ratio())
}

// Key is a canonical string used to deduplicate combinations.
func (c SizeCombination) Key() string {
	sorted := make([]string, len(c))
	copy(sorted, c)
	SortSizes(sorted)
	return strings.Join(sorted, "|")
}

// Contains reports whether size appears in the marker.
func (c SizeCombination) Contains(size string) bool {
	for _, s := range c {
		if s == size {
			return true
		}
	}
	return false
}

// FromRatio expands a ratio map into a combination in natural size order.
func FromRatio(ratio map[string]int) SizeCombination {
	sizes := make([]string, 0, len(ratio))
	for s := range ratio {
		sizes = append(sizes, s)
	}
	SortSizes(sizes)
	var out SizeCombination
	for _, s := range sizes {
		for i := 0; i < ratio[s]; i++ {
			out = append(out, s)
		}
	}
	return out
}
