package model

import "math"

// OrderRow is one raw order line: a color with quantities per size.
type OrderRow struct {
	Color      string         `json:"color" validate:"required"`
	Quantities map[string]int `json:"sizeQuantities" validate:"dive,gte=0"`
}

// DemandLine is the demand for one (color, size).
type DemandLine struct {
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Key returns the integrity map key of the line.
func (d DemandLine) Key() string {
	return DemandKey(d.Color, d.Size)
}

// DemandKey builds the "COLOR-SIZE" key used in integrity maps.
func DemandKey(color, size string) string {
	return color + "-" + size
}

// Demand is the aggregated per-color, per-size demand of a job.
// Colors keep the order in which they first appear in the order rows.
type Demand struct {
	colors []string
	sizes  map[string][]string
	qty    map[string]map[string]int
}

// BuildDemand aggregates order rows, dropping non-positive quantities and
// raising every line by inflationPct percent (rounded up) when it is positive.
func BuildDemand(rows []OrderRow, inflationPct float64) Demand {
	d := Demand{
		sizes: make(map[string][]string),
		qty:   make(map[string]map[string]int),
	}
	for _, row := range rows {
		if row.Color == "" {
			continue
		}
		for size, q := range row.Quantities {
			if q <= 0 || size == "" {
				continue
			}
			if _, ok := d.qty[row.Color]; !ok {
				d.colors = append(d.colors, row.Color)
				d.qty[row.Color] = make(map[string]int)
			}
			if _, ok := d.qty[row.Color][size]; !ok {
				d.sizes[row.Color] = append(d.sizes[row.Color], size)
			}
			d.qty[row.Color][size] += q
		}
	}
	for _, c := range d.colors {
		SortSizes(d.sizes[c])
		if inflationPct > 0 {
			for s, q := range d.qty[c] {
				d.qty[c][s] = Inflate(q, inflationPct)
			}
		}
	}
	return d
}

// Inflate raises q by pct percent, rounding up.
func Inflate(q int, pct float64) int {
	if pct <= 0 {
		return q
	}
	return q + ceilFrac(float64(q)*pct/100)
}

// ToleranceCeiling is the largest acceptable production for a demand of q.
func ToleranceCeiling(q int) int {
	if q <= 0 {
		return 0
	}
	return q + ceilFrac(float64(q)*OverProductionRate)
}

// ceilFrac rounds up while ignoring float noise such as 60*0.05 = 3.0000000000000004.
func ceilFrac(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

// Colors returns the demanded colors in input order.
func (d Demand) Colors() []string {
	out := make([]string, len(d.colors))
	copy(out, d.colors)
	return out
}

// Sizes returns the demanded sizes of a color in natural order.
func (d Demand) Sizes(color string) []string {
	out := make([]string, len(d.sizes[color]))
	copy(out, d.sizes[color])
	return out
}

// AllSizes returns the union of sizes over all colors in natural order.
func (d Demand) AllSizes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range d.colors {
		for _, s := range d.sizes[c] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	SortSizes(out)
	return out
}

// Quantity returns the demand for (color, size), 0 when absent.
func (d Demand) Quantity(color, size string) int {
	return d.qty[color][size]
}

// ForColor returns a fresh copy of a color's size -> quantity map.
// Solvers use it as their private remaining counter.
func (d Demand) ForColor(color string) map[string]int {
	out := make(map[string]int, len(d.qty[color]))
	for s, q := range d.qty[color] {
		out[s] = q
	}
	return out
}

// Lines flattens the demand into lines, colors in input order and sizes naturally sorted.
func (d Demand) Lines() []DemandLine {
	var out []DemandLine
	for _, c := range d.colors {
		for _, s := range d.sizes[c] {
			out = append(out, DemandLine{Color: c, Size: s, Quantity: d.qty[c][s]})
		}
	}
	return out
}

// Total returns the number of demanded pieces.
func (d Demand) Total() int {
	total := 0
	for _, c := range d.colors {
		for _, q := range d.qty[c] {
			total += q
		}
	}
	return total
}

// IsEmpty reports whether there is no positive demand.
func (d Demand) IsEmpty() bool {
	return len(d.colors) == 0
}
