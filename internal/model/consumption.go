package model

// ConsumptionMode selects how the per-piece fabric length is looked up.
type ConsumptionMode string

const (
	ConsumptionAverage ConsumptionMode = "AVG"
	ConsumptionPerSize ConsumptionMode = "PER_SIZE"
)

// Consumption gives the fabric length (meters) one piece of a size needs.
type Consumption struct {
	Mode    ConsumptionMode    `json:"mode" validate:"omitempty,oneof=AVG PER_SIZE"`
	Average float64            `json:"average" validate:"gte=0"`
	PerSize map[string]float64 `json:"perSize,omitempty"`
}

func DefaultConsumption() Consumption {
	return Consumption{Mode: ConsumptionAverage, Average: 1.25}
}

// For returns the length of one piece of size. In PER_SIZE mode an unset or
// non-positive entry falls back to the average.
func (c Consumption) For(size string) float64 {
	if c.Mode == ConsumptionPerSize {
		if v := c.PerSize[size]; v > 0 {
			return v
		}
	}
	return c.Average
}

// MarkerLength is the length of one layer of a marker with the given ratio.
func (c Consumption) MarkerLength(ratio map[string]int) float64 {
	var total float64
	for s, r := range ratio {
		total += float64(r) * c.For(s)
	}
	return total
}

// Covers reports whether every one of sizes has a positive length. A full
// per-size table needs no average.
func (c Consumption) Covers(sizes []string) bool {
	if c.Average > 0 {
		return true
	}
	if c.Mode != ConsumptionPerSize {
		return false
	}
	for _, s := range sizes {
		if c.PerSize[s] <= 0 {
			return false
		}
	}
	return true
}
