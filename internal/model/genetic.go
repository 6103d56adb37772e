package model

import "fmt"

// GeneticConfig controls the genetic solver. Every weight is tunable.
type GeneticConfig struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	EliteFraction  float64 `json:"elite_fraction"`
	TournamentSize int     `json:"tournament_size"`
	MutationRate   float64 `json:"mutation_rate"`
	InitAttempts   int     `json:"init_attempts"`   // random-greedy construction attempts
	OverCutBuffer  int     `json:"over_cut_buffer"` // extra layers allowed per size during construction
	LayerShift     int     `json:"layer_shift"`     // max layer perturbation on mutation
	Seed           int64   `json:"seed"`            // 0 = time based

	// Fitness weights
	BaseScore        float64 `json:"base_score"`
	ShortfallWeight  float64 `json:"shortfall_weight"`
	ExcessWeight     float64 `json:"excess_weight"`
	WithinBonus      float64 `json:"within_bonus"`
	ExtraLotPenalty  float64 `json:"extra_lot_penalty"`
	EfficiencyWeight float64 `json:"efficiency_weight"`
	LayerBonus       float64 `json:"layer_bonus"`
	WideMarkerBonus  float64 `json:"wide_marker_bonus"`
	OverrunPenalty   float64 `json:"overrun_penalty"`
}

// DefaultGeneticConfig returns the tuned defaults.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize:   250,
		Generations:      400,
		EliteFraction:    0.2,
		TournamentSize:   4,
		MutationRate:     0.1,
		InitAttempts:     500,
		OverCutBuffer:    5,
		LayerShift:       2,
		BaseScore:        10000,
		ShortfallWeight:  50,
		ExcessWeight:     20,
		WithinBonus:      100,
		ExtraLotPenalty:  10000,
		EfficiencyWeight: 2000,
		LayerBonus:       2,
		WideMarkerBonus:  50,
		OverrunPenalty:   100000,
	}
}

// EliteCount is the number of chromosomes copied unchanged each generation.
func (c GeneticConfig) EliteCount() int {
	n := int(float64(c.PopulationSize) * c.EliteFraction)
	if n < 1 && c.EliteFraction > 0 {
		n = 1
	}
	if n > c.PopulationSize {
		n = c.PopulationSize
	}
	return n
}

func (c GeneticConfig) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got %d", c.PopulationSize)
	}
	if c.Generations < 0 {
		return fmt.Errorf("generations must be >= 0, got %d", c.Generations)
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("tournament size must be >= 1, got %d", c.TournamentSize)
	}
	if c.EliteFraction < 0 || c.EliteFraction > 1 {
		return fmt.Errorf("elite fraction must be within [0,1], got %f", c.EliteFraction)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be within [0,1], got %f", c.MutationRate)
	}
	if c.LayerShift < 0 || c.OverCutBuffer < 0 || c.InitAttempts < 0 {
		return fmt.Errorf("layer shift, over-cut buffer and init attempts must be >= 0")
	}
	return nil
}
