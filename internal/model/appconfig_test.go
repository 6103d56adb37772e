package model

import "testing"

func TestDefaultAppConfigMatchesDefaultSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	defaults := DefaultSettings()

	if cfg.DefaultStrategy != defaults.Strategy {
		t.Errorf("Strategy mismatch: config=%s settings=%s", cfg.DefaultStrategy, defaults.Strategy)
	}
	if cfg.Genetic.PopulationSize != defaults.Genetic.PopulationSize {
		t.Errorf("PopulationSize mismatch: config=%d settings=%d", cfg.Genetic.PopulationSize, defaults.Genetic.PopulationSize)
	}
	if cfg.ILP.SplitPenalty != defaults.ILP.SplitPenalty {
		t.Errorf("SplitPenalty mismatch: config=%f settings=%f", cfg.ILP.SplitPenalty, defaults.ILP.SplitPenalty)
	}
	if cfg.Theme != "system" {
		t.Errorf("expected default theme=system, got %s", cfg.Theme)
	}
	if cfg.RecentJobs == nil {
		t.Error("RecentJobs should not be nil")
	}
	if !cfg.DefaultBands.Valid() {
		t.Error("default bands should be valid")
	}
}

func TestApplyToSettings(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultStrategy = StrategyWaterfall
	cfg.DefaultInflationPct = 3
	cfg.Genetic.Generations = 12

	s := DefaultSettings()
	cfg.ApplyToSettings(&s)

	if s.Strategy != StrategyWaterfall {
		t.Errorf("expected Strategy=waterfall, got %s", s.Strategy)
	}
	if s.InflationPct != 3 {
		t.Errorf("expected InflationPct=3, got %f", s.InflationPct)
	}
	if s.Genetic.Generations != 12 {
		t.Errorf("expected Generations=12, got %d", s.Genetic.Generations)
	}
}

func TestApplyToSettingsKeepsStrategyWhenUnset(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DefaultStrategy = ""

	s := DefaultSettings()
	s.Strategy = StrategyILP
	cfg.ApplyToSettings(&s)

	if s.Strategy != StrategyILP {
		t.Errorf("expected Strategy to stay ilp, got %s", s.Strategy)
	}
}
