package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new jobs
	DefaultStrategy     Strategy       `json:"default_strategy"`
	DefaultInflationPct float64        `json:"default_inflation_pct"`
	DefaultConsumption  float64        `json:"default_consumption"` // meters per piece
	DefaultBands        ToleranceBands `json:"default_bands"`
	Genetic             GeneticConfig  `json:"genetic"`
	ILP                 ILPConfig      `json:"ilp"`

	// Service and logging
	ServerAddr string `json:"server_addr"`
	LogLevel   string `json:"log_level"`
	LogFormat  string `json:"log_format"` // "json" or "console"

	// Audit sinks, empty = disabled
	AuditJSONL    string `json:"audit_jsonl"`
	AuditSQLite   string `json:"audit_sqlite"`
	AuditPostgres string `json:"audit_postgres"`

	// Application preferences
	RecentJobs []string `json:"recent_jobs"`
	Theme      string   `json:"theme"` // "light", "dark", "system"
}

// DefaultAppConfig returns an AppConfig populated with defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultStrategy:     defaults.Strategy,
		DefaultInflationPct: defaults.InflationPct,
		DefaultConsumption:  DefaultConsumption().Average,
		DefaultBands:        DefaultToleranceBands(),
		Genetic:             defaults.Genetic,
		ILP:                 defaults.ILP,
		ServerAddr:          ":8080",
		LogLevel:            "info",
		LogFormat:           "json",
		RecentJobs:          []string{},
		Theme:               "system",
	}
}

// ApplyToSettings copies the defaults from AppConfig into a SolveSettings struct.
// This is used when creating a new job so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *SolveSettings) {
	if c.DefaultStrategy != "" {
		s.Strategy = c.DefaultStrategy
	}
	s.InflationPct = c.DefaultInflationPct
	s.Genetic = c.Genetic
	s.ILP = c.ILP
}
