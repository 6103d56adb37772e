package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/lotcut/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.lotcut/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".lotcut")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Fields missing from the file keep their defaults.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	if config.RecentJobs == nil {
		config.RecentJobs = []string{}
	}
	return config, nil
}

// Environment variables that override the config file.
const (
	EnvStrategy      = "LOTCUT_STRATEGY"
	EnvAddr          = "LOTCUT_ADDR"
	EnvLogLevel      = "LOTCUT_LOG_LEVEL"
	EnvLogFormat     = "LOTCUT_LOG_FORMAT"
	EnvInflation     = "LOTCUT_INFLATION_PCT"
	EnvAuditJSONL    = "LOTCUT_AUDIT_JSONL"
	EnvAuditSQLite   = "LOTCUT_AUDIT_SQLITE"
	EnvAuditPostgres = "LOTCUT_AUDIT_POSTGRES"
)

// ApplyEnv overrides config fields from LOTCUT_* environment variables.
// lookup is usually os.LookupEnv. Unparseable values are reported and skipped.
func ApplyEnv(config *model.AppConfig, lookup func(string) (string, bool)) []string {
	var problems []string
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvStrategy); ok {
		if s, valid := model.ParseStrategy(v); valid {
			config.DefaultStrategy = s
		} else {
			problems = append(problems, EnvStrategy+": unknown strategy "+strconv.Quote(v))
		}
	}
	if v, ok := get(EnvInflation); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			config.DefaultInflationPct = f
		} else {
			problems = append(problems, EnvInflation+": invalid percentage "+strconv.Quote(v))
		}
	}
	if v, ok := get(EnvAddr); ok {
		config.ServerAddr = v
	}
	if v, ok := get(EnvLogLevel); ok {
		config.LogLevel = v
	}
	if v, ok := get(EnvLogFormat); ok {
		config.LogFormat = v
	}
	if v, ok := get(EnvAuditJSONL); ok {
		config.AuditJSONL = v
	}
	if v, ok := get(EnvAuditSQLite); ok {
		config.AuditSQLite = v
	}
	if v, ok := get(EnvAuditPostgres); ok {
		config.AuditPostgres = v
	}
	return problems
}

// writeJSON marshals v with indentation, creating parent directories.
func writeJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
