package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/lotcut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultStrategy = model.StrategyWaterfall
	cfg.DefaultInflationPct = 3
	cfg.Theme = "dark"
	cfg.RecentJobs = []string{"/tmp/a.lotcut.json", "/tmp/b.lotcut.json"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultStrategy != model.StrategyWaterfall {
		t.Errorf("expected waterfall strategy, got %s", loaded.DefaultStrategy)
	}
	if loaded.DefaultInflationPct != 3 {
		t.Errorf("expected inflation 3, got %f", loaded.DefaultInflationPct)
	}
	if loaded.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", loaded.Theme)
	}
	if len(loaded.RecentJobs) != 2 {
		t.Errorf("expected 2 recent jobs, got %d", len(loaded.RecentJobs))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	assert.Equal(t, model.DefaultAppConfig(), cfg)
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := []byte(`{"theme":"light","recent_jobs":null}`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
	assert.NotNil(t, cfg.RecentJobs)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, model.DefaultGeneticConfig(), cfg.Genetic)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvStrategy:    "ILP",
		EnvAddr:        ":9090",
		EnvLogLevel:    "debug",
		EnvAuditSQLite: "/tmp/runs.db",
		EnvInflation:   "2.5",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := model.DefaultAppConfig()
	problems := ApplyEnv(&cfg, lookup)

	assert.Empty(t, problems)
	assert.Equal(t, model.StrategyILP, cfg.DefaultStrategy)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/runs.db", cfg.AuditSQLite)
	assert.Equal(t, 2.5, cfg.DefaultInflationPct)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestApplyEnv_InvalidValuesReported(t *testing.T) {
	env := map[string]string{EnvStrategy: "simulated-annealing", EnvInflation: "-1", EnvAddr: "   "}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := model.DefaultAppConfig()
	problems := ApplyEnv(&cfg, lookup)

	assert.Len(t, problems, 2)
	assert.Equal(t, model.DefaultAppConfig().DefaultStrategy, cfg.DefaultStrategy)
	assert.Equal(t, ":8080", cfg.ServerAddr)
}
