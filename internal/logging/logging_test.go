package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotcut.log")
	logger, err := NewLogger(Config{
		Level:      "debug",
		Format:     "json",
		OutputPath: path,
		Fields:     map[string]string{"service": "test"},
	})
	require.NoError(t, err)

	logger.Debug("solve finished")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"solve finished"`)
	assert.Contains(t, out, `"service":"test"`)
}

func TestNewLoggerBadLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotcut.log")
	logger, err := NewLogger(Config{Level: "loud", OutputPath: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug entry written at info level: %s", data)
	}
	assert.Contains(t, string(data), "shown")
}
