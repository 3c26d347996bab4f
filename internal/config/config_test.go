package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.MaxParallelTasks)
	assert.Equal(t, time.Duration(0), cfg.TaskTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "claude", cfg.LLMCLIPath)
	assert.NotEmpty(t, cfg.DocumentsDir)
	assert.NotEmpty(t, cfg.StoreRoot)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxParallelTasks)
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
documents_dir: /tmp/docs
max_parallel_tasks: 4
task_timeout_seconds: 90
default_model: some-model
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/docs", cfg.DocumentsDir)
	assert.Equal(t, 4, cfg.MaxParallelTasks)
	assert.Equal(t, 90*time.Second, cfg.TaskTimeout)
	assert.Equal(t, "some-model", cfg.DefaultModel)
	// Unset keys keep defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_parallel_tasks: [not an int"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_InvalidTimeout(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("task_timeout_seconds: -5"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_timeout_seconds")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	t.Setenv("ORCHESTRATOR_MAX_PARALLEL_TASKS", "8")
	t.Setenv("ORCHESTRATOR_TASK_TIMEOUT_SECONDS", "30")
	t.Setenv("ORCHESTRATOR_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxParallelTasks)
	assert.Equal(t, 30*time.Second, cfg.TaskTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	t.Setenv("ORCHESTRATOR_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_parallel_tasks: 2"), 0644))
	t.Setenv("ORCHESTRATOR_MAX_PARALLEL_TASKS", "16")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.MaxParallelTasks)
}

func TestGetOrchestratorHome_EnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORCHESTRATOR_HOME", dir)

	home, err := GetOrchestratorHome()
	require.NoError(t, err)
	assert.Equal(t, dir, home)
}
