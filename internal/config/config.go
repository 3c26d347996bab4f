// Package config loads orchestrator configuration: a YAML file merged
// over defaults, with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents orchestrator configuration options.
type Config struct {
	// DocumentsDir is the base path for files the engine writes on the
	// user's behalf.
	DocumentsDir string `yaml:"documents_dir"`

	// StoreRoot is the workflow persistence root.
	StoreRoot string `yaml:"store_root"`

	// MaxParallelTasks is the number of tasks a workflow may run
	// concurrently (P). Default 1.
	MaxParallelTasks int `yaml:"max_parallel_tasks"`

	// TaskTimeout is the per-task deadline. Zero means no deadline.
	// Configured as task_timeout_seconds.
	TaskTimeout time.Duration `yaml:"-"`

	// DefaultModel is passed through to the LLM collaborator.
	DefaultModel string `yaml:"default_model"`

	// LLMCLIPath is the path to the LLM CLI binary ("claude" on PATH by
	// default).
	LLMCLIPath string `yaml:"llm_cli_path"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogDir is a configured log directory. It is loaded and defaulted but
	// not read elsewhere: the console logger writes to the io.Writer it is
	// given.
	LogDir string `yaml:"log_dir"`

	// HistoryDBPath is the path to the optional audit database. Empty
	// disables audit recording.
	HistoryDBPath string `yaml:"history_db_path"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	home, err := GetOrchestratorHome()
	if err != nil {
		home = ".orchestrator"
	}
	return &Config{
		DocumentsDir:     defaultDocumentsDir(),
		StoreRoot:        home + string(os.PathSeparator) + "workflows",
		MaxParallelTasks: 1,
		TaskTimeout:      0,
		DefaultModel:     "",
		LLMCLIPath:       "claude",
		LogLevel:         "info",
		LogDir:           home + string(os.PathSeparator) + "logs",
		HistoryDBPath:    home + string(os.PathSeparator) + "history" + string(os.PathSeparator) + "history.db",
	}
}

func defaultDocumentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Documents"
	}
	return home + string(os.PathSeparator) + "Documents"
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error. Environment
// variables override both defaults and file values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into a temporary struct so absent keys keep defaults.
	type yamlConfig struct {
		DocumentsDir     string `yaml:"documents_dir"`
		StoreRoot        string `yaml:"store_root"`
		MaxParallelTasks int    `yaml:"max_parallel_tasks"`
		TaskTimeoutSecs  int    `yaml:"task_timeout_seconds"`
		DefaultModel     string `yaml:"default_model"`
		LLMCLIPath       string `yaml:"llm_cli_path"`
		LogLevel         string `yaml:"log_level"`
		LogDir           string `yaml:"log_dir"`
		HistoryDBPath    string `yaml:"history_db_path"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file, merging with defaults.
	if yamlCfg.DocumentsDir != "" {
		cfg.DocumentsDir = yamlCfg.DocumentsDir
	}
	if yamlCfg.StoreRoot != "" {
		cfg.StoreRoot = yamlCfg.StoreRoot
	}
	if yamlCfg.MaxParallelTasks != 0 {
		cfg.MaxParallelTasks = yamlCfg.MaxParallelTasks
	}
	if yamlCfg.TaskTimeoutSecs < 0 {
		return nil, fmt.Errorf("invalid task_timeout_seconds %d: must be non-negative", yamlCfg.TaskTimeoutSecs)
	}
	if yamlCfg.TaskTimeoutSecs > 0 {
		cfg.TaskTimeout = time.Duration(yamlCfg.TaskTimeoutSecs) * time.Second
	}
	if yamlCfg.DefaultModel != "" {
		cfg.DefaultModel = yamlCfg.DefaultModel
	}
	if yamlCfg.LLMCLIPath != "" {
		cfg.LLMCLIPath = yamlCfg.LLMCLIPath
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.HistoryDBPath != "" {
		cfg.HistoryDBPath = yamlCfg.HistoryDBPath
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables take precedence over config file values.
// Recognized variables:
//   - ORCHESTRATOR_DOCUMENTS_DIR (documents_dir)
//   - ORCHESTRATOR_STORE_ROOT (store_root)
//   - ORCHESTRATOR_MAX_PARALLEL_TASKS (max_parallel_tasks)
//   - ORCHESTRATOR_TASK_TIMEOUT_SECONDS (task_timeout_seconds)
//   - ORCHESTRATOR_DEFAULT_MODEL (default_model)
//   - ORCHESTRATOR_LLM_CLI_PATH (llm_cli_path)
//   - ORCHESTRATOR_LOG_LEVEL (log_level)
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("ORCHESTRATOR_DOCUMENTS_DIR"); val != "" {
		cfg.DocumentsDir = val
	}
	if val := os.Getenv("ORCHESTRATOR_STORE_ROOT"); val != "" {
		cfg.StoreRoot = val
	}
	if val := os.Getenv("ORCHESTRATOR_MAX_PARALLEL_TASKS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.MaxParallelTasks = n
		}
	}
	if val := os.Getenv("ORCHESTRATOR_TASK_TIMEOUT_SECONDS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			cfg.TaskTimeout = time.Duration(n) * time.Second
		}
	}
	if val := os.Getenv("ORCHESTRATOR_DEFAULT_MODEL"); val != "" {
		cfg.DefaultModel = val
	}
	if val := os.Getenv("ORCHESTRATOR_LLM_CLI_PATH"); val != "" {
		cfg.LLMCLIPath = val
	}
	if val := os.Getenv("ORCHESTRATOR_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
}
