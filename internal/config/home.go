package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetOrchestratorHome returns the orchestrator home directory.
// Priority order:
//  1. ORCHESTRATOR_HOME environment variable (if set)
//  2. Repository root (detected by finding this module's go.mod)
//  3. Current working directory (fallback)
//
// An ORCHESTRATOR_HOME value is returned as given, without being created;
// the repository-root and working-directory locations are created if they
// don't exist.
func GetOrchestratorHome() (string, error) {
	if home := os.Getenv("ORCHESTRATOR_HOME"); home != "" {
		return home, nil
	}

	if repoRoot, err := findRepoRoot(); err == nil && repoRoot != "" {
		home := filepath.Join(repoRoot, ".orchestrator")
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create orchestrator home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	home := filepath.Join(cwd, ".orchestrator")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create orchestrator home directory: %w", err)
	}
	return home, nil
}

// findRepoRoot walks up from the working directory looking for an
// .orchestrator-root marker or a go.mod carrying this module path.
func findRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		if _, err := os.Stat(filepath.Join(current, ".orchestrator-root")); err == nil {
			return current, nil
		}
		if data, err := os.ReadFile(filepath.Join(current, "go.mod")); err == nil {
			if strings.Contains(string(data), "github.com/sunkencity999/agentic-orchestrator") {
				return current, nil
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", fmt.Errorf("repository root not found")
}
