// Package localfiles is the default collab.Files implementation: a
// capability rooted at one base directory. Every write goes through path
// normalization, and paths that escape the root are rejected.
package localfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Capability writes files under a single root directory.
type Capability struct {
	root string
}

// New creates a file capability rooted at dir.
func New(dir string) (*Capability, error) {
	if dir == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", dir, err)
	}
	return &Capability{root: abs}, nil
}

// Root returns the capability's base directory.
func (c *Capability) Root() string { return c.root }

// Resolve joins path onto the root and rejects escapes. Absolute paths are
// accepted only when already inside the root.
func (c *Capability) Resolve(path string) (string, error) {
	var joined string
	if filepath.IsAbs(path) {
		joined = filepath.Clean(path)
	} else {
		joined = filepath.Join(c.root, path)
	}
	rel, err := filepath.Rel(c.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %s escapes root %s", path, c.root)
	}
	return joined, nil
}

// Write writes data to path (relative to the root), creating parent
// directories as needed.
func (c *Capability) Write(path string, data []byte) error {
	resolved, err := c.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", resolved, err)
	}
	return nil
}

// MkdirAll creates a directory (and parents) under the root.
func (c *Capability) MkdirAll(path string) error {
	resolved, err := c.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(resolved, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", resolved, err)
	}
	return nil
}
