// Package filelock provides file locking and atomic write operations for
// safe concurrent access to the workflow store from multiple goroutines
// and processes.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockPollInterval is how often a timed lock acquisition retries.
const lockPollInterval = 10 * time.Millisecond

// LockMetrics captures how a timed lock acquisition went.
type LockMetrics struct {
	Attempts int
	Waited   time.Duration
	TimedOut bool
}

// Monitor receives metrics after each timed lock acquisition. Useful for
// surfacing contention on the store without coupling it to a logger.
type Monitor func(LockMetrics)

// FileLock wraps a flock file lock for coordinating access to files.
type FileLock struct {
	flock   *flock.Flock
	path    string
	monitor Monitor
	last    LockMetrics
}

// NewFileLock creates a new file lock for the given path.
// The lock file will be created at the specified path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// SetMonitor installs a callback invoked with metrics after every
// LockWithTimeout call.
func (fl *FileLock) SetMonitor(m Monitor) {
	fl.monitor = m
}

// LastMetrics returns the metrics of the most recent LockWithTimeout
// call.
func (fl *FileLock) LastMetrics() LockMetrics {
	return fl.last
}

// Lock acquires an exclusive lock on the file, blocking until the lock is
// available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire an exclusive lock without blocking.
// Returns true if the lock was acquired, false if it is held elsewhere.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// LockWithTimeout polls for the lock until it is acquired or the timeout
// elapses. Metrics for the attempt are recorded and reported to the
// monitor, if one is set.
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	start := time.Now()
	metrics := LockMetrics{}
	defer func() {
		metrics.Waited = time.Since(start)
		fl.last = metrics
		if fl.monitor != nil {
			fl.monitor(metrics)
		}
	}()

	deadline := start.Add(timeout)
	for {
		metrics.Attempts++
		acquired, err := fl.TryLock()
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			metrics.TimedOut = true
			return fmt.Errorf("timed out after %v waiting for lock on %s", timeout, fl.path)
		}
		time.Sleep(lockPollInterval)
	}
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to a file atomically using a temp file and
// rename strategy, so readers never observe a partial write even if the
// writer dies mid-operation.
//
// The process:
//  1. Create a temporary file in the same directory as the target
//  2. Write content to the temporary file and fsync it
//  3. Rename the temporary file to the target path (atomic operation)
//
// If the operation fails at any point, the original file (if it exists)
// remains unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Same directory means same filesystem, which makes the rename atomic.
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Success - prevent cleanup of temp file since it's now renamed
	tempFile = nil

	return nil
}

// LockAndWrite acquires a lock, performs an atomic write, and releases
// the lock, removing the lock file afterwards so the store directory does
// not accumulate sidecars.
//
// The lock path is derived by appending ".lock" to the target path.
// Example: writing to "workflow.json" uses lock file "workflow.json.lock".
func LockAndWrite(path string, data []byte) error {
	// The lock sidecar lives beside the target, so its directory must
	// exist before the lock can be taken.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)

	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		// Best effort: a concurrent writer may have recreated it already.
		os.Remove(lockPath)
	}()

	return AtomicWrite(path, data)
}
