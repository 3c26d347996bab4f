package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	fl := NewFileLock(lockPath)
	require.NoError(t, fl.Lock())
	require.NoError(t, fl.Unlock())
}

func TestTryLock_Contention(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	contender := NewFileLock(lockPath)
	acquired, err := contender.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired, "lock held elsewhere should not be acquirable")
}

func TestTryLock_Free(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	fl := NewFileLock(lockPath)
	acquired, err := fl.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, fl.Unlock())
}

func TestLockWithTimeout_WaitsForHolder(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())

	released := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		assert.NoError(t, holder.Unlock())
		close(released)
	}()

	contender := NewFileLock(lockPath)
	start := time.Now()
	require.NoError(t, contender.LockWithTimeout(500*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "should have waited for the holder")

	metrics := contender.LastMetrics()
	assert.GreaterOrEqual(t, metrics.Attempts, 2)
	assert.False(t, metrics.TimedOut)

	require.NoError(t, contender.Unlock())
	<-released
}

func TestLockWithTimeout_TimesOut(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	holder := NewFileLock(lockPath)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	contender := NewFileLock(lockPath)
	err := contender.LockWithTimeout(50 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.True(t, contender.LastMetrics().TimedOut)
}

func TestLockWithTimeout_MonitorReceivesMetrics(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")

	fl := NewFileLock(lockPath)
	var got LockMetrics
	fl.SetMonitor(func(m LockMetrics) { got = m })

	require.NoError(t, fl.LockWithTimeout(100*time.Millisecond))
	defer fl.Unlock()

	assert.Equal(t, 1, got.Attempts)
	assert.False(t, got.TimedOut)
}

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWrite(path, []byte("hello")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestAtomicWrite_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestAtomicWrite_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "nested", "test.txt")

	require.NoError(t, AtomicWrite(path, []byte("deep")))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestAtomicWrite_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	require.NoError(t, AtomicWrite(path, []byte("clean")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file %s left behind", e.Name())
	}
}

func TestAtomicWrite_ConcurrentWritersLeaveConsistentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, AtomicWrite(path, []byte(fmt.Sprintf("writer-%d", id))))
		}(i)
	}
	wg.Wait()

	// The file holds exactly one writer's complete payload.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `^writer-\d$`, string(data))
}

func TestLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, LockAndWrite(path, []byte("locked write")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "locked write", string(data))
}

func TestLockAndWrite_DeletesLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	lockPath := path + ".lock"

	require.NoError(t, LockAndWrite(path, []byte("content")))

	_, err := os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file should be removed after the write")
}

func TestLockAndWrite_DeletesLockFileOnError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}

	dir := t.TempDir()
	readOnlyDir := filepath.Join(dir, "readonly")
	require.NoError(t, os.Mkdir(readOnlyDir, 0555))
	defer os.Chmod(readOnlyDir, 0755)

	path := filepath.Join(readOnlyDir, "test.txt")
	err := LockAndWrite(path, []byte("content"))
	require.Error(t, err)

	_, statErr := os.Stat(path + ".lock")
	assert.True(t, os.IsNotExist(statErr), "lock file should not remain after a failed write")
}

func TestLockAndWrite_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	lockPath := path + ".lock"

	const writers = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id int) {
			defer wg.Done()
			assert.NoError(t, LockAndWrite(path, []byte(fmt.Sprintf("content-%d", id))))
		}(i)
	}
	wg.Wait()

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}
