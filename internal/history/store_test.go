package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndGetClassifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordClassification(ctx, &ClassificationRecord{Request: "write a poem", Shape: "direct_file"}))
	require.NoError(t, s.RecordClassification(ctx, &ClassificationRecord{Request: "find news", Shape: "web_only"}))

	records, err := s.GetRecentClassifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Most recent first.
	assert.Equal(t, "find news", records[0].Request)
	assert.Equal(t, "web_only", records[0].Shape)
}

func TestStore_RecordAndGetTaskExecutions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &TaskExecutionRecord{
		WorkflowID:   "wf-1",
		TaskID:       "t-1",
		Description:  "fetch headlines",
		TaskType:     "web_browsing",
		State:        "failed",
		Success:      false,
		ErrorMessage: "connection reset",
		DurationSecs: 3,
	}
	require.NoError(t, s.RecordTaskExecution(ctx, rec))
	assert.NotZero(t, rec.ID)

	records, err := s.GetTaskExecutions(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "connection reset", records[0].ErrorMessage)
	assert.False(t, records[0].Success)

	other, err := s.GetTaskExecutions(ctx, "wf-other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestNewStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "history.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordClassification(context.Background(), &ClassificationRecord{Request: "x", Shape: "complex"}))
}

func TestStore_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewStore(path)
	require.NoError(t, err)
	defer s2.Close()
}
