package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsTerminal(t *testing.T) {
	terminal := []State{StateCompleted, StateFailed, StateCancelled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "expected %s to be terminal", s)
	}

	nonTerminal := []State{StatePending, StateInProgress, StateBlocked}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "expected %s to not be terminal", s)
	}
}

func TestState_IsSettled_BlockedCountsAsSettled(t *testing.T) {
	assert.True(t, StateBlocked.IsSettled())
	assert.True(t, StateCompleted.IsSettled())
	assert.True(t, StateFailed.IsSettled())
	assert.True(t, StateCancelled.IsSettled())
	assert.False(t, StatePending.IsSettled())
	assert.False(t, StateInProgress.IsSettled())
}

func TestType_IsValid(t *testing.T) {
	for _, tt := range KnownTypes {
		assert.True(t, tt.IsValid())
	}
	assert.False(t, Type("bogus").IsValid())
	assert.False(t, Type("").IsValid())
}

func TestTask_CanTransitionTo_PendingToInProgress(t *testing.T) {
	tk := &Task{State: StatePending}
	require.True(t, tk.CanTransitionTo(StateInProgress))
	require.True(t, tk.CanTransitionTo(StateBlocked))
	require.True(t, tk.CanTransitionTo(StateCancelled))
	require.False(t, tk.CanTransitionTo(StateCompleted))
}

func TestTask_CanTransitionTo_InProgressToTerminal(t *testing.T) {
	tk := &Task{State: StateInProgress}
	require.True(t, tk.CanTransitionTo(StateCompleted))
	require.True(t, tk.CanTransitionTo(StateFailed))
	require.True(t, tk.CanTransitionTo(StateCancelled))
	require.False(t, tk.CanTransitionTo(StatePending))
	require.False(t, tk.CanTransitionTo(StateBlocked))
}

func TestTask_CanTransitionTo_SettledStatesAreSinks(t *testing.T) {
	for _, s := range []State{StateCompleted, StateFailed, StateBlocked, StateCancelled} {
		tk := &Task{State: s}
		for _, next := range []State{StatePending, StateInProgress, StateCompleted, StateFailed, StateBlocked, StateCancelled} {
			assert.False(t, tk.CanTransitionTo(next), "settled state %s should never transition to %s", s, next)
		}
	}
}

func TestTask_HasResult(t *testing.T) {
	tk := &Task{State: StateCompleted}
	assert.False(t, tk.HasResult())
	tk.Result = &Result{Success: true}
	assert.True(t, tk.HasResult())
}

func TestTask_StringParam(t *testing.T) {
	tk := &Task{Parameters: map[string]any{"filename": "report.txt", "count": 3}}
	assert.Equal(t, "report.txt", tk.StringParam("filename"))
	assert.Equal(t, "", tk.StringParam("count"))
	assert.Equal(t, "", tk.StringParam("missing"))

	empty := &Task{}
	assert.Equal(t, "", empty.StringParam("filename"))
}
