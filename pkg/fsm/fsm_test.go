package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPathTransitions(t *testing.T) {
	state := NewState()
	order := []Phase{
		PhaseDiagnosis, PhaseAnalysis, PhasePlanning, PhaseExecution,
		PhaseValidation, PhaseSynthesis, PhaseComplete, PhaseIdle,
	}
	for _, next := range order {
		var err error
		state, err = state.Transition(next)
		require.NoError(t, err, "transition to %s", next)
		assert.Equal(t, next, state.Phase)
	}
}

func TestValidationCanRetryExecution(t *testing.T) {
	state := State{Phase: PhaseValidation}
	assert.True(t, state.CanTransition(PhaseExecution))
	assert.True(t, state.CanTransition(PhaseSynthesis))

	retried, err := state.Transition(PhaseExecution)
	require.NoError(t, err)
	assert.Equal(t, PhaseExecution, retried.Phase)
}

func TestIllegalTransitionsRejected(t *testing.T) {
	tests := []struct {
		from, to Phase
	}{
		{PhaseIdle, PhaseExecution},
		{PhaseDiagnosis, PhaseComplete},
		{PhaseExecution, PhasePlanning},
		{PhaseComplete, PhaseSynthesis},
	}
	for _, tt := range tests {
		state := State{Phase: tt.from}
		_, err := state.Transition(tt.to)
		assert.ErrorContains(t, err, "invalid transition", "%s -> %s", tt.from, tt.to)
	}
}

func TestTransitionPreservesContext(t *testing.T) {
	state := NewState()
	state.Context["key"] = "value"
	next, err := state.Transition(PhaseDiagnosis)
	require.NoError(t, err)
	assert.Equal(t, "value", next.Context["key"])
}

func TestEventStore_AppendAndFilter(t *testing.T) {
	store := NewInMemoryEventStore()
	store.Append(NewEvent("s-1", PhaseIdle, PhaseDiagnosis, "user_input"))
	store.Append(NewEvent("s-2", PhaseIdle, PhaseDiagnosis, "user_input"))
	store.Append(NewEvent("s-1", PhaseDiagnosis, PhaseAnalysis, "phase_complete"))

	assert.Len(t, store.Events(""), 3)
	assert.Len(t, store.Events("s-1"), 2)
	assert.Len(t, store.Events("s-3"), 0)
}

func TestEventStore_Replay(t *testing.T) {
	store := NewInMemoryEventStore()
	e1 := NewEvent("s-1", PhaseIdle, PhaseDiagnosis, "user_input")
	e2 := NewEvent("s-1", PhaseDiagnosis, PhaseAnalysis, "phase_complete")
	e3 := NewEvent("s-1", PhaseAnalysis, PhasePlanning, "phase_complete")
	store.Append(e1)
	store.Append(e2)
	store.Append(e3)

	assert.Equal(t, PhasePlanning, store.Replay(""))
	assert.Equal(t, PhaseAnalysis, store.Replay(e2.EventID))
}

func TestEventStore_Snapshot(t *testing.T) {
	store := NewInMemoryEventStore()
	empty := store.Snapshot("s-1")
	assert.Equal(t, PhaseIdle, empty.CurrentPhase)
	assert.Equal(t, 0, empty.EventCount)

	store.Append(NewEvent("s-1", PhaseIdle, PhaseDiagnosis, "user_input"))
	store.Append(NewEvent("s-1", PhaseDiagnosis, PhaseAnalysis, "phase_complete"))

	snap := store.Snapshot("s-1")
	assert.Equal(t, PhaseAnalysis, snap.CurrentPhase)
	assert.Equal(t, 2, snap.EventCount)
	assert.NotZero(t, snap.LastEventTimestamp)
}

func TestEventStore_Clear(t *testing.T) {
	store := NewInMemoryEventStore()
	store.Append(NewEvent("s-1", PhaseIdle, PhaseDiagnosis, "user_input"))
	store.Append(NewEvent("s-2", PhaseIdle, PhaseDiagnosis, "user_input"))

	assert.Equal(t, 1, store.Clear("s-1"))
	assert.Len(t, store.Events(""), 1)
	assert.Equal(t, 1, store.Clear(""))
	assert.Len(t, store.Events(""), 0)
}
