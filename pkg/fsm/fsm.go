// Package fsm defines the orchestration phase state machine and its
// append-only event log.
package fsm

import "fmt"

// Phase is one stage of the cognitive pipeline.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDiagnosis  Phase = "diagnosis"
	PhaseAnalysis   Phase = "analysis"
	PhasePlanning   Phase = "planning"
	PhaseExecution  Phase = "execution"
	PhaseValidation Phase = "validation"
	PhaseSynthesis  Phase = "synthesis"
	PhaseComplete   Phase = "complete"
)

// transitions is the legal phase graph. Validation may loop back to
// execution for a retry.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseDiagnosis},
	PhaseDiagnosis:  {PhaseAnalysis},
	PhaseAnalysis:   {PhasePlanning},
	PhasePlanning:   {PhaseExecution},
	PhaseExecution:  {PhaseValidation},
	PhaseValidation: {PhaseSynthesis, PhaseExecution},
	PhaseSynthesis:  {PhaseComplete},
	PhaseComplete:   {PhaseIdle},
}

// ValidPhase reports whether p is a known phase.
func ValidPhase(p Phase) bool {
	if p == PhaseIdle {
		return true
	}
	_, ok := transitions[p]
	return ok
}

// State is an immutable snapshot of the machine. Transition returns a new
// State rather than mutating.
type State struct {
	Phase   Phase
	Context map[string]any
}

// NewState creates a state in the idle phase.
func NewState() State {
	return State{Phase: PhaseIdle, Context: map[string]any{}}
}

// CanTransition reports whether moving to target is legal from the current
// phase.
func (s State) CanTransition(target Phase) bool {
	for _, next := range transitions[s.Phase] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition moves to target, or fails if the edge is not in the phase graph.
func (s State) Transition(target Phase) (State, error) {
	if !s.CanTransition(target) {
		return State{}, fmt.Errorf("invalid transition: %s -> %s", s.Phase, target)
	}
	return State{Phase: target, Context: s.Context}, nil
}
