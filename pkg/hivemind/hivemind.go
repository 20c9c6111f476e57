// Package hivemind runs the 7-phase cognitive pipeline over the phase
// state machine, recording evidence for every phase. Without a provider
// the phases run deterministic stubs; with one, the reasoning phases
// delegate to the model.
package hivemind

import (
	"context"
	"fmt"
	"strings"

	"github.com/ygn-labs/ygn-brain/pkg/evidence"
	"github.com/ygn-labs/ygn-brain/pkg/fsm"
	"github.com/ygn-labs/ygn-brain/pkg/provider"
)

// PhaseResult is the output of a single pipeline phase.
type PhaseResult struct {
	Phase      fsm.Phase      `json:"phase"`
	Data       map[string]any `json:"data"`
	Confidence float64        `json:"confidence"`
}

// Pipeline executes the seven phases in order: diagnosis, analysis,
// planning, execution, validation, synthesis, complete. Validation may
// loop back to execution in the state machine, but the pipeline runs a
// single pass.
type Pipeline struct {
	provider provider.Provider
}

func New() *Pipeline {
	return &Pipeline{}
}

// NewWithProvider delegates analysis, planning, execution, and synthesis
// to the given provider.
func NewWithProvider(p provider.Provider) *Pipeline {
	return &Pipeline{provider: p}
}

// Run executes all phases and returns their results. Evidence entries
// are appended to pack as a side effect; pack may be nil.
func (p *Pipeline) Run(ctx context.Context, userInput string, pack *evidence.Pack) ([]PhaseResult, error) {
	state := fsm.NewState()
	var results []PhaseResult

	record := func(phase fsm.Phase, kind evidence.Kind, data map[string]any, confidence float64) error {
		next, err := state.Transition(phase)
		if err != nil {
			return err
		}
		state = next
		if pack != nil {
			if err := pack.Add(string(phase), kind, data); err != nil {
				return fmt.Errorf("%s evidence: %w", phase, err)
			}
		}
		results = append(results, PhaseResult{Phase: phase, Data: data, Confidence: confidence})
		return nil
	}

	if err := record(fsm.PhaseDiagnosis, evidence.KindInput, map[string]any{
		"user_input":   userInput,
		"input_length": len(userInput),
		"word_count":   len(strings.Fields(userInput)),
	}, 1.0); err != nil {
		return nil, err
	}

	strategy, err := p.determineStrategy(ctx, userInput)
	if err != nil {
		return nil, fmt.Errorf("analysis phase: %w", err)
	}
	if err := record(fsm.PhaseAnalysis, evidence.KindDecision, map[string]any{
		"strategy": strategy,
	}, 0.9); err != nil {
		return nil, err
	}

	plan, err := p.createPlan(ctx, userInput, strategy)
	if err != nil {
		return nil, fmt.Errorf("planning phase: %w", err)
	}
	if err := record(fsm.PhasePlanning, evidence.KindDecision, map[string]any{
		"plan": plan,
	}, 0.85); err != nil {
		return nil, err
	}

	output, err := p.executePlan(ctx, userInput, plan)
	if err != nil {
		return nil, fmt.Errorf("execution phase: %w", err)
	}
	if err := record(fsm.PhaseExecution, evidence.KindOutput, map[string]any{
		"output": output,
	}, 0.8); err != nil {
		return nil, err
	}

	passed := len(output) > 0
	confidence := 0.9
	if !passed {
		confidence = 0.4
	}
	if err := record(fsm.PhaseValidation, evidence.KindDecision, map[string]any{
		"passed": passed,
		"output": output,
	}, confidence); err != nil {
		return nil, err
	}

	final, err := p.synthesize(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("synthesis phase: %w", err)
	}
	if err := record(fsm.PhaseSynthesis, evidence.KindOutput, map[string]any{
		"final": final,
	}, 0.95); err != nil {
		return nil, err
	}

	if err := record(fsm.PhaseComplete, evidence.KindOutput, map[string]any{
		"status":     "complete",
		"phases_run": len(results),
	}, 1.0); err != nil {
		return nil, err
	}

	return results, nil
}

// Final extracts the synthesis result, falling back to a processed
// marker when no synthesis phase ran.
func Final(results []PhaseResult, userInput string) string {
	for _, r := range results {
		if r.Phase == fsm.PhaseSynthesis {
			if final, ok := r.Data["final"].(string); ok {
				return final
			}
		}
	}
	return "Processed: " + userInput
}

func (p *Pipeline) determineStrategy(ctx context.Context, userInput string) (string, error) {
	if p.provider != nil {
		reply, err := p.chat(ctx,
			"Classify how to approach the task. Reply with a single short strategy label such as direct, question_answering, or general.",
			userInput)
		if err != nil {
			return "", err
		}
		if words := strings.Fields(reply); len(words) > 0 {
			return strings.ToLower(words[0]), nil
		}
	}
	if len(strings.Fields(userInput)) <= 3 {
		return "direct", nil
	}
	if strings.Contains(userInput, "?") {
		return "question_answering", nil
	}
	return "general", nil
}

func (p *Pipeline) createPlan(ctx context.Context, userInput, strategy string) (map[string]any, error) {
	plan := map[string]any{
		"strategy": strategy,
		"steps": []any{
			map[string]any{"action": "process", "input": userInput},
			map[string]any{"action": "respond"},
		},
	}
	if p.provider != nil {
		outline, err := p.chat(ctx,
			"You are the planning phase of a reasoning pipeline. Produce a short numbered plan for the task.",
			userInput)
		if err != nil {
			return nil, err
		}
		plan["outline"] = outline
	}
	return plan, nil
}

func (p *Pipeline) executePlan(ctx context.Context, userInput string, plan map[string]any) (string, error) {
	if p.provider != nil {
		system := "Complete the task."
		if outline, ok := plan["outline"].(string); ok && outline != "" {
			system = "Complete the task following this plan:\n" + outline
		}
		return p.chat(ctx, system, userInput)
	}
	steps, _ := plan["steps"].([]any)
	if len(steps) > 0 {
		if step, ok := steps[0].(map[string]any); ok {
			if input, ok := step["input"].(string); ok {
				return "Processed: " + input, nil
			}
		}
	}
	return "Processed: (empty)", nil
}

func (p *Pipeline) synthesize(ctx context.Context, output string) (string, error) {
	if p.provider != nil {
		final, err := p.chat(ctx,
			"Consolidate the execution output into a final answer for the user.",
			output)
		if err != nil {
			return "", err
		}
		if final != "" {
			return final, nil
		}
	}
	return output, nil
}

func (p *Pipeline) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := p.provider.Chat(ctx, provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: system},
			{Role: provider.RoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
