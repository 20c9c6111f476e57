package harness

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ygn-labs/ygn-brain/pkg/evidence"
)

// Engine drives the generate-verify-refine loop. Every round is traced
// to the attached evidence pack when one is set.
type Engine struct {
	generator Generator
	verifier  Verifier
	policy    Policy
	selector  Selector
	memory    *MemoryStore
	evidence  *evidence.Pack
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithMemory(store *MemoryStore) EngineOption {
	return func(e *Engine) { e.memory = store }
}

func WithEvidence(pack *evidence.Pack) EngineOption {
	return func(e *Engine) { e.evidence = pack }
}

func WithSelector(s Selector) EngineOption {
	return func(e *Engine) { e.selector = s }
}

func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) { e.policy = p }
}

func NewEngine(generator Generator, verifier Verifier, opts ...EngineOption) *Engine {
	e := &Engine{
		generator: generator,
		verifier:  verifier,
		policy:    NewDefaultPolicy(),
		selector:  NewConsensusSelector(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the refinement loop for a task.
func (e *Engine) Run(ctx context.Context, task string, config Config) (Result, error) {
	if err := config.validate(); err != nil {
		return Result{}, err
	}
	if policy, ok := e.policy.(*DefaultPolicy); ok {
		policy.MaxRounds = config.MaxRounds
		policy.MinScore = config.MinScore
	}

	recallContext := ""
	if e.memory != nil {
		if patterns := e.memory.RecallPatterns(task, 3); len(patterns) > 0 {
			recallContext = fmt.Sprintf("Previous patterns: provider=%s model=%s score=%g",
				patterns[0].Provider, patterns[0].Model, patterns[0].Score)
		}
	}
	if err := e.record(evidence.KindInput, map[string]any{
		"task":               task,
		"has_memory_context": recallContext != "",
	}); err != nil {
		return Result{}, err
	}

	var pool []Scored
	bestScore := 0.0
	currentTask := task
	roundNum := 0

	for e.policy.ShouldContinue(roundNum, bestScore) {
		candidates, err := e.generator.Generate(ctx, currentTask, recallContext, config)
		if err != nil {
			return Result{}, fmt.Errorf("round %d generation: %w", roundNum, err)
		}

		for _, candidate := range candidates {
			feedback := e.verifier.Verify(candidate, task)
			pool = append(pool, Scored{Candidate: candidate, Feedback: feedback})

			if err := e.record(evidence.KindOutput, map[string]any{
				"round":        roundNum,
				"candidate_id": candidate.ID,
				"provider":     candidate.Provider,
				"output_hash":  outputHash(candidate.Output),
				"score":        feedback.Score,
				"passed":       feedback.Passed,
			}); err != nil {
				return Result{}, err
			}

			if feedback.Score > bestScore {
				bestScore = feedback.Score
			}
		}
		roundNum++

		if e.policy.ShouldContinue(roundNum, bestScore) && len(pool) > 0 {
			worst := pool[0]
			for _, entry := range pool[1:] {
				if entry.Feedback.Score < worst.Feedback.Score {
					worst = entry
				}
			}
			currentTask = e.policy.RefinePrompt(task, worst.Feedback)
		}
	}

	winner, err := e.selector.Select(pool)
	if err != nil {
		return Result{}, err
	}
	var winnerFeedback Feedback
	for _, entry := range pool {
		if entry.Candidate.ID == winner.ID {
			winnerFeedback = entry.Feedback
			break
		}
	}

	if e.memory != nil {
		e.memory.StorePattern(task, winner, winnerFeedback)
	}
	if err := e.record(evidence.KindDecision, map[string]any{
		"action":           "selection",
		"winner_id":        winner.ID,
		"winner_score":     winnerFeedback.Score,
		"total_candidates": len(pool),
		"rounds_used":      roundNum,
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Winner:          winner,
		Feedback:        winnerFeedback,
		RoundsUsed:      roundNum,
		TotalCandidates: len(pool),
	}, nil
}

func (e *Engine) record(kind evidence.Kind, data map[string]any) error {
	if e.evidence == nil {
		return nil
	}
	return e.evidence.Add("harness", kind, data)
}

func outputHash(output string) string {
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])[:16]
}
