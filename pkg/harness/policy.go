package harness

import "fmt"

// Policy decides when to stop refining and how to rewrite the prompt
// between rounds.
type Policy interface {
	ShouldContinue(roundNum int, bestScore float64) bool
	RefinePrompt(task string, feedback Feedback) string
}

// DefaultPolicy stops after MaxRounds or once MinScore is reached, and
// refines by appending the previous round's diagnostics to the task.
type DefaultPolicy struct {
	MaxRounds int
	MinScore  float64
}

func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{MaxRounds: 3, MinScore: 0.8}
}

func (p *DefaultPolicy) ShouldContinue(roundNum int, bestScore float64) bool {
	return roundNum < p.MaxRounds && bestScore < p.MinScore
}

func (p *DefaultPolicy) RefinePrompt(task string, feedback Feedback) string {
	return fmt.Sprintf("%s\n\nPrevious attempt feedback: %s\nScore: %.2f. Please improve.",
		task, feedback.Diagnostics, feedback.Score)
}
