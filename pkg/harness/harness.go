// Package harness implements the refinement loop: generate candidates
// from one or more providers, verify and score them, refine the prompt
// when quality falls short, and select a winner with a consensus bonus.
package harness

import "fmt"

// Candidate is a single provider output under evaluation.
type Candidate struct {
	ID         string  `json:"id"`
	Provider   string  `json:"provider"`
	Model      string  `json:"model"`
	Prompt     string  `json:"prompt"`
	Output     string  `json:"output"`
	LatencyMS  float64 `json:"latency_ms"`
	TokenCount int     `json:"token_count"`
}

// Feedback is the verification result for a candidate.
type Feedback struct {
	Passed      bool           `json:"passed"`
	Score       float64        `json:"score"` // 0.0 - 1.0
	Diagnostics string         `json:"diagnostics"`
	Artifacts   map[string]any `json:"artifacts,omitempty"`
}

// Config controls a harness run.
type Config struct {
	MaxRounds             int
	MinScore              float64
	Providers             []string
	CandidatesPerProvider int
}

// DefaultConfig mirrors the ensemble preset: two rounds of two candidates
// from each CLI provider, stopping at 0.8.
func DefaultConfig() Config {
	return Config{
		MaxRounds:             3,
		MinScore:              0.8,
		Providers:             []string{"codex", "gemini"},
		CandidatesPerProvider: 2,
	}
}

func (c Config) validate() error {
	if c.MaxRounds <= 0 {
		return fmt.Errorf("max rounds must be positive")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	if c.CandidatesPerProvider <= 0 {
		return fmt.Errorf("candidates per provider must be positive")
	}
	return nil
}

// Result is the outcome of a complete harness run.
type Result struct {
	Winner          Candidate `json:"winner"`
	Feedback        Feedback  `json:"feedback"`
	RoundsUsed      int       `json:"rounds_used"`
	TotalCandidates int       `json:"total_candidates"`
}
