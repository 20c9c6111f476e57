package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ygn-labs/ygn-brain/pkg/memory"
)

// Pattern is a recalled winning combination from a previous run.
type Pattern struct {
	Task     string  `json:"task"`
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Score    float64 `json:"score"`
	Prompt   string  `json:"prompt"`
}

// MemoryStore persists winning candidate patterns in cold-tier memory so
// successful provider and prompt combinations carry across sessions.
type MemoryStore struct {
	memory *memory.TieredService
}

func NewMemoryStore(tiered *memory.TieredService) *MemoryStore {
	if tiered == nil {
		tiered = memory.NewTieredService()
	}
	return &MemoryStore{memory: tiered}
}

// StorePattern saves a winning candidate under the cold tier.
func (s *MemoryStore) StorePattern(task string, candidate Candidate, feedback Feedback) {
	prompt := candidate.Prompt
	if len(prompt) > 200 {
		prompt = prompt[:200]
	}
	content := fmt.Sprintf("task: %s\nprovider: %s\nmodel: %s\nscore: %g\nprompt: %s",
		task, candidate.Provider, candidate.Model, feedback.Score, prompt)
	s.memory.StoreTiered("harness:"+candidate.ID, content, memory.CategoryCore,
		"harness", nil, memory.TierCold)
}

// RecallPatterns returns stored patterns matching the task by word
// overlap, newest first.
func (s *MemoryStore) RecallPatterns(task string, limit int) []Pattern {
	if limit <= 0 {
		limit = 3
	}
	entries := s.memory.Recall(task, limit, "")
	var patterns []Pattern
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Key, "harness:") {
			continue
		}
		patterns = append(patterns, parsePattern(entry.Content))
	}
	return patterns
}

func parsePattern(content string) Pattern {
	var p Pattern
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "task":
			p.Task = value
		case "provider":
			p.Provider = value
		case "model":
			p.Model = value
		case "score":
			p.Score, _ = strconv.ParseFloat(value, 64)
		case "prompt":
			p.Prompt = value
		}
	}
	return p
}
