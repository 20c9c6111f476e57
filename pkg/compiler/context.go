package compiler

import (
	"fmt"
	"strings"

	"github.com/ygn-labs/ygn-brain/pkg/provider"
)

// MemoryHit is a recalled memory attached to the context.
type MemoryHit struct {
	Key      string `json:"key"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// ArtifactRef points at an externalized payload the model can request.
type ArtifactRef struct {
	Handle    string `json:"handle"`
	Summary   string `json:"summary"`
	SizeBytes int    `json:"size_bytes"`
	Source    string `json:"source"`
}

// ToolResult is a raw tool output awaiting inclusion or externalization.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

// WorkingContext is the budget-aware compiled view of a session, ready
// for a provider chat call.
type WorkingContext struct {
	SystemPrompt string
	History      []provider.Message
	MemoryHits   []MemoryHit
	ArtifactRefs []ArtifactRef
	ToolResults  []ToolResult
	TokenCount   int
	Budget       int
}

func (c *WorkingContext) IsWithinBudget() bool {
	return c.TokenCount <= c.Budget
}

func (c *WorkingContext) Overflow() int {
	if c.TokenCount > c.Budget {
		return c.TokenCount - c.Budget
	}
	return 0
}

// ToMessages renders the context as a provider message list: one system
// message carrying the prompt plus memory, artifact, and tool sections,
// followed by the selected history.
func (c *WorkingContext) ToMessages() []provider.Message {
	parts := []string{c.SystemPrompt}

	if len(c.MemoryHits) > 0 {
		parts = append(parts, "\n\n## Relevant memories")
		for _, hit := range c.MemoryHits {
			parts = append(parts, fmt.Sprintf("- [%s]: %s", hit.Key, hit.Content))
		}
	}
	if len(c.ArtifactRefs) > 0 {
		parts = append(parts, "\n\n## Available artifacts (use handle to retrieve)")
		for _, ref := range c.ArtifactRefs {
			parts = append(parts, fmt.Sprintf("- [%s] (%d bytes): %s", ref.Handle, ref.SizeBytes, ref.Summary))
		}
	}
	if len(c.ToolResults) > 0 {
		parts = append(parts, "\n\n## Recent tool results")
		for _, tr := range c.ToolResults {
			parts = append(parts, fmt.Sprintf("- %s: %s", tr.Tool, tr.Result))
		}
	}

	messages := make([]provider.Message, 0, len(c.History)+1)
	messages = append(messages, provider.Message{
		Role:    provider.RoleSystem,
		Content: strings.Join(parts, "\n"),
	})
	messages = append(messages, c.History...)
	return messages
}
