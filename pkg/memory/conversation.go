package memory

import (
	"sync"

	"github.com/ygn-labs/ygn-brain/pkg/provider"
)

const (
	defaultMaxTurns      = 50
	defaultMaxConvTokens = 8000
)

// Turn is one entry in a conversation transcript.
type Turn struct {
	Role      provider.Role  `json:"role"`
	Content   string         `json:"content"`
	Timestamp float64        `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ConversationMemory keeps a bounded rolling transcript of a session.
// When the transcript exceeds the turn or token limit, the oldest turns
// are dropped.
type ConversationMemory struct {
	mu           sync.Mutex
	systemPrompt string
	turns        []Turn
	maxTurns     int
	maxTokens    int
}

// ConversationOption configures a ConversationMemory.
type ConversationOption func(*ConversationMemory)

func WithMaxTurns(n int) ConversationOption {
	return func(c *ConversationMemory) { c.maxTurns = n }
}

func WithMaxConversationTokens(n int) ConversationOption {
	return func(c *ConversationMemory) { c.maxTokens = n }
}

func NewConversationMemory(systemPrompt string, opts ...ConversationOption) *ConversationMemory {
	c := &ConversationMemory{
		systemPrompt: systemPrompt,
		maxTurns:     defaultMaxTurns,
		maxTokens:    defaultMaxConvTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddUser appends a user turn.
func (c *ConversationMemory) AddUser(content string) {
	c.add(Turn{Role: provider.RoleUser, Content: content, Timestamp: nowSeconds()})
}

// AddAssistant appends an assistant turn.
func (c *ConversationMemory) AddAssistant(content string) {
	c.add(Turn{Role: provider.RoleAssistant, Content: content, Timestamp: nowSeconds()})
}

// AddToolResult appends a tool result as a tool turn tagged with the
// tool's name.
func (c *ConversationMemory) AddToolResult(toolName, result string) {
	c.add(Turn{
		Role:      provider.RoleTool,
		Content:   result,
		Timestamp: nowSeconds(),
		Metadata:  map[string]any{"tool": toolName},
	})
}

func (c *ConversationMemory) add(turn Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
	c.trimLocked()
}

// trimLocked drops oldest turns first by count, then until the rough
// token estimate (len/4 per turn) fits the budget.
func (c *ConversationMemory) trimLocked() {
	if len(c.turns) > c.maxTurns {
		c.turns = c.turns[len(c.turns)-c.maxTurns:]
	}
	for len(c.turns) > 1 && c.tokenEstimateLocked() > c.maxTokens {
		c.turns = c.turns[1:]
	}
}

func (c *ConversationMemory) tokenEstimateLocked() int {
	total := 0
	for _, turn := range c.turns {
		total += len(turn.Content) / 4
	}
	return total
}

// ToMessages renders the transcript as a chat message list, with the
// system prompt first when set.
func (c *ConversationMemory) ToMessages() []provider.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	messages := make([]provider.Message, 0, len(c.turns)+1)
	if c.systemPrompt != "" {
		messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: c.systemPrompt})
	}
	for _, turn := range c.turns {
		messages = append(messages, provider.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// Turns returns a copy of the current transcript.
func (c *ConversationMemory) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Clear drops all turns, keeping the system prompt.
func (c *ConversationMemory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}

// Summary reports transcript size counters.
func (c *ConversationMemory) Summary() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts := make(map[provider.Role]int)
	for _, turn := range c.turns {
		counts[turn.Role]++
	}
	return map[string]any{
		"turns":           len(c.turns),
		"user_turns":      counts[provider.RoleUser],
		"assistant_turns": counts[provider.RoleAssistant],
		"tool_turns":      counts[provider.RoleTool],
		"token_estimate":  c.tokenEstimateLocked(),
		"has_system":      c.systemPrompt != "",
	}
}
