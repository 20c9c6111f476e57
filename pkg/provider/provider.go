// Package provider abstracts LLM access behind a pluggable interface.
// Production providers shell out to locally authenticated CLIs (codex,
// gemini); the stub provider returns deterministic responses for tests and
// offline development.
package provider

import "context"

// Role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a tool invocation returned by the model.
type ToolCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Usage tracks token consumption for a single request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Response is a chat completion result.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage"`
	LatencyMS float64    `json:"latency_ms,omitempty"`
}

// Capabilities declares what a provider can do.
type Capabilities struct {
	NativeToolCalling bool
	Vision            bool
	Streaming         bool
}

// Provider is the LLM backend interface.
type Provider interface {
	// Name returns the canonical provider name (e.g. "codex", "stub").
	Name() string
	Capabilities() Capabilities
	Chat(ctx context.Context, req Request) (Response, error)
	// ChatWithTools sends a request with tool definitions. Providers
	// without native tool calling inject the definitions into the prompt.
	ChatWithTools(ctx context.Context, req Request, tools []ToolSpec) (Response, error)
}
