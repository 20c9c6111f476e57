package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildPrompt flattens a message list into a single prompt for CLI
// providers that take one text argument. System and assistant turns are
// prefixed so the model can tell the speakers apart.
func buildPrompt(messages []Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			parts = append(parts, "[System] "+m.Content)
		case RoleAssistant:
			parts = append(parts, "[Assistant] "+m.Content)
		case RoleUser:
			parts = append(parts, m.Content)
		default:
			parts = append(parts, fmt.Sprintf("[%s] %s", m.Role, m.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

// injectTools appends tool definitions to the last message so providers
// without native tool calling can still request tools via a JSON reply.
func injectTools(req Request, tools []ToolSpec) Request {
	if len(tools) == 0 || len(req.Messages) == 0 {
		return req
	}

	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		line := fmt.Sprintf("- %s: %s", t.Name, t.Description)
		if len(t.Parameters) > 0 {
			params, err := json.Marshal(t.Parameters)
			if err == nil {
				line += fmt.Sprintf(" (params: %s)", params)
			}
		}
		lines = append(lines, line)
	}

	messages := make([]Message, len(req.Messages))
	copy(messages, req.Messages)
	last := &messages[len(messages)-1]
	last.Content = "Available tools:\n" + strings.Join(lines, "\n") +
		"\n\nIf you need a tool, respond with JSON: {\"tool\": \"<name>\", \"arguments\": {...}}\n\n" +
		last.Content

	req.Messages = messages
	return req
}

// parseToolReply extracts a tool call from a JSON reply of the form
// {"tool": "<name>", "arguments": {...}}. Returns nil if the content is
// not such a reply.
func parseToolReply(content string) *ToolCall {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var reply struct {
		Tool      string         `json:"tool"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(trimmed), &reply); err != nil || reply.Tool == "" {
		return nil
	}
	return &ToolCall{ToolName: reply.Tool, Arguments: reply.Arguments}
}
