package guard

import (
	"fmt"
	"strings"
	"sync"
)

// logToLeakMinLen is the shortest prior-message fragment that counts as a
// leak when found verbatim inside tool arguments.
const logToLeakMinLen = 20

// ToolInvocationGuard checks tool invocations of the form "tool_name:args"
// against a whitelist, a per-session call cap, and Log-To-Leak exfiltration
// of prior conversation content through tool arguments.
type ToolInvocationGuard struct {
	mu sync.Mutex

	allowedTools       map[string]bool
	maxCallsPerSession int
	callCount          int
	priorMessages      []string
}

// NewToolInvocationGuard creates a tool guard. An empty tool list disables
// the whitelist check; maxCalls <= 0 uses the default of 10.
func NewToolInvocationGuard(allowedTools []string, maxCalls int) *ToolInvocationGuard {
	if maxCalls <= 0 {
		maxCalls = 10
	}
	allowed := make(map[string]bool, len(allowedTools))
	for _, t := range allowedTools {
		allowed[t] = true
	}
	return &ToolInvocationGuard{
		allowedTools:       allowed,
		maxCallsPerSession: maxCalls,
	}
}

func (g *ToolInvocationGuard) Name() string { return "ToolInvocationGuard" }

// RecordMessage records a user/assistant message for Log-To-Leak detection.
func (g *ToolInvocationGuard) RecordMessage(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.priorMessages = append(g.priorMessages, text)
}

// Check evaluates a "tool_name:arguments" invocation string.
func (g *ToolInvocationGuard) Check(text string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	name, args := text, ""
	if idx := strings.Index(text, ":"); idx >= 0 {
		name = strings.TrimSpace(text[:idx])
		args = strings.TrimSpace(text[idx+1:])
	} else {
		name = strings.TrimSpace(name)
	}

	if len(g.allowedTools) > 0 && !g.allowedTools[name] {
		return Result{
			Allowed: false,
			Level:   ThreatCritical,
			Reason:  fmt.Sprintf("Unknown tool: %s", name),
			Score:   ThreatCritical.Score(),
			Backend: g.Name(),
		}
	}

	g.callCount++
	if g.callCount > g.maxCallsPerSession {
		return Result{
			Allowed: false,
			Level:   ThreatHigh,
			Reason:  fmt.Sprintf("Rate limit exceeded: %d/%d", g.callCount, g.maxCallsPerSession),
			Score:   ThreatHigh.Score(),
			Backend: g.Name(),
		}
	}

	if args != "" {
		for _, msg := range g.priorMessages {
			if len(msg) > logToLeakMinLen && strings.Contains(args, msg) {
				return Result{
					Allowed: false,
					Level:   ThreatHigh,
					Reason:  "Log-To-Leak: tool arguments contain prior message content",
					Score:   ThreatHigh.Score(),
					Backend: g.Name(),
				}
			}
		}
	}

	return Result{
		Allowed: true,
		Level:   ThreatNone,
		Reason:  "Tool invocation passed all checks",
		Backend: g.Name(),
	}
}
