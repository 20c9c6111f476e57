package events

// BasePayload carries the fields common to every event.
type BasePayload struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

// SessionStatusPayload reports a session lifecycle transition.
type SessionStatusPayload struct {
	BasePayload
	Status string `json:"status"`
}

// PhaseStatusPayload reports one cognitive phase starting or finishing.
type PhaseStatusPayload struct {
	BasePayload
	Phase    string `json:"phase"`
	Status   string `json:"status"`
	Duration string `json:"duration,omitempty"`
}

// ToolActivityPayload reports a completed tool invocation.
type ToolActivityPayload struct {
	BasePayload
	ToolName  string  `json:"tool_name"`
	Outcome   string  `json:"outcome"` // success, error, timeout
	LatencyMS float64 `json:"latency_ms,omitempty"`
}

// StreamChunkPayload carries one provider output delta. Transient:
// lost on reconnect, clients concatenate deltas locally.
type StreamChunkPayload struct {
	BasePayload
	Delta string `json:"delta"`
}
