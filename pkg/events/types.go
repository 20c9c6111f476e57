// Package events provides real-time event delivery over an in-process
// bus with per-channel history for late-subscriber catchup.
//
// Channels carry two classes of events:
//
//   - Persistent (kept in channel history, replayed on catchup):
//     session.status, phase.status, tool.activity
//   - Transient (delivered to live subscribers only):
//     stream.chunk
//
// Clients that subscribe mid-session first receive the channel history
// in order, then live events. If more events were missed than the
// catchup limit, a catchup.overflow marker tells the client to reload
// state over REST instead.
package events

// Persistent event types (kept in history + broadcast).
const (
	// Session lifecycle
	EventTypeSessionStatus = "session.status"

	// Phase lifecycle, one event type for all phase status transitions
	EventTypePhaseStatus = "phase.status"

	// Tool execution outcomes
	EventTypeToolActivity = "tool.activity"
)

// Phase lifecycle status values (used in PhaseStatusPayload.Status).
const (
	PhaseStatusStarted   = "started"
	PhaseStatusCompleted = "completed"
	PhaseStatusFailed    = "failed"
)

// Transient event types (broadcast only, no history).
const (
	// Provider streaming chunks. High-frequency, ephemeral.
	EventTypeStreamChunk = "stream.chunk"
)

// GlobalSessionsChannel is the channel for session-level status events.
// The session list page subscribes to this for real-time updates.
const GlobalSessionsChannel = "sessions"

// SessionChannel returns the channel name for a specific session's events.
// Format: "session:{session_id}"
func SessionChannel(sessionID string) string {
	return "session:" + sessionID
}
