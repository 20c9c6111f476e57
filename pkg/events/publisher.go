package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Publisher publishes typed event payloads onto the bus.
//
// Each public method accepts a specific typed payload struct, see
// payloads.go. Internally, payloads are marshaled to JSON and routed to
// the appropriate channel derived from the session id.
type Publisher struct {
	bus *Bus
}

// NewPublisher creates a publisher over the given bus.
func NewPublisher(bus *Bus) *Publisher {
	return &Publisher{bus: bus}
}

// Bus exposes the underlying bus for subscription endpoints.
func (p *Publisher) Bus() *Bus {
	return p.bus
}

// NewSessionStatus builds a SessionStatusPayload with the timestamp set.
func NewSessionStatus(sessionID, status string) SessionStatusPayload {
	return SessionStatusPayload{
		BasePayload: newBase(EventTypeSessionStatus, sessionID),
		Status:      status,
	}
}

// NewPhaseStatus builds a PhaseStatusPayload with the timestamp set.
func NewPhaseStatus(sessionID, phase, status string) PhaseStatusPayload {
	return PhaseStatusPayload{
		BasePayload: newBase(EventTypePhaseStatus, sessionID),
		Phase:       phase,
		Status:      status,
	}
}

// PublishSessionStatus delivers a session status event to the session
// channel (persistent) and the global sessions channel (transient).
// Both publishes are best-effort; the first error is returned.
func (p *Publisher) PublishSessionStatus(payload SessionStatusPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionStatusPayload: %w", err)
	}

	var firstErr error
	if err := p.bus.Publish(SessionChannel(payload.SessionID), data, true); err != nil {
		slog.Warn("Failed to publish session status to session channel",
			"session_id", payload.SessionID, "status", payload.Status, "error", err)
		firstErr = err
	}
	if err := p.bus.Publish(GlobalSessionsChannel, data, false); err != nil {
		slog.Warn("Failed to publish session status to global channel",
			"session_id", payload.SessionID, "status", payload.Status, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishPhaseStatus delivers a phase lifecycle event to the session
// channel (persistent).
func (p *Publisher) PublishPhaseStatus(payload PhaseStatusPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal PhaseStatusPayload: %w", err)
	}
	return p.bus.Publish(SessionChannel(payload.SessionID), data, true)
}

// PublishToolActivity delivers a tool invocation outcome to the session
// channel (persistent).
func (p *Publisher) PublishToolActivity(payload ToolActivityPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ToolActivityPayload: %w", err)
	}
	return p.bus.Publish(SessionChannel(payload.SessionID), data, true)
}

// PublishStreamChunk delivers a provider output delta to the session
// channel. Transient: no history, lost on reconnect.
func (p *Publisher) PublishStreamChunk(payload StreamChunkPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal StreamChunkPayload: %w", err)
	}
	return p.bus.Publish(SessionChannel(payload.SessionID), data, false)
}

func newBase(eventType, sessionID string) BasePayload {
	return BasePayload{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}
}
