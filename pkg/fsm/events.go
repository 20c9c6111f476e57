package fsm

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single recorded phase transition.
type Event struct {
	EventID   string         `json:"event_id"`
	Timestamp float64        `json:"timestamp"`
	FromPhase Phase          `json:"from_phase"`
	ToPhase   Phase          `json:"to_phase"`
	Trigger   string         `json:"trigger"` // "user_input", "phase_complete", "retry", ...
	Metadata  map[string]any `json:"metadata,omitempty"`
	SessionID string         `json:"session_id"`
}

// NewEvent creates an event with a generated ID and current timestamp.
func NewEvent(sessionID string, from, to Phase, trigger string) Event {
	return Event{
		EventID:   strings.ReplaceAll(uuid.NewString(), "-", ""),
		Timestamp: float64(time.Now().UnixMicro()) / 1e6,
		FromPhase: from,
		ToPhase:   to,
		Trigger:   trigger,
		SessionID: sessionID,
	}
}

// Snapshot summarizes the replayed state of one session.
type Snapshot struct {
	SessionID          string  `json:"session_id"`
	CurrentPhase       Phase   `json:"current_phase"`
	EventCount         int     `json:"event_count"`
	LastEventTimestamp float64 `json:"last_event_timestamp"`
}

// EventStore is an append-only log of phase transitions with replay.
type EventStore interface {
	Append(event Event)
	Events(sessionID string) []Event
	// Replay walks the log applying transitions and returns the final
	// phase; with a non-empty targetEventID it stops after that event.
	Replay(targetEventID string) Phase
	Snapshot(sessionID string) Snapshot
	// Clear removes events, all of them when sessionID is empty. Returns
	// the number removed.
	Clear(sessionID string) int
}

// InMemoryEventStore keeps events in process memory.
type InMemoryEventStore struct {
	mu     sync.Mutex
	events []Event
}

// NewInMemoryEventStore creates an empty store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

func (s *InMemoryEventStore) Append(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *InMemoryEventStore) Events(sessionID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" {
		out := make([]Event, len(s.events))
		copy(out, s.events)
		return out
	}
	var out []Event
	for _, e := range s.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out
}

func (s *InMemoryEventStore) Replay(targetEventID string) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	phase := PhaseIdle
	for _, e := range s.events {
		phase = e.ToPhase
		if targetEventID != "" && e.EventID == targetEventID {
			break
		}
	}
	return phase
}

func (s *InMemoryEventStore) Snapshot(sessionID string) Snapshot {
	events := s.Events(sessionID)
	if len(events) == 0 {
		return Snapshot{SessionID: sessionID, CurrentPhase: PhaseIdle}
	}
	last := events[len(events)-1]
	return Snapshot{
		SessionID:          sessionID,
		CurrentPhase:       last.ToPhase,
		EventCount:         len(events),
		LastEventTimestamp: last.Timestamp,
	}
}

func (s *InMemoryEventStore) Clear(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" {
		n := len(s.events)
		s.events = nil
		return n
	}
	kept := s.events[:0]
	removed := 0
	for _, e := range s.events {
		if e.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed
}
