// Package session holds the per-run event log. Every observable step of a
// run (user input, tool calls, guard decisions, phase results) is appended
// as an event, and each event is mirrored into the session's evidence pack.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ygn-labs/ygn-brain/pkg/evidence"
)

// Event kinds recorded on the session log.
const (
	KindUserInput      = "user_input"
	KindMemoryHit      = "memory_hit"
	KindToolCall       = "tool_call"
	KindToolSuccess    = "tool_success"
	KindToolError      = "tool_error"
	KindToolTimeout    = "tool_timeout"
	KindPhaseResult    = "phase_result"
	KindArtifactStored = "artifact_stored"
	KindGuardDecision  = "guard_decision"
)

// evidenceKind maps a session event kind to the evidence kind it is
// recorded under. Unlisted kinds fall back to output.
var evidenceKind = map[string]evidence.Kind{
	KindUserInput:      evidence.KindInput,
	KindMemoryHit:      evidence.KindSource,
	KindToolCall:       evidence.KindToolCall,
	KindToolSuccess:    evidence.KindOutput,
	KindToolError:      evidence.KindError,
	KindToolTimeout:    evidence.KindError,
	KindPhaseResult:    evidence.KindOutput,
	KindArtifactStored: evidence.KindOutput,
	KindGuardDecision:  evidence.KindDecision,
}

// Event is one record on the append-only session log.
type Event struct {
	EventID       string         `json:"event_id"`
	Timestamp     float64        `json:"timestamp"`
	Kind          string         `json:"kind"`
	Data          map[string]any `json:"data"`
	TokenEstimate int            `json:"token_estimate"`
}

// EventLog is an append-only, time-ordered list of session events.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append adds an event and returns it with its generated id.
func (l *EventLog) Append(kind string, data map[string]any, tokenEstimate int) Event {
	event := Event{
		EventID:       newEventID(),
		Timestamp:     float64(time.Now().UnixMicro()) / 1e6,
		Kind:          kind,
		Data:          data,
		TokenEstimate: tokenEstimate,
	}
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	return event
}

// Events returns events, optionally filtered to the given kinds.
func (l *EventLog) Events(kinds ...string) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(kinds) == 0 {
		out := make([]Event, len(l.events))
		copy(out, l.events)
		return out
	}
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []Event
	for _, e := range l.events {
		if want[e.Kind] {
			out = append(out, e)
		}
	}
	return out
}

// Since returns events with a timestamp strictly after ts.
func (l *EventLog) Since(ts float64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Timestamp > ts {
			out = append(out, e)
		}
	}
	return out
}

// TotalTokens sums the token estimates of all events.
func (l *EventLog) TotalTokens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, e := range l.events {
		total += e.TokenEstimate
	}
	return total
}

// Len returns the number of events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func newEventID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("%012x-%s", time.Now().UnixMilli(), raw[:12])
}

// Session binds an event log to an evidence pack under one session id.
type Session struct {
	ID       string
	Log      *EventLog
	Evidence *evidence.Pack
}

// New creates a session with a fresh 12-hex id, event log, and evidence
// pack.
func New(modelID string) *Session {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	pack := evidence.NewPack(id)
	pack.ModelID = modelID
	return &Session{
		ID:       id,
		Log:      NewEventLog(),
		Evidence: pack,
	}
}

// Record appends an event to the log and mirrors it into the evidence
// pack under the mapped evidence kind and the given phase.
func (s *Session) Record(kind, phase string, data map[string]any, tokenEstimate int) (Event, error) {
	event := s.Log.Append(kind, data, tokenEstimate)

	ek, ok := evidenceKind[kind]
	if !ok {
		ek = evidence.KindOutput
	}
	if err := s.Evidence.Add(phase, ek, data); err != nil {
		return event, fmt.Errorf("record evidence for %s: %w", kind, err)
	}
	return event, nil
}

// Manager tracks live sessions by id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts a new session and registers it.
func (m *Manager) Create(modelID string) *Session {
	s := New(modelID)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return s, nil
}

// List returns all registered session ids.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
