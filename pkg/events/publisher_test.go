package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSessionStatus_BothChannels(t *testing.T) {
	bus := NewBus()
	pub := NewPublisher(bus)

	sessionCh, cancelS := bus.Subscribe(SessionChannel("abc"))
	defer cancelS()
	globalCh, cancelG := bus.Subscribe(GlobalSessionsChannel)
	defer cancelG()

	require.NoError(t, pub.PublishSessionStatus(NewSessionStatus("abc", "in_progress")))

	m := recvOne(t, sessionCh)
	assert.Equal(t, EventTypeSessionStatus, m["type"])
	assert.Equal(t, "abc", m["session_id"])
	assert.Equal(t, "in_progress", m["status"])
	assert.NotEmpty(t, m["timestamp"])
	// Session channel copy is persistent and carries a position.
	assert.Contains(t, m, "event_id")

	g := recvOne(t, globalCh)
	assert.Equal(t, "in_progress", g["status"])
	// Global copy is transient.
	assert.NotContains(t, g, "event_id")
}

func TestPublishPhaseStatus_StoredInHistory(t *testing.T) {
	bus := NewBus()
	pub := NewPublisher(bus)

	require.NoError(t, pub.PublishPhaseStatus(NewPhaseStatus("abc", "sense", PhaseStatusStarted)))
	require.NoError(t, pub.PublishPhaseStatus(NewPhaseStatus("abc", "sense", PhaseStatusCompleted)))

	events, hasMore := bus.History(SessionChannel("abc"), 0, 10)
	require.Len(t, events, 2)
	assert.False(t, hasMore)

	var m map[string]any
	require.NoError(t, json.Unmarshal(events[1].Payload, &m))
	assert.Equal(t, PhaseStatusCompleted, m["status"])
	assert.Equal(t, "sense", m["phase"])
}

func TestPublishStreamChunk_Transient(t *testing.T) {
	bus := NewBus()
	pub := NewPublisher(bus)

	ch, cancel := bus.Subscribe(SessionChannel("abc"))
	defer cancel()

	require.NoError(t, pub.PublishStreamChunk(StreamChunkPayload{
		BasePayload: BasePayload{Type: EventTypeStreamChunk, SessionID: "abc"},
		Delta:       "hel",
	}))

	m := recvOne(t, ch)
	assert.Equal(t, "hel", m["delta"])

	events, _ := bus.History(SessionChannel("abc"), 0, 10)
	assert.Empty(t, events)
}

func TestPublishToolActivity(t *testing.T) {
	bus := NewBus()
	pub := NewPublisher(bus)

	payload := ToolActivityPayload{
		BasePayload: newBase(EventTypeToolActivity, "abc"),
		ToolName:    "ygn-core.search",
		Outcome:     "success",
		LatencyMS:   12.5,
	}
	require.NoError(t, pub.PublishToolActivity(payload))

	events, _ := bus.History(SessionChannel("abc"), 0, 10)
	require.Len(t, events, 1)

	var m map[string]any
	require.NoError(t, json.Unmarshal(events[0].Payload, &m))
	assert.Equal(t, "ygn-core.search", m["tool_name"])
	assert.Equal(t, "success", m["outcome"])
}
