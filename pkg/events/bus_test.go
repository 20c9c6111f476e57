package events

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, ch <-chan []byte) map[string]any {
	t.Helper()
	select {
	case data := <-ch:
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	default:
		t.Fatal("no event delivered")
		return nil
	}
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	ch1, cancel1 := bus.Subscribe("session:abc")
	defer cancel1()
	ch2, cancel2 := bus.Subscribe("session:abc")
	defer cancel2()

	require.NoError(t, bus.Publish("session:abc", []byte(`{"type":"phase.status"}`), true))

	for _, ch := range []<-chan []byte{ch1, ch2} {
		m := recvOne(t, ch)
		assert.Equal(t, "phase.status", m["type"])
		assert.Equal(t, float64(1), m["event_id"])
	}
}

func TestPublish_ChannelIsolation(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe("session:abc")
	defer cancel()

	require.NoError(t, bus.Publish("session:other", []byte(`{"type":"phase.status"}`), true))
	assert.Empty(t, ch)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe("sessions")
	cancel()

	require.NoError(t, bus.Publish("sessions", []byte(`{"type":"session.status"}`), false))
	assert.Empty(t, ch)
	assert.Zero(t, bus.SubscriberCount("sessions"))
}

func TestHistory_Catchup(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 5; i++ {
		payload := fmt.Sprintf(`{"type":"phase.status","seq":%d}`, i)
		require.NoError(t, bus.Publish("session:abc", []byte(payload), true))
	}

	// Full history from the beginning.
	events, hasMore := bus.History("session:abc", 0, 10)
	require.Len(t, events, 5)
	assert.False(t, hasMore)
	assert.Equal(t, int64(1), events[0].ID)

	// Resume after event 3.
	events, hasMore = bus.History("session:abc", 3, 10)
	require.Len(t, events, 2)
	assert.False(t, hasMore)
	assert.Equal(t, int64(4), events[0].ID)
}

func TestHistory_Overflow(t *testing.T) {
	bus := NewBus()
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish("session:abc", []byte(`{"type":"phase.status"}`), true))
	}

	events, hasMore := bus.History("session:abc", 0, 3)
	assert.Len(t, events, 3)
	assert.True(t, hasMore)
}

func TestTransientEventsSkipHistory(t *testing.T) {
	bus := NewBus()
	require.NoError(t, bus.Publish("session:abc", []byte(`{"type":"stream.chunk"}`), false))

	events, _ := bus.History("session:abc", 0, 10)
	assert.Empty(t, events)
}

func TestHistory_RingBounded(t *testing.T) {
	bus := NewBus()
	for i := 0; i < historyLimit+20; i++ {
		require.NoError(t, bus.Publish("session:abc", []byte(`{"type":"phase.status"}`), true))
	}

	events, hasMore := bus.History("session:abc", 0, catchupLimit)
	assert.Len(t, events, catchupLimit)
	assert.True(t, hasMore)
	// The oldest entries were evicted.
	assert.Greater(t, events[0].ID, int64(1))
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	_, cancel := bus.Subscribe("session:abc")
	defer cancel()

	// Overfill the subscriber buffer; Publish must not block.
	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, bus.Publish("session:abc", []byte(`{"type":"phase.status"}`), true))
	}
}
