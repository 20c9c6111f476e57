package events

import (
	"encoding/json"
	"sync"
)

// catchupLimit is the maximum number of history events replayed to a
// late subscriber. Beyond that an overflow marker is delivered and the
// client should reload state over REST.
const catchupLimit = 200

// historyLimit bounds the per-channel history ring.
const historyLimit = 256

// subscriberBuffer is the per-subscriber delivery buffer. Slow
// subscribers that fall further behind than this lose events.
const subscriberBuffer = 64

// StoredEvent is one event kept in channel history, with its position
// for catchup tracking.
type StoredEvent struct {
	ID      int64
	Payload []byte
}

// Bus is an in-process publish/subscribe hub. One instance per process;
// safe for concurrent use.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]chan []byte
	history     map[string][]StoredEvent
	nextSub     int
	nextEventID int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]map[int]chan []byte),
		history:     make(map[string][]StoredEvent),
	}
}

// Subscribe registers a subscriber on a channel. The returned cancel
// function must be called to release the subscription.
func (b *Bus) Subscribe(channel string) (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++

	ch := make(chan []byte, subscriberBuffer)
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]chan []byte)
	}
	b.subscribers[channel][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[channel]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.subscribers, channel)
			}
		}
	}
	return ch, cancel
}

// Publish delivers a payload to all live subscribers. Persistent events
// are also appended to the channel history with an assigned event id;
// the enriched payload (with event_id) is what subscribers receive.
// Slow subscribers are skipped rather than blocked.
func (b *Bus) Publish(channel string, payload []byte, persist bool) error {
	b.mu.Lock()

	out := payload
	if persist {
		b.nextEventID++
		enriched, err := injectEventID(payload, b.nextEventID)
		if err != nil {
			b.mu.Unlock()
			return err
		}
		out = enriched

		ring := append(b.history[channel], StoredEvent{ID: b.nextEventID, Payload: out})
		if len(ring) > historyLimit {
			ring = ring[len(ring)-historyLimit:]
		}
		b.history[channel] = ring
	}

	subs := make([]chan []byte, 0, len(b.subscribers[channel]))
	for _, ch := range b.subscribers[channel] {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- out:
		default:
			// Subscriber buffer full; catchup covers persistent events.
		}
	}
	return nil
}

// History returns up to limit stored events after sinceID, plus whether
// more events were missed beyond the limit.
func (b *Bus) History(channel string, sinceID int64, limit int) ([]StoredEvent, bool) {
	if limit <= 0 || limit > catchupLimit {
		limit = catchupLimit
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []StoredEvent
	for _, evt := range b.history[channel] {
		if evt.ID <= sinceID {
			continue
		}
		out = append(out, evt)
		if len(out) > limit {
			return out[:limit], true
		}
	}
	return out, false
}

// SubscriberCount returns the number of live subscribers on a channel.
func (b *Bus) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}

// injectEventID adds event_id to the JSON payload so clients can
// track their catchup position.
func injectEventID(payload []byte, id int64) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	m["event_id"] = id
	return json.Marshal(m)
}
