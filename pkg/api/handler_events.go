package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ygn-labs/ygn-brain/pkg/events"
)

// streamGlobalEventsHandler handles GET /api/v1/events/stream. Streams
// session-level status events for the session list view.
func (s *Server) streamGlobalEventsHandler(c *gin.Context) {
	s.streamChannel(c, events.GlobalSessionsChannel)
}

// streamSessionEventsHandler handles GET /api/v1/sessions/:id/events/stream.
// Streams one session's phase, tool, and status events. Late subscribers
// first receive the channel history (resumable via ?last_event_id=N).
func (s *Server) streamSessionEventsHandler(c *gin.Context) {
	s.streamChannel(c, events.SessionChannel(c.Param("id")))
}

func (s *Server) streamChannel(c *gin.Context, channel string) {
	if s.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event streaming not enabled"})
		return
	}
	bus := s.publisher.Bus()

	var sinceID int64
	if raw := c.Query("last_event_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_event_id"})
			return
		}
		sinceID = parsed
	}

	// Subscribe before replaying history so no event falls in the gap.
	live, cancel := bus.Subscribe(channel)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	history, hasMore := bus.History(channel, sinceID, 0)
	for _, evt := range history {
		c.SSEvent("message", json.RawMessage(evt.Payload))
	}
	if hasMore {
		overflow, _ := json.Marshal(gin.H{
			"type":     "catchup.overflow",
			"channel":  channel,
			"has_more": true,
		})
		c.SSEvent("message", json.RawMessage(overflow))
	}
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-live:
			if !ok {
				return false
			}
			c.SSEvent("message", json.RawMessage(data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
