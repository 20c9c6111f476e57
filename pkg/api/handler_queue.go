package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ygn-labs/ygn-brain/pkg/queue"
)

// AsyncOrchestrateResponse acknowledges a queued submission. The task id
// keys cancellation and the session events stream once processing starts.
type AsyncOrchestrateResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// asyncOrchestrateHandler handles POST /api/v1/orchestrate/async. The
// task is queued on the worker pool and processed in the background.
func (s *Server) asyncOrchestrateHandler(c *gin.Context) {
	if s.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async orchestration not enabled"})
		return
	}

	var req OrchestrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Mode {
	case "", "pipeline", "compiled", "refined":
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid mode: must be pipeline, compiled, or refined",
		})
		return
	}

	task := queue.Task{
		SessionID:  uuid.NewString(),
		Input:      req.Task,
		Mode:       req.Mode,
		EnqueuedAt: time.Now(),
	}
	if err := s.pool.Submit(task); err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "queue full, retry later"})
		case errors.Is(err, queue.ErrPoolStopped):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
		default:
			abortServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusAccepted, AsyncOrchestrateResponse{TaskID: task.SessionID, Status: "queued"})
}

// cancelTaskHandler handles POST /api/v1/tasks/:id/cancel. Only tasks
// currently executing can be cancelled; still-queued tasks are not in
// the cancel registry yet.
func (s *Server) cancelTaskHandler(c *gin.Context) {
	if s.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async orchestration not enabled"})
		return
	}
	id := c.Param("id")
	if !s.pool.CancelSession(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active task with that id"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": id, "status": "cancelling"})
}

// queueHealthHandler handles GET /api/v1/queue/health.
func (s *Server) queueHealthHandler(c *gin.Context) {
	if s.pool == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async orchestration not enabled"})
		return
	}
	c.JSON(http.StatusOK, s.pool.Health())
}

// mcpHealthHandler handles GET /api/v1/mcp/health, reporting the last
// probe result per configured tool server.
func (s *Server) mcpHealthHandler(c *gin.Context) {
	if s.monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "MCP monitoring not enabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"servers": s.monitor.GetStatuses()})
}
