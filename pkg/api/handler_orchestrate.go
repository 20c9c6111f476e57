package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ygn-labs/ygn-brain/pkg/events"
	"github.com/ygn-labs/ygn-brain/pkg/orchestrator"
)

// OrchestrateRequest is the body for POST /api/v1/orchestrate.
type OrchestrateRequest struct {
	Task string `json:"task" binding:"required"`
	// Mode selects the run style: "pipeline" (default), "compiled", or
	// "refined".
	Mode string `json:"mode,omitempty"`
	// Budget is the token budget for compiled runs.
	Budget int `json:"budget,omitempty"`
}

func (s *Server) orchestrateHandler(c *gin.Context) {
	var req OrchestrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), OrchestrateTimeout)
	defer cancel()

	switch req.Mode {
	case "", "pipeline":
		result, err := s.orch.Run(ctx, req.Task)
		if err != nil {
			abortServiceError(c, err)
			return
		}
		s.publishOutcome(result)
		c.JSON(http.StatusOK, result)

	case "compiled":
		budget := req.Budget
		if budget <= 0 {
			budget = 4096
		}
		result, err := s.orch.RunCompiled(ctx, req.Task, budget, nil)
		if err != nil {
			abortServiceError(c, err)
			return
		}
		s.publishOutcome(result.Result)
		c.JSON(http.StatusOK, result)

	case "refined":
		result, err := s.orch.RunRefined(ctx, req.Task)
		if err != nil {
			abortServiceError(c, err)
			return
		}
		s.publishOutcome(result.Result)
		c.JSON(http.StatusOK, result)

	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid mode: must be pipeline, compiled, or refined",
		})
	}
}

// publishOutcome broadcasts the terminal session status. Best-effort:
// delivery failures never affect the HTTP response.
func (s *Server) publishOutcome(result orchestrator.Result) {
	if s.publisher == nil {
		return
	}
	status := "completed"
	if result.Blocked {
		status = "blocked"
	}
	_ = s.publisher.PublishSessionStatus(events.NewSessionStatus(result.SessionID, status))
}
