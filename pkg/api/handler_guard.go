package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GuardCheckRequest is the body for POST /api/v1/guard/check.
type GuardCheckRequest struct {
	Text string `json:"text" binding:"required"`
}

// GuardCheckResponse mirrors the guard verdict.
type GuardCheckResponse struct {
	Allowed     bool    `json:"allowed"`
	ThreatLevel string  `json:"threat_level"`
	Score       float64 `json:"score"`
	Reason      string  `json:"reason"`
	Backend     string  `json:"backend"`
}

func (s *Server) guardCheckHandler(c *gin.Context) {
	var req GuardCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.guard.Check(req.Text)
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, GuardCheckResponse{
		Allowed:     result.Allowed,
		ThreatLevel: string(result.Level),
		Score:       result.Score,
		Reason:      result.Reason,
		Backend:     result.Backend,
	})
}

func (s *Server) guardStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.guard.Stats())
}
