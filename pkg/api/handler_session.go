package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listSessionsHandler handles GET /api/v1/sessions.
func (s *Server) listSessionsHandler(c *gin.Context) {
	summaries := s.sessions.ListSessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": summaries,
		"count":    len(summaries),
	})
}

// getSessionHandler handles GET /api/v1/sessions/:id.
func (s *Server) getSessionHandler(c *gin.Context) {
	detail, err := s.sessions.GetSession(c.Param("id"))
	if err != nil {
		abortServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// getEvidenceHandler handles GET /api/v1/sessions/:id/evidence.
func (s *Server) getEvidenceHandler(c *gin.Context) {
	export, err := s.sessions.GetEvidence(c.Param("id"))
	if err != nil {
		abortServiceError(c, err)
		return
	}

	// ?format=jsonl streams the raw export instead of the JSON envelope.
	if c.Query("format") == "jsonl" {
		c.Data(http.StatusOK, "application/jsonl", []byte(export.JSONL))
		return
	}
	c.JSON(http.StatusOK, export)
}
