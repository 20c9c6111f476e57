package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ygn-labs/ygn-brain/pkg/version"
)

// healthHandler handles GET /healthz. Minimal unauthenticated liveness:
// external dependencies are deliberately excluded so an unhealthy tool
// server cannot get the brain restarted.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": version.GitCommit,
	})
}
