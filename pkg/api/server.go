// Package api serves the brain over HTTP: synchronous and queued
// orchestration, session and evidence reads, guard checks, and SSE
// event streams.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ygn-labs/ygn-brain/pkg/events"
	"github.com/ygn-labs/ygn-brain/pkg/mcp"
	"github.com/ygn-labs/ygn-brain/pkg/orchestrator"
	"github.com/ygn-labs/ygn-brain/pkg/queue"
	"github.com/ygn-labs/ygn-brain/pkg/services"
)

// OrchestrateTimeout bounds a synchronous orchestration request.
const OrchestrateTimeout = 60 * time.Second

// Server holds the handler dependencies.
type Server struct {
	orch      *orchestrator.Orchestrator
	sessions  *services.SessionService
	guard     *services.GuardService
	publisher *events.Publisher
	pool      *queue.WorkerPool
	monitor   *mcp.HealthMonitor
	logger    *slog.Logger
}

// ServerOption configures optional server behavior.
type ServerOption func(*Server)

// WithEventBus enables the SSE streaming endpoints and publishes
// session lifecycle events onto the given bus.
func WithEventBus(bus *events.Bus) ServerOption {
	return func(s *Server) { s.publisher = events.NewPublisher(bus) }
}

// WithWorkerPool enables asynchronous orchestration: queued submission,
// cancellation, and pool health.
func WithWorkerPool(pool *queue.WorkerPool) ServerOption {
	return func(s *Server) { s.pool = pool }
}

// WithMCPMonitor exposes per-server MCP health over the API.
func WithMCPMonitor(m *mcp.HealthMonitor) ServerOption {
	return func(s *Server) { s.monitor = m }
}

// NewServer creates an API server over an orchestrator. A nil
// orchestrator gets the default configuration.
func NewServer(orch *orchestrator.Orchestrator, opts ...ServerOption) *Server {
	if orch == nil {
		orch = orchestrator.New()
	}
	s := &Server{
		orch:     orch,
		sessions: services.NewSessionService(orch),
		guard:    services.NewGuardService(orch.Guard()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), securityHeaders(), requestLogger(s.logger))

	router.GET("/healthz", s.healthHandler)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orchestrate", s.orchestrateHandler)
		v1.GET("/sessions", s.listSessionsHandler)
		v1.GET("/sessions/:id", s.getSessionHandler)
		v1.GET("/sessions/:id/evidence", s.getEvidenceHandler)
		v1.POST("/guard/check", s.guardCheckHandler)
		v1.GET("/guard/stats", s.guardStatsHandler)
		v1.GET("/events/stream", s.streamGlobalEventsHandler)
		v1.GET("/sessions/:id/events/stream", s.streamSessionEventsHandler)
		v1.POST("/orchestrate/async", s.asyncOrchestrateHandler)
		v1.POST("/tasks/:id/cancel", s.cancelTaskHandler)
		v1.GET("/queue/health", s.queueHealthHandler)
		v1.GET("/mcp/health", s.mcpHealthHandler)
	}
	return router
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
