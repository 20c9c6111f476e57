package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Health check timing.
const (
	HealthInterval    = 15 * time.Second
	HealthPingTimeout = 5 * time.Second
)

// HealthStatus captures the health check result for a single MCP server.
// Tools holds the server-qualified names from the last successful probe.
type HealthStatus struct {
	ServerID  string    `json:"server_id"`
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
	ToolCount int       `json:"tool_count"`
	Tools     []string  `json:"tools,omitempty"`
}

// HealthMonitor periodically probes each configured server with
// ListTools on a dedicated long-lived client, reinitializing sessions
// that stop responding.
type HealthMonitor struct {
	factory  *ClientFactory
	registry *ServerRegistry

	checkInterval time.Duration
	pingTimeout   time.Duration

	client   *Client
	clientMu sync.Mutex

	// Tools from the last successful probe per server.
	toolCache   map[string][]*mcpsdk.Tool
	toolCacheMu sync.RWMutex

	statuses   map[string]*HealthStatus
	statusesMu sync.RWMutex

	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

func NewHealthMonitor(factory *ClientFactory, registry *ServerRegistry) *HealthMonitor {
	return &HealthMonitor{
		factory:       factory,
		registry:      registry,
		checkInterval: HealthInterval,
		pingTimeout:   HealthPingTimeout,
		toolCache:     make(map[string][]*mcpsdk.Tool),
		statuses:      make(map[string]*HealthStatus),
		logger:        slog.Default(),
	}
}

// Start launches the background check loop. Calling Start on a running
// monitor is a no-op.
func (m *HealthMonitor) Start(ctx context.Context) {
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.clientMu.Lock()
	client, err := m.factory.CreateClient(ctx, m.registry.ServerIDs())
	if err != nil {
		m.logger.Warn("Health monitor: failed to create initial client", "error", err)
	}
	m.client = client
	m.clientMu.Unlock()

	go m.loop(ctx)
}

// Stop shuts down the monitor and clears stale state so a subsequent
// Start begins clean.
func (m *HealthMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.done != nil {
		<-m.done
	}
	m.clientMu.Lock()
	if m.client != nil {
		_ = m.client.Close()
		m.client = nil
	}
	m.clientMu.Unlock()

	m.statusesMu.Lock()
	m.statuses = make(map[string]*HealthStatus)
	m.statusesMu.Unlock()

	m.toolCacheMu.Lock()
	m.toolCache = make(map[string][]*mcpsdk.Tool)
	m.toolCacheMu.Unlock()

	m.cancel = nil
	m.done = nil
}

func (m *HealthMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.ensureClient(ctx)
	m.checkAll(ctx)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ensureClient(ctx)
			m.checkAll(ctx)
		}
	}
}

// ensureClient recovers from a failed initial client creation without
// requiring a restart.
func (m *HealthMonitor) ensureClient(ctx context.Context) {
	m.clientMu.Lock()
	defer m.clientMu.Unlock()

	if m.client != nil {
		return
	}
	client, err := m.factory.CreateClient(ctx, m.registry.ServerIDs())
	if err != nil {
		m.logger.Warn("Health monitor: failed to recreate client", "error", err)
		return
	}
	m.client = client
	m.logger.Info("Health monitor: client recovered")
}

func (m *HealthMonitor) checkAll(ctx context.Context) {
	for _, serverID := range m.registry.ServerIDs() {
		m.checkServer(ctx, serverID)
	}
}

func (m *HealthMonitor) checkServer(ctx context.Context, serverID string) {
	m.clientMu.Lock()
	client := m.client
	m.clientMu.Unlock()

	if client == nil {
		m.setStatus(serverID, false, "health client not initialized", nil)
		return
	}

	// Drop the cached tool list so the probe exercises the connection
	// instead of returning stale data.
	client.InvalidateToolCache(serverID)

	checkCtx, checkCancel := context.WithTimeout(ctx, m.pingTimeout)
	defer checkCancel()

	tools, err := client.ListTools(checkCtx, serverID)
	if err != nil {
		m.logger.Debug("Health check failed, attempting reinitialize",
			"server", serverID, "error", err)

		reconCtx, reconCancel := context.WithTimeout(ctx, m.pingTimeout)
		defer reconCancel()

		if reinitErr := client.recreateSession(reconCtx, serverID); reinitErr != nil {
			m.setStatus(serverID, false, fmt.Sprintf("health check failed: %s", err.Error()), nil)
			m.logger.Warn("MCP server unhealthy", "server", serverID, "error", err)
			return
		}

		retryCtx, retryCancel := context.WithTimeout(ctx, m.pingTimeout)
		defer retryCancel()

		tools, err = client.ListTools(retryCtx, serverID)
		if err != nil {
			m.setStatus(serverID, false, fmt.Sprintf("health check failed after reinit: %s", err.Error()), nil)
			m.logger.Warn("MCP server unhealthy after reinit", "server", serverID, "error", err)
			return
		}
	}

	qualified := make([]string, 0, len(tools))
	for _, tool := range tools {
		qualified = append(qualified, QualifyToolName(serverID, tool.Name))
	}
	m.setStatus(serverID, true, "", qualified)

	m.toolCacheMu.Lock()
	m.toolCache[serverID] = tools
	m.toolCacheMu.Unlock()
}

func (m *HealthMonitor) setStatus(serverID string, healthy bool, errMsg string, tools []string) {
	m.statusesMu.Lock()
	defer m.statusesMu.Unlock()
	m.statuses[serverID] = &HealthStatus{
		ServerID:  serverID,
		Healthy:   healthy,
		LastCheck: time.Now(),
		Error:     errMsg,
		ToolCount: len(tools),
		Tools:     tools,
	}
}

// GetStatuses returns a copy of the current status per server.
func (m *HealthMonitor) GetStatuses() map[string]*HealthStatus {
	m.statusesMu.RLock()
	defer m.statusesMu.RUnlock()
	result := make(map[string]*HealthStatus, len(m.statuses))
	for k, v := range m.statuses {
		cp := *v
		result[k] = &cp
	}
	return result
}

// IsHealthy reports the last probe result for a server. Unknown servers
// are unhealthy.
func (m *HealthMonitor) IsHealthy(serverID string) bool {
	m.statusesMu.RLock()
	defer m.statusesMu.RUnlock()
	status, ok := m.statuses[serverID]
	return ok && status.Healthy
}

// CachedTools returns the tools from the last successful probe.
func (m *HealthMonitor) CachedTools(serverID string) []*mcpsdk.Tool {
	m.toolCacheMu.RLock()
	defer m.toolCacheMu.RUnlock()
	return m.toolCache[serverID]
}
