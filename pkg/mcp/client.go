package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ygn-labs/ygn-brain/pkg/version"
)

// Client manages MCP SDK sessions for the configured tool servers.
// Thread-safe: sessions may be used from multiple goroutines during
// parallel swarm stages.
type Client struct {
	registry *ServerRegistry

	mu            sync.RWMutex
	sessions      map[string]*mcpsdk.ClientSession
	clients       map[string]*mcpsdk.Client
	failedServers map[string]string

	// Tool cache, populated on first ListTools. Client instances are
	// short-lived per run, so the cache is naturally fresh.
	toolCache   map[string][]*mcpsdk.Tool
	toolCacheMu sync.RWMutex

	// Per-server mutex for session recreation.
	reinitMu sync.Map

	logger *slog.Logger
}

func newClient(registry *ServerRegistry) *Client {
	return &Client{
		registry:      registry,
		sessions:      make(map[string]*mcpsdk.ClientSession),
		clients:       make(map[string]*mcpsdk.Client),
		failedServers: make(map[string]string),
		toolCache:     make(map[string][]*mcpsdk.Tool),
		logger:        slog.Default(),
	}
}

// Initialize connects to the given servers. Servers that fail to connect
// are recorded in failedServers rather than aborting the rest; the
// caller decides whether partial initialization is acceptable.
func (c *Client) Initialize(ctx context.Context, serverIDs []string) error {
	for _, serverID := range serverIDs {
		if err := c.InitializeServer(ctx, serverID); err != nil {
			c.mu.Lock()
			c.failedServers[serverID] = err.Error()
			c.mu.Unlock()
			c.logger.Warn("MCP server failed to initialize",
				"server", serverID, "error", err)
		}
	}
	return nil
}

// InitializeServer connects to a single server. Returns nil if already
// connected. Serialized per server to prevent duplicate handshakes.
func (c *Client) InitializeServer(ctx context.Context, serverID string) error {
	muI, _ := c.reinitMu.LoadOrStore(serverID, &sync.Mutex{})
	mu := muI.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	return c.initializeServerLocked(ctx, serverID)
}

func (c *Client) initializeServerLocked(ctx context.Context, serverID string) error {
	c.mu.RLock()
	if _, exists := c.sessions[serverID]; exists {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	serverCfg, err := c.registry.Get(serverID)
	if err != nil {
		return err
	}

	transport, err := createTransport(serverCfg.Transport)
	if err != nil {
		return fmt.Errorf("create transport for %q: %w", serverID, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    version.AppName,
		Version: version.GitCommit,
	}, nil)

	session, err := client.Connect(initCtx, transport, nil)
	if err != nil {
		// Close the transport if it holds resources (stdio child
		// processes) so a failed handshake does not leak them.
		if closer, ok := transport.(io.Closer); ok {
			_ = closer.Close()
		}
		return fmt.Errorf("connect to %q: %w", serverID, err)
	}

	c.mu.Lock()
	c.sessions[serverID] = session
	c.clients[serverID] = client
	delete(c.failedServers, serverID)
	c.mu.Unlock()

	c.logger.Info("MCP server connected", "server", serverID)
	return nil
}

// ListTools returns tools from a server, using the cache when populated.
func (c *Client) ListTools(ctx context.Context, serverID string) ([]*mcpsdk.Tool, error) {
	// Lock ordering: never acquire c.mu while holding toolCacheMu.
	c.toolCacheMu.RLock()
	if cached, ok := c.toolCache[serverID]; ok {
		c.toolCacheMu.RUnlock()
		return cached, nil
	}
	c.toolCacheMu.RUnlock()

	c.mu.RLock()
	session, exists := c.sessions[serverID]
	c.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no session for server %q", serverID)
	}

	opCtx, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	result, err := session.ListTools(opCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("list tools from %q: %w", serverID, err)
	}

	tools := result.Tools
	if tools == nil {
		tools = []*mcpsdk.Tool{}
	}
	c.toolCacheMu.Lock()
	c.toolCache[serverID] = tools
	c.toolCacheMu.Unlock()

	return tools, nil
}

// ListAllTools returns tools from all connected servers. Partial results
// are returned when some servers fail; an error is returned only when
// every server fails.
func (c *Client) ListAllTools(ctx context.Context) (map[string][]*mcpsdk.Tool, error) {
	c.mu.RLock()
	serverIDs := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		serverIDs = append(serverIDs, id)
	}
	c.mu.RUnlock()

	result := make(map[string][]*mcpsdk.Tool)
	var lastErr error
	for _, id := range serverIDs {
		tools, err := c.ListTools(ctx, id)
		if err != nil {
			lastErr = err
			c.logger.Warn("Failed to list tools from MCP server",
				"server", id, "error", err)
			continue
		}
		result[id] = tools
	}

	if len(result) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all servers failed to list tools: %w", lastErr)
	}
	return result, nil
}

// CallTool executes a tool call on the given server. Transport failures
// get at most one retry after a jittered backoff, recreating the session
// when the error classification calls for it.
func (c *Client) CallTool(ctx context.Context, serverID, toolName string, args map[string]any) (*mcpsdk.CallToolResult, error) {
	params := &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	}

	result, err := c.callToolOnce(ctx, serverID, params)
	if err == nil {
		return result, nil
	}

	action := ClassifyError(err)
	if action == NoRetry {
		return nil, err
	}

	c.logger.Info("MCP call failed, retrying",
		"server", serverID, "tool", toolName,
		"action", action, "error", err)

	backoff := RetryBackoffMin + time.Duration(rand.Int64N(int64(RetryBackoffMax-RetryBackoffMin)))
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if action == RetryNewSession {
		if err := c.recreateSession(ctx, serverID); err != nil {
			return nil, fmt.Errorf("session recreation failed for %q: %w", serverID, err)
		}
	}

	result, err = c.callToolOnce(ctx, serverID, params)
	if err != nil {
		return nil, fmt.Errorf("retry failed for %q.%s: %w", serverID, toolName, err)
	}
	return result, nil
}

// CallToolText calls a tool and returns the concatenated text content of
// the response.
func (c *Client) CallToolText(ctx context.Context, serverID, toolName string, args map[string]any) (string, error) {
	result, err := c.CallTool(ctx, serverID, toolName, args)
	if err != nil {
		return "", err
	}
	return TextContent(result), nil
}

// TextContent extracts and joins the text items of a tool result.
func TextContent(result *mcpsdk.CallToolResult) string {
	if result == nil {
		return ""
	}
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcpsdk.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c *Client) callToolOnce(ctx context.Context, serverID string, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error) {
	c.mu.RLock()
	session, exists := c.sessions[serverID]
	c.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no session for server %q", serverID)
	}

	opCtx, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	return session.CallTool(opCtx, params)
}

// recreateSession tears down and recreates the session for a server.
func (c *Client) recreateSession(ctx context.Context, serverID string) error {
	muI, _ := c.reinitMu.LoadOrStore(serverID, &sync.Mutex{})
	mu := muI.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	c.mu.Lock()
	if session, exists := c.sessions[serverID]; exists {
		_ = session.Close()
		delete(c.sessions, serverID)
		delete(c.clients, serverID)
	}
	c.mu.Unlock()

	c.InvalidateToolCache(serverID)

	reinitCtx, cancel := context.WithTimeout(ctx, ReinitTimeout)
	defer cancel()

	return c.initializeServerLocked(reinitCtx, serverID)
}

// Close shuts down all sessions. Stdio servers get EOF on stdin and the
// SDK waits for them before killing.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for id, session := range c.sessions {
		if err := session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close session %q: %w", id, err)
		}
	}

	c.sessions = make(map[string]*mcpsdk.ClientSession)
	c.clients = make(map[string]*mcpsdk.Client)
	c.failedServers = make(map[string]string)

	c.toolCacheMu.Lock()
	c.toolCache = make(map[string][]*mcpsdk.Tool)
	c.toolCacheMu.Unlock()

	return firstErr
}

// InvalidateToolCache drops the cached tool list for a server, forcing
// the next ListTools to re-probe it.
func (c *Client) InvalidateToolCache(serverID string) {
	c.toolCacheMu.Lock()
	delete(c.toolCache, serverID)
	c.toolCacheMu.Unlock()
}

// HasSession reports whether a server has an active session.
func (c *Client) HasSession(serverID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.sessions[serverID]
	return exists
}

// FailedServers returns the servers that failed to initialize.
func (c *Client) FailedServers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]string, len(c.failedServers))
	for k, v := range c.failedServers {
		result[k] = v
	}
	return result
}
