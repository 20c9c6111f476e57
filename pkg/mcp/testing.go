package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// InjectSession installs a pre-built SDK session for a server, bypassing
// transport creation. Test-only seam.
func (c *Client) InjectSession(serverID string, session *mcpsdk.ClientSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[serverID] = session
}

// NewTestClient returns a client over the given registry without
// connecting to anything. Pair with InjectSession.
func NewTestClient(registry *ServerRegistry) *Client {
	if registry == nil {
		registry = NewServerRegistry(nil)
	}
	return newClient(registry)
}

// NewTestClientFactory returns a factory whose CreateClient yields
// unconnected clients.
func NewTestClientFactory(registry *ServerRegistry) *ClientFactory {
	if registry == nil {
		registry = NewServerRegistry(nil)
	}
	f := NewClientFactory(registry)
	f.createClientFn = func(_ context.Context, _ []string) (*Client, error) {
		return newClient(registry), nil
	}
	return f
}
