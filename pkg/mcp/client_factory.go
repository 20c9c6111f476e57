package mcp

import (
	"context"
	"fmt"
)

// ClientFactory creates initialized MCP clients from a server registry.
type ClientFactory struct {
	registry *ServerRegistry

	// createClientFn is a test seam for substituting client creation.
	createClientFn func(ctx context.Context, serverIDs []string) (*Client, error)
}

func NewClientFactory(registry *ServerRegistry) *ClientFactory {
	f := &ClientFactory{registry: registry}
	f.createClientFn = f.defaultCreateClient
	return f
}

// CreateClient builds a client connected to the given servers. A nil or
// empty list connects to every registered server.
func (f *ClientFactory) CreateClient(ctx context.Context, serverIDs []string) (*Client, error) {
	if len(serverIDs) == 0 {
		serverIDs = f.registry.ServerIDs()
	}
	return f.createClientFn(ctx, serverIDs)
}

func (f *ClientFactory) defaultCreateClient(ctx context.Context, serverIDs []string) (*Client, error) {
	client := newClient(f.registry)
	if err := client.Initialize(ctx, serverIDs); err != nil {
		return nil, fmt.Errorf("initialize MCP client: %w", err)
	}
	return client, nil
}

// Registry exposes the factory's server registry.
func (f *ClientFactory) Registry() *ServerRegistry {
	return f.registry
}
