package mcp

import (
	"context"
)

// ToolExecutor runs one tool call and returns its text output. The
// interrupt handler depends on this seam rather than the client so tests
// can substitute stub tools.
type ToolExecutor interface {
	Execute(ctx context.Context, toolName string, args map[string]any) (string, error)
}

// ToolBridge adapts the MCP client to the ToolExecutor seam, resolving
// qualified "server.tool" names. Unqualified names go to the default
// server.
type ToolBridge struct {
	client        *Client
	defaultServer string
}

func NewToolBridge(client *Client, defaultServer string) *ToolBridge {
	return &ToolBridge{client: client, defaultServer: defaultServer}
}

func (b *ToolBridge) Execute(ctx context.Context, toolName string, args map[string]any) (string, error) {
	serverID, tool, err := SplitToolName(toolName)
	if err != nil {
		serverID, tool = b.defaultServer, toolName
	}
	return b.client.CallToolText(ctx, serverID, tool, args)
}
