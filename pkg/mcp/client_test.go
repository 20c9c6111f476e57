package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emptySchema = json.RawMessage(`{"type":"object"}`)

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

// startTestServer creates an in-memory MCP server with the given tools
// and runs it in the background.
func startTestServer(t *testing.T, name string, tools map[string]mcpsdk.ToolHandler) *mcpsdk.InMemoryTransport {
	t.Helper()

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name: name, Version: "test",
	}, nil)

	for toolName, handler := range tools {
		server.AddTool(&mcpsdk.Tool{
			Name:        toolName,
			Description: "test tool: " + toolName,
			InputSchema: emptySchema,
		}, handler)
	}

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	go func() {
		_ = server.Run(context.Background(), serverTransport)
	}()
	return clientTransport
}

// connectClientDirect wires a client to an in-memory transport, bypassing
// the registry/createTransport path.
func connectClientDirect(t *testing.T, serverID string, transport *mcpsdk.InMemoryTransport) *Client {
	t.Helper()

	client := NewTestClient(nil)
	sdkClient := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name: "ygn-brain-test", Version: "test",
	}, nil)

	session, err := sdkClient.Connect(context.Background(), transport, nil)
	require.NoError(t, err)
	client.InjectSession(serverID, session)

	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_ListTools(t *testing.T) {
	transport := startTestServer(t, "ygn-core", map[string]mcpsdk.ToolHandler{
		"read_file": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return textResult("ok"), nil
		},
		"search": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return textResult("ok"), nil
		},
	})

	client := connectClientDirect(t, "ygn-core", transport)

	tools, err := client.ListTools(context.Background(), "ygn-core")
	require.NoError(t, err)
	require.Len(t, tools, 2)

	names := []string{tools[0].Name, tools[1].Name}
	assert.Contains(t, names, "read_file")
	assert.Contains(t, names, "search")
}

func TestClient_ListTools_Cached(t *testing.T) {
	transport := startTestServer(t, "ygn-core", map[string]mcpsdk.ToolHandler{
		"read_file": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return textResult("ok"), nil
		},
	})
	client := connectClientDirect(t, "ygn-core", transport)
	ctx := context.Background()

	tools1, err := client.ListTools(ctx, "ygn-core")
	require.NoError(t, err)
	tools2, err := client.ListTools(ctx, "ygn-core")
	require.NoError(t, err)
	assert.Equal(t, tools1, tools2)

	client.InvalidateToolCache("ygn-core")
	tools3, err := client.ListTools(ctx, "ygn-core")
	require.NoError(t, err)
	assert.Len(t, tools3, 1)
}

func TestClient_ListTools_NoSession(t *testing.T) {
	client := NewTestClient(nil)
	_, err := client.ListTools(context.Background(), "ghost")
	assert.ErrorContains(t, err, `no session for server "ghost"`)
}

func TestClient_CallToolText(t *testing.T) {
	transport := startTestServer(t, "ygn-core", map[string]mcpsdk.ToolHandler{
		"echo": func(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			var args map[string]any
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, err
			}
			msg, _ := args["message"].(string)
			return textResult("echo: " + msg), nil
		},
	})
	client := connectClientDirect(t, "ygn-core", transport)

	text, err := client.CallToolText(context.Background(), "ygn-core", "echo",
		map[string]any{"message": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", text)
}

func TestClient_CallTool_MissingServer(t *testing.T) {
	client := NewTestClient(nil)
	_, err := client.CallTool(context.Background(), "ghost", "echo", nil)
	assert.ErrorContains(t, err, `no session for server "ghost"`)
}

func TestClient_HasSessionAndClose(t *testing.T) {
	transport := startTestServer(t, "ygn-core", map[string]mcpsdk.ToolHandler{
		"noop": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return textResult(""), nil
		},
	})
	client := connectClientDirect(t, "ygn-core", transport)

	assert.True(t, client.HasSession("ygn-core"))
	require.NoError(t, client.Close())
	assert.False(t, client.HasSession("ygn-core"))
}

func TestClient_InitializeRecordsFailures(t *testing.T) {
	registry := NewServerRegistry(map[string]*ServerConfig{
		"bad": {Transport: TransportConfig{Type: "bogus"}},
	})
	client := newClient(registry)

	require.NoError(t, client.Initialize(context.Background(), []string{"bad"}))
	failed := client.FailedServers()
	require.Contains(t, failed, "bad")
	assert.Contains(t, failed["bad"], "unsupported transport type")
}

func TestTextContent(t *testing.T) {
	result := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: "first"},
			&mcpsdk.TextContent{Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", TextContent(result))
	assert.Equal(t, "", TextContent(nil))
}

func TestClientFactory_CreateClientSeam(t *testing.T) {
	factory := NewTestClientFactory(DefaultRegistry())
	client, err := factory.CreateClient(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.False(t, client.HasSession("ygn-core"))
}
