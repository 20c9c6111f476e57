package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerRegistry_GetUnknown(t *testing.T) {
	registry := NewServerRegistry(nil)
	_, err := registry.Get("missing")
	assert.ErrorContains(t, err, `MCP server "missing" not configured`)
}

func TestServerRegistry_RegisterAndGet(t *testing.T) {
	registry := NewServerRegistry(nil)
	registry.Register("core", &ServerConfig{
		Transport: TransportConfig{Type: TransportTypeStdio, Command: "ygn-core"},
	})

	cfg, err := registry.Get("core")
	require.NoError(t, err)
	assert.Equal(t, "ygn-core", cfg.Transport.Command)
	assert.Equal(t, []string{"core"}, registry.ServerIDs())
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()
	cfg, err := registry.Get("ygn-core")
	require.NoError(t, err)
	assert.Equal(t, TransportTypeStdio, cfg.Transport.Type)
	assert.Equal(t, []string{"mcp"}, cfg.Transport.Args)
}

func TestTransportTypeIsValid(t *testing.T) {
	assert.True(t, TransportTypeStdio.IsValid())
	assert.True(t, TransportTypeHTTP.IsValid())
	assert.True(t, TransportTypeSSE.IsValid())
	assert.False(t, TransportType("grpc").IsValid())
}

func TestCreateTransport_Validation(t *testing.T) {
	_, err := createTransport(TransportConfig{Type: TransportTypeStdio})
	assert.ErrorContains(t, err, "requires command")

	_, err = createTransport(TransportConfig{Type: TransportTypeHTTP})
	assert.ErrorContains(t, err, "requires url")

	_, err = createTransport(TransportConfig{Type: "bogus"})
	assert.ErrorContains(t, err, "unsupported transport type")
}
