// Package mcp connects the brain to ygn-core tool servers over the Model
// Context Protocol, and wraps tool execution with timeouts, typed events,
// output normalization, and artifact externalization.
package mcp

import (
	"fmt"
	"sort"
	"sync"
)

// TransportType selects how an MCP server is reached.
type TransportType string

const (
	TransportTypeStdio TransportType = "stdio"
	TransportTypeHTTP  TransportType = "http"
	TransportTypeSSE   TransportType = "sse"
)

func (t TransportType) IsValid() bool {
	return t == TransportTypeStdio || t == TransportTypeHTTP || t == TransportTypeSSE
}

// TransportConfig describes one server's transport.
type TransportConfig struct {
	Type TransportType `yaml:"type"`

	// For stdio transport
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// For http/sse transport
	URL         string `yaml:"url,omitempty"`
	BearerToken string `yaml:"bearer_token,omitempty"`
	VerifySSL   *bool  `yaml:"verify_ssl,omitempty"`
	Timeout     int    `yaml:"timeout,omitempty"` // seconds
}

// ServerConfig is the configuration for one MCP tool server.
type ServerConfig struct {
	Transport TransportConfig `yaml:"transport"`

	// Instructions shown to the model when this server's tools are offered.
	Instructions string `yaml:"instructions,omitempty"`
}

// ServerRegistry stores server configurations with thread-safe access.
type ServerRegistry struct {
	mu      sync.RWMutex
	servers map[string]*ServerConfig
}

func NewServerRegistry(servers map[string]*ServerConfig) *ServerRegistry {
	if servers == nil {
		servers = make(map[string]*ServerConfig)
	}
	return &ServerRegistry{servers: servers}
}

// DefaultRegistry points at a local ygn-core process over stdio.
func DefaultRegistry() *ServerRegistry {
	return NewServerRegistry(map[string]*ServerConfig{
		"ygn-core": {
			Transport: TransportConfig{
				Type:    TransportTypeStdio,
				Command: "ygn-core",
				Args:    []string{"mcp"},
			},
		},
	})
}

// Get retrieves a server configuration by id.
func (r *ServerRegistry) Get(serverID string) (*ServerConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.servers[serverID]
	if !ok {
		return nil, fmt.Errorf("MCP server %q not configured", serverID)
	}
	return cfg, nil
}

// Register adds or replaces a server configuration.
func (r *ServerRegistry) Register(serverID string, cfg *ServerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[serverID] = cfg
}

// ServerIDs returns all configured server ids in stable order.
func (r *ServerRegistry) ServerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.servers))
	for id := range r.servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
