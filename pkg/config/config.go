// Package config loads and validates the brain's YAML configuration.
//
// One file, ygn-brain.yaml, holds everything: the HTTP server, MCP tool
// servers, CLI providers, guard, memory, masking, refinement, queue,
// retention, and database settings. Environment variables are expanded
// with {{.VAR}} template syntax before parsing.
package config

import (
	"github.com/ygn-labs/ygn-brain/pkg/masking"
	"github.com/ygn-labs/ygn-brain/pkg/mcp"
)

// Config is the fully loaded, validated runtime configuration.
type Config struct {
	Server     ServerConfig                 `yaml:"server"`
	ModelID    string                       `yaml:"model_id"`
	MCPServers map[string]*mcp.ServerConfig `yaml:"mcp_servers"`
	Providers  map[string]ProviderConfig    `yaml:"providers"`
	Guard      GuardConfig                  `yaml:"guard"`
	Memory     MemoryConfig                 `yaml:"memory"`
	Masking    masking.Config               `yaml:"masking"`
	Harness    HarnessConfig                `yaml:"harness"`
	Compiler   CompilerConfig               `yaml:"compiler"`
	Queue      QueueConfig                  `yaml:"queue"`
	Retention  RetentionConfig              `yaml:"retention"`
	Evidence   EvidenceConfig               `yaml:"evidence"`
	Database   DatabaseConfig               `yaml:"database"`
}

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ProviderConfig describes one CLI model provider.
type ProviderConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Model   string   `yaml:"model,omitempty"`
	// TimeoutSec bounds a single provider call. Zero means the provider
	// package default.
	TimeoutSec int `yaml:"timeout_sec,omitempty"`
}

// GuardConfig selects the guard backend and its settings.
type GuardConfig struct {
	// Backend is "regex" or "classifier".
	Backend string `yaml:"backend"`
	// ToolWhitelist restricts which tools agents may invoke. Empty
	// allows any.
	ToolWhitelist []string `yaml:"tool_whitelist,omitempty"`
	// RateLimitPerMinute bounds tool invocations per session.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute,omitempty"`
}

// MemoryConfig holds tiered memory settings.
type MemoryConfig struct {
	// Semantic enables the vector index.
	Semantic SemanticConfig `yaml:"semantic"`
}

// SemanticConfig holds vector index settings.
type SemanticConfig struct {
	Enabled     bool   `yaml:"enabled"`
	PersistPath string `yaml:"persist_path,omitempty"`
}

// HarnessConfig holds the refinement loop settings.
type HarnessConfig struct {
	MaxRounds             int      `yaml:"max_rounds"`
	MinScore              float64  `yaml:"min_score"`
	Providers             []string `yaml:"providers"`
	CandidatesPerProvider int      `yaml:"candidates_per_provider"`
}

// CompilerConfig selects how the context compiler counts tokens.
type CompilerConfig struct {
	// Estimator is "heuristic" or "tiktoken".
	Estimator string `yaml:"estimator"`
	// Encoding names the BPE encoding for the tiktoken estimator, e.g.
	// "cl100k_base". Empty uses the compiler package default.
	Encoding string `yaml:"encoding,omitempty"`
}

// QueueConfig holds the orchestration worker pool settings.
type QueueConfig struct {
	MaxWorkers int `yaml:"max_workers"`
	QueueSize  int `yaml:"queue_size"`
}

// RetentionConfig holds evidence and session retention settings.
type RetentionConfig struct {
	// MaxAgeHours is how long finished sessions are kept. Zero disables
	// cleanup.
	MaxAgeHours int `yaml:"max_age_hours"`
	// IntervalMinutes is how often the cleanup pass runs.
	IntervalMinutes int `yaml:"interval_minutes"`
}

// EvidenceConfig holds evidence pack settings.
type EvidenceConfig struct {
	// SigningSeedEnv names the environment variable holding the 32-byte
	// hex ed25519 seed. Empty disables signing.
	SigningSeedEnv string `yaml:"signing_seed_env,omitempty"`
	// OutputDir is where packs are saved as JSONL on session finish.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// DatabaseConfig holds Postgres connection settings. The password comes
// from the environment, never from YAML.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"ssl_mode"`
}

// Stats reports counts of loaded configuration items for startup logs.
type Stats struct {
	MCPServers int
	Providers  int
}

func (c *Config) Stats() Stats {
	return Stats{
		MCPServers: len(c.MCPServers),
		Providers:  len(c.Providers),
	}
}

// ServerRegistry builds the MCP server registry from configuration.
func (c *Config) ServerRegistry() *mcp.ServerRegistry {
	if len(c.MCPServers) == 0 {
		return mcp.DefaultRegistry()
	}
	return mcp.NewServerRegistry(c.MCPServers)
}
