package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the expected configuration file name inside the
// configuration directory.
const ConfigFileName = "ygn-brain.yaml"

// Initialize loads, merges, and validates the configuration from
// configDir. A missing file is not an error: the defaults alone form a
// working single-process configuration.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	logger := slog.With("config_dir", configDir)

	path := filepath.Join(configDir, ConfigFileName)
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	stats := cfg.Stats()
	logger.InfoContext(ctx, "Configuration loaded",
		"mcp_servers", stats.MCPServers,
		"providers", stats.Providers,
		"guard_backend", cfg.Guard.Backend,
		"database_enabled", cfg.Database.Enabled,
		"masking_enabled", cfg.Masking.Enabled)
	return cfg, nil
}

// Load reads one YAML file, expands environment variables, and merges
// the result over the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Info("No configuration file found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(ExpandEnv(data), &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}
	return cfg, nil
}
