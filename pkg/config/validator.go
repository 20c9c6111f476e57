package config

import (
	"errors"
	"fmt"
)

// Validate checks the merged configuration for contradictions that
// would otherwise surface as confusing runtime failures.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	switch c.Guard.Backend {
	case "regex", "classifier":
	default:
		errs = append(errs, fmt.Errorf("guard.backend must be regex or classifier, got %q", c.Guard.Backend))
	}

	for id, srv := range c.MCPServers {
		if srv == nil {
			errs = append(errs, fmt.Errorf("mcp_servers.%s: empty configuration", id))
			continue
		}
		if !srv.Transport.Type.IsValid() {
			errs = append(errs, fmt.Errorf("mcp_servers.%s: invalid transport type %q", id, srv.Transport.Type))
			continue
		}
		switch srv.Transport.Type {
		case "stdio":
			if srv.Transport.Command == "" {
				errs = append(errs, fmt.Errorf("mcp_servers.%s: stdio transport requires command", id))
			}
		default:
			if srv.Transport.URL == "" {
				errs = append(errs, fmt.Errorf("mcp_servers.%s: %s transport requires url", id, srv.Transport.Type))
			}
		}
	}

	for name, p := range c.Providers {
		if p.Command == "" {
			errs = append(errs, fmt.Errorf("providers.%s: command is required", name))
		}
	}

	if c.Harness.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("harness.max_rounds must be at least 1, got %d", c.Harness.MaxRounds))
	}
	if c.Harness.MinScore < 0 || c.Harness.MinScore > 1 {
		errs = append(errs, fmt.Errorf("harness.min_score must be within [0, 1], got %g", c.Harness.MinScore))
	}
	for _, name := range c.Harness.Providers {
		if len(c.Providers) > 0 {
			if _, ok := c.Providers[name]; !ok {
				errs = append(errs, fmt.Errorf("harness.providers: %q is not a configured provider", name))
			}
		}
	}

	switch c.Compiler.Estimator {
	case "", "heuristic", "tiktoken":
	default:
		errs = append(errs, fmt.Errorf("compiler.estimator must be heuristic or tiktoken, got %q", c.Compiler.Estimator))
	}

	if c.Queue.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("queue.max_workers must be at least 1, got %d", c.Queue.MaxWorkers))
	}
	if c.Queue.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue.queue_size must be at least 1, got %d", c.Queue.QueueSize))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, errors.New("database.host is required when database is enabled"))
		}
		if c.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required when database is enabled"))
		}
	}

	return errors.Join(errs...)
}
