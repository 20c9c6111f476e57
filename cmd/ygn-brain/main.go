// ygn-brain server — provides the HTTP API and MCP tool surface, manages
// queue workers, and orchestrates cognitive sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ygn-labs/ygn-brain/pkg/api"
	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/cleanup"
	"github.com/ygn-labs/ygn-brain/pkg/compiler"
	"github.com/ygn-labs/ygn-brain/pkg/config"
	"github.com/ygn-labs/ygn-brain/pkg/database"
	"github.com/ygn-labs/ygn-brain/pkg/events"
	"github.com/ygn-labs/ygn-brain/pkg/guard"
	"github.com/ygn-labs/ygn-brain/pkg/harness"
	"github.com/ygn-labs/ygn-brain/pkg/masking"
	"github.com/ygn-labs/ygn-brain/pkg/mcp"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
	"github.com/ygn-labs/ygn-brain/pkg/orchestrator"
	"github.com/ygn-labs/ygn-brain/pkg/queue"
	"github.com/ygn-labs/ygn-brain/pkg/server"
	"github.com/ygn-labs/ygn-brain/pkg/session"
	"github.com/ygn-labs/ygn-brain/pkg/swarm"
	"github.com/ygn-labs/ygn-brain/pkg/version"
)

const shutdownTimeout = 30 * time.Second

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	mcpMode := flag.Bool("mcp", false,
		"Serve the brain as an MCP tool server over stdio instead of HTTP")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting ygn-brain",
		"version", version.GitCommit,
		"config_dir", *configDir,
		"mcp_mode", *mcpMode)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Assemble the cognitive core
	guardPipeline := buildGuard(cfg)
	tiered := memory.NewTieredService()

	var semantic *memory.SemanticIndex
	if cfg.Memory.Semantic.Enabled {
		semantic, err = memory.NewSemanticIndex(cfg.Memory.Semantic.PersistPath, nil)
		if err != nil {
			slog.Error("Failed to open semantic index", "error", err)
			os.Exit(1)
		}
	}

	estimator, err := compiler.SelectEstimator(cfg.Compiler.Estimator, cfg.Compiler.Encoding)
	if err != nil {
		slog.Error("Failed to build token estimator", "error", err)
		os.Exit(1)
	}

	swarmEngine := swarm.NewEngine()
	generator := harness.NewMultiProviderGenerator()
	generator.Settings = providerSettings(cfg)
	orch := orchestrator.New(
		orchestrator.WithGuard(guardPipeline),
		orchestrator.WithMemory(tiered),
		orchestrator.WithSwarm(swarmEngine),
		orchestrator.WithModelID(cfg.ModelID),
		orchestrator.WithEstimator(estimator),
		orchestrator.WithHarness(generator, harness.Config{
			MaxRounds:             cfg.Harness.MaxRounds,
			MinScore:              cfg.Harness.MinScore,
			Providers:             cfg.Harness.Providers,
			CandidatesPerProvider: cfg.Harness.CandidatesPerProvider,
		}),
		orchestrator.WithSigningSeed(signingSeed(cfg)),
	)
	slog.Info("Cognitive core initialized", "model_id", cfg.ModelID)

	registry := cfg.ServerRegistry()
	mcpFactory := mcp.NewClientFactory(registry)

	// 3. MCP stdio mode: no HTTP, no database, serve tools until EOF.
	// Configured downstream tool servers are proxied behind tool_call.
	if *mcpMode {
		brainOpts := []server.Option{
			server.WithOrchestrator(orch),
			server.WithGuard(guardPipeline),
			server.WithMemory(tiered),
			server.WithSwarm(swarmEngine),
			server.WithSemanticIndex(semantic),
		}
		if len(cfg.MCPServers) > 0 {
			toolClient, err := mcpFactory.CreateClient(ctx, registry.ServerIDs())
			if err != nil {
				slog.Error("Failed to connect to tool servers", "error", err)
				os.Exit(1)
			}
			defer func() { _ = toolClient.Close() }()

			handler := mcp.NewInterruptHandler(
				mcp.NewToolBridge(toolClient, registry.ServerIDs()[0]),
				session.New(cfg.ModelID),
				mcp.WithArtifactStore(artifact.NewMemoryStore()),
				mcp.WithAligner(mcp.NewAlignerWithMasker(nil, masking.NewService(cfg.Masking))),
				mcp.WithToolGuard(guard.NewToolInvocationGuard(
					cfg.Guard.ToolWhitelist, cfg.Guard.RateLimitPerMinute)),
			)
			brainOpts = append(brainOpts, server.WithToolHandler(handler))
		}
		brain := server.New(brainOpts...)
		if err := brain.Run(ctx); err != nil {
			slog.Error("MCP server exited with error", "error", err)
			os.Exit(1)
		}
		return
	}

	// 4. Validate configured MCP tool servers and start health monitoring.
	// Validation is eager only for explicitly configured servers; the
	// default ygn-core entry may not be installed on this host.

	var healthMonitor *mcp.HealthMonitor
	if len(cfg.MCPServers) > 0 {
		validationClient, mcpErr := mcpFactory.CreateClient(ctx, registry.ServerIDs())
		if mcpErr != nil {
			slog.Error("MCP startup validation failed", "error", mcpErr)
			os.Exit(1)
		}
		if failed := validationClient.FailedServers(); len(failed) > 0 {
			slog.Error("MCP servers failed startup validation", "failed_servers", failed)
			_ = validationClient.Close()
			os.Exit(1)
		}
		_ = validationClient.Close()
		slog.Info("MCP servers validated", "count", len(registry.ServerIDs()))

		healthMonitor = mcp.NewHealthMonitor(mcpFactory, registry)
		healthMonitor.Start(ctx)
		defer healthMonitor.Stop()
		slog.Info("MCP health monitor started")
	}

	// 5. Initialize database (optional)
	var dbClient *database.Client
	if cfg.Database.Enabled {
		dbClient, err = database.NewClient(ctx, databaseConfig(cfg))
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		slog.Info("Connected to PostgreSQL database")
	}

	// 6. Initialize event bus
	bus := events.NewBus()
	publisher := events.NewPublisher(bus)

	// 7. Start worker pool (before HTTP server)
	executor := queue.NewOrchestratorExecutor(orch)
	pool := queue.NewWorkerPool(&cfg.Queue, executor,
		queue.WithCompletionFunc(completionHook(orch, dbClient, publisher, cfg)),
	)
	pool.Start(ctx)

	// 8. Start retention cleanup
	var retention *cleanup.Service
	if dbClient != nil {
		retention = cleanup.NewService(&cfg.Retention, dbClient)
		retention.Start(ctx)
		defer retention.Stop()
	}

	// 9. Serve HTTP until shutdown signal
	opts := []api.ServerOption{
		api.WithEventBus(bus),
		api.WithWorkerPool(pool),
	}
	if healthMonitor != nil {
		opts = append(opts, api.WithMCPMonitor(healthMonitor))
	}
	httpServer := api.NewServer(orch, opts...)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("ygn-brain started successfully",
		"addr", addr,
		"workers", cfg.Queue.MaxWorkers,
		"database", cfg.Database.Enabled)

	if err := httpServer.Run(runCtx, addr); err != nil {
		slog.Error("HTTP server error", "error", err)
	}

	// 10. Graceful shutdown: drain in-flight orchestrations
	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("Worker pool stopped gracefully")
	case <-time.After(shutdownTimeout):
		slog.Warn("Shutdown timeout exceeded, abandoning in-flight sessions")
	}

	slog.Info("Shutdown complete")
}

// buildGuard assembles the guard pipeline from configuration. The
// classifier backend stacks on top of the regex rules rather than
// replacing them.
func buildGuard(cfg *config.Config) *guard.Pipeline {
	backends := []guard.Backend{guard.NewRegexGuard()}
	if cfg.Guard.Backend == "classifier" {
		backends = append(backends, guard.NewHeuristicClassifierGuard())
	}
	return guard.NewPipeline(backends...)
}

// providerSettings maps per-provider model and timeout overrides onto
// the refinement generator.
func providerSettings(cfg *config.Config) map[string]harness.ProviderSettings {
	if len(cfg.Providers) == 0 {
		return nil
	}
	settings := make(map[string]harness.ProviderSettings, len(cfg.Providers))
	for name, p := range cfg.Providers {
		settings[name] = harness.ProviderSettings{
			Model:   p.Model,
			Timeout: time.Duration(p.TimeoutSec) * time.Second,
		}
	}
	return settings
}

// signingSeed resolves the evidence signing seed from the configured
// environment variable. Empty disables signing.
func signingSeed(cfg *config.Config) string {
	if cfg.Evidence.SigningSeedEnv == "" {
		return ""
	}
	seed := os.Getenv(cfg.Evidence.SigningSeedEnv)
	if seed == "" {
		slog.Warn("Signing seed variable not set, evidence packs will be unsigned",
			"env", cfg.Evidence.SigningSeedEnv)
	}
	return seed
}

// databaseConfig maps YAML database settings onto a connection config.
// The password always comes from the environment.
func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        os.Getenv(cfg.Database.PasswordEnv),
		Database:        cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// completionHook persists the session outcome and evidence chain, then
// broadcasts the terminal status. All steps are best-effort: a database
// hiccup must not take down a worker.
func completionHook(orch *orchestrator.Orchestrator, dbClient *database.Client, publisher *events.Publisher, cfg *config.Config) queue.CompletionFunc {
	modelID := cfg.ModelID
	outputDir := cfg.Evidence.OutputDir
	return func(task queue.Task, result *queue.ExecutionResult) {
		sessionID := result.SessionID
		if sessionID == "" {
			sessionID = task.SessionID
		}

		if outputDir != "" {
			if pack, err := orch.EvidencePack(sessionID); err == nil {
				if path, err := pack.Save(outputDir); err != nil {
					slog.Error("Failed to export evidence pack", "session_id", sessionID, "error", err)
				} else {
					slog.Debug("Evidence pack exported", "session_id", sessionID, "path", path)
				}
			}
		}

		if dbClient != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			errMsg := ""
			if result.Error != nil {
				errMsg = result.Error.Error()
			}

			// The session row must exist before evidence can reference it.
			if err := dbClient.InsertSession(ctx, sessionID, task.Input, task.Mode, modelID); err != nil {
				slog.Error("Failed to persist session", "session_id", sessionID, "error", err)
			} else {
				merkleRoot := ""
				signerKey := ""
				if pack, err := orch.EvidencePack(sessionID); err == nil {
					merkleRoot = pack.MerkleRootHash()
					signerKey = pack.SignerPublicKey
					if err := dbClient.SaveEvidence(ctx, sessionID, pack.Entries()); err != nil {
						slog.Error("Failed to persist evidence", "session_id", sessionID, "error", err)
					}
				}
				if err := dbClient.CompleteSession(ctx, sessionID, string(result.Status),
					result.Status == queue.StatusBlocked, result.Output, errMsg, merkleRoot, signerKey); err != nil {
					slog.Error("Failed to finalize session", "session_id", sessionID, "error", err)
				}
			}
		}

		if err := publisher.PublishSessionStatus(
			events.NewSessionStatus(sessionID, string(result.Status))); err != nil {
			slog.Warn("Failed to publish session status", "session_id", sessionID, "error", err)
		}
	}
}
