// Package server exposes the brain as an MCP tool server over stdio, so
// peer agents and IDE clients can call orchestration, guarding, memory,
// and evidence export through the same protocol the brain itself uses
// for its own tools.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ygn-labs/ygn-brain/pkg/guard"
	"github.com/ygn-labs/ygn-brain/pkg/mcp"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
	"github.com/ygn-labs/ygn-brain/pkg/orchestrator"
	"github.com/ygn-labs/ygn-brain/pkg/swarm"
	"github.com/ygn-labs/ygn-brain/pkg/version"
)

// BrainServer wires the brain's subsystems behind MCP tools.
type BrainServer struct {
	orchestrator *orchestrator.Orchestrator
	guard        *guard.Pipeline
	memory       memory.Service
	swarm        *swarm.Engine
	semantic     *memory.SemanticIndex
	tools        *mcp.InterruptHandler
	logger       *slog.Logger
}

// Option configures a BrainServer.
type Option func(*BrainServer)

func WithOrchestrator(o *orchestrator.Orchestrator) Option {
	return func(s *BrainServer) { s.orchestrator = o }
}

func WithGuard(g *guard.Pipeline) Option {
	return func(s *BrainServer) { s.guard = g }
}

func WithMemory(m memory.Service) Option {
	return func(s *BrainServer) { s.memory = m }
}

func WithSwarm(e *swarm.Engine) Option {
	return func(s *BrainServer) { s.swarm = e }
}

// WithSemanticIndex enables vector-backed memory_search_semantic.
func WithSemanticIndex(idx *memory.SemanticIndex) Option {
	return func(s *BrainServer) { s.semantic = idx }
}

// WithToolHandler enables the tool_call proxy: downstream tool servers
// become callable through the brain, behind its tool guard and artifact
// externalization.
func WithToolHandler(h *mcp.InterruptHandler) Option {
	return func(s *BrainServer) { s.tools = h }
}

func New(opts ...Option) *BrainServer {
	s := &BrainServer{
		orchestrator: orchestrator.New(),
		guard:        guard.NewPipeline(),
		memory:       memory.NewInMemoryBackend(),
		swarm:        swarm.NewEngine(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build constructs the SDK server with all brain tools registered.
func (s *BrainServer) Build() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    version.AppName,
		Version: version.GitCommit,
	}, nil)

	server.AddTool(&mcpsdk.Tool{
		Name:        "orchestrate",
		Description: "Run the full 7-phase pipeline on a task",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"task": {"type": "string", "description": "Task to execute"},
				"timeout_sec": {"type": "number", "description": "Timeout in seconds"}
			},
			"required": ["task"]
		}`),
	}, s.handleOrchestrate)

	server.AddTool(&mcpsdk.Tool{
		Name:        "orchestrate_refined",
		Description: "Run a task through the generate-verify refinement loop",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"task": {"type": "string", "description": "Task to execute"}
			},
			"required": ["task"]
		}`),
	}, s.handleOrchestrateRefined)

	server.AddTool(&mcpsdk.Tool{
		Name:        "guard_check",
		Description: "Evaluate text against the guard pipeline",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "Text to evaluate"}
			},
			"required": ["text"]
		}`),
	}, s.handleGuardCheck)

	server.AddTool(&mcpsdk.Tool{
		Name:        "evidence_export",
		Description: "Export a session's evidence pack as JSONL",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"session_id": {"type": "string", "description": "Session to export"}
			},
			"required": ["session_id"]
		}`),
	}, s.handleEvidenceExport)

	server.AddTool(&mcpsdk.Tool{
		Name:        "swarm_execute",
		Description: "Run a task through the swarm engine, optionally forcing a mode",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"task": {"type": "string", "description": "Task to execute"},
				"mode": {"type": "string", "description": "Swarm mode (optional)"}
			},
			"required": ["task"]
		}`),
	}, s.handleSwarmExecute)

	server.AddTool(&mcpsdk.Tool{
		Name:        "memory_recall",
		Description: "Query tiered memory by keyword overlap",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"},
				"tier": {"type": "string", "description": "Memory tier (optional)"}
			},
			"required": ["query"]
		}`),
	}, s.handleMemoryRecall)

	server.AddTool(&mcpsdk.Tool{
		Name:        "memory_search_semantic",
		Description: "Semantic memory recall using vector embeddings",
		InputSchema: schema(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"},
				"limit": {"type": "integer", "description": "Max results"}
			},
			"required": ["query"]
		}`),
	}, s.handleMemorySearchSemantic)

	if s.tools != nil {
		server.AddTool(&mcpsdk.Tool{
			Name:        "tool_call",
			Description: "Proxy a call to a downstream tool server through the brain's guard",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"tool": {"type": "string", "description": "Tool name, optionally server-qualified"},
					"args": {"description": "Tool arguments: an object, or a string in JSON, YAML, or key=value form"}
				},
				"required": ["tool"]
			}`),
		}, s.handleToolCall)
	}

	return server
}

// Run serves the brain over stdio until the client disconnects.
func (s *BrainServer) Run(ctx context.Context) error {
	s.logger.Info("Brain MCP server starting", "transport", "stdio")
	return s.Build().Run(ctx, &mcpsdk.StdioTransport{})
}

func schema(raw string) json.RawMessage {
	return json.RawMessage(raw)
}

func textResult(text string, structured map[string]any) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		StructuredContent: structured,
	}
}

func parseArgs(req *mcpsdk.CallToolRequest) map[string]any {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return map[string]any{}
	}
	return args
}

func stringArg(req *mcpsdk.CallToolRequest, key string) (string, error) {
	value, ok := parseArgs(req)[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return value, nil
}

func (s *BrainServer) handleOrchestrate(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	task, err := stringArg(req, "task")
	if err != nil {
		return nil, err
	}

	result, err := s.orchestrator.Run(ctx, task)
	if err != nil {
		return nil, err
	}
	return textResult(result.Output, map[string]any{
		"session_id":  result.SessionID,
		"phases":      7,
		"blocked":     result.Blocked,
		"merkle_root": result.MerkleRoot,
		"entry_count": result.EntryCount,
	}), nil
}

func (s *BrainServer) handleOrchestrateRefined(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	task, err := stringArg(req, "task")
	if err != nil {
		return nil, err
	}

	result, err := s.orchestrator.RunRefined(ctx, task)
	if err != nil {
		return nil, err
	}
	return textResult(result.Output, map[string]any{
		"session_id":       result.SessionID,
		"blocked":          result.Blocked,
		"score":            result.Score,
		"rounds_used":      result.RoundsUsed,
		"total_candidates": result.TotalCandidates,
	}), nil
}

func (s *BrainServer) handleGuardCheck(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	text, err := stringArg(req, "text")
	if err != nil {
		return nil, err
	}

	verdict := s.guard.Evaluate(text)
	return textResult(verdict.Reason, map[string]any{
		"allowed":      verdict.Allowed,
		"threat_level": string(verdict.Level),
		"score":        verdict.Score,
		"reason":       verdict.Reason,
	}), nil
}

func (s *BrainServer) handleEvidenceExport(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	sessionID, err := stringArg(req, "session_id")
	if err != nil {
		return nil, err
	}

	pack, err := s.orchestrator.EvidencePack(sessionID)
	if err != nil {
		// Missing evidence is an empty export, not a protocol error.
		return textResult("No evidence found", map[string]any{
			"jsonl":       "",
			"entry_count": 0,
			"merkle_root": "",
		}), nil
	}

	jsonl, err := pack.ToJSONL()
	if err != nil {
		return nil, err
	}
	return textResult(jsonl, map[string]any{
		"jsonl":       jsonl,
		"entry_count": pack.Len(),
		"merkle_root": pack.MerkleRootHash(),
	}), nil
}

func (s *BrainServer) handleSwarmExecute(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	task, err := stringArg(req, "task")
	if err != nil {
		return nil, err
	}

	var result swarm.Result
	if mode, _ := parseArgs(req)["mode"].(string); mode != "" && swarm.ValidMode(mode) {
		result, err = s.swarm.RunMode(ctx, task, swarm.Mode(mode))
	} else {
		result, err = s.swarm.Run(ctx, task)
	}
	if err != nil {
		return nil, err
	}
	return textResult(result.Output, map[string]any{
		"output":   result.Output,
		"mode":     string(result.Mode),
		"metadata": result.Metadata,
	}), nil
}

func (s *BrainServer) handleMemoryRecall(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	query, err := stringArg(req, "query")
	if err != nil {
		return nil, err
	}

	entries := s.memory.Recall(query, 5, "")
	results := entryMaps(entries)
	text, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}

	tier, _ := parseArgs(req)["tier"].(string)
	if tier == "" {
		tier = "all"
	}
	return textResult(string(text), map[string]any{
		"results": results,
		"tier":    tier,
		"count":   len(results),
	}), nil
}

func (s *BrainServer) handleMemorySearchSemantic(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	query, err := stringArg(req, "query")
	if err != nil {
		return nil, err
	}
	limit := 5
	if n, ok := parseArgs(req)["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	// Vector search when an index is configured, keyword recall otherwise.
	if s.semantic != nil {
		hits, err := s.semantic.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		results := make([]map[string]any, 0, len(hits))
		for _, h := range hits {
			results = append(results, map[string]any{
				"key":        h.Key,
				"content":    h.Content,
				"similarity": h.Similarity,
			})
		}
		text, err := json.Marshal(results)
		if err != nil {
			return nil, err
		}
		return textResult(string(text), map[string]any{
			"results": results,
			"count":   len(results),
			"mode":    "semantic",
		}), nil
	}

	results := entryMaps(s.memory.Recall(query, limit, ""))
	text, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	return textResult(string(text), map[string]any{
		"results": results,
		"count":   len(results),
		"mode":    "keyword",
	}), nil
}

func (s *BrainServer) handleToolCall(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	toolName, err := stringArg(req, "tool")
	if err != nil {
		return nil, err
	}
	toolName = mcp.NormalizeToolName(toolName)

	// Accept structured args directly; string args from clients that
	// cannot emit nested JSON are parsed leniently.
	var args map[string]any
	switch v := parseArgs(req)["args"].(type) {
	case map[string]any:
		args = v
	case string:
		args = mcp.ParseToolInput(v)
	}

	event, err := s.tools.Call(ctx, toolName, args)
	if err != nil {
		return nil, err
	}
	return textResult(event.Result, map[string]any{
		"kind":       string(event.Kind),
		"tool_name":  event.ToolName,
		"result":     event.Result,
		"error":      event.Error,
		"latency_ms": event.LatencyMS,
	}), nil
}

func entryMaps(entries []memory.Entry) []map[string]any {
	results := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		results = append(results, map[string]any{
			"key":      e.Key,
			"content":  e.Content,
			"category": string(e.Category),
		})
	}
	return results
}
