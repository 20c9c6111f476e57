// Package orchestrator drives a full run: guard the input, execute
// through the swarm engine or the 7-phase pipeline, guard the output,
// and finalize the evidence pack with a Merkle root and signature.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/compiler"
	"github.com/ygn-labs/ygn-brain/pkg/evidence"
	"github.com/ygn-labs/ygn-brain/pkg/guard"
	"github.com/ygn-labs/ygn-brain/pkg/harness"
	"github.com/ygn-labs/ygn-brain/pkg/hivemind"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
	"github.com/ygn-labs/ygn-brain/pkg/session"
	"github.com/ygn-labs/ygn-brain/pkg/swarm"
)

const defaultSystemPrompt = "You are a careful assistant. Use the provided context."

// Result is the outcome of a run.
type Result struct {
	Output      string `json:"result"`
	SessionID   string `json:"session_id"`
	Blocked     bool   `json:"blocked,omitempty"`
	ThreatLevel string `json:"threat_level,omitempty"`
	MerkleRoot  string `json:"merkle_root,omitempty"`
	EntryCount  int    `json:"entry_count,omitempty"`
}

// CompiledResult extends Result with the context compiler's budget
// accounting.
type CompiledResult struct {
	Result
	BudgetUsed   int  `json:"budget_used"`
	WithinBudget bool `json:"within_budget"`
}

// RefinedResult extends Result with the refinement loop's accounting.
type RefinedResult struct {
	Result
	Score           float64 `json:"score"`
	RoundsUsed      int     `json:"rounds_used"`
	TotalCandidates int     `json:"total_candidates"`
}

// Orchestrator coordinates guard, memory, execution, and evidence. The
// zero-value configuration runs the deterministic pipeline behind the
// default regex guard.
type Orchestrator struct {
	guard     *guard.Pipeline
	memory    memory.Service
	pipeline  *hivemind.Pipeline
	swarm     *swarm.Engine
	generator harness.Generator
	verifier  harness.Verifier
	config    harness.Config
	estimator compiler.Estimator
	signSeed  string
	modelID   string

	mu    sync.Mutex
	packs map[string]*evidence.Pack
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithGuard(p *guard.Pipeline) Option {
	return func(o *Orchestrator) { o.guard = p }
}

func WithMemory(m memory.Service) Option {
	return func(o *Orchestrator) { o.memory = m }
}

func WithPipeline(p *hivemind.Pipeline) Option {
	return func(o *Orchestrator) { o.pipeline = p }
}

// WithSwarm routes complex and expert tasks through the swarm engine
// instead of the 7-phase pipeline.
func WithSwarm(e *swarm.Engine) Option {
	return func(o *Orchestrator) { o.swarm = e }
}

// WithHarness configures the generator and run settings used by
// RunRefined.
func WithHarness(g harness.Generator, config harness.Config) Option {
	return func(o *Orchestrator) {
		o.generator = g
		o.config = config
	}
}

// WithEstimator selects the token estimator the context compiler counts
// with during RunCompiled.
func WithEstimator(est compiler.Estimator) Option {
	return func(o *Orchestrator) { o.estimator = est }
}

// WithSigningSeed enables evidence signing with the ed25519 key derived
// from the 32-byte hex seed.
func WithSigningSeed(seedHex string) Option {
	return func(o *Orchestrator) { o.signSeed = seedHex }
}

func WithModelID(modelID string) Option {
	return func(o *Orchestrator) { o.modelID = modelID }
}

func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		guard:    guard.NewPipeline(),
		pipeline: hivemind.New(),
		verifier: harness.TextVerifier{},
		config:   harness.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) builder() *ContextBuilder {
	return &ContextBuilder{Memory: o.memory, Guard: o.guard}
}

// Run executes a full pass: ingress guard, swarm-or-pipeline execution,
// egress guard, evidence finalize.
func (o *Orchestrator) Run(ctx context.Context, userInput string) (Result, error) {
	ec, err := o.builder().Build(userInput, "")
	if err != nil {
		return Result{}, err
	}
	if !ec.Guard.Allowed {
		return o.blockedResult(ec, ec.Guard)
	}

	output, err := o.execute(ctx, userInput, ec.Evidence)
	if err != nil {
		return Result{}, err
	}

	egress := o.guard.Evaluate(output)
	if !egress.Allowed {
		if err := ec.Evidence.Add("guard", evidence.KindDecision, map[string]any{
			"blocked":      true,
			"direction":    "egress",
			"threat_level": string(egress.Level),
			"reason":       egress.Reason,
		}); err != nil {
			return Result{}, err
		}
		slog.Warn("Output blocked by egress guard",
			"session_id", ec.SessionID, "threat_level", egress.Level)
		return o.finalize(ec, Result{
			Output:      "Blocked: " + egress.Reason,
			SessionID:   ec.SessionID,
			Blocked:     true,
			ThreatLevel: string(egress.Level),
		})
	}

	return o.finalize(ec, Result{
		Output:      output,
		SessionID:   ec.SessionID,
		ThreatLevel: string(ec.Guard.Level),
	})
}

// RunCompiled executes through the context compiler: run events are
// recorded on a session, then compiled into a budgeted working context.
func (o *Orchestrator) RunCompiled(ctx context.Context, userInput string, budget int, store artifact.Store) (CompiledResult, error) {
	ec, err := o.builder().Build(userInput, "")
	if err != nil {
		return CompiledResult{}, err
	}
	if !ec.Guard.Allowed {
		blocked, err := o.blockedResult(ec, ec.Guard)
		return CompiledResult{Result: blocked}, err
	}

	sess := session.New(o.modelID)
	sess.ID = ec.SessionID
	if _, err := sess.Record(session.KindUserInput, "context", map[string]any{
		"role":    "user",
		"content": userInput,
	}, compiler.EstimateTokens(userInput)); err != nil {
		return CompiledResult{}, err
	}

	output, err := o.execute(ctx, userInput, ec.Evidence)
	if err != nil {
		return CompiledResult{}, err
	}
	if _, err := sess.Record(session.KindPhaseResult, "synthesis", map[string]any{
		"role":    "assistant",
		"content": output,
	}, compiler.EstimateTokens(output)); err != nil {
		return CompiledResult{}, err
	}

	if store == nil {
		store = artifact.NewMemoryStore()
	}
	mem := o.memory
	if mem == nil {
		mem = memory.NewInMemoryBackend()
	}
	working, err := compiler.NewDefaultWithEstimator(mem, store, o.estimator).Compile(sess, budget, defaultSystemPrompt)
	if err != nil {
		return CompiledResult{}, err
	}

	result, err := o.finalize(ec, Result{
		Output:      output,
		SessionID:   ec.SessionID,
		ThreatLevel: string(ec.Guard.Level),
	})
	if err != nil {
		return CompiledResult{}, err
	}
	return CompiledResult{
		Result:       result,
		BudgetUsed:   working.TokenCount,
		WithinBudget: working.IsWithinBudget(),
	}, nil
}

// RunRefined executes the task through the refinement harness and
// returns the winning candidate's output.
func (o *Orchestrator) RunRefined(ctx context.Context, userInput string) (RefinedResult, error) {
	ec, err := o.builder().Build(userInput, "")
	if err != nil {
		return RefinedResult{}, err
	}
	if !ec.Guard.Allowed {
		blocked, err := o.blockedResult(ec, ec.Guard)
		return RefinedResult{Result: blocked}, err
	}

	generator := o.generator
	if generator == nil {
		generator = harness.StubGenerator{}
	}
	engine := harness.NewEngine(generator, o.verifier, harness.WithEvidence(ec.Evidence))
	run, err := engine.Run(ctx, userInput, o.config)
	if err != nil {
		return RefinedResult{}, err
	}

	result, err := o.finalize(ec, Result{
		Output:      run.Winner.Output,
		SessionID:   ec.SessionID,
		ThreatLevel: string(ec.Guard.Level),
	})
	if err != nil {
		return RefinedResult{}, err
	}
	return RefinedResult{
		Result:          result,
		Score:           run.Feedback.Score,
		RoundsUsed:      run.RoundsUsed,
		TotalCandidates: run.TotalCandidates,
	}, nil
}

// execute routes complex and expert tasks to the swarm engine when one
// is configured, and everything else through the 7-phase pipeline.
func (o *Orchestrator) execute(ctx context.Context, userInput string, pack *evidence.Pack) (string, error) {
	if o.swarm != nil {
		analysis := o.swarm.Analyze(userInput)
		if analysis.Complexity == swarm.ComplexityComplex || analysis.Complexity == swarm.ComplexityExpert {
			result, err := o.swarm.Run(ctx, userInput)
			if err != nil {
				return "", err
			}
			if err := pack.Add("swarm", evidence.KindOutput, map[string]any{
				"mode":   string(result.Mode),
				"output": result.Output,
			}); err != nil {
				return "", err
			}
			return result.Output, nil
		}
	}

	results, err := o.pipeline.Run(ctx, userInput, pack)
	if err != nil {
		return "", err
	}
	return hivemind.Final(results, userInput), nil
}

func (o *Orchestrator) blockedResult(ec ExecutionContext, verdict guard.Result) (Result, error) {
	if err := ec.Evidence.Add("guard", evidence.KindDecision, map[string]any{
		"blocked":      true,
		"threat_level": string(verdict.Level),
		"reason":       verdict.Reason,
	}); err != nil {
		return Result{}, err
	}
	slog.Warn("Input blocked by guard",
		"session_id", ec.SessionID, "threat_level", verdict.Level, "backend", verdict.Backend)
	return o.finalize(ec, Result{
		Output:      "Blocked: " + verdict.Reason,
		SessionID:   ec.SessionID,
		Blocked:     true,
		ThreatLevel: string(verdict.Level),
	})
}

// finalize signs the evidence chain when a seed is configured, stamps
// the Merkle root, and retains the pack for later export.
func (o *Orchestrator) finalize(ec ExecutionContext, result Result) (Result, error) {
	if o.signSeed != "" {
		if err := ec.Evidence.Sign(o.signSeed); err != nil {
			return Result{}, err
		}
	}
	root := ec.Evidence.MerkleRootHash()
	ec.Evidence.MerkleRoot = root
	result.MerkleRoot = root
	result.EntryCount = ec.Evidence.Len()

	o.mu.Lock()
	if o.packs == nil {
		o.packs = make(map[string]*evidence.Pack)
	}
	o.packs[ec.SessionID] = ec.Evidence
	o.mu.Unlock()
	return result, nil
}

// EvidencePack returns the finalized pack for a past run.
func (o *Orchestrator) EvidencePack(sessionID string) (*evidence.Pack, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pack, ok := o.packs[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return pack, nil
}

// Sessions returns the ids of all finalized runs.
func (o *Orchestrator) Sessions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.packs))
	for id := range o.packs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Guard exposes the configured guard pipeline.
func (o *Orchestrator) Guard() *guard.Pipeline {
	return o.guard
}
