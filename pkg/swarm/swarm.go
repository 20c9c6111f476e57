// Package swarm analyzes tasks and dispatches them across multi-agent
// execution modes: parallel fan-out, sequential chaining, specialist
// routing, and adversarial red/blue testing.
package swarm

import (
	"context"
	"fmt"
	"strings"
)

// Mode names a multi-agent execution pattern.
type Mode string

const (
	ModeParallel    Mode = "parallel"
	ModeSequential  Mode = "sequential"
	ModeRedBlue     Mode = "red_blue"
	ModePingPong    Mode = "ping_pong"
	ModeLeadSupport Mode = "lead_support"
	ModeSpecialist  Mode = "specialist"
)

// Complexity grades a task.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExpert   Complexity = "expert"
)

// Analysis is the result of analyzing a task.
type Analysis struct {
	Complexity    Complexity `json:"complexity"`
	Domains       []string   `json:"domains"`
	SuggestedMode Mode       `json:"suggested_mode"`
}

// Task is the analyzed input handed to an executor.
type Task struct {
	UserInput string
	Analysis
}

// Result is the output of a swarm execution.
type Result struct {
	Mode     Mode           `json:"mode"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Executor runs a task in one swarm mode.
type Executor interface {
	Execute(ctx context.Context, task Task) (Result, error)
}

var domainKeywords = map[string][]string{
	"code":     {"code", "function", "class", "debug", "refactor", "implement", "program"},
	"math":     {"calculate", "equation", "formula", "prove", "theorem", "math"},
	"writing":  {"write", "essay", "article", "draft", "summarize", "story"},
	"research": {"research", "analyze", "compare", "investigate", "study", "review"},
	"data":     {"data", "dataset", "csv", "json", "database", "query", "sql"},
	"design":   {"design", "architecture", "ui", "ux", "layout", "wireframe"},
}

// domainOrder keeps domain detection deterministic.
var domainOrder = []string{"code", "math", "writing", "research", "data", "design"}

// TaskAnalyzer derives complexity, domains, and a suggested mode from
// input text using keyword heuristics.
type TaskAnalyzer struct{}

func (TaskAnalyzer) Analyze(userInput string) Analysis {
	lower := strings.ToLower(userInput)
	wordCount := len(strings.Fields(lower))

	var domains []string
	for _, domain := range domainOrder {
		for _, kw := range domainKeywords[domain] {
			if strings.Contains(lower, kw) {
				domains = append(domains, domain)
				break
			}
		}
	}
	if len(domains) == 0 {
		domains = []string{"general"}
	}

	complexity := assessComplexity(wordCount, len(domains))
	return Analysis{
		Complexity:    complexity,
		Domains:       domains,
		SuggestedMode: suggestMode(complexity, len(domains)),
	}
}

func assessComplexity(wordCount, domainCount int) Complexity {
	switch {
	case wordCount <= 3:
		return ComplexityTrivial
	case wordCount <= 10 && domainCount <= 1:
		return ComplexitySimple
	case domainCount >= 3 || wordCount > 50:
		return ComplexityExpert
	case domainCount >= 2 || wordCount > 25:
		return ComplexityComplex
	default:
		return ComplexityModerate
	}
}

func suggestMode(complexity Complexity, domainCount int) Mode {
	switch complexity {
	case ComplexityTrivial, ComplexitySimple:
		return ModeSequential
	case ComplexityModerate:
		return ModeLeadSupport
	case ComplexityExpert:
		return ModeSpecialist
	}
	// complex with multiple domains fans out, single-domain goes adversarial
	if domainCount >= 2 {
		return ModeParallel
	}
	return ModeRedBlue
}

// StubParallelExecutor simulates parallel multi-agent execution.
type StubParallelExecutor struct{}

func (StubParallelExecutor) Execute(_ context.Context, task Task) (Result, error) {
	return Result{
		Mode:     ModeParallel,
		Output:   fmt.Sprintf("[parallel] Processed: %s", task.UserInput),
		Metadata: map[string]any{"agents": 3, "strategy": "fan-out-fan-in"},
	}, nil
}

// StubSequentialExecutor simulates sequential single-agent execution.
type StubSequentialExecutor struct{}

func (StubSequentialExecutor) Execute(_ context.Context, task Task) (Result, error) {
	return Result{
		Mode:     ModeSequential,
		Output:   fmt.Sprintf("[sequential] Processed: %s", task.UserInput),
		Metadata: map[string]any{"agents": 1, "strategy": "chain"},
	}, nil
}

// StubSpecialistExecutor simulates specialist-routed execution.
type StubSpecialistExecutor struct{}

func (StubSpecialistExecutor) Execute(_ context.Context, task Task) (Result, error) {
	return Result{
		Mode:   ModeSpecialist,
		Output: fmt.Sprintf("[specialist] Processed: %s", task.UserInput),
		Metadata: map[string]any{
			"agents":   len(task.Domains),
			"domains":  task.Domains,
			"strategy": "expert-routing",
		},
	}, nil
}

// Engine routes tasks to the executor registered for the suggested mode,
// falling back to sequential execution for unmapped modes.
type Engine struct {
	executors map[Mode]Executor
	analyzer  TaskAnalyzer
	fallback  Executor
}

// NewEngine creates an engine with the default stub executors.
func NewEngine() *Engine {
	return &Engine{
		executors: map[Mode]Executor{
			ModeParallel:   StubParallelExecutor{},
			ModeSequential: StubSequentialExecutor{},
			ModeSpecialist: StubSpecialistExecutor{},
		},
		fallback: StubSequentialExecutor{},
	}
}

// SetExecutor replaces the executor for a mode.
func (e *Engine) SetExecutor(mode Mode, executor Executor) {
	e.executors[mode] = executor
}

// Analyze analyzes a task without executing it.
func (e *Engine) Analyze(userInput string) Analysis {
	return e.analyzer.Analyze(userInput)
}

// Run analyzes then executes.
func (e *Engine) Run(ctx context.Context, userInput string) (Result, error) {
	analysis := e.analyzer.Analyze(userInput)
	return e.run(ctx, userInput, analysis, analysis.SuggestedMode)
}

// RunMode executes with a specific mode, overriding analysis routing.
func (e *Engine) RunMode(ctx context.Context, userInput string, mode Mode) (Result, error) {
	analysis := e.analyzer.Analyze(userInput)
	analysis.SuggestedMode = mode
	return e.run(ctx, userInput, analysis, mode)
}

func (e *Engine) run(ctx context.Context, userInput string, analysis Analysis, mode Mode) (Result, error) {
	task := Task{UserInput: userInput, Analysis: analysis}
	executor, ok := e.executors[mode]
	if !ok {
		executor = e.fallback
	}
	return executor.Execute(ctx, task)
}

// ValidMode reports whether s names a known swarm mode.
func ValidMode(s string) bool {
	switch Mode(s) {
	case ModeParallel, ModeSequential, ModeRedBlue, ModePingPong, ModeLeadSupport, ModeSpecialist:
		return true
	}
	return false
}
