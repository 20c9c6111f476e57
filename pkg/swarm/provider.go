package swarm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ygn-labs/ygn-brain/pkg/provider"
)

// ParallelExecutor fans one prompt per detected domain out to the
// provider concurrently and joins the specialist answers.
type ParallelExecutor struct {
	Provider provider.Provider
}

func (e ParallelExecutor) Execute(ctx context.Context, task Task) (Result, error) {
	outputs := make([]string, len(task.Domains))
	g, gctx := errgroup.WithContext(ctx)
	for i, domain := range task.Domains {
		g.Go(func() error {
			resp, err := e.Provider.Chat(gctx, provider.Request{
				Messages: []provider.Message{{
					Role:    provider.RoleUser,
					Content: fmt.Sprintf("As a %s specialist, address the following task:\n\n%s", domain, task.UserInput),
				}},
			})
			if err != nil {
				return fmt.Errorf("%s specialist: %w", domain, err)
			}
			outputs[i] = resp.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{
		Mode:   ModeParallel,
		Output: strings.Join(outputs, "\n---\n"),
		Metadata: map[string]any{
			"agents":   len(task.Domains),
			"domains":  task.Domains,
			"strategy": "fan-out-fan-in",
		},
	}, nil
}

var chainSteps = []struct {
	name   string
	system string
}{
	{"understand", "Understand the task and restate it clearly."},
	{"plan", "Plan the steps needed to solve the task."},
	{"execute", "Execute the plan and produce the final answer."},
}

// SequentialExecutor runs the understand -> plan -> execute chain, piping
// each step's output into the next step's system message.
type SequentialExecutor struct {
	Provider provider.Provider
}

func (e SequentialExecutor) Execute(ctx context.Context, task Task) (Result, error) {
	carry := ""
	for _, step := range chainSteps {
		system := step.system
		if carry != "" {
			system += "\n\nPrevious step output:\n" + carry
		}
		resp, err := e.Provider.Chat(ctx, provider.Request{
			Messages: []provider.Message{
				{Role: provider.RoleSystem, Content: system},
				{Role: provider.RoleUser, Content: task.UserInput},
			},
		})
		if err != nil {
			return Result{}, fmt.Errorf("%s step: %w", step.name, err)
		}
		carry = resp.Content
	}
	return Result{
		Mode:     ModeSequential,
		Output:   carry,
		Metadata: map[string]any{"agents": 1, "strategy": "chain", "steps": len(chainSteps)},
	}, nil
}

// SpecialistExecutor makes a single call with a system prompt declaring
// every detected domain as expertise.
type SpecialistExecutor struct {
	Provider provider.Provider
}

func (e SpecialistExecutor) Execute(ctx context.Context, task Task) (Result, error) {
	resp, err := e.Provider.Chat(ctx, provider.Request{
		Messages: []provider.Message{
			{
				Role: provider.RoleSystem,
				Content: fmt.Sprintf("You are a specialist with deep expertise in: %s. Provide an expert answer.",
					strings.Join(task.Domains, ", ")),
			},
			{Role: provider.RoleUser, Content: task.UserInput},
		},
	})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Mode:   ModeSpecialist,
		Output: resp.Content,
		Metadata: map[string]any{
			"agents":   len(task.Domains),
			"domains":  task.Domains,
			"strategy": "expert-routing",
		},
	}, nil
}

// NewProviderEngine builds an engine whose parallel, sequential, and
// specialist modes dispatch real provider calls. Unmapped modes fall back
// to the sequential chain.
func NewProviderEngine(p provider.Provider) *Engine {
	sequential := SequentialExecutor{Provider: p}
	return &Engine{
		executors: map[Mode]Executor{
			ModeParallel:   ParallelExecutor{Provider: p},
			ModeSequential: sequential,
			ModeSpecialist: SpecialistExecutor{Provider: p},
		},
		fallback: sequential,
	}
}

// ModelSelector maps task complexity to a model name, with per-provider
// overrides for providers that do not serve the default models.
type ModelSelector struct {
	mu        sync.RWMutex
	overrides map[Complexity]string
}

var defaultComplexityModels = map[Complexity]string{
	ComplexityTrivial:  "claude-3-haiku-20240307",
	ComplexitySimple:   "claude-3-haiku-20240307",
	ComplexityModerate: "claude-3-5-sonnet-20241022",
	ComplexityComplex:  "claude-3-5-sonnet-20241022",
	ComplexityExpert:   "claude-3-opus-20240229",
}

func NewModelSelector() *ModelSelector {
	return &ModelSelector{overrides: make(map[Complexity]string)}
}

// Override pins a model for a complexity grade.
func (s *ModelSelector) Override(c Complexity, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[c] = model
}

// Select returns the model for a complexity grade.
func (s *ModelSelector) Select(c Complexity) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.overrides[c]; ok {
		return m
	}
	return defaultComplexityModels[c]
}

// SelectFor adapts the chosen model to a provider family.
func (s *ModelSelector) SelectFor(c Complexity, providerName string) string {
	switch providerName {
	case "openai":
		if c == ComplexityExpert || c == ComplexityComplex {
			return "gpt-4o"
		}
		return "gpt-4o-mini"
	case "gemini":
		return "gemini-1.5-pro"
	case "ollama":
		return "llama3"
	default:
		return s.Select(c)
	}
}
