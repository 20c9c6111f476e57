package swarm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygn-labs/ygn-brain/pkg/provider"
)

func TestTaskAnalyzerComplexity(t *testing.T) {
	analyzer := TaskAnalyzer{}

	cases := []struct {
		input      string
		complexity Complexity
		mode       Mode
	}{
		{"hello there", ComplexityTrivial, ModeSequential},
		{"please tell me about the weather today", ComplexitySimple, ModeSequential},
		{
			"I would like you to look into this topic and give me a thorough overview of what matters here",
			ComplexityModerate, ModeLeadSupport,
		},
		{
			"research and analyze this dataset then write a summary of the findings",
			ComplexityExpert, ModeSpecialist,
		},
	}
	for _, tc := range cases {
		analysis := analyzer.Analyze(tc.input)
		assert.Equal(t, tc.complexity, analysis.Complexity, "input: %s", tc.input)
		assert.Equal(t, tc.mode, analysis.SuggestedMode, "input: %s", tc.input)
	}
}

func TestTaskAnalyzerDomains(t *testing.T) {
	analyzer := TaskAnalyzer{}

	analysis := analyzer.Analyze("debug this function and calculate the formula for its runtime")
	assert.Equal(t, []string{"code", "math"}, analysis.Domains)
	assert.Equal(t, ComplexityComplex, analysis.Complexity)
	assert.Equal(t, ModeParallel, analysis.SuggestedMode)

	analysis = analyzer.Analyze("just some ordinary request with nothing special about it at all, really nothing, keep going on and on")
	assert.Equal(t, []string{"general"}, analysis.Domains)
}

func TestTaskAnalyzerComplexSingleDomainGoesRedBlue(t *testing.T) {
	input := "please refactor this function so that it is cleaner and easier to maintain " +
		"while keeping all of the behavior exactly the same as before and do not change any public names"
	analysis := TaskAnalyzer{}.Analyze(input)
	assert.Equal(t, ComplexityComplex, analysis.Complexity)
	assert.Equal(t, ModeRedBlue, analysis.SuggestedMode)
}

func TestEngineRunStubModes(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	result, err := engine.Run(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, result.Mode)
	assert.Equal(t, "[sequential] Processed: hi", result.Output)
	assert.Equal(t, "chain", result.Metadata["strategy"])

	// lead_support has no executor, falls back to sequential
	result, err = engine.Run(ctx, "I would like a fairly detailed overview of this topic with some background please and thanks")
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, result.Mode)
}

func TestEngineSetExecutor(t *testing.T) {
	engine := NewEngine()
	engine.SetExecutor(ModeSequential, StubSpecialistExecutor{})

	result, err := engine.Run(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, ModeSpecialist, result.Mode)
}

func TestParallelExecutorFansOutPerDomain(t *testing.T) {
	stub := provider.NewStubProvider()
	executor := ParallelExecutor{Provider: stub}

	task := Task{
		UserInput: "do the thing",
		Analysis:  Analysis{Domains: []string{"code", "math"}, SuggestedMode: ModeParallel},
	}
	result, err := executor.Execute(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, ModeParallel, result.Mode)
	assert.Equal(t, 2, result.Metadata["agents"])
	assert.Equal(t, "fan-out-fan-in", result.Metadata["strategy"])
	assert.Len(t, strings.Split(result.Output, "\n---\n"), 2)
}

func TestSequentialExecutorChains(t *testing.T) {
	executor := SequentialExecutor{Provider: provider.NewStubProvider()}
	result, err := executor.Execute(context.Background(), Task{UserInput: "task"})
	require.NoError(t, err)
	assert.Equal(t, ModeSequential, result.Mode)
	assert.Equal(t, 3, result.Metadata["steps"])
	assert.NotEmpty(t, result.Output)
}

func TestProviderExecutorsSurfaceErrors(t *testing.T) {
	failing := failingProvider{}
	_, err := ParallelExecutor{Provider: failing}.Execute(context.Background(),
		Task{UserInput: "x", Analysis: Analysis{Domains: []string{"code"}}})
	assert.ErrorContains(t, err, "code specialist")

	_, err = SequentialExecutor{Provider: failing}.Execute(context.Background(), Task{UserInput: "x"})
	assert.ErrorContains(t, err, "understand step")
}

func TestSpecialistExecutorListsDomains(t *testing.T) {
	recorder := &recordingProvider{}
	executor := SpecialistExecutor{Provider: recorder}

	_, err := executor.Execute(context.Background(), Task{
		UserInput: "solve it",
		Analysis:  Analysis{Domains: []string{"math", "data"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, recorder.requests)
	assert.Contains(t, recorder.requests[0].Messages[0].Content, "math, data")
}

func TestModelSelector(t *testing.T) {
	selector := NewModelSelector()

	assert.Equal(t, "claude-3-haiku-20240307", selector.Select(ComplexityTrivial))
	assert.Equal(t, "claude-3-5-sonnet-20241022", selector.Select(ComplexityComplex))
	assert.Equal(t, "claude-3-opus-20240229", selector.Select(ComplexityExpert))

	assert.Equal(t, "gpt-4o", selector.SelectFor(ComplexityExpert, "openai"))
	assert.Equal(t, "gpt-4o-mini", selector.SelectFor(ComplexitySimple, "openai"))
	assert.Equal(t, "gemini-1.5-pro", selector.SelectFor(ComplexityModerate, "gemini"))
	assert.Equal(t, "llama3", selector.SelectFor(ComplexityExpert, "ollama"))

	selector.Override(ComplexityTrivial, "tiny-model")
	assert.Equal(t, "tiny-model", selector.Select(ComplexityTrivial))
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }
func (failingProvider) Capabilities() provider.Capabilities { return provider.Capabilities{} }
func (failingProvider) Chat(context.Context, provider.Request) (provider.Response, error) {
	return provider.Response{}, errors.New("boom")
}
func (failingProvider) ChatWithTools(context.Context, provider.Request, []provider.ToolSpec) (provider.Response, error) {
	return provider.Response{}, errors.New("boom")
}

type recordingProvider struct {
	requests []provider.Request
}

func (r *recordingProvider) Name() string { return "recording" }
func (r *recordingProvider) Capabilities() provider.Capabilities { return provider.Capabilities{} }
func (r *recordingProvider) Chat(_ context.Context, req provider.Request) (provider.Response, error) {
	r.requests = append(r.requests, req)
	return provider.Response{Content: "recorded"}, nil
}
func (r *recordingProvider) ChatWithTools(ctx context.Context, req provider.Request, _ []provider.ToolSpec) (provider.Response, error) {
	return r.Chat(ctx, req)
}
