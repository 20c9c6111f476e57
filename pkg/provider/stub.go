package provider

import (
	"context"
	"fmt"
	"strings"
)

// StubProvider returns canned responses. It is the default when no CLI
// provider is available and the workhorse of the test suite.
type StubProvider struct{}

func NewStubProvider() *StubProvider { return &StubProvider{} }

func (s *StubProvider) Name() string { return "stub" }

func (s *StubProvider) Capabilities() Capabilities {
	return Capabilities{NativeToolCalling: false, Vision: false, Streaming: false}
}

func (s *StubProvider) Chat(_ context.Context, req Request) (Response, error) {
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(strings.Fields(m.Content))
	}
	content := fmt.Sprintf("This is a stub response for testing purposes. (model=%s)", req.Model)
	return Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: len(strings.Fields(content)),
		},
	}, nil
}

func (s *StubProvider) ChatWithTools(ctx context.Context, req Request, tools []ToolSpec) (Response, error) {
	resp, err := s.Chat(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if len(tools) > 0 {
		resp.ToolCalls = []ToolCall{{
			ToolName:  tools[0].Name,
			Arguments: map[string]any{"input": "stub"},
		}}
	}
	return resp, nil
}
