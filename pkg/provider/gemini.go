package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const defaultGeminiModel = "gemini-3.1-pro-preview"

// GeminiCLIProvider runs the locally installed gemini CLI in one-shot
// prompt mode. Like the codex provider, it relies on the CLI's own
// authentication.
type GeminiCLIProvider struct {
	model   string
	timeout time.Duration
}

func NewGeminiCLIProvider() *GeminiCLIProvider {
	return &GeminiCLIProvider{
		model:   envOrDefault("YGN_GEMINI_MODEL", defaultGeminiModel),
		timeout: cliTimeout(),
	}
}

func (p *GeminiCLIProvider) Name() string { return "gemini" }

func (p *GeminiCLIProvider) Capabilities() Capabilities {
	return Capabilities{NativeToolCalling: false, Vision: true, Streaming: false}
}

func (p *GeminiCLIProvider) Chat(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	prompt := buildPrompt(req.Messages)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "gemini", "--prompt", prompt, "--output-format", "json", "-m", model)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, cliErrorf("gemini", "gemini timed out after %.0fs", p.timeout.Seconds())
		}
		if errors.Is(err, exec.ErrNotFound) {
			return Response{}, cliErrorf("gemini", "gemini CLI not found on PATH")
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = strings.TrimSpace(stdout.String())
			}
			lower := strings.ToLower(detail)
			if strings.Contains(lower, "auth") || strings.Contains(lower, "login") {
				return Response{}, cliErrorf("gemini", "gemini CLI is not authenticated, run: gemini (and complete login)")
			}
			return Response{}, cliErrorf("gemini", "gemini failed (exit %d): %s", exitErr.ExitCode(), detail)
		}
		return Response{}, cliErrorf("gemini", "gemini failed: %v", err)
	}

	content := parseGeminiOutput(stdout.String())
	resp := Response{
		Content: content,
		Usage: Usage{
			PromptTokens:     len(strings.Fields(prompt)),
			CompletionTokens: len(strings.Fields(content)),
		},
		LatencyMS: float64(time.Since(start)) / float64(time.Millisecond),
	}
	slog.Debug("gemini completed", "model", model, "completion_tokens", resp.Usage.CompletionTokens)
	return resp, nil
}

func (p *GeminiCLIProvider) ChatWithTools(ctx context.Context, req Request, tools []ToolSpec) (Response, error) {
	resp, err := p.Chat(ctx, injectTools(req, tools))
	if err != nil {
		return Response{}, err
	}
	if call := parseToolReply(resp.Content); call != nil {
		resp.ToolCalls = []ToolCall{*call}
	}
	return resp, nil
}

// parseGeminiOutput extracts the response text from the CLI's JSON output,
// trying the known content keys in order. Non-JSON output is returned
// verbatim.
func parseGeminiOutput(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return trimmed
	}
	for _, key := range []string{"response", "text", "content", "output"} {
		if v, ok := parsed[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	if encoded, err := json.Marshal(parsed); err == nil {
		return string(encoded)
	}
	return trimmed
}
