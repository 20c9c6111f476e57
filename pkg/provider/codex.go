package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	defaultCodexModel = "gpt-5.2-codex"
	defaultCLITimeout = 300 * time.Second
)

// CodexCLIProvider runs the locally installed codex CLI in non-interactive
// exec mode and parses its JSONL event stream. Authentication is the CLI's
// concern, so no API keys pass through here.
type CodexCLIProvider struct {
	model   string
	timeout time.Duration
}

func NewCodexCLIProvider() *CodexCLIProvider {
	return &CodexCLIProvider{
		model:   envOrDefault("YGN_CODEX_MODEL", defaultCodexModel),
		timeout: cliTimeout(),
	}
}

func (p *CodexCLIProvider) Name() string { return "codex" }

func (p *CodexCLIProvider) Capabilities() Capabilities {
	return Capabilities{NativeToolCalling: false, Vision: false, Streaming: false}
}

func (p *CodexCLIProvider) Chat(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	prompt := buildPrompt(req.Messages)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "codex", "exec", prompt, "-m", model, "--json", "--full-auto")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, cliErrorf("codex", "codex exec timed out after %.0fs", p.timeout.Seconds())
		}
		if errors.Is(err, exec.ErrNotFound) {
			return Response{}, cliErrorf("codex", "codex CLI not found on PATH")
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = strings.TrimSpace(stdout.String())
			}
			return Response{}, cliErrorf("codex", "codex exec failed (exit %d): %s", exitErr.ExitCode(), detail)
		}
		return Response{}, cliErrorf("codex", "codex exec failed: %v", err)
	}

	resp := parseCodexOutput(stdout.String())
	resp.LatencyMS = float64(time.Since(start)) / float64(time.Millisecond)
	slog.Debug("codex exec completed", "model", model,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return resp, nil
}

func (p *CodexCLIProvider) ChatWithTools(ctx context.Context, req Request, tools []ToolSpec) (Response, error) {
	resp, err := p.Chat(ctx, injectTools(req, tools))
	if err != nil {
		return Response{}, err
	}
	if call := parseToolReply(resp.Content); call != nil {
		resp.ToolCalls = []ToolCall{*call}
	}
	return resp, nil
}

type codexEvent struct {
	Type string `json:"type"`
	Item struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"item"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// parseCodexOutput walks the JSONL event stream, collecting agent messages
// and token usage. Unparseable lines are skipped; if no agent message is
// found the raw output is returned as-is.
func parseCodexOutput(raw string) Response {
	var parts []string
	var usage Usage

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event codexEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		switch event.Type {
		case "item.completed":
			if event.Item.Type == "agent_message" && event.Item.Text != "" {
				parts = append(parts, event.Item.Text)
			}
		case "turn.completed":
			usage.PromptTokens += event.Usage.InputTokens
			usage.CompletionTokens += event.Usage.OutputTokens
		}
	}

	content := strings.Join(parts, "\n")
	if content == "" {
		content = strings.TrimSpace(raw)
	}
	return Response{Content: content, Usage: usage}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func cliTimeout() time.Duration {
	if v := os.Getenv("YGN_LLM_TIMEOUT_SEC"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultCLITimeout
}
