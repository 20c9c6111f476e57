package provider

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// lookPath is swapped in tests to control CLI availability.
var lookPath = exec.LookPath

// New resolves a provider by name: "codex", "gemini", or "stub".
func New(name string) (Provider, error) {
	switch name {
	case "codex":
		return NewCodexCLIProvider(), nil
	case "gemini":
		return NewGeminiCLIProvider(), nil
	case "stub":
		return NewStubProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q (expected codex, gemini, or stub)", name)
	}
}

// NewFromEnv builds the provider selected by YGN_LLM_PROVIDER. When the
// variable is unset and fallback is true, the first CLI found on PATH wins
// (codex, then gemini), with the stub as the final fallback. Without
// fallback an unset variable selects the stub.
func NewFromEnv(fallback bool) (Provider, error) {
	if name := os.Getenv("YGN_LLM_PROVIDER"); name != "" {
		return New(name)
	}
	if !fallback {
		return NewStubProvider(), nil
	}
	for _, candidate := range []string{"codex", "gemini"} {
		if _, err := lookPath(candidate); err == nil {
			slog.Info("Auto-selected LLM provider", "provider", candidate)
			p, err := New(candidate)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	slog.Info("No LLM CLI found on PATH, using stub provider")
	return NewStubProvider(), nil
}
