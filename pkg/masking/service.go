// Package masking redacts secrets from tool results and evidence data
// before they reach model context or persistent storage.
package masking

import (
	"log/slog"
)

// Config holds redaction settings.
type Config struct {
	Enabled        bool            `yaml:"enabled"`
	CustomPatterns []PatternConfig `yaml:"custom_patterns,omitempty"`
}

// Service applies secret redaction. Created once at application startup.
// Thread-safe and stateless aside from compiled patterns.
type Service struct {
	enabled  bool
	patterns []*CompiledPattern
}

// NewService creates a masking service with all patterns compiled eagerly.
// Invalid custom patterns are logged and skipped.
func NewService(cfg Config) *Service {
	patterns := compilePatterns(builtinPatterns)
	patterns = append(patterns, compilePatterns(cfg.CustomPatterns)...)

	s := &Service{
		enabled:  cfg.Enabled,
		patterns: patterns,
	}
	slog.Info("Masking service initialized",
		"enabled", cfg.Enabled,
		"builtin_patterns", len(builtinPatterns),
		"compiled_patterns", len(patterns))
	return s
}

// NewDefaultService creates an enabled service with only built-in patterns.
func NewDefaultService() *Service {
	return NewService(Config{Enabled: true})
}

// Redact replaces secrets in text and returns the redacted text together
// with the replacement markers that fired, in pattern order.
func (s *Service) Redact(text string) (string, []string) {
	if !s.enabled || text == "" {
		return text, nil
	}
	var fired []string
	result := text
	for _, p := range s.patterns {
		if p.Regex.MatchString(result) {
			fired = append(fired, p.Replacement)
			result = p.Regex.ReplaceAllString(result, p.Replacement)
		}
	}
	return result, fired
}

// MaskToolResult redacts a tool result. A redaction pass never fails open:
// the worst case is the original text with no matches.
func (s *Service) MaskToolResult(content string) string {
	masked, fired := s.Redact(content)
	if len(fired) > 0 {
		slog.Debug("Redacted tool result", "markers", fired)
	}
	return masked
}
