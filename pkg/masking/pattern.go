package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// PatternConfig is a user-supplied custom redaction pattern.
type PatternConfig struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Description string `yaml:"description,omitempty"`
}

// builtinPatterns is the default secret sweep applied to tool results and
// evidence data. Order matters: earlier patterns run first.
var builtinPatterns = []PatternConfig{
	{
		Name:        "api_key_sk",
		Pattern:     `sk-[A-Za-z0-9]{8,}`,
		Replacement: "[REDACTED_API_KEY]",
		Description: "Provider API keys with the sk- prefix",
	},
	{
		Name:        "bearer_token",
		Pattern:     `Bearer\s+[A-Za-z0-9._\-]{10,}`,
		Replacement: "[REDACTED_BEARER]",
		Description: "HTTP bearer tokens",
	},
	{
		Name:        "password_assignment",
		Pattern:     `(?i)password\s*[=:]\s*\S+`,
		Replacement: "[REDACTED_PASSWORD]",
		Description: "password=... / password: ... assignments",
	},
	{
		Name:        "api_key_assignment",
		Pattern:     `(?i)api[_-]?key\s*[=:]\s*\S+`,
		Replacement: "[REDACTED_API_KEY]",
		Description: "api_key / api-key assignments",
	},
	{
		Name:        "secret_assignment",
		Pattern:     `(?i)secret\s*[=:]\s*\S+`,
		Replacement: "[REDACTED_SECRET]",
		Description: "secret=... assignments",
	},
	{
		Name:        "github_pat",
		Pattern:     `ghp_[A-Za-z0-9]{36}`,
		Replacement: "[REDACTED_GH_TOKEN]",
		Description: "GitHub personal access tokens",
	},
	{
		Name:        "github_oauth",
		Pattern:     `gho_[A-Za-z0-9]{36}`,
		Replacement: "[REDACTED_GH_TOKEN]",
		Description: "GitHub OAuth tokens",
	},
}

// compilePatterns compiles pattern configs, logging and skipping invalid ones.
func compilePatterns(configs []PatternConfig) []*CompiledPattern {
	out := make([]*CompiledPattern, 0, len(configs))
	for _, pc := range configs {
		compiled, err := regexp.Compile(pc.Pattern)
		if err != nil {
			slog.Error("Failed to compile masking pattern, skipping",
				"pattern", pc.Name, "error", err)
			continue
		}
		out = append(out, &CompiledPattern{
			Name:        pc.Name,
			Regex:       compiled,
			Replacement: pc.Replacement,
			Description: pc.Description,
		})
	}
	return out
}
