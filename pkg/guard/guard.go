// Package guard implements the ingress/egress security pipeline: regex
// prompt-injection detection, classifier backends, and tool invocation
// checks. Every check produces a scored Result; the pipeline composes
// backends and returns the first blocking result.
package guard

import (
	"fmt"
	"regexp"
)

// ThreatLevel grades the severity of a detected threat.
type ThreatLevel string

const (
	ThreatNone     ThreatLevel = "none"
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Score maps a threat level onto the 0-100 scale.
func (t ThreatLevel) Score() float64 {
	switch t {
	case ThreatLow:
		return 25.0
	case ThreatMedium:
		return 50.0
	case ThreatHigh:
		return 75.0
	case ThreatCritical:
		return 100.0
	}
	return 0.0
}

// Result is the outcome of a single guard check.
type Result struct {
	Allowed bool
	Level   ThreatLevel
	Reason  string
	Score   float64
	Backend string
}

// Backend is a single guard check over a piece of text.
type Backend interface {
	Name() string
	Check(text string) Result
}

// Known detection gaps of the regex backend, kept for reporting: attacks in
// these categories pass the regex sweep and need a classifier backend.
var RegexGapCategories = []string{
	"unicode_homoglyph",
	"base64_encoded",
	"multilingual",
	"tool_abuse",
	"data_exfiltration",
}

var instructionOverridePatterns = compileAll(
	`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|rules)`,
	`(?i)disregard\s+(all\s+)?(previous|prior)\s+(instructions|rules)`,
	`(?i)forget\s+(all\s+)?(previous|prior)\s+(instructions|rules|context)`,
	`(?i)you\s+are\s+now\s+(?:a|an)\s+\w+`,
	`(?i)new\s+instructions?:`,
)

var roleManipulationPatterns = compileAll(
	`(?i)\bsystem\s*:\s*`,
	`(?i)\bassistant\s*:\s*`,
	`(?i)\b(?:act|behave|pretend)\s+as\s+(?:if\s+you\s+are|a)\b`,
	`(?i)you\s+must\s+obey`,
)

var delimiterInjectionPatterns = compileAll(
	"(?i)```\\s*system",
	`(?i)<\|(?:im_start|im_end|system|endoftext)\|>`,
	`(?i)###\s*(?:SYSTEM|INSTRUCTION)`,
	`(?i)\[INST\]`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// RegexGuard validates text against known prompt-injection patterns.
// Instruction override and role manipulation block at HIGH; delimiter
// injection blocks at CRITICAL.
type RegexGuard struct{}

// NewRegexGuard creates the default regex backend.
func NewRegexGuard() *RegexGuard {
	return &RegexGuard{}
}

func (g *RegexGuard) Name() string { return "RegexGuard" }

// Check runs all pattern groups and returns the highest-severity match.
func (g *RegexGuard) Check(text string) Result {
	for _, pat := range instructionOverridePatterns {
		if pat.MatchString(text) {
			return g.blocked(ThreatHigh, fmt.Sprintf("Instruction override detected: %s", pat.String()))
		}
	}
	for _, pat := range roleManipulationPatterns {
		if pat.MatchString(text) {
			return g.blocked(ThreatHigh, fmt.Sprintf("Role manipulation detected: %s", pat.String()))
		}
	}
	for _, pat := range delimiterInjectionPatterns {
		if pat.MatchString(text) {
			return g.blocked(ThreatCritical, fmt.Sprintf("Delimiter injection detected: %s", pat.String()))
		}
	}
	return Result{
		Allowed: true,
		Level:   ThreatNone,
		Reason:  "Input passed all checks",
		Backend: g.Name(),
	}
}

func (g *RegexGuard) blocked(level ThreatLevel, reason string) Result {
	return Result{
		Allowed: false,
		Level:   level,
		Reason:  reason,
		Score:   level.Score(),
		Backend: g.Name(),
	}
}
