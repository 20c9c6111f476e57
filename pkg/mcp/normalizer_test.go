package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ygn-labs/ygn-brain/pkg/masking"
)

func TestSchemaRegistry_NoSchemaValidates(t *testing.T) {
	registry := NewSchemaRegistry()
	valid, errs := registry.Validate("unknown_tool", map[string]any{"anything": 1})
	assert.True(t, valid)
	assert.Empty(t, errs)
}

func TestSchemaRegistry_RequiredFields(t *testing.T) {
	registry := NewSchemaRegistry()
	registry.Register("search", map[string]any{
		"type":     "object",
		"required": []any{"results", "count"},
	})

	valid, errs := registry.Validate("search", map[string]any{"results": []any{}})
	assert.False(t, valid)
	assert.Equal(t, []string{"Missing required field: count"}, errs)
}

func TestSchemaRegistry_TypeMismatch(t *testing.T) {
	registry := NewSchemaRegistry()
	registry.Register("status", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"healthy": map[string]any{"type": "boolean"},
			"name":    map[string]any{"type": "string"},
		},
	})

	valid, errs := registry.Validate("status", map[string]any{
		"healthy": "yes",
		"name":    "core",
	})
	assert.False(t, valid)
	assert.Contains(t, errs[0], `Field "healthy": expected boolean`)
}

func TestSchemaRegistry_NonObjectAgainstObjectSchema(t *testing.T) {
	registry := NewSchemaRegistry()
	registry.Register("list", map[string]any{"type": "object"})

	valid, errs := registry.Validate("list", []any{1, 2})
	assert.False(t, valid)
	assert.Contains(t, errs[0], "Expected object")
}

func TestAligner_RedactsSecrets(t *testing.T) {
	aligner := NewAligner(nil)
	normalized := aligner.Normalize("fetch", `{"token": "sk-abc123def456ghi789jkl012"}`)

	assert.True(t, normalized.Valid)
	assert.NotContains(t, normalized.Data, "sk-abc123def456ghi789jkl012")
	assert.NotEmpty(t, normalized.RedactedFields)
}

func TestAligner_CustomMaskerHonored(t *testing.T) {
	aligner := NewAlignerWithMasker(nil, masking.NewService(masking.Config{Enabled: false}))
	normalized := aligner.Normalize("fetch", `{"token": "sk-abc123def456ghi789jkl012"}`)

	assert.Contains(t, normalized.Data, "sk-abc123def456ghi789jkl012")
	assert.Empty(t, normalized.RedactedFields)
}

func TestAligner_ValidationErrorsSurface(t *testing.T) {
	registry := NewSchemaRegistry()
	registry.Register("search", map[string]any{
		"type":     "object",
		"required": []any{"results"},
	})
	aligner := NewAligner(registry)

	normalized := aligner.Normalize("search", `{"count": 3}`)
	assert.False(t, normalized.Valid)
	assert.Equal(t, []string{"Missing required field: results"}, normalized.ValidationErrors)
}

func TestAligner_PlainTextPassesThrough(t *testing.T) {
	aligner := NewAligner(nil)
	normalized := aligner.Normalize("echo", "hello from the tool")

	assert.True(t, normalized.Valid)
	assert.Equal(t, "hello from the tool", normalized.Data)
	assert.Equal(t, "hello from the tool", normalized.SummaryConcise)
}

func TestAligner_BoundsOversizedInput(t *testing.T) {
	aligner := NewAligner(nil)
	huge := strings.Repeat("filler line of tool output\n", 16000) // > 400 KB
	normalized := aligner.Normalize("dump", huge)

	assert.Less(t, len(normalized.Data), len(huge))
	assert.Contains(t, normalized.Data, "[TRUNCATED:")
}

func TestTruncateSummary(t *testing.T) {
	long := strings.Repeat("word ", 100)
	summary := truncateSummary(long, 200)
	assert.LessOrEqual(t, len(summary), 204)
	assert.True(t, strings.HasSuffix(summary, "..."))

	assert.Equal(t, "short", truncateSummary("short", 200))
}
