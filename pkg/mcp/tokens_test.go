package mcp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestTruncateForStorage_ShortTextUntouched(t *testing.T) {
	text := "short output"
	assert.Equal(t, text, TruncateForStorage(text))
}

func TestTruncateAtLineBoundary(t *testing.T) {
	lines := strings.Repeat("log line with some content here\n", 100)
	truncated := truncateAtLineBoundary(lines, 1000)

	assert.Less(t, len(truncated), len(lines))
	assert.Contains(t, truncated, "[TRUNCATED:")
	// Everything before the marker is whole lines.
	body := truncated[:strings.Index(truncated, "\n[TRUNCATED:")]
	for _, line := range strings.Split(body, "\n") {
		assert.Equal(t, "log line with some content here", line)
	}
}

func TestTruncateAtLineBoundary_UTF8Safe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 200)
	truncated := truncateAtLineBoundary(text, 500)
	assert.True(t, strings.HasSuffix(truncated, "]"))
	// No broken runes anywhere.
	for _, r := range truncated {
		assert.NotEqual(t, '�', r)
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512B", formatSize(512))
	assert.Equal(t, "1.5KB", formatSize(1536))
}
