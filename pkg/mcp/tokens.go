package mcp

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Rough token estimation. Tool output skews toward logs and JSON where
// 4 characters per token is a safe approximation.
const charsPerToken = 4

const (
	// DefaultStorageMaxTokens bounds a tool result before it is recorded
	// on the session log.
	DefaultStorageMaxTokens = 8000

	// DefaultSummarizationMaxTokens bounds input handed to an LLM for
	// summarization.
	DefaultSummarizationMaxTokens = 100000
)

// EstimateTokens approximates the token count of text, rounding up.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// TruncateForStorage truncates tool output to the storage token bound.
func TruncateForStorage(text string) string {
	return truncateAtLineBoundary(text, DefaultStorageMaxTokens*charsPerToken)
}

// TruncateForSummarization truncates text to the summarization bound.
func TruncateForSummarization(text string) string {
	return truncateAtLineBoundary(text, DefaultSummarizationMaxTokens*charsPerToken)
}

// truncateAtLineBoundary cuts text to at most maxBytes, backing up to a
// UTF-8 rune boundary and then to the last newline so no line is cut in
// half. A marker describing the truncation is appended.
func truncateAtLineBoundary(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	truncated := text[:cut]
	if idx := strings.LastIndexByte(truncated, '\n'); idx > 0 {
		truncated = truncated[:idx]
	}

	marker := fmt.Sprintf("\n[TRUNCATED: %s removed. Original size: %s, limit: %s]",
		formatSize(len(text)-len(truncated)), formatSize(len(text)), formatSize(maxBytes))
	return truncated + marker
}

func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	return fmt.Sprintf("%.1fKB", float64(n)/1024)
}
