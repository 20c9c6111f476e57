// Package artifact externalizes large payloads out of model context.
// Content is addressed by its SHA-256 hash; the compiled context carries
// only lightweight handles with summaries.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// Handle is a lightweight reference to an externalized payload.
type Handle struct {
	ArtifactID string  `json:"artifact_id"`
	Summary    string  `json:"summary"`
	SizeBytes  int     `json:"size_bytes"`
	MimeType   string  `json:"mime_type"`
	CreatedAt  float64 `json:"created_at"`
	Source     string  `json:"source"`
}

// Store persists large payloads outside model context.
type Store interface {
	// Store saves content and returns its handle. Storing identical
	// content twice returns the existing artifact.
	Store(content []byte, source, mimeType string) (Handle, error)
	// Retrieve returns the content, or nil when the artifact is unknown.
	Retrieve(artifactID string) ([]byte, error)
	Exists(artifactID string) (bool, error)
	ListHandles() ([]Handle, error)
	// Delete removes an artifact; returns whether anything was deleted.
	Delete(artifactID string) (bool, error)
}

// ContentHash returns the artifact ID for a payload.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// summaryMaxLen bounds the preview attached to a handle.
const summaryMaxLen = 200

// MakeSummary builds a short preview: the first ~200 chars truncated at a
// word boundary.
func MakeSummary(content []byte) string {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	if len(text) <= summaryMaxLen {
		return text
	}
	truncated := text[:summaryMaxLen]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > summaryMaxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}

func nowSeconds() float64 {
	return float64(time.Now().UnixMicro()) / 1e6
}
