package masking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact_BuiltinPatterns(t *testing.T) {
	s := NewDefaultService()

	tests := []struct {
		name   string
		in     string
		marker string
	}{
		{"sk key", "key is sk-abcdef1234567890", "[REDACTED_API_KEY]"},
		{"bearer", "Authorization: Bearer abc.def-ghi_jkl123", "[REDACTED_BEARER]"},
		{"password eq", "password=hunter22", "[REDACTED_PASSWORD]"},
		{"password colon upper", "PASSWORD: hunter22", "[REDACTED_PASSWORD]"},
		{"api_key", "api_key=12345secret", "[REDACTED_API_KEY]"},
		{"api-key", "API-KEY: 12345", "[REDACTED_API_KEY]"},
		{"secret", "secret: tellnoone", "[REDACTED_SECRET]"},
		{"ghp token", "token ghp_" + strings.Repeat("A", 36), "[REDACTED_GH_TOKEN]"},
		{"gho token", "token gho_" + strings.Repeat("b", 36), "[REDACTED_GH_TOKEN]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, fired := s.Redact(tt.in)
			assert.Contains(t, out, tt.marker)
			assert.Contains(t, fired, tt.marker)
		})
	}
}

func TestRedact_CleanTextUntouched(t *testing.T) {
	s := NewDefaultService()
	in := "deployment scaled to 3 replicas"
	out, fired := s.Redact(in)
	assert.Equal(t, in, out)
	assert.Empty(t, fired)
}

func TestRedact_MultipleSecretsInOneText(t *testing.T) {
	s := NewDefaultService()
	in := "sk-aaaaaaaaaa and password=x and ghp_" + strings.Repeat("Z", 36)
	out, fired := s.Redact(in)
	assert.NotContains(t, out, "sk-aaaaaaaaaa")
	assert.NotContains(t, out, "hunter")
	assert.NotContains(t, out, "ghp_")
	assert.Len(t, fired, 3)
}

func TestRedact_Disabled(t *testing.T) {
	s := NewService(Config{Enabled: false})
	in := "password=visible"
	out, fired := s.Redact(in)
	assert.Equal(t, in, out)
	assert.Empty(t, fired)
}

func TestRedact_CustomPattern(t *testing.T) {
	s := NewService(Config{
		Enabled: true,
		CustomPatterns: []PatternConfig{
			{Name: "internal_id", Pattern: `ID-\d{6}`, Replacement: "[REDACTED_ID]"},
		},
	})
	out, _ := s.Redact("ticket ID-123456 opened")
	assert.Equal(t, "ticket [REDACTED_ID] opened", out)
}

func TestRedact_InvalidCustomPatternSkipped(t *testing.T) {
	s := NewService(Config{
		Enabled: true,
		CustomPatterns: []PatternConfig{
			{Name: "broken", Pattern: `([`, Replacement: "[X]"},
		},
	})
	out, _ := s.Redact("password=abc")
	assert.Contains(t, out, "[REDACTED_PASSWORD]")
}

func TestMaskToolResult(t *testing.T) {
	s := NewDefaultService()
	out := s.MaskToolResult("result: api_key=deadbeef")
	assert.NotContains(t, out, "deadbeef")
}
