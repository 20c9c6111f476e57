package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ygn-labs/ygn-brain/pkg/masking"
)

// SchemaRegistry holds JSON schemas for tool outputs, keyed by tool name.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]map[string]any
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]map[string]any)}
}

func (r *SchemaRegistry) Register(toolName string, schema map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[toolName] = schema
}

func (r *SchemaRegistry) Get(toolName string) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[toolName]
	return schema, ok
}

// Validate checks parsed tool output against the registered schema.
// Tools without a schema always validate. Only the checks that matter
// in practice are applied: top-level type, required fields, and basic
// property types.
func (r *SchemaRegistry) Validate(toolName string, data any) (bool, []string) {
	schema, ok := r.Get(toolName)
	if !ok {
		return true, nil
	}

	var errs []string
	obj, isMap := data.(map[string]any)
	if schemaType, _ := schema["type"].(string); schemaType == "object" && !isMap {
		return false, []string{fmt.Sprintf("Expected object, got %T", data)}
	}
	if !isMap {
		return true, nil
	}

	if required, ok := schema["required"].([]any); ok {
		for _, f := range required {
			field, _ := f.(string)
			if _, present := obj[field]; !present {
				errs = append(errs, "Missing required field: "+field)
			}
		}
	}

	if properties, ok := schema["properties"].(map[string]any); ok {
		for key, propAny := range properties {
			prop, _ := propAny.(map[string]any)
			expected, _ := prop["type"].(string)
			value, present := obj[key]
			if !present || expected == "" {
				continue
			}
			if !typeMatches(expected, value) {
				errs = append(errs, fmt.Sprintf("Field %q: expected %s, got %T", key, expected, value))
			}
		}
	}

	return len(errs) == 0, errs
}

func typeMatches(expected string, value any) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, int, int64, json.Number:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	default:
		return true
	}
}

// AutoDiscover registers output schemas from a server's advertised tools.
func (r *SchemaRegistry) AutoDiscover(tools []*mcpsdk.Tool) int {
	discovered := 0
	for _, tool := range tools {
		if tool == nil || tool.OutputSchema == nil {
			continue
		}
		raw, err := json.Marshal(tool.OutputSchema)
		if err != nil {
			continue
		}
		var schema map[string]any
		if err := json.Unmarshal(raw, &schema); err != nil {
			continue
		}
		r.Register(tool.Name, schema)
		discovered++
	}
	return discovered
}

// Normalized is the aligned form of a raw tool result: parsed when
// possible, validated when a schema exists, secrets redacted, and
// summarized at two detail levels.
type Normalized struct {
	Valid            bool     `json:"valid"`
	Data             string   `json:"data"`
	SummaryConcise   string   `json:"summary_concise"`
	SummaryDetailed  string   `json:"summary_detailed"`
	RedactedFields   []string `json:"redacted_fields,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

const (
	conciseSummaryLen  = 200
	detailedSummaryLen = 2000
)

// Aligner normalizes tool output for storage and model consumption.
type Aligner struct {
	registry *SchemaRegistry
	masker   *masking.Service
}

func NewAligner(registry *SchemaRegistry) *Aligner {
	return NewAlignerWithMasker(registry, masking.NewDefaultService())
}

// NewAlignerWithMasker uses a configured masking service instead of the
// built-in default patterns.
func NewAlignerWithMasker(registry *SchemaRegistry, masker *masking.Service) *Aligner {
	if registry == nil {
		registry = NewSchemaRegistry()
	}
	if masker == nil {
		masker = masking.NewDefaultService()
	}
	return &Aligner{
		registry: registry,
		masker:   masker,
	}
}

// Normalize parses, validates, and redacts a raw tool result. Input is
// bounded first so a pathological result cannot stall parsing.
func (a *Aligner) Normalize(toolName, raw string) Normalized {
	raw = TruncateForSummarization(raw)
	valid := true
	var validationErrs []string
	text := raw

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		valid, validationErrs = a.registry.Validate(toolName, parsed)
		if compact, err := json.Marshal(parsed); err == nil {
			text = string(compact)
		}
	}

	redacted, redactedFields := a.masker.Redact(text)

	return Normalized{
		Valid:            valid,
		Data:             redacted,
		SummaryConcise:   truncateSummary(redacted, conciseSummaryLen),
		SummaryDetailed:  truncateSummary(redacted, detailedSummaryLen),
		RedactedFields:   redactedFields,
		ValidationErrors: validationErrs,
	}
}

// truncateSummary cuts text to max characters, backing up to the last
// space when that does not throw away more than half the budget.
func truncateSummary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
