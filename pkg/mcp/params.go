package mcp

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var keyValueKeyRegex = regexp.MustCompile(`^[\w][\w-]*$`)

// ParseToolInput converts a model-emitted argument string into a
// parameter map. Models produce JSON when asked nicely, YAML when they
// feel like it, and loose key-value pairs the rest of the time, so the
// parser tries each format in order of strictness before falling back
// to a raw "input" parameter.
func ParseToolInput(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	if params, ok := tryParseJSON(raw); ok {
		return params
	}
	if params, ok := tryParseYAML(raw); ok {
		return params
	}
	if params, ok := tryParseKeyValue(raw); ok {
		return params
	}

	return map[string]any{"input": raw}
}

func tryParseJSON(raw string) (map[string]any, bool) {
	if !strings.HasPrefix(raw, "{") {
		return nil, false
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, false
	}
	return params, true
}

// tryParseYAML only accepts input that yields a map with more structure
// than a single scalar, so plain prose does not accidentally parse.
func tryParseYAML(raw string) (map[string]any, bool) {
	if !strings.Contains(raw, ":") {
		return nil, false
	}
	var params map[string]any
	if err := yaml.Unmarshal([]byte(raw), &params); err != nil {
		return nil, false
	}
	if len(params) == 0 {
		return nil, false
	}
	for _, v := range params {
		if v == nil {
			return nil, false
		}
	}
	return params, true
}

func tryParseKeyValue(raw string) (map[string]any, bool) {
	var pairs []string
	if strings.Contains(raw, "\n") {
		pairs = strings.Split(raw, "\n")
	} else {
		pairs = strings.Split(raw, ",")
	}

	params := make(map[string]any)
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		var key, value string
		var found bool
		if key, value, found = strings.Cut(pair, ":"); !found {
			if key, value, found = strings.Cut(pair, "="); !found {
				return nil, false
			}
		}
		key = strings.TrimSpace(key)
		if !keyValueKeyRegex.MatchString(key) {
			return nil, false
		}
		params[key] = coerceValue(strings.TrimSpace(value))
	}
	if len(params) == 0 {
		return nil, false
	}
	return params, true
}

// coerceValue converts string literals to their natural types.
func coerceValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	case "null", "~":
		return nil
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
