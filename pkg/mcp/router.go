package mcp

import (
	"fmt"
	"regexp"
	"strings"
)

// Qualified tool names take the form "server.tool". Server and tool ids
// are word characters plus hyphens.
var toolNameRegex = regexp.MustCompile(`^([\w][\w-]*)\.([\w][\w-]*)$`)

// NormalizeToolName converts the double-underscore form some models emit
// ("server__tool") to the canonical dotted form.
func NormalizeToolName(name string) string {
	if strings.Contains(name, "__") && !strings.Contains(name, ".") {
		return strings.Replace(name, "__", ".", 1)
	}
	return name
}

// SplitToolName parses a qualified tool name into server and tool ids.
func SplitToolName(name string) (serverID, toolName string, err error) {
	normalized := NormalizeToolName(name)
	matches := toolNameRegex.FindStringSubmatch(normalized)
	if matches == nil {
		return "", "", fmt.Errorf("invalid tool name %q: expected server.tool", name)
	}
	return matches[1], matches[2], nil
}

// QualifyToolName joins a server and tool id into the canonical form.
func QualifyToolName(serverID, toolName string) string {
	return serverID + "." + toolName
}
