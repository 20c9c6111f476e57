package memory

import "regexp"

// EntityExtractor pulls entity names out of memory content for the
// relation index.
type EntityExtractor interface {
	Extract(text string) []string
}

// StubEntityExtractor extracts nothing.
type StubEntityExtractor struct{}

func (StubEntityExtractor) Extract(string) []string { return nil }

// RegexEntityExtractor extracts function names, class names, URLs, and
// file paths.
type RegexEntityExtractor struct{}

var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bdef\s+(\w+)`),
	regexp.MustCompile(`\bclass\s+(\w+)`),
	regexp.MustCompile(`\bfn\s+(\w+)`),
	regexp.MustCompile(`\bfunc\s+(\w+)`),
	regexp.MustCompile(`(https?://\S+)`),
	regexp.MustCompile(`(/[\w/.\-]+\.\w+)`),
}

func (RegexEntityExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	var entities []string
	seen := make(map[string]bool)
	for _, pattern := range entityPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			entity := match[0]
			if len(match) > 1 {
				entity = match[1]
			}
			if !seen[entity] {
				seen[entity] = true
				entities = append(entities, entity)
			}
		}
	}
	return entities
}
