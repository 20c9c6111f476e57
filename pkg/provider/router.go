package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// modelPrefixes maps model name prefixes to provider names for routing
// when no exact mapping exists.
var modelPrefixes = []struct {
	prefix   string
	provider string
}{
	{"claude", "claude"},
	{"gpt", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"gemini", "gemini"},
	{"llama", "ollama"},
	{"mistral", "ollama"},
	{"phi", "ollama"},
}

// Router dispatches requests to providers by model name. Resolution order:
// exact model mapping, then well-known model name prefixes, then the
// default provider.
type Router struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	modelMap    map[string]string
	defaultName string
}

func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
		modelMap:  make(map[string]string),
	}
}

// Register adds a provider under its own name.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// SetDefault names the provider used when no mapping matches. The provider
// must already be registered.
func (r *Router) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q is not registered", name)
	}
	r.defaultName = name
	return nil
}

// MapModel pins an exact model name to a provider.
func (r *Router) MapModel(model, providerName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modelMap[model] = providerName
}

// Route resolves a model name to a registered provider.
func (r *Router) Route(model string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.modelMap[model]; ok {
		if p, ok := r.providers[name]; ok {
			return p, nil
		}
	}
	lower := strings.ToLower(model)
	for _, m := range modelPrefixes {
		if strings.HasPrefix(lower, m.prefix) {
			if p, ok := r.providers[m.provider]; ok {
				return p, nil
			}
		}
	}
	if r.defaultName != "" {
		if p, ok := r.providers[r.defaultName]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no provider found for model %q", model)
}

// ListProviders returns registered provider names, sorted.
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
