// Package memory provides the agent's recall layers: a flat keyword
// backend, the tiered hot/warm/cold service with a relation index, and a
// vector index for semantic search.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Category classifies a memory record.
type Category string

const (
	CategoryCore         Category = "core"
	CategoryDaily        Category = "daily"
	CategoryConversation Category = "conversation"
	CategoryCustom       Category = "custom"
)

// Entry is a single memory record.
type Entry struct {
	Key       string   `json:"key"`
	Content   string   `json:"content"`
	Category  Category `json:"category"`
	Timestamp float64  `json:"timestamp"`
	SessionID string   `json:"session_id,omitempty"`
}

// Service is the store/recall/forget interface shared by all backends.
type Service interface {
	Store(key, content string, category Category, sessionID string)
	// Recall returns entries matching the query, most recent first.
	Recall(query string, limit int, sessionID string) []Entry
	// Forget removes an entry by key, reporting whether it existed.
	Forget(key string) bool
}

// queryWords splits a query into lowercase words of three or more chars.
func queryWords(query string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= 3 {
			words[w] = true
		}
	}
	return words
}

func wordOverlap(key, content string, words map[string]bool) bool {
	if len(words) == 0 {
		return true
	}
	text := strings.ToLower(key + " " + content)
	for w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func nowSeconds() float64 {
	return float64(time.Now().UnixMicro()) / 1e6
}

// InMemoryBackend is a flat map-based Service for development and tests.
type InMemoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewInMemoryBackend creates an empty backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{entries: make(map[string]Entry)}
}

func (b *InMemoryBackend) Store(key, content string, category Category, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = Entry{
		Key:       key,
		Content:   content,
		Category:  category,
		Timestamp: nowSeconds(),
		SessionID: sessionID,
	}
}

func (b *InMemoryBackend) Recall(query string, limit int, sessionID string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	words := queryWords(query)
	var matches []Entry
	for _, entry := range b.entries {
		if sessionID != "" && entry.SessionID != sessionID {
			continue
		}
		if wordOverlap(entry.Key, entry.Content, words) {
			matches = append(matches, entry)
		}
	}
	sortByRecency(matches)
	return capLimit(matches, limit)
}

func (b *InMemoryBackend) Forget(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[key]; !ok {
		return false
	}
	delete(b.entries, key)
	return true
}

func sortByRecency(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
}

func capLimit(entries []Entry, limit int) []Entry {
	if limit <= 0 {
		limit = 5
	}
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
