package memory

import "sync"

// Tier names the three memory tiers.
type Tier string

const (
	TierHot  Tier = "hot"  // recent, TTL-based cache
	TierWarm Tier = "warm" // temporal index with tags
	TierCold Tier = "cold" // long-term persistent
)

type hotEntry struct {
	Entry
	expiresAt float64
	tags      []string
}

type warmEntry struct {
	Entry
	tags []string
}

type coldEntry struct {
	Entry
	tags      []string
	relations []string
}

// TieredService is the 3-tier memory: hot (cache) -> warm (indexed) ->
// cold (persistent). Hot entries expire after the configured TTL; warm
// entries older than the max age are promoted to cold during Decay.
type TieredService struct {
	mu sync.Mutex

	hot  map[string]*hotEntry
	warm map[string]*warmEntry
	cold map[string]*coldEntry

	hotTTL      float64
	warmMaxAge  float64
	extractor   EntityExtractor
	relationIdx map[string]map[string]bool // entity -> cold keys
}

// TieredOption configures a TieredService.
type TieredOption func(*TieredService)

// WithHotTTL sets the hot-tier TTL in seconds.
func WithHotTTL(seconds float64) TieredOption {
	return func(s *TieredService) { s.hotTTL = seconds }
}

// WithWarmMaxAge sets the warm-tier max age in seconds.
func WithWarmMaxAge(seconds float64) TieredOption {
	return func(s *TieredService) { s.warmMaxAge = seconds }
}

// WithEntityExtractor sets the extractor used to build the cold-tier
// relation index.
func WithEntityExtractor(e EntityExtractor) TieredOption {
	return func(s *TieredService) { s.extractor = e }
}

// NewTieredService creates a tiered memory with a 5 minute hot TTL and a
// 1 hour warm max age by default.
func NewTieredService(opts ...TieredOption) *TieredService {
	s := &TieredService{
		hot:         make(map[string]*hotEntry),
		warm:        make(map[string]*warmEntry),
		cold:        make(map[string]*coldEntry),
		hotTTL:      300.0,
		warmMaxAge:  3600.0,
		relationIdx: make(map[string]map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store places an entry in the hot tier.
func (s *TieredService) Store(key, content string, category Category, sessionID string) {
	s.StoreTiered(key, content, category, sessionID, nil, TierHot)
}

// StoreTiered places an entry in a specific tier with optional tags.
// Cold-tier entries get their relations extracted and indexed.
func (s *TieredService) StoreTiered(key, content string, category Category, sessionID string, tags []string, tier Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(key, content, category, sessionID, tags, tier)
}

func (s *TieredService) storeLocked(key, content string, category Category, sessionID string, tags []string, tier Tier) {
	now := nowSeconds()
	entry := Entry{Key: key, Content: content, Category: category, Timestamp: now, SessionID: sessionID}

	switch tier {
	case TierWarm:
		s.warm[key] = &warmEntry{Entry: entry, tags: tags}
	case TierCold:
		var relations []string
		if s.extractor != nil {
			relations = s.extractor.Extract(content)
		}
		s.cold[key] = &coldEntry{Entry: entry, tags: tags, relations: relations}
		for _, entity := range relations {
			if s.relationIdx[entity] == nil {
				s.relationIdx[entity] = make(map[string]bool)
			}
			s.relationIdx[entity][key] = true
		}
	default:
		s.hot[key] = &hotEntry{Entry: entry, expiresAt: now + s.hotTTL, tags: tags}
	}
}

// Recall searches hot, then warm, then cold, most recent first. Expired
// hot entries are evicted as they are seen.
func (s *TieredService) Recall(query string, limit int, sessionID string) []Entry {
	return s.RecallTiered(query, limit, sessionID, "", nil)
}

// RecallTiered restricts recall to one tier and/or a tag filter. An empty
// tier searches all tiers; with tags set, entries need at least one
// matching tag.
func (s *TieredService) RecallTiered(query string, limit int, sessionID string, tier Tier, tags []string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowSeconds()
	words := queryWords(query)
	var results []Entry

	if tier == "" || tier == TierHot {
		for key, entry := range s.hot {
			if entry.expiresAt <= now {
				delete(s.hot, key)
				continue
			}
			if s.matches(entry.Entry, entry.tags, words, sessionID, tags) {
				results = append(results, entry.Entry)
			}
		}
	}
	if tier == "" || tier == TierWarm {
		for _, entry := range s.warm {
			if s.matches(entry.Entry, entry.tags, words, sessionID, tags) {
				results = append(results, entry.Entry)
			}
		}
	}
	if tier == "" || tier == TierCold {
		for _, entry := range s.cold {
			if s.matches(entry.Entry, entry.tags, words, sessionID, tags) {
				results = append(results, entry.Entry)
			}
		}
	}

	sortByRecency(results)
	return capLimit(results, limit)
}

func (s *TieredService) matches(entry Entry, entryTags []string, words map[string]bool, sessionFilter string, tagFilter []string) bool {
	if sessionFilter != "" && entry.SessionID != sessionFilter {
		return false
	}
	if len(tagFilter) > 0 {
		found := false
		for _, want := range tagFilter {
			for _, have := range entryTags {
				if want == have {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	return wordOverlap(entry.Key, entry.Content, words)
}

// RecallByRelation returns cold-tier entries whose relations mention the
// entity, most recent first.
func (s *TieredService) RecallByRelation(entity string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []Entry
	for key := range s.relationIdx[entity] {
		if entry, ok := s.cold[key]; ok {
			results = append(results, entry.Entry)
		}
	}
	sortByRecency(results)
	return results
}

// RecallMultihop follows relation chains up to hops levels deep, starting
// from the query as the seed entity.
func (s *TieredService) RecallMultihop(query string, hops int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	frontier := map[string]bool{query: true}

	for i := 0; i < hops; i++ {
		next := make(map[string]bool)
		for entity := range frontier {
			for key := range s.relationIdx[entity] {
				if seen[key] {
					continue
				}
				seen[key] = true
				if entry, ok := s.cold[key]; ok {
					for _, rel := range entry.relations {
						next[rel] = true
					}
				}
			}
		}
		for entity := range frontier {
			delete(next, entity)
		}
		frontier = next
	}

	var results []Entry
	for key := range seen {
		if entry, ok := s.cold[key]; ok {
			results = append(results, entry.Entry)
		}
	}
	sortByRecency(results)
	return results
}

// Forget removes an entry from every tier.
func (s *TieredService) Forget(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	if _, ok := s.hot[key]; ok {
		delete(s.hot, key)
		found = true
	}
	if _, ok := s.warm[key]; ok {
		delete(s.warm, key)
		found = true
	}
	if _, ok := s.cold[key]; ok {
		delete(s.cold, key)
		found = true
	}
	return found
}

// Promote moves an entry to the target tier, wherever it currently lives.
func (s *TieredService) Promote(key string, target Tier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry Entry
	var tags []string
	switch {
	case s.hot[key] != nil:
		entry, tags = s.hot[key].Entry, s.hot[key].tags
	case s.warm[key] != nil:
		entry, tags = s.warm[key].Entry, s.warm[key].tags
	case s.cold[key] != nil:
		entry, tags = s.cold[key].Entry, s.cold[key].tags
	default:
		return false
	}

	delete(s.hot, key)
	delete(s.warm, key)
	delete(s.cold, key)
	s.storeLocked(key, entry.Content, entry.Category, entry.SessionID, tags, target)
	return true
}

// Decay evicts expired hot entries and promotes aged warm entries to cold.
// Returns (evictedHot, promotedToCold).
func (s *TieredService) Decay() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowSeconds()
	evicted := 0
	for key, entry := range s.hot {
		if entry.expiresAt <= now {
			delete(s.hot, key)
			evicted++
		}
	}

	promoted := 0
	for key, entry := range s.warm {
		if now-entry.Timestamp >= s.warmMaxAge {
			delete(s.warm, key)
			s.cold[key] = &coldEntry{Entry: entry.Entry, tags: entry.tags}
			promoted++
		}
	}
	return evicted, promoted
}
