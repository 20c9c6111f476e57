package artifact

import "sync"

// MemoryStore is an in-process artifact store, used for tests and for
// sessions that do not configure persistence.
type MemoryStore struct {
	mu       sync.RWMutex
	contents map[string][]byte
	handles  map[string]Handle
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contents: make(map[string][]byte),
		handles:  make(map[string]Handle),
	}
}

func (s *MemoryStore) Store(content []byte, source, mimeType string) (Handle, error) {
	aid := ContentHash(content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.handles[aid]; ok {
		existing.Source = source
		return existing, nil
	}
	handle := Handle{
		ArtifactID: aid,
		Summary:    MakeSummary(content),
		SizeBytes:  len(content),
		MimeType:   mimeType,
		CreatedAt:  nowSeconds(),
		Source:     source,
	}
	stored := make([]byte, len(content))
	copy(stored, content)
	s.contents[aid] = stored
	s.handles[aid] = handle
	return handle, nil
}

func (s *MemoryStore) Retrieve(artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.contents[artifactID]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

func (s *MemoryStore) Exists(artifactID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contents[artifactID]
	return ok, nil
}

func (s *MemoryStore) ListHandles() ([]Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handle, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h)
	}
	return out, nil
}

func (s *MemoryStore) Delete(artifactID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contents[artifactID]; !ok {
		return false, nil
	}
	delete(s.contents, artifactID)
	delete(s.handles, artifactID)
	return true, nil
}
