package memory

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

// SemanticHit is one semantic search result.
type SemanticHit struct {
	Key        string            `json:"key"`
	Content    string            `json:"content"`
	Similarity float32           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SemanticIndex is the cold-tier vector index backed by an embedded chromem
// database. Embeddings are computed by the configured EmbeddingService, so
// the index never needs network access.
type SemanticIndex struct {
	db       *chromem.DB
	col      *chromem.Collection
	embedder EmbeddingService
}

// NewSemanticIndex creates an index. With a non-empty persistPath the
// database is loaded from (or created at) that path; otherwise it lives in
// memory only.
func NewSemanticIndex(persistPath string, embedder EmbeddingService) (*SemanticIndex, error) {
	if embedder == nil {
		embedder = HashEmbeddingService{}
	}

	var db *chromem.DB
	var err error
	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open vector database: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := embedder.Embed([]string{text})
		if err != nil {
			return nil, err
		}
		return vecs[0], nil
	}
	col, err := db.GetOrCreateCollection("memories", nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("create memories collection: %w", err)
	}

	slog.Info("Semantic index initialized",
		"persistent", persistPath != "", "dimension", embedder.Dimension())
	return &SemanticIndex{db: db, col: col, embedder: embedder}, nil
}

// Add indexes a memory entry under its key.
func (s *SemanticIndex) Add(ctx context.Context, key, content string, metadata map[string]string) error {
	doc := chromem.Document{ID: key, Content: content, Metadata: metadata}
	if err := s.col.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("index memory %q: %w", key, err)
	}
	return nil
}

// Search returns the topK most similar entries to the query.
func (s *SemanticIndex) Search(ctx context.Context, query string, topK int) ([]SemanticHit, error) {
	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	if topK > count {
		topK = count
	}

	results, err := s.col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	hits := make([]SemanticHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SemanticHit{
			Key:        r.ID,
			Content:    r.Content,
			Similarity: r.Similarity,
			Metadata:   r.Metadata,
		})
	}
	return hits, nil
}

// Delete removes an entry from the index.
func (s *SemanticIndex) Delete(ctx context.Context, key string) error {
	if err := s.col.Delete(ctx, nil, nil, key); err != nil {
		return fmt.Errorf("delete memory %q from index: %w", key, err)
	}
	return nil
}

// Count returns the number of indexed entries.
func (s *SemanticIndex) Count() int {
	return s.col.Count()
}
