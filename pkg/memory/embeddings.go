package memory

import (
	"hash/fnv"
	"math"
	"strings"
)

// EmbeddingService embeds text batches into vectors.
type EmbeddingService interface {
	Embed(texts []string) ([][]float32, error)
	Dimension() int
}

// CosineSimilarity computes cosine similarity between two vectors,
// returning 0 for empty, mismatched, or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// StubEmbeddingService returns zero vectors.
type StubEmbeddingService struct {
	Dim int
}

func (s StubEmbeddingService) Embed(texts []string) ([][]float32, error) {
	dim := s.Dim
	if dim <= 0 {
		dim = 384
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, dim)
	}
	return out, nil
}

func (s StubEmbeddingService) Dimension() int {
	if s.Dim <= 0 {
		return 384
	}
	return s.Dim
}

// HashEmbeddingService is a deterministic bag-of-words embedder: each word
// hashes into a bucket and the vector is L2-normalized. It gives texts with
// shared vocabulary a high cosine similarity without any model dependency.
type HashEmbeddingService struct {
	Dim int
}

func (s HashEmbeddingService) Dimension() int {
	if s.Dim <= 0 {
		return 256
	}
	return s.Dim
}

func (s HashEmbeddingService) Embed(texts []string) ([][]float32, error) {
	dim := s.Dimension()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(word))
			vec[h.Sum32()%uint32(dim)] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm > 0 {
			scale := float32(1.0 / math.Sqrt(norm))
			for j := range vec {
				vec[j] *= scale
			}
		}
		out[i] = vec
	}
	return out, nil
}
