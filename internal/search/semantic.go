package search

import (
	"fmt"
	"math"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
)

// embeddingCacheSize bounds the in-memory embedding cache.
const embeddingCacheSize = 4096

// Embedder produces a vector embedding for a piece of text. Implementations
// may call out to an external model; a nil Embedder disables semantic search
// and hybrid queries fall back to BM25 only.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// EmbeddingModel provides semantic scoring via vector embeddings.
// Vectors are cached in an LRU in front of sqlite persistence.
type EmbeddingModel struct {
	embedder Embedder
	storage  storage.Storage
	cache    *lru.Cache[string, []float32]
	mu       sync.RWMutex
	version  string
	enabled  bool
	log      *logrus.Entry
}

// NewEmbeddingModel creates a new embedding model wrapper. Both embedder and
// store may be nil; semantic search degrades to unavailable in that case.
func NewEmbeddingModel(embedder Embedder, store storage.Storage) *EmbeddingModel {
	cache, _ := lru.New[string, []float32](embeddingCacheSize)
	return &EmbeddingModel{
		embedder: embedder,
		storage:  store,
		cache:    cache,
		version:  "v1",
		enabled:  true,
		log:      logging.Component("embeddings"),
	}
}

// Available reports whether semantic search can produce scores.
func (e *EmbeddingModel) Available() bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled && e.embedder != nil
}

// SetEnabled toggles semantic scoring without discarding cached vectors.
func (e *EmbeddingModel) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// Embed generates an embedding for text, without caching. Used for queries.
func (e *EmbeddingModel) Embed(text string) ([]float32, error) {
	if !e.Available() {
		return nil, fmt.Errorf("embedding model not available")
	}
	return e.embedder.Embed(text)
}

// EmbedChunk generates and caches an embedding for an indexed chunk.
func (e *EmbeddingModel) EmbedChunk(chunkID, content string) error {
	if !e.Available() {
		return fmt.Errorf("embedding model not available")
	}

	vector, err := e.embedder.Embed(content)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %s: %w", chunkID, err)
	}

	return e.SaveEmbedding(chunkID, vector)
}

// SaveEmbedding caches an embedding vector for a chunk.
func (e *EmbeddingModel) SaveEmbedding(chunkID string, vector []float32) error {
	e.cache.Add(chunkID, vector)

	if e.storage != nil {
		if err := e.storage.SaveEmbedding(chunkID, vector, e.version); err != nil {
			e.log.Warnf("failed to persist embedding for %s: %v", chunkID, err)
		}
	}

	return nil
}

// GetEmbedding retrieves a cached embedding for a chunk, falling back to
// persistent storage on a cache miss.
func (e *EmbeddingModel) GetEmbedding(chunkID string) ([]float32, error) {
	if vec, ok := e.cache.Get(chunkID); ok {
		return vec, nil
	}

	if e.storage != nil {
		vector, _, err := e.storage.GetEmbedding(chunkID)
		if err == nil && vector != nil {
			e.cache.Add(chunkID, vector)
			return vector, nil
		}
	}

	return nil, fmt.Errorf("embedding not found for chunk: %s", chunkID)
}

// ClearCache drops the in-memory embedding cache.
func (e *EmbeddingModel) ClearCache() {
	e.cache.Purge()
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SearchSemantic scores candidate results by cosine similarity between the
// query embedding and each chunk's cached embedding. Candidates without a
// cached vector are skipped. Returns nil when semantic search is unavailable;
// callers fall back to BM25.
func (i *Indexer) SearchSemantic(query string, limit int, model *EmbeddingModel, candidates []SearchResult) ([]SearchResult, error) {
	if model == nil || !model.Available() {
		return nil, nil
	}

	if limit <= 0 {
		limit = 10
	}

	queryVec, err := model.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if queryVec == nil {
		return nil, nil
	}

	scored := make([]SearchResult, 0, len(candidates))
	for _, candidate := range candidates {
		chunkVec, err := model.GetEmbedding(candidate.ID)
		if err != nil {
			continue
		}

		result := candidate
		result.Score = cosineSimilarity(queryVec, chunkVec)
		scored = append(scored, result)
	}

	sort.Slice(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}
