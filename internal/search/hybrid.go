package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// FusionConfig defines weights for hybrid score fusion.
type FusionConfig struct {
	SemanticWeight float64
	KeywordWeight  float64
}

// DefaultFusionConfig provides balanced fusion (70% semantic, 30% keyword).
var DefaultFusionConfig = FusionConfig{
	SemanticWeight: 0.7,
	KeywordWeight:  0.3,
}

// recencyHalfLife controls how fast the recency channel decays.
const recencyHalfLife = 30 * 24 * time.Hour

// SearchHybrid performs hybrid search combining BM25 and semantic scores.
// The BM25 retrieval and the query embedding run concurrently; when no
// embedding model is available the result falls back to keyword-only
// scoring. Every result carries its per-channel feature scores so the
// reranker and the feedback loop can attribute relevance.
func (i *Indexer) SearchHybrid(query string, limit int, config FusionConfig, model *EmbeddingModel) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		bm25Results []SearchResult
		queryVec    []float32
	)

	var g errgroup.Group

	g.Go(func() error {
		results, err := i.SearchBM25(query, limit*2)
		if err != nil {
			return err
		}
		bm25Results = results
		return nil
	})

	if model != nil && model.Available() {
		g.Go(func() error {
			vec, err := model.Embed(query)
			if err != nil {
				// Semantic branch degrades; keyword results still serve.
				return nil
			}
			queryVec = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuseScores(query, bm25Results, queryVec, model, config)

	sort.Slice(fused, func(a, b int) bool {
		return fused[a].Score > fused[b].Score
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}

	return fused, nil
}

// fuseScores computes the feature channels for each candidate and combines
// the keyword and semantic channels using weighted fusion.
func fuseScores(query string, candidates []SearchResult, queryVec []float32, model *EmbeddingModel, config FusionConfig) []SearchResult {
	normalized := normalizeScores(candidates)
	now := time.Now()

	fused := make([]SearchResult, 0, len(normalized))
	for _, candidate := range normalized {
		features := map[string]float64{
			FeatureKeyword:  candidate.Score,
			FeatureSemantic: 0,
			FeatureRecency:  recencyScore(candidate.ModTime, now),
			FeaturePath:     pathScore(query, candidate.Path),
		}

		hasSemantic := false
		if queryVec != nil && model != nil {
			if chunkVec, err := model.GetEmbedding(candidate.ID); err == nil {
				features[FeatureSemantic] = cosineSimilarity(queryVec, chunkVec)
				hasSemantic = true
			}
		}

		result := candidate
		result.Features = features
		if hasSemantic {
			result.Score = config.SemanticWeight*features[FeatureSemantic] +
				config.KeywordWeight*features[FeatureKeyword]
		} else {
			result.Score = features[FeatureKeyword]
		}

		fused = append(fused, result)
	}

	return fused
}

// recencyScore maps a modification time to (0, 1], halving every
// recencyHalfLife. Chunks without a recorded time score zero.
func recencyScore(modTime, now time.Time) float64 {
	if modTime.IsZero() {
		return 0
	}
	age := now.Sub(modTime)
	if age < 0 {
		age = 0
	}
	return math.Pow(0.5, float64(age)/float64(recencyHalfLife))
}

// pathScore measures how many query terms appear in the result path.
func pathScore(query, path string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	lowered := strings.ToLower(path)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			matched++
		}
	}

	return float64(matched) / float64(len(terms))
}

// normalizeScores normalizes scores to [0, 1] range.
func normalizeScores(results []SearchResult) []SearchResult {
	if len(results) == 0 {
		return results
	}

	minScore := results[0].Score
	maxScore := results[0].Score

	for _, result := range results {
		if result.Score < minScore {
			minScore = result.Score
		}
		if result.Score > maxScore {
			maxScore = result.Score
		}
	}

	// When all scores are equal, set all to 1.0
	if maxScore == minScore {
		normalized := make([]SearchResult, len(results))
		for i, result := range results {
			normalized[i] = result
			normalized[i].Score = 1.0
		}
		return normalized
	}

	normalized := make([]SearchResult, len(results))
	for i, result := range results {
		normalized[i] = result
		normalized[i].Score = (result.Score - minScore) / (maxScore - minScore)
	}

	return normalized
}
