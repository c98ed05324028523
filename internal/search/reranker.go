package search

import (
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// featureMemorySize bounds how many served results keep their feature
// channels available for feedback attribution.
const featureMemorySize = 8192

// WeightProvider supplies the current adaptive feature weights.
// The learning service satisfies this interface.
type WeightProvider interface {
	GetAdaptiveWeights() map[string]float64
}

// Reranker reorders search results by the weighted sum of their feature
// channels using the current adaptive weights.
type Reranker struct {
	weights WeightProvider
	memory  *FeatureMemory
}

// NewReranker creates a reranker backed by the given weight provider.
func NewReranker(weights WeightProvider, memory *FeatureMemory) *Reranker {
	return &Reranker{
		weights: weights,
		memory:  memory,
	}
}

// Rerank rescores results as the weighted sum of their feature channels and
// re-sorts them. Results without feature channels keep their fused score.
// Served results are remembered so relevance feedback can be attributed to
// the channels that ranked them.
func (r *Reranker) Rerank(query string, results []SearchResult) []SearchResult {
	if len(results) == 0 {
		return results
	}

	weights := map[string]float64{}
	if r.weights != nil {
		weights = r.weights.GetAdaptiveWeights()
	}

	reranked := make([]SearchResult, len(results))
	copy(reranked, results)

	for i, result := range reranked {
		if len(result.Features) == 0 {
			continue
		}

		score := 0.0
		for feature, value := range result.Features {
			weight, ok := weights[feature]
			if !ok {
				continue
			}
			score += weight * value
		}
		reranked[i].Score = score

		if r.memory != nil {
			r.memory.Remember(query, result.ID, result.Features)
		}
	}

	sort.SliceStable(reranked, func(a, b int) bool {
		return reranked[a].Score > reranked[b].Score
	})

	return reranked
}

// FeatureMemory remembers the feature channels of served results, keyed by
// query and result ID. It backs feedback attribution: when a user marks a
// result relevant, the channels that surfaced it receive the credit.
type FeatureMemory struct {
	cache *lru.Cache[string, map[string]float64]
}

// NewFeatureMemory creates an empty feature memory.
func NewFeatureMemory() *FeatureMemory {
	cache, _ := lru.New[string, map[string]float64](featureMemorySize)
	return &FeatureMemory{cache: cache}
}

// Remember stores the feature channels a result was served with.
func (m *FeatureMemory) Remember(query, resultID string, features map[string]float64) {
	stored := make(map[string]float64, len(features))
	for k, v := range features {
		stored[k] = v
	}
	m.cache.Add(memoryKey(query, resultID), stored)
}

// FeatureScores returns the remembered feature channels for a served result,
// or nil when the result is unknown. Callers treat nil as uniform
// attribution.
func (m *FeatureMemory) FeatureScores(query, resultID string) map[string]float64 {
	features, ok := m.cache.Get(memoryKey(query, resultID))
	if !ok {
		return nil
	}

	scores := make(map[string]float64, len(features))
	for k, v := range features {
		scores[k] = v
	}
	return scores
}

func memoryKey(query, resultID string) string {
	return query + "\x00" + resultID
}
