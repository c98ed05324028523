package benchmark

import (
	"fmt"
	"math/rand"

	"github.com/kkkqkx123/codebase-index-mcp/internal/search"
)

// Synthetic builds a reproducible workload of n queries.
//
// Each query has five candidates. The relevant result scores well across
// the semantic, recency and path channels but only moderately on keyword;
// a keyword-heavy decoy outranks it under static fusion. Adaptive
// reranking recovers the relevant result once feedback shifts weight away
// from the keyword channel.
func Synthetic(n int) Workload {
	rng := rand.New(rand.NewSource(42))

	workload := make(Workload, 0, n)
	for i := 0; i < n; i++ {
		query := fmt.Sprintf("query-%03d", i)
		relevantID := fmt.Sprintf("pkg/feature_%03d.go#Relevant", i)
		decoyID := fmt.Sprintf("pkg/decoy_%03d.go#Decoy", i)

		candidates := []search.SearchResult{
			{
				ID:    decoyID,
				Path:  fmt.Sprintf("pkg/decoy_%03d.go", i),
				Score: 0.90,
				Features: map[string]float64{
					search.FeatureKeyword:  0.95,
					search.FeatureSemantic: jitter(rng, 0.10),
					search.FeatureRecency:  jitter(rng, 0.10),
					search.FeaturePath:     jitter(rng, 0.10),
				},
			},
			{
				ID:    relevantID,
				Path:  fmt.Sprintf("pkg/feature_%03d.go", i),
				Score: 0.80,
				Features: map[string]float64{
					search.FeatureKeyword:  jitter(rng, 0.40),
					search.FeatureSemantic: jitter(rng, 0.85),
					search.FeatureRecency:  jitter(rng, 0.80),
					search.FeaturePath:     jitter(rng, 0.75),
				},
			},
		}

		for f := 0; f < 3; f++ {
			candidates = append(candidates, search.SearchResult{
				ID:    fmt.Sprintf("pkg/filler_%03d_%d.go#Filler", i, f),
				Path:  fmt.Sprintf("pkg/filler_%03d_%d.go", i, f),
				Score: 0.40 - 0.1*float64(f),
				Features: map[string]float64{
					search.FeatureKeyword:  jitter(rng, 0.30),
					search.FeatureSemantic: jitter(rng, 0.20),
					search.FeatureRecency:  jitter(rng, 0.30),
					search.FeaturePath:     jitter(rng, 0.20),
				},
			})
		}

		workload = append(workload, Query{
			Text:       query,
			Candidates: candidates,
			RelevantID: relevantID,
		})
	}

	return workload
}

// jitter perturbs a base value by ±0.05, clamped to [0, 1].
func jitter(rng *rand.Rand, base float64) float64 {
	v := base + (rng.Float64()-0.5)*0.1
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
