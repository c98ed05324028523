/*
Package benchmark measures the ranking improvement from adaptive reranking.

It replays a feedback workload through two rankers over the same result
sets:
 1. Static: results ordered by the fixed hybrid fusion score
 2. Adaptive: results reranked by feedback-learned feature weights

and reports mean reciprocal rank (MRR) and hit@1 for both, plus the
relative improvement.
*/
package benchmark

import (
	"fmt"

	"github.com/kkkqkx123/codebase-index-mcp/internal/learning"
	"github.com/kkkqkx123/codebase-index-mcp/internal/search"
)

// Query is one replayed search: a set of candidate results and the id of
// the result the user actually wanted.
type Query struct {
	Text       string
	Candidates []search.SearchResult
	RelevantID string
}

// Workload is an ordered sequence of replayed searches.
type Workload []Query

// RankingMetrics summarizes ranking quality over a workload.
type RankingMetrics struct {
	MRR     float64 `json:"mrr"`
	HitAt1  float64 `json:"hitAt1"`
	Queries int     `json:"queries"`
}

// Result compares static fusion ranking against adaptive reranking.
type Result struct {
	Static         RankingMetrics `json:"static"`
	Adaptive       RankingMetrics `json:"adaptive"`
	MRRImprovement float64        `json:"mrrImprovementPercent"`
	FinalWeights   map[string]float64 `json:"finalWeights"`
}

// Replay runs the workload through both rankers. The adaptive side submits
// relevance feedback after every query: 1.0 for the relevant result, 0.0
// for the top-ranked miss, so its weights drift toward the channels that
// surface relevant results.
func Replay(workload Workload) (*Result, error) {
	if len(workload) == 0 {
		return nil, fmt.Errorf("workload must not be empty")
	}

	memory := search.NewFeatureMemory()

	cfg := learning.DefaultConfig()
	cfg.Extractor = learning.NewRelevanceExtractor(memory)
	svc := learning.NewService(cfg, nil)
	defer svc.Stop()

	reranker := search.NewReranker(svc, memory)

	var static, adaptive rankAccumulator

	for _, q := range workload {
		static.observe(rankOf(q.Candidates, q.RelevantID))

		reranked := reranker.Rerank(q.Text, q.Candidates)
		rank := rankOf(reranked, q.RelevantID)
		adaptive.observe(rank)

		if err := svc.CollectFeedback(mustEvent(q.Text, q.RelevantID, 1.0)); err != nil {
			return nil, fmt.Errorf("feedback replay failed: %w", err)
		}
		if rank != 1 && len(reranked) > 0 && reranked[0].ID != q.RelevantID {
			if err := svc.CollectFeedback(mustEvent(q.Text, reranked[0].ID, 0.0)); err != nil {
				return nil, fmt.Errorf("feedback replay failed: %w", err)
			}
		}
	}

	// Commit any partial batch before reading the final weights.
	if err := svc.FlushFeedbackBuffer(); err != nil {
		return nil, fmt.Errorf("final flush failed: %w", err)
	}

	result := &Result{
		Static:       static.metrics(),
		Adaptive:     adaptive.metrics(),
		FinalWeights: svc.GetAdaptiveWeights(),
	}
	if result.Static.MRR > 0 {
		result.MRRImprovement = (result.Adaptive.MRR - result.Static.MRR) / result.Static.MRR * 100
	}
	return result, nil
}

// rankOf returns the 1-based position of id, or 0 when absent.
func rankOf(results []search.SearchResult, id string) int {
	for i, r := range results {
		if r.ID == id {
			return i + 1
		}
	}
	return 0
}

func mustEvent(query, resultID string, relevance float64) learning.FeedbackEvent {
	event, err := learning.NewFeedbackEvent(query, resultID, relevance)
	if err != nil {
		// Relevance values here are the constants 0.0 and 1.0.
		panic(err)
	}
	return event
}

// rankAccumulator folds per-query ranks into workload metrics.
type rankAccumulator struct {
	reciprocalSum float64
	hits          int
	queries       int
}

func (a *rankAccumulator) observe(rank int) {
	a.queries++
	if rank == 0 {
		return
	}
	a.reciprocalSum += 1.0 / float64(rank)
	if rank == 1 {
		a.hits++
	}
}

func (a *rankAccumulator) metrics() RankingMetrics {
	m := RankingMetrics{Queries: a.queries}
	if a.queries > 0 {
		m.MRR = a.reciprocalSum / float64(a.queries)
		m.HitAt1 = float64(a.hits) / float64(a.queries)
	}
	return m
}
