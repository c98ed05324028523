/*
Package search implements hybrid code search over an indexed codebase.

This package provides BM25-based keyword search with optional semantic
search via embeddings, weighted hybrid fusion, and adaptive reranking
driven by learned feature weights.
*/
package search

import "time"

// Feature channel names attached to every search result. These are the
// canonical keys the reranker multiplies by adaptive weights.
const (
	FeatureKeyword  = "keyword"
	FeatureSemantic = "semantic"
	FeatureRecency  = "recency"
	FeaturePath     = "path"
)

// CodeChunk represents a unit of indexed source code.
type CodeChunk struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Symbol   string    `json:"symbol"`
	Content  string    `json:"content"`
	Language string    `json:"language"`
	ModTime  time.Time `json:"modTime"`
}

// SearchResult represents a single search result with relevance score
// and the per-channel feature scores that produced it.
type SearchResult struct {
	ID       string             `json:"id"`
	Path     string             `json:"path"`
	Symbol   string             `json:"symbol"`
	Snippet  string             `json:"snippet"`
	Language string             `json:"language"`
	Score    float64            `json:"score"`
	ModTime  time.Time          `json:"-"`
	Features map[string]float64 `json:"features,omitempty"`
}

// snippetLength caps the content excerpt returned with each result.
const snippetLength = 240

func makeSnippet(content string) string {
	if len(content) <= snippetLength {
		return content
	}
	return content[:snippetLength]
}
