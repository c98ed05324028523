/*
Package storage provides data models for the model lifecycle and analytics system.

These models represent persisted weight snapshots, processed feedback batches,
search history, and cached chunk embeddings used by the learning system and
hybrid search functionality.
*/
package storage

import "time"

// ModelVersion is a persisted snapshot of the adaptive weights.
type ModelVersion struct {
	// VersionID is a semantic version string (e.g. "1.0.3").
	VersionID string `json:"version_id"`

	// Weights maps ranking feature names to their weight values.
	Weights map[string]float64 `json:"weights"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`
}

// BatchRecord summarizes one processed feedback batch for analytics.
// Individual feedback events are not persisted; only the aggregate is.
type BatchRecord struct {
	// BatchID is a unique identifier for this batch (UUID).
	BatchID string `json:"batch_id"`

	// Size is the number of feedback events in the batch.
	Size int `json:"size"`

	// Positive is the number of events classified as positive.
	Positive int `json:"positive"`

	// Negative is the number of events classified as negative.
	Negative int `json:"negative"`

	// Accuracy is the running model accuracy after this batch.
	Accuracy float64 `json:"accuracy"`

	// Algorithm is the update rule that was applied ("ema", "confidence", "regret").
	Algorithm string `json:"algorithm"`

	// Timestamp is when the batch was committed.
	Timestamp time.Time `json:"timestamp"`
}

// SearchRecord represents a search query for analytics.
type SearchRecord struct {
	// SearchID is a unique identifier for this search (UUID).
	SearchID string `json:"search_id"`

	// QueryHash is the SHA256 hash of the search query for privacy.
	QueryHash string `json:"query_hash"`

	// Timestamp is when the search was performed.
	Timestamp time.Time `json:"timestamp"`

	// ResultsCount is the number of results returned.
	ResultsCount int `json:"results_count"`
}

// ChunkEmbedding represents a cached embedding vector for a code chunk.
type ChunkEmbedding struct {
	// ChunkID identifies the code chunk.
	ChunkID string `json:"chunk_id"`

	// Vector is the embedding vector (serialized as JSON).
	Vector []float32 `json:"vector"`

	// Version is the model version used to generate the embedding.
	Version string `json:"version"`

	// CreatedAt is when the embedding was generated.
	CreatedAt time.Time `json:"created_at"`
}
